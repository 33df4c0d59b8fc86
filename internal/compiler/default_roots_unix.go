// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

//go:build aix || darwin || dragonfly || freebsd || (js && wasm) || linux || netbsd || openbsd || solaris

package compiler

import (
	"os"
	"path/filepath"
	"strings"
)

// getDefaultRoots lists the shared IDL directories of the host. Entries of
// AVDL_PATH come first, then avro/idl under $XDG_DATA_HOME and under each
// entry of $XDG_DATA_DIRS.
func getDefaultRoots(lookup func(string) (string, bool)) []string {
	expand := func(s string) string {
		v, _ := lookup(s)
		return v
	}
	roots := pathListFromEnv(lookup, "AVDL_PATH")

	dataHome, _ := lookup("XDG_DATA_HOME")
	if dataHome == "" {
		if home, _ := lookup("HOME"); home != "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		roots = append(roots, filepath.Join(os.Expand(dataHome, expand), "avro", "idl"))
	}

	xdgDirs, _ := lookup("XDG_DATA_DIRS")
	if xdgDirs == "" {
		xdgDirs = "/usr/local/share/:/usr/share/"
	}
	for _, dataDir := range strings.Split(xdgDirs, ":") {
		if dataDir == "" {
			continue
		}
		roots = append(roots, filepath.Join(os.Expand(dataDir, expand), "avro", "idl"))
	}
	return roots
}
