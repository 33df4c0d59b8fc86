// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"path/filepath"

	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

// NewDefaultFS returns the search path used when no FileSystem is configured:
// the working directory, then the shared data directories of the platform,
// then the file system root so that absolute paths resolve as themselves.
func NewDefaultFS(lookup func(string) (string, bool)) (idl.FileSystem, error) {
	roots := append([]string{"."}, getDefaultRoots(lookup)...)
	roots = append(roots, string(filepath.Separator))
	f := make(fs.FileSystemMulti, 0, len(roots))
	for _, root := range roots {
		absRoot, errAbs := filepath.Abs(root)
		if errAbs != nil {
			return nil, errAbs
		}
		rf, err := fs.NewFileSystemLocal(absRoot)
		if err != nil {
			return nil, err
		}
		f = append(f, rf)
	}
	return f, nil
}

// pathListFromEnv splits a search path variable, dropping empty entries.
func pathListFromEnv(lookup func(string) (string, bool), name string) []string {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(v) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
