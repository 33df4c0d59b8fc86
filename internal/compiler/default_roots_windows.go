// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package compiler

import (
	"path/filepath"
)

func getDefaultRoots(lookup func(string) (string, bool)) []string {
	roots := pathListFromEnv(lookup, "AVDL_PATH")
	localAppData, _ := lookup("LOCALAPPDATA")
	if localAppData == "" {
		if userprofile, _ := lookup("USERPROFILE"); userprofile != "" {
			localAppData = filepath.Join(userprofile, "AppData", "Local")
		}
	}
	if localAppData != "" {
		roots = append(roots, filepath.Join(localAppData, "avro", "idl"))
	}
	programData, _ := lookup("ProgramData")
	if programData == "" {
		if systemdrive, _ := lookup("SystemDrive"); systemdrive != "" {
			programData = filepath.Join(systemdrive+`\`, "ProgramData")
		}
	}
	if programData != "" {
		roots = append(roots, filepath.Join(programData, "avro", "idl"))
	}
	return roots
}
