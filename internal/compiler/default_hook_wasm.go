// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

//go:build js && wasm

package compiler

import (
	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

// NewDefaultImportHook fails every import because there is no file access in
// the browser. Callers must provide their own hook.
func NewDefaultImportHook(lookup func(string) (string, bool)) (idl.ImportHook, error) {
	return fs.ImportHookUnsupported, nil
}
