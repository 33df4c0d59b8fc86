// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

//go:build !(js && wasm)

package compiler

import (
	"os"

	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

// NewDefaultImportHook returns a fresh hook reading from NewDefaultFS. A nil
// lookup uses the process environment.
func NewDefaultImportHook(lookup func(string) (string, bool)) (idl.ImportHook, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	dfs, err := NewDefaultFS(lookup)
	if err != nil {
		return nil, err
	}
	return fs.NewImportHook(dfs), nil
}
