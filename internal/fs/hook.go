// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"fmt"
	"sync"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/target"
)

// ImportHookFunc adapts a plain function to idl.ImportHook.
type ImportHookFunc func(ctx context.Context, uri string, kind idl.ImportKind) (string, error)

func (f ImportHookFunc) Import(ctx context.Context, uri string, kind idl.ImportKind) (string, error) {
	return f(ctx, uri, kind)
}

type importHook struct {
	fs   idl.FileSystem
	lock sync.Mutex
	seen map[string]bool
}

// NewImportHook returns a hook that loads files from the given FileSystem.
// Each normalised URI is only loaded once. Later requests for the same URI,
// of any kind, return empty content so the resolver skips them. A URI is
// marked as seen before it is loaded.
//
// The returned hook is safe for concurrent use but its state is meant for a
// single assembly. Create a new hook for each independent root file.
func NewImportHook(fsys idl.FileSystem) idl.ImportHook {
	return &importHook{
		fs:   fsys,
		seen: make(map[string]bool),
	}
}

func (h *importHook) Import(ctx context.Context, uri string, kind idl.ImportKind) (string, error) {
	key := target.Normalize(uri)
	h.lock.Lock()
	if h.seen[key] {
		h.lock.Unlock()
		return "", nil
	}
	h.seen[key] = true
	h.lock.Unlock()

	files, err := h.fs.Open(ctx, key)
	if err != nil {
		return "", exc.WithURI(err, key, exc.CodeImportFailed)
	}
	if len(files) != 1 {
		return "", exc.New(exc.Location{URI: key}, exc.CodeImportFailed, fmt.Sprintf("%s import %s names a directory", kind, key))
	}
	return ReadFile(ctx, files[0])
}

// ImportHookUnsupported fails every import. It is the default hook on hosts
// without file access.
var ImportHookUnsupported idl.ImportHook = ImportHookFunc(func(ctx context.Context, uri string, kind idl.ImportKind) (string, error) {
	return "", exc.New(exc.Location{URI: uri}, exc.CodeUnsuportedFileSystemOperation, "imports are unsupported on this host")
})
