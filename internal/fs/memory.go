// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/target"
)

type fileSystemMemory struct {
	lock  sync.RWMutex
	files map[string]string
}

// NewFileSystemMemory returns a FileSystem backed by an in-memory import
// table. Keys are normalised the same way compile targets are, so "a.avdl"
// and "/a.avdl" name the same file. Opening a directory returns the known
// files directly inside it in lexical order.
func NewFileSystemMemory(files map[string]string) idl.FileSystem {
	m := &fileSystemMemory{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[target.Normalize(k)] = v
	}
	return m
}

func (m *fileSystemMemory) Open(ctx context.Context, uri string) ([]idl.File, error) {
	key := target.Normalize(uri)
	m.lock.RLock()
	defer m.lock.RUnlock()
	if content, ok := m.files[key]; ok {
		return []idl.File{NewFileString(key, content, KindOf(key))}, nil
	}
	prefix := strings.TrimSuffix(key, "/") + "/"
	var names []string
	for name := range m.files {
		if !strings.HasPrefix(name, prefix) || strings.Contains(name[len(prefix):], "/") {
			continue
		}
		if KindOf(name) == idl.FileKindNone {
			continue
		}
		names = append(names, name)
	}
	if len(names) < 1 {
		return nil, exc.New(exc.Location{URI: key}, exc.CodeFileNotFound, fmt.Sprintf("%s does not exist", key))
	}
	sort.Strings(names)
	files := make([]idl.File, 0, len(names))
	for _, name := range names {
		files = append(files, NewFileString(name, m.files[name], KindOf(name)))
	}
	return files, nil
}

func (m *fileSystemMemory) Write(ctx context.Context, uri string, content string) error {
	key := target.Normalize(uri)
	if path.Base(key) == "/" {
		return exc.New(exc.Location{URI: uri}, exc.CodeUnsuportedFileSystemOperation, "cannot write to the root")
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.files[key] = content
	return nil
}
