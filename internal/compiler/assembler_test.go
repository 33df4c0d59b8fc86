// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

type recordingHook struct {
	next  idl.ImportHook
	lock  sync.Mutex
	calls []string
	after func(uri string)
}

func (h *recordingHook) Import(ctx context.Context, uri string, kind idl.ImportKind) (string, error) {
	h.lock.Lock()
	h.calls = append(h.calls, string(kind)+" "+uri)
	h.lock.Unlock()
	content, err := h.next.Import(ctx, uri, kind)
	if h.after != nil {
		h.after(uri)
	}
	return content, err
}

func newRecordingHook(files map[string]string) *recordingHook {
	return &recordingHook{next: fs.NewImportHook(fs.NewFileSystemMemory(files))}
}

func typeNames(t *testing.T, attrs *idl.Map) []string {
	t.Helper()
	types, ok := attrs.Get("types")
	if !ok {
		return nil
	}
	require.True(t, types.IsList())
	names := make([]string, 0, len(types.Items()))
	for _, typ := range types.Items() {
		require.True(t, typ.IsMap(), typ.String())
		name, ok := typ.Map().Get("name")
		require.True(t, ok, typ.String())
		names = append(names, name.Text())
	}
	return names
}

func TestAssembleNamespaces(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		files    map[string]string
		expected string
	}{
		{
			name: "prefix of dotted protocol name",
			files: map[string]string{
				"/root.avdl":        `protocol Root { import idl "com/foo/bar.avdl"; record Own { int x; } }`,
				"/com/foo/bar.avdl": `protocol com.foo.Bar { record Nested { int y; } @namespace("explicit.ns") record Kept { int z; } }`,
			},
			expected: `{"protocol":"Root","types":[` +
				`{"type":"record","name":"Nested","fields":[{"type":"int","name":"y"}],"namespace":"com.foo"},` +
				`{"namespace":"explicit.ns","type":"record","name":"Kept","fields":[{"type":"int","name":"z"}]},` +
				`{"type":"record","name":"Own","fields":[{"type":"int","name":"x"}]}` +
				`]}`,
		},
		{
			name: "protocol namespace wins over name prefix",
			files: map[string]string{
				"/root.avdl": `protocol R { import idl "c.avdl"; }`,
				"/c.avdl":    `@namespace("org.ns") protocol a.b.C { record T {} }`,
			},
			expected: `{"protocol":"R","types":[{"type":"record","name":"T","fields":[],"namespace":"org.ns"}]}`,
		},
		{
			name: "undotted protocol name",
			files: map[string]string{
				"/root.avdl": `protocol R { import idl "flat.avdl"; }`,
				"/flat.avdl": `protocol Flat { enum E { A } }`,
			},
			expected: `{"protocol":"R","types":[{"type":"enum","name":"E","symbols":["A"],"namespace":""}]}`,
		},
		{
			name: "root types are left alone",
			files: map[string]string{
				"/root.avdl": `protocol a.b.R { record T {} }`,
			},
			expected: `{"protocol":"a.b.R","types":[{"type":"record","name":"T","fields":[]}]}`,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			a := &Assembler{Hook: fs.NewImportHook(fs.NewFileSystemMemory(testCase.files))}
			attrs, err := a.Assemble(context.Background(), "/root.avdl")
			require.NoError(t, err)
			require.Equal(t, testCase.expected, attrs.String())
		})
	}
}

func TestAssembleOrder(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		root     string
		files    map[string]string
		expected []string
		calls    []string
	}{
		{
			name: "depth first in declaration order",
			root: "/root.avdl",
			files: map[string]string{
				"/root.avdl":  `protocol R { import idl "lib/a.avdl"; import idl "b.avdl"; record RT {} }`,
				"/lib/a.avdl": `protocol A { import idl "../c.avdl"; record AT1 {} record AT2 {} }`,
				"/b.avdl":     `protocol B { record BT {} }`,
				"/c.avdl":     `protocol C { record CT {} }`,
			},
			expected: []string{"CT", "AT1", "AT2", "BT", "RT"},
			calls:    []string{"idl /root.avdl", "idl /lib/a.avdl", "idl /c.avdl", "idl /b.avdl"},
		},
		{
			name: "diamond keeps the first occurrence",
			root: "/root.avdl",
			files: map[string]string{
				"/root.avdl": `protocol R { import idl "a.avdl"; import idl "b.avdl"; record RT {} }`,
				"/a.avdl":    `protocol A { import idl "c.avdl"; record AT {} }`,
				"/b.avdl":    `protocol B { import idl "c.avdl"; record BT {} }`,
				"/c.avdl":    `protocol C { record CT {} }`,
			},
			expected: []string{"CT", "AT", "BT", "RT"},
			calls:    []string{"idl /root.avdl", "idl /a.avdl", "idl /c.avdl", "idl /b.avdl", "idl /c.avdl"},
		},
		{
			name: "cycle",
			root: "/a.avdl",
			files: map[string]string{
				"/a.avdl": `protocol A { import idl "b.avdl"; record AT {} }`,
				"/b.avdl": `protocol B { import idl "a.avdl"; record BT {} }`,
			},
			expected: []string{"BT", "AT"},
			calls:    []string{"idl /a.avdl", "idl /b.avdl", "idl /a.avdl"},
		},
		{
			name: "self import",
			root: "/a.avdl",
			files: map[string]string{
				"/a.avdl": `protocol A { import idl "a.avdl"; record AT {} }`,
			},
			expected: []string{"AT"},
			calls:    []string{"idl /a.avdl", "idl /a.avdl"},
		},
		{
			name: "same file through different kinds",
			root: "/root.avdl",
			files: map[string]string{
				"/root.avdl": `protocol R { import schema "t.avsc"; import protocol "t.avsc"; }`,
				"/t.avsc":    `{"type":"fixed","name":"T","size":1}`,
			},
			expected: []string{"T"},
			calls:    []string{"idl /root.avdl", "schema /t.avsc", "protocol /t.avsc"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			hook := newRecordingHook(testCase.files)
			a := &Assembler{Hook: hook}
			attrs, err := a.Assemble(context.Background(), testCase.root)
			require.NoError(t, err)
			require.Equal(t, testCase.expected, typeNames(t, attrs))
			require.Equal(t, testCase.calls, hook.calls)
		})
	}
}

func TestAssembleMessages(t *testing.T) {
	t.Parallel()

	t.Run("merged into a root without messages", func(t *testing.T) {
		t.Parallel()

		a := &Assembler{Hook: fs.NewImportHook(fs.NewFileSystemMemory(map[string]string{
			"/root.avdl": `protocol R { import idl "x.avdl"; }`,
			"/x.avdl":    `protocol X { int add(int a); }`,
		}))}
		attrs, err := a.Assemble(context.Background(), "/root.avdl")
		require.NoError(t, err)
		require.Equal(t, `{"protocol":"R","messages":{"add":{"response":"int","request":[{"type":"int","name":"a"}]}}}`, attrs.String())
	})

	t.Run("own messages come first", func(t *testing.T) {
		t.Parallel()

		a := &Assembler{Hook: fs.NewImportHook(fs.NewFileSystemMemory(map[string]string{
			"/root.avdl": `protocol R { import idl "x.avdl"; void ping(); }`,
			"/x.avdl":    `protocol X { void pong(); }`,
		}))}
		attrs, err := a.Assemble(context.Background(), "/root.avdl")
		require.NoError(t, err)
		messages, ok := attrs.Get("messages")
		require.True(t, ok)
		require.Equal(t, []string{"ping", "pong"}, messages.Map().Keys())
	})

	t.Run("empty imported messages", func(t *testing.T) {
		t.Parallel()

		a := &Assembler{Hook: fs.NewImportHook(fs.NewFileSystemMemory(map[string]string{
			"/root.avdl": `protocol R { import protocol "p.avpr"; }`,
			"/p.avpr":    `{"protocol":"P","messages":{}}`,
		}))}
		attrs, err := a.Assemble(context.Background(), "/root.avdl")
		require.NoError(t, err)
		require.Equal(t, `{"protocol":"R"}`, attrs.String())
	})

	t.Run("duplicate across imports", func(t *testing.T) {
		t.Parallel()

		a := &Assembler{Hook: fs.NewImportHook(fs.NewFileSystemMemory(map[string]string{
			"/root.avdl": `protocol R { import idl "x.avdl"; void ping(); }`,
			"/x.avdl":    `protocol X { void ping(); }`,
		}))}
		_, err := a.Assemble(context.Background(), "/root.avdl")
		require.Error(t, err)
		e, ok := err.(exc.Exception)
		require.True(t, ok)
		require.Equal(t, exc.CodeDuplicateMessage, e.Code())
		require.Equal(t, "/root.avdl", e.Location().URI)
		require.Equal(t, "duplicate message: ping", e.Message())
	})
}

func TestAssembleJSONImports(t *testing.T) {
	t.Parallel()

	a := &Assembler{Hook: fs.NewImportHook(fs.NewFileSystemMemory(map[string]string{
		"/root.avdl": `protocol R { import protocol "p.avpr"; import schema "e.avsc"; }`,
		"/p.avpr":    `{"protocol":"P","namespace":"","types":[{"type":"fixed","name":"F","size":2}],"messages":{"m":{"request":[],"response":"null"}}}`,
		"/e.avsc":    `{"type":"enum","name":"E","namespace":"org.x","symbols":["A"]}`,
	}))}
	attrs, err := a.Assemble(context.Background(), "/root.avdl")
	require.NoError(t, err)
	expected := `{"protocol":"R","messages":{"m":{"request":[],"response":"null"}},"types":[` +
		`{"type":"fixed","name":"F","size":2,"namespace":""},` +
		`{"type":"enum","name":"E","namespace":"org.x","symbols":["A"]}` +
		`]}`
	require.Equal(t, expected, attrs.String())
}

func TestAssembleErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		files map[string]string
		code  string
		uri   string
		calls []string
	}{
		{
			name: "invalid import kind is rejected before loading",
			files: map[string]string{
				"/root.avdl": `protocol R { import foo "x.avdl"; }`,
				"/x.avdl":    `protocol X {}`,
			},
			code:  exc.CodeInvalidImportKind,
			uri:   "/root.avdl",
			calls: []string{"idl /root.avdl"},
		},
		{
			name: "parse error names the imported file",
			files: map[string]string{
				"/root.avdl": `protocol R { import idl "bad.avdl"; }`,
				"/bad.avdl":  `protocol B {`,
			},
			code:  exc.CodeUnexpectedEOF,
			uri:   "/bad.avdl",
			calls: []string{"idl /root.avdl", "idl /bad.avdl"},
		},
		{
			name: "missing import",
			files: map[string]string{
				"/root.avdl": `protocol R { import idl "missing.avdl"; }`,
			},
			code:  exc.CodeFileNotFound,
			uri:   "/missing.avdl",
			calls: []string{"idl /root.avdl", "idl /missing.avdl"},
		},
		{
			name: "missing root",
			files: map[string]string{
				"/other.avdl": `protocol O {}`,
			},
			code:  exc.CodeFileNotFound,
			uri:   "/root.avdl",
			calls: []string{"idl /root.avdl"},
		},
		{
			name: "invalid JSON import",
			files: map[string]string{
				"/root.avdl": `protocol R { import schema "bad.avsc"; }`,
				"/bad.avsc":  `{"type":`,
			},
			code:  exc.CodeInvalidJSON,
			uri:   "/bad.avsc",
			calls: []string{"idl /root.avdl", "schema /bad.avsc"},
		},
		{
			name: "protocol import that is not an object",
			files: map[string]string{
				"/root.avdl": `protocol R { import protocol "p.avpr"; }`,
				"/p.avpr":    `[1]`,
			},
			code:  exc.CodeImportFailed,
			uri:   "/p.avpr",
			calls: []string{"idl /root.avdl", "protocol /p.avpr"},
		},
		{
			name: "imported types that are not a list",
			files: map[string]string{
				"/root.avdl": `protocol R { import protocol "p.avpr"; }`,
				"/p.avpr":    `{"types":{}}`,
			},
			code:  exc.CodeImportFailed,
			uri:   "/root.avdl",
			calls: []string{"idl /root.avdl", "protocol /p.avpr"},
		},
		{
			name: "directory import",
			files: map[string]string{
				"/root.avdl":  `protocol R { import idl "dir"; }`,
				"/dir/a.avdl": `protocol A {}`,
				"/dir/b.avdl": `protocol B {}`,
			},
			code:  exc.CodeImportFailed,
			uri:   "/dir",
			calls: []string{"idl /root.avdl", "idl /dir"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			hook := newRecordingHook(testCase.files)
			a := &Assembler{Hook: hook}
			attrs, err := a.Assemble(context.Background(), "/root.avdl")
			require.Error(t, err)
			require.Nil(t, attrs)
			e, ok := err.(exc.Exception)
			require.True(t, ok, err.Error())
			require.Equal(t, testCase.code, e.Code(), err.Error())
			require.Equal(t, testCase.uri, e.Location().URI)
			require.Equal(t, testCase.calls, hook.calls)
		})
	}
}

func TestAssembleSkippedRoot(t *testing.T) {
	t.Parallel()

	hook := fs.ImportHookFunc(func(ctx context.Context, uri string, kind idl.ImportKind) (string, error) {
		return "", nil
	})
	attrs, err := (&Assembler{Hook: hook}).Assemble(context.Background(), "/root.avdl")
	require.NoError(t, err)
	require.Equal(t, "{}", attrs.String())
}

func TestAssembleWithoutHook(t *testing.T) {
	t.Parallel()

	_, err := (&Assembler{}).Assemble(context.Background(), "/root.avdl")
	require.Error(t, err)
	require.Equal(t, exc.CodeImportFailed, exc.CodeOf(err))
}

func TestAssembleCanceled(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/root.avdl": `protocol R { import idl "a.avdl"; import idl "b.avdl"; }`,
		"/a.avdl":    `protocol A { record AT {} }`,
		"/b.avdl":    `protocol B { record BT {} }`,
	}

	t.Run("before start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		hook := newRecordingHook(files)
		_, err := (&Assembler{Hook: hook}).Assemble(ctx, "/root.avdl")
		require.True(t, errors.Is(err, context.Canceled))
		require.Empty(t, hook.calls)
	})

	t.Run("between imports", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		hook := newRecordingHook(files)
		hook.after = func(uri string) {
			if uri == "/a.avdl" {
				cancel()
			}
		}
		_, err := (&Assembler{Hook: hook}).Assemble(ctx, "/root.avdl")
		require.True(t, errors.Is(err, context.Canceled))
		require.Equal(t, []string{"idl /root.avdl", "idl /a.avdl"}, hook.calls)
	})
}

func TestAssembleOptions(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hook := fs.NewImportHook(fs.NewFileSystemMemory(map[string]string{
		"/root.avdl": `protocol R { import idl "a.avdl"; void ping(); }`,
		"/a.avdl":    `protocol A { record AT {} }`,
	}))
	attrs, err := Assemble(
		context.Background(),
		"/root.avdl",
		AssembleWithImportHook(hook),
		AssembleWithOneWayVoid(true),
		AssembleWithLogger(logger),
	)
	require.NoError(t, err)
	require.Equal(t, `{"protocol":"R","messages":{"ping":{"response":"null","request":[],"one-way":true}},"types":[{"type":"record","name":"AT","fields":[],"namespace":""}]}`, attrs.String())
	out := logs.String()
	require.True(t, strings.Contains(out, "msg=parsing"), out)
	require.True(t, strings.Contains(out, "import=/a.avdl"), out)
}
