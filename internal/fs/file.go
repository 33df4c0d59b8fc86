// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

// NewFileString wraps static string content in idl.File.
func NewFileString(path string, content string, kind idl.FileKind) idl.File {
	return NewFileFN(path, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}, kind)
}

type fileIOFunc struct {
	path string
	kind idl.FileKind
	body func() (io.ReadCloser, error)
}

// NewFileFN is intended to wrap actual file based content in the idl.File
// interface. The given body function is used each time there is a call to the
// idl.File.Body method so it must return a new io.ReadCloser handle.
func NewFileFN(path string, body func() (io.ReadCloser, error), kind idl.FileKind) idl.File {
	return &fileIOFunc{
		path: path,
		kind: kind,
		body: body,
	}
}

func (f *fileIOFunc) Path(ctx context.Context) string {
	return f.path
}
func (f *fileIOFunc) Kind(ctx context.Context) idl.FileKind {
	return f.kind
}
func (f *fileIOFunc) Body(ctx context.Context) (idl.FileBody, error) {
	rc, err := f.body()
	if err != nil {
		return nil, fsErr(f.path, err)
	}
	return &fileBody{path: f.path, r: bufio.NewReader(rc), c: rc}, nil
}

// fileBody reuses one buffer between reads. A returned slice is only valid
// until the next call to Read. The end of the content is signalled by an
// exception with CodeEOF alongside the final bytes.
type fileBody struct {
	path string
	r    *bufio.Reader
	c    io.Closer
	b    []byte
}

func (self *fileBody) Read(ctx context.Context, size int32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, exc.New(exc.Location{URI: self.path}, exc.CodeUnknownFatal, fmt.Sprintf("invalid read size %d", size))
	}
	if len(self.b) < int(size) {
		self.b = make([]byte, size)
	}
	count, err := io.ReadFull(self.r, self.b[:size])
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return self.b[:count], exc.Wrap(exc.Location{URI: self.path}, exc.CodeEOF, io.EOF)
	case err != nil:
		return nil, fsErr(self.path, err)
	}
	return self.b[:count], nil
}

func (self *fileBody) Close(ctx context.Context) error {
	return self.c.Close()
}

const readChunk = 32 * 1024

// ReadFile loads the whole content of a file as text.
func ReadFile(ctx context.Context, f idl.File) (string, error) {
	body, err := f.Body(ctx)
	if err != nil {
		return "", exc.WithURI(err, f.Path(ctx), exc.CodeUnknownFatal)
	}
	defer body.Close(ctx)
	var b strings.Builder
	for {
		chunk, err := body.Read(ctx, readChunk)
		b.Write(chunk)
		if err != nil {
			if exc.CodeOf(err) == exc.CodeEOF {
				return b.String(), nil
			}
			return "", exc.WithURI(err, f.Path(ctx), exc.CodeUnknownFatal)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}
