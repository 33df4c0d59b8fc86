// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package idl

import (
	"context"
	"fmt"

	"gopkg.microglot.org/avdl.go/internal/optional"
)

type Closer interface {
	Close(ctx context.Context) error
}

type Iterator[T any] interface {
	Next(ctx context.Context) optional.Optional[T]
	Closer
}

type Filter[T any] interface {
	Keep(ctx context.Context, v T) bool
}

type Reader interface {
	Read(ctx context.Context, size int32) ([]byte, error)
}

type FileBody interface {
	Reader
	Closer
}

type FileKind uint32

const (
	FileKindNone FileKind = iota
	FileKindIDL
	FileKindProtocol
	FileKindSchema
)

func (k FileKind) String() string {
	switch k {
	case FileKindNone:
		return "none"
	case FileKindIDL:
		return "idl"
	case FileKindProtocol:
		return "protocol"
	case FileKindSchema:
		return "schema"
	default:
		return fmt.Sprintf("unkown-%d", k)
	}
}

type File interface {
	Path(ctx context.Context) string
	Kind(ctx context.Context) FileKind
	Body(ctx context.Context) (FileBody, error)
}

type FileSystem interface {
	Open(ctx context.Context, uri string) ([]File, error)
	Write(ctx context.Context, uri string, content string) error
}

// ImportKind is the kind name given in an IDL import statement. The resolver
// only understands the three constants below. Any other value is carried
// through parsing and rejected when the import is resolved.
type ImportKind string

const (
	ImportKindIDL      ImportKind = "idl"
	ImportKindProtocol ImportKind = "protocol"
	ImportKindSchema   ImportKind = "schema"
)

// Import is a single `import <kind> "<name>";` statement. Name is relative to
// the directory of the file that contains the statement.
type Import struct {
	Kind ImportKind
	Name string
}

// ImportHook loads the content of an imported file. An empty result with a
// nil error means the file was already imported and must be skipped.
// Implementations own any timeout, retry, or caching policy.
type ImportHook interface {
	Import(ctx context.Context, uri string, kind ImportKind) (string, error)
}

type Compiler interface {
	Compile(ctx context.Context, req *CompileRequest) (*CompileResponse, error)
}

type CompileRequest struct {
	Files      []string
	OneWayVoid bool
}

type CompileResponse struct {
	Results []*CompileResult
}

// CompileResult is the assembled attribute tree of one compile target.
type CompileResult struct {
	URI   string
	Kind  FileKind
	Attrs *Map
}

type Location struct {
	Line   int32
	Column int32
	Offset int64
}

type Token struct {
	Type  TokenType
	Value string
	// JSON is only set on TokenTypeJSON tokens.
	JSON   Value
	Offset int
}

type TokenType uint16

const (
	TokenTypeUnknown  TokenType = 0
	TokenTypeNumber   TokenType = 1
	TokenTypeName     TokenType = 2
	TokenTypeString   TokenType = 3
	TokenTypeOperator TokenType = 4
	TokenTypeJavadoc  TokenType = 5
	TokenTypeJSON     TokenType = 6
	TokenTypeEOF      TokenType = 7
)

func (t TokenType) String() string {
	switch t {
	case TokenTypeNumber:
		return "number"
	case TokenTypeName:
		return "name"
	case TokenTypeString:
		return "string"
	case TokenTypeOperator:
		return "operator"
	case TokenTypeJavadoc:
		return "javadoc"
	case TokenTypeJSON:
		return "json"
	case TokenTypeEOF:
		return "(eof)"
	default:
		return fmt.Sprintf("unknown-%d", t)
	}
}
