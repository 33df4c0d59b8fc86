// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/iter"
	"gopkg.microglot.org/avdl.go/internal/optional"
)

const (
	tokenizerBacktrackDepth = 3
)

// mark is one entry of the tokenizer history. rewind is the scan position
// before whitespace and comments were skipped. start is where the token
// itself begins and is used for error positions.
type mark struct {
	rewind int
	start  int
}

// Tokenizer splits Avro IDL text into tokens on demand. Only the positions of
// the last three tokens are remembered so Prev can rewind at most three
// times in a row.
type Tokenizer struct {
	uri     string
	text    string
	pos     int
	history *iter.Bounded[mark]
}

func NewTokenizer(uri string, text string) *Tokenizer {
	return &Tokenizer{
		uri:     uri,
		text:    text,
		history: iter.NewBounded[mark](tokenizerBacktrackDepth),
	}
}

// Next returns the next token. Javadoc comments are skipped like any other
// comment.
func (self *Tokenizer) Next() (*idl.Token, error) {
	return self.next(false, false)
}

// NextJavadoc is like Next but returns a javadoc comment as a token when one
// comes first.
func (self *Tokenizer) NextJavadoc() (*idl.Token, error) {
	return self.next(true, false)
}

// Expect returns the next token and fails if it is not of the given type.
// Expecting TokenTypeJSON scans one embedded JSON value instead of a regular
// token.
func (self *Tokenizer) Expect(t idl.TokenType) (*idl.Token, error) {
	tok, err := self.next(false, t == idl.TokenTypeJSON)
	if err != nil {
		return nil, err
	}
	if tok.Type != t {
		return nil, self.mismatch(t.String(), tok)
	}
	return tok, nil
}

// ExpectValue returns the next token and fails if its text is not v.
func (self *Tokenizer) ExpectValue(v string) (*idl.Token, error) {
	tok, err := self.next(false, false)
	if err != nil {
		return nil, err
	}
	if tok.Type == idl.TokenTypeEOF || tok.Value != v {
		return nil, self.mismatch(v, tok)
	}
	return tok, nil
}

// Prev rewinds the tokenizer to the position it had before the most recent
// call to Next. Rewinding more than three times in a row is a bug in the
// caller and panics with a backtrackError.
func (self *Tokenizer) Prev() *Tokenizer {
	m := self.history.Pop()
	if !m.IsPresent() {
		panic(backtrackError{self.Error(exc.CodeBacktrackExhausted, "cannot backtrack more")})
	}
	self.pos = m.Value().rewind
	return self
}

// Error builds an exception positioned at the start of the most recently
// returned token, or at the beginning of the text when there is none.
func (self *Tokenizer) Error(code string, message string) exc.Exception {
	offset := 0
	if m := self.history.Peek(); m.IsPresent() {
		offset = m.Value().start
	}
	return self.errorAt(offset, code, message)
}

func (self *Tokenizer) errorAt(offset int, code string, message string) exc.Exception {
	return exc.New(self.location(offset), code, message)
}

func (self *Tokenizer) location(offset int) exc.Location {
	if offset > len(self.text) {
		offset = len(self.text)
	}
	prefix := self.text[:offset]
	line := strings.Count(prefix, "\n") + 1
	col := utf8.RuneCountInString(prefix[strings.LastIndexByte(prefix, '\n')+1:]) + 1
	return exc.Location{
		URI: self.uri,
		Location: idl.Location{
			Line:   clampInt32(line),
			Column: clampInt32(col),
			Offset: int64(offset),
		},
	}
}

func clampInt32(v int) int32 {
	n, err := safecast.Conv[int32](v)
	if err != nil {
		return math.MaxInt32
	}
	return n
}

func (self *Tokenizer) mismatch(expected string, got *idl.Token) exc.Exception {
	if got.Type == idl.TokenTypeEOF {
		return self.errorAt(got.Offset, exc.CodeUnexpectedEOF, fmt.Sprintf("expected %s but got %s", expected, got.Type))
	}
	return self.errorAt(got.Offset, exc.CodeUnexpectedToken, fmt.Sprintf("expected %s but got %s", expected, got.Value))
}

func (self *Tokenizer) next(emitJavadoc bool, json bool) (*idl.Token, error) {
	rewind := self.pos
	doc, err := self.skip(emitJavadoc)
	if err != nil {
		return nil, err
	}
	if doc.IsPresent() {
		self.history.Push(mark{rewind: rewind, start: doc.Value().Offset})
		return doc.Value(), nil
	}
	start := self.pos
	self.history.Push(mark{rewind: rewind, start: start})
	if start >= len(self.text) {
		return &idl.Token{Type: idl.TokenTypeEOF, Offset: start}, nil
	}
	c := self.text[start]
	var tok *idl.Token
	switch {
	case json:
		end := jsonEnd(self.text, start)
		if end < 0 {
			return nil, self.errorAt(start, exc.CodeInvalidJSON, "invalid JSON")
		}
		v, err := idl.DecodeJSON(self.text[start:end])
		if err != nil {
			return nil, self.errorAt(start, exc.CodeInvalidJSON, "invalid JSON")
		}
		self.pos = end
		tok = &idl.Token{Type: idl.TokenTypeJSON, Value: self.text[start:end], JSON: v}
	case c == '"':
		end, err := self.endOfString(start)
		if err != nil {
			return nil, err
		}
		self.pos = end
		tok = &idl.Token{Type: idl.TokenTypeString, Value: self.text[start:end]}
	case isDigit(c):
		self.pos = self.endOf(start, isDigit)
		tok = &idl.Token{Type: idl.TokenTypeNumber, Value: self.text[start:self.pos]}
	case isNameStart(c):
		self.pos = self.endOf(start, isNamePart)
		tok = &idl.Token{Type: idl.TokenTypeName, Value: strings.ReplaceAll(self.text[start:self.pos], "`", "")}
	default:
		_, size := utf8.DecodeRuneInString(self.text[start:])
		self.pos = start + size
		tok = &idl.Token{Type: idl.TokenTypeOperator, Value: self.text[start:self.pos]}
	}
	tok.Offset = start
	return tok, nil
}

// skip moves past whitespace and comments. When emitJavadoc is set the first
// non-empty /** */ comment stops the scan and is returned as a token.
func (self *Tokenizer) skip(emitJavadoc bool) (optional.Optional[*idl.Token], error) {
	for {
		for self.pos < len(self.text) {
			r, size := utf8.DecodeRuneInString(self.text[self.pos:])
			if !unicode.IsSpace(r) {
				break
			}
			self.pos = self.pos + size
		}
		rest := self.text[self.pos:]
		switch {
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			self.pos = self.pos + end
		case strings.HasPrefix(rest, "/*"):
			start := self.pos
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return optional.None[*idl.Token](), self.errorAt(start, exc.CodeUnterminatedComment, "unterminated comment")
			}
			body := rest[2 : 2+end]
			self.pos = self.pos + 2 + end + 2
			if emitJavadoc && strings.HasPrefix(body, "*") {
				if doc := extractJavadoc(body[1:]); doc != "" {
					return optional.Some(&idl.Token{Type: idl.TokenTypeJavadoc, Value: doc, Offset: start}), nil
				}
			}
		default:
			return optional.None[*idl.Token](), nil
		}
	}
}

func (self *Tokenizer) endOf(pos int, accept func(byte) bool) int {
	for pos < len(self.text) && accept(self.text[pos]) {
		pos = pos + 1
	}
	return pos
}

// endOfString finds the offset past the closing quote of the string that
// starts at pos. A backslash always skips the following character.
func (self *Tokenizer) endOfString(pos int) (int, error) {
	for x := pos + 1; x < len(self.text); {
		switch self.text[x] {
		case '"':
			return x + 1, nil
		case '\\':
			x = x + 2
		default:
			x = x + 1
		}
	}
	return 0, self.errorAt(pos, exc.CodeUnterminatedString, "unterminated string")
}

func isNameStart(c byte) bool {
	return c == '`' || c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || isDigit(c)
}

// backtrackError is the panic value of an exhausted Tokenizer history.
type backtrackError struct {
	exc.Exception
}

// recoverBacktrack converts a backtrackError panic into an error return. Any
// other panic is re-raised.
func recoverBacktrack(err *error) {
	r := recover()
	if r == nil {
		return
	}
	bt, ok := r.(backtrackError)
	if !ok {
		panic(r)
	}
	*err = bt.Exception
}

// Tokens returns every token of text, javadoc comments included, ending with
// the EOF token. A lexical error ends the iteration early and is returned by
// Close.
func Tokens(uri string, text string) idl.Iterator[*idl.Token] {
	return &tokenIterator{tk: NewTokenizer(uri, text)}
}

type tokenIterator struct {
	tk   *Tokenizer
	done bool
	err  error
}

func (self *tokenIterator) Next(ctx context.Context) optional.Optional[*idl.Token] {
	if self.done {
		return optional.None[*idl.Token]()
	}
	if err := ctx.Err(); err != nil {
		self.done = true
		self.err = err
		return optional.None[*idl.Token]()
	}
	tok, err := self.tk.NextJavadoc()
	if err != nil {
		self.done = true
		self.err = err
		return optional.None[*idl.Token]()
	}
	if tok.Type == idl.TokenTypeEOF {
		self.done = true
	}
	return optional.Some(tok)
}

func (self *tokenIterator) Close(ctx context.Context) error {
	return self.err
}
