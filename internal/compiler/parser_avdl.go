// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/optional"
)

type ParseOptions struct {
	// URI is attached to every error. It may be empty.
	URI string
	// OneWayVoid marks every message that returns void as one-way.
	OneWayVoid bool
}

// Protocol is the result of parsing one IDL file. Imports are listed in
// declaration order and are not resolved.
type Protocol struct {
	Attrs   *idl.Map
	Imports []idl.Import
}

// ParseProtocol parses a complete IDL file.
func ParseProtocol(text string, opts ParseOptions) (result *Protocol, err error) {
	defer recoverBacktrack(&err)
	p := newParserAVDL(text, opts)
	return p.protocol()
}

// ParseType parses a single type expression with an optional leading javadoc
// that becomes the doc attribute. Text after the expression is ignored.
func ParseType(text string, opts ParseOptions) (result idl.Value, err error) {
	defer recoverBacktrack(&err)
	p := newParserAVDL(text, opts)
	doc, err := p.javadoc()
	if err != nil {
		return idl.Value{}, err
	}
	attrs := idl.NewMap()
	if doc.IsPresent() {
		attrs.Set("doc", idl.String(doc.Value()))
	}
	return p.readType(attrs)
}

type parserAVDL struct {
	tk      *Tokenizer
	opts    ParseOptions
	imports []idl.Import
}

func newParserAVDL(text string, opts ParseOptions) *parserAVDL {
	return &parserAVDL{
		tk:   NewTokenizer(opts.URI, text),
		opts: opts,
	}
}

func (self *parserAVDL) protocol() (*Protocol, error) {
	if _, err := self.readImports(false); err != nil {
		return nil, err
	}
	attrs := idl.NewMap()
	doc, err := self.javadoc()
	if err != nil {
		return nil, err
	}
	if doc.IsPresent() {
		attrs.Set("doc", idl.String(doc.Value()))
	}
	if err := self.readAnnotations(attrs); err != nil {
		return nil, err
	}
	if _, err := self.tk.ExpectValue("protocol"); err != nil {
		return nil, err
	}
	tok, err := self.tk.Next()
	if err != nil {
		return nil, err
	}
	if tok.Value != "{" {
		name, err := self.tk.Prev().Expect(idl.TokenTypeName)
		if err != nil {
			return nil, err
		}
		attrs.Set("protocol", idl.String(name.Value))
		if _, err := self.tk.ExpectValue("{"); err != nil {
			return nil, err
		}
	}

	types := []idl.Value{}
	messages := idl.NewMap()
	hasMessage := false
	// Annotations found while looking for a message name belong to the
	// declaration that follows.
	pending := idl.NewMap()
	for {
		tok, err := self.tk.Next()
		if err != nil {
			return nil, err
		}
		if tok.Value == "}" {
			break
		}
		self.tk.Prev()
		n, err := self.readImports(false)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			continue
		}
		doc, err := self.javadoc()
		if err != nil {
			return nil, err
		}
		typ, err := self.readType(pending)
		if err != nil {
			return nil, err
		}
		pending = idl.NewMap()

		// A type followed by `<name> (` is the response of a message.
		// Anything else means typ was a standalone declaration.
		n, err = self.readImports(true)
		if err != nil {
			return nil, err
		}
		if err := self.readAnnotations(pending); err != nil {
			return nil, err
		}
		name, err := self.tk.Next()
		if err != nil {
			return nil, err
		}
		isMessage := false
		if n == 0 {
			paren, err := self.tk.Next()
			if err != nil {
				return nil, err
			}
			isMessage = name.Type == idl.TokenTypeName && paren.Value == "("
		}

		if !isMessage {
			types = append(types, attachDoc(typ, doc))
			// Rewind to just before the token that was read as a name.
			if n == 0 {
				self.tk.Prev().Prev()
			} else {
				self.tk.Prev()
			}
			continue
		}

		hasMessage = true
		msg := pending
		pending = idl.NewMap()
		oneWay := false
		if isVoid(typ) {
			oneWay = self.opts.OneWayVoid
			if typ.IsMap() {
				typ.Map().Set("type", idl.String("null"))
			} else {
				typ = idl.String("null")
			}
		}
		msg.Set("response", typ)
		if err := self.readMessageParams(msg); err != nil {
			return nil, err
		}
		if doc.IsPresent() && !msg.Has("doc") {
			msg.Set("doc", idl.String(doc.Value()))
		}
		if oneWay {
			msg.Set("one-way", idl.Bool(true))
		}
		if messages.Has(name.Value) {
			return nil, self.tk.errorAt(name.Offset, exc.CodeDuplicateMessage, fmt.Sprintf("duplicate message: %s", name.Value))
		}
		messages.Set(name.Value, idl.MapValue(msg))
	}
	if _, err := self.tk.Expect(idl.TokenTypeEOF); err != nil {
		return nil, err
	}
	if len(types) > 0 {
		attrs.Set("types", idl.List(types...))
	}
	if hasMessage {
		attrs.Set("messages", idl.MapValue(messages))
	}
	return &Protocol{Attrs: attrs, Imports: self.imports}, nil
}

// attachDoc gives a standalone declaration its javadoc. Bare references are
// wrapped so they can carry it. Unions cannot carry one and an existing doc
// attribute wins.
func attachDoc(typ idl.Value, doc optional.Optional[string]) idl.Value {
	if !doc.IsPresent() {
		return typ
	}
	switch {
	case typ.IsString():
		m := idl.NewMap()
		m.Set("doc", idl.String(doc.Value()))
		m.Set("type", typ)
		return idl.MapValue(m)
	case typ.IsMap() && !typ.Map().Has("doc"):
		typ.Map().Set("doc", idl.String(doc.Value()))
	}
	return typ
}

func isVoid(typ idl.Value) bool {
	if typ.IsString() {
		return typ.Text() == "void"
	}
	if typ.IsMap() {
		t, ok := typ.Map().Get("type")
		return ok && t.IsString() && t.Text() == "void"
	}
	return false
}

func (self *parserAVDL) javadoc() (optional.Optional[string], error) {
	tok, err := self.tk.NextJavadoc()
	if err != nil {
		return optional.None[string](), err
	}
	if tok.Type == idl.TokenTypeJavadoc {
		return optional.Some(tok.Value), nil
	}
	self.tk.Prev()
	return optional.None[string](), nil
}

// readImports consumes consecutive import statements and returns how many
// were read. With maybeMessage set, an `import` directly followed by `(` is
// a message named import and is left unread.
func (self *parserAVDL) readImports(maybeMessage bool) (int, error) {
	count := 0
	for {
		tok, err := self.tk.Next()
		if err != nil {
			return 0, err
		}
		if tok.Type != idl.TokenTypeName || tok.Value != "import" {
			self.tk.Prev()
			return count, nil
		}
		peek, err := self.tk.Next()
		if err != nil {
			return 0, err
		}
		self.tk.Prev()
		if count == 0 && maybeMessage && peek.Value == "(" {
			self.tk.Prev()
			return 0, nil
		}
		kind, err := self.tk.Expect(idl.TokenTypeName)
		if err != nil {
			return 0, err
		}
		fname, err := self.tk.Expect(idl.TokenTypeString)
		if err != nil {
			return 0, err
		}
		name, err := idl.DecodeJSON(fname.Value)
		if err != nil || !name.IsString() {
			return 0, self.tk.Error(exc.CodeInvalidJSON, fmt.Sprintf("invalid import name %s", fname.Value))
		}
		if _, err := self.tk.ExpectValue(";"); err != nil {
			return 0, err
		}
		self.imports = append(self.imports, idl.Import{Kind: idl.ImportKind(kind.Value), Name: name.Text()})
		count = count + 1
	}
}

// readAnnotations reads `@name(json)` pairs into attrs. Names are the
// concatenated text of every token up to the opening parenthesis.
func (self *parserAVDL) readAnnotations(attrs *idl.Map) error {
	for {
		tok, err := self.tk.Next()
		if err != nil {
			return err
		}
		if tok.Type != idl.TokenTypeOperator || tok.Value != "@" {
			self.tk.Prev()
			return nil
		}
		var parts []string
		for {
			part, err := self.tk.Next()
			if err != nil {
				return err
			}
			if part.Type == idl.TokenTypeEOF {
				return self.tk.mismatch("(", part)
			}
			if part.Value == "(" {
				break
			}
			parts = append(parts, part.Value)
		}
		value, err := self.tk.Expect(idl.TokenTypeJSON)
		if err != nil {
			return err
		}
		attrs.Set(strings.Join(parts, ""), value.JSON)
		if _, err := self.tk.ExpectValue(")"); err != nil {
			return err
		}
	}
}

// readMessageParams reads the rest of a message after its opening
// parenthesis.
func (self *parserAVDL) readMessageParams(msg *idl.Map) error {
	request := []idl.Value{}
	tok, err := self.tk.Next()
	if err != nil {
		return err
	}
	if tok.Value != ")" {
		self.tk.Prev()
		for {
			field, err := self.readField()
			if err != nil {
				return err
			}
			request = append(request, field)
			done, err := self.endOfList(")")
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
	}
	msg.Set("request", idl.List(request...))

	tok, err = self.tk.Next()
	if err != nil {
		return err
	}
	switch {
	case tok.Type == idl.TokenTypeName && tok.Value == "throws":
		errs := []idl.Value{}
		for {
			typ, err := self.readType(nil)
			if err != nil {
				return err
			}
			errs = append(errs, typ)
			tok, err := self.tk.Next()
			if err != nil {
				return err
			}
			self.tk.Prev()
			if tok.Value == ";" {
				break
			}
			if _, err := self.tk.ExpectValue(","); err != nil {
				return err
			}
		}
		msg.Set("errors", idl.List(errs...))
	case tok.Type == idl.TokenTypeName && tok.Value == "oneway":
		msg.Set("one-way", idl.Bool(true))
	default:
		self.tk.Prev()
	}
	_, err = self.tk.ExpectValue(";")
	return err
}

// endOfList consumes either the closing token of a comma separated list, in
// which case it returns true, or the separating comma.
func (self *parserAVDL) endOfList(closing string) (bool, error) {
	tok, err := self.tk.Next()
	if err != nil {
		return false, err
	}
	if tok.Value == closing {
		return true, nil
	}
	if _, err := self.tk.Prev().ExpectValue(","); err != nil {
		return false, err
	}
	return false, nil
}

func (self *parserAVDL) readField() (idl.Value, error) {
	doc, err := self.javadoc()
	if err != nil {
		return idl.Value{}, err
	}
	typ, err := self.readType(nil)
	if err != nil {
		return idl.Value{}, err
	}
	attrs := idl.NewMap()
	attrs.Set("type", typ)
	if doc.IsPresent() {
		attrs.Set("doc", idl.String(doc.Value()))
	}
	if err := self.readAnnotations(attrs); err != nil {
		return idl.Value{}, err
	}
	name, err := self.tk.Expect(idl.TokenTypeName)
	if err != nil {
		return idl.Value{}, err
	}
	attrs.Set("name", idl.String(name.Value))
	tok, err := self.tk.Next()
	if err != nil {
		return idl.Value{}, err
	}
	if tok.Value == "=" {
		def, err := self.tk.Expect(idl.TokenTypeJSON)
		if err != nil {
			return idl.Value{}, err
		}
		attrs.Set("default", def.JSON)
	} else {
		self.tk.Prev()
	}
	return idl.MapValue(attrs), nil
}

// readType reads one type expression. attrs holds attributes collected
// before the expression, such as annotations, and may be nil.
func (self *parserAVDL) readType(attrs *idl.Map) (idl.Value, error) {
	if attrs == nil {
		attrs = idl.NewMap()
	}
	if err := self.readAnnotations(attrs); err != nil {
		return idl.Value{}, err
	}
	name, err := self.tk.Expect(idl.TokenTypeName)
	if err != nil {
		return idl.Value{}, err
	}
	attrs.Set("type", idl.String(name.Value))
	switch name.Value {
	case "record", "error":
		return self.readRecord(attrs)
	case "fixed":
		return self.readFixed(attrs)
	case "enum":
		return self.readEnum(attrs)
	case "map":
		return self.readContainer(attrs, "values")
	case "array":
		return self.readContainer(attrs, "items")
	case "union":
		if attrs.Len() > 1 {
			return idl.Value{}, self.tk.Error(exc.CodeUnsupportedAnnotation, "union annotations are not supported")
		}
		return self.readUnion()
	default:
		if attrs.Len() > 1 {
			return idl.MapValue(attrs), nil
		}
		return idl.String(name.Value), nil
	}
}

func (self *parserAVDL) readRecord(attrs *idl.Map) (idl.Value, error) {
	name, err := self.tk.Expect(idl.TokenTypeName)
	if err != nil {
		return idl.Value{}, err
	}
	attrs.Set("name", idl.String(name.Value))
	if _, err := self.tk.ExpectValue("{"); err != nil {
		return idl.Value{}, err
	}
	fields := []idl.Value{}
	for {
		tok, err := self.tk.Next()
		if err != nil {
			return idl.Value{}, err
		}
		if tok.Value == "}" {
			break
		}
		self.tk.Prev()
		field, err := self.readField()
		if err != nil {
			return idl.Value{}, err
		}
		fields = append(fields, field)
		if _, err := self.tk.ExpectValue(";"); err != nil {
			return idl.Value{}, err
		}
	}
	attrs.Set("fields", idl.List(fields...))
	return idl.MapValue(attrs), nil
}

// readOptionalName reads the name of a fixed or enum declaration, which may
// be omitted when the declaration is used inline.
func (self *parserAVDL) readOptionalName(attrs *idl.Map, open string) error {
	tok, err := self.tk.Next()
	if err != nil {
		return err
	}
	if tok.Value == open {
		return nil
	}
	name, err := self.tk.Prev().Expect(idl.TokenTypeName)
	if err != nil {
		return err
	}
	attrs.Set("name", idl.String(name.Value))
	_, err = self.tk.ExpectValue(open)
	return err
}

func (self *parserAVDL) readFixed(attrs *idl.Map) (idl.Value, error) {
	if err := self.readOptionalName(attrs, "("); err != nil {
		return idl.Value{}, err
	}
	size, err := self.tk.Expect(idl.TokenTypeNumber)
	if err != nil {
		return idl.Value{}, err
	}
	n, err := strconv.ParseInt(size.Value, 10, 64)
	if err == nil {
		_, err = safecast.Conv[int32](n)
	}
	if err != nil {
		return idl.Value{}, self.tk.Error(exc.CodeInvalidNumber, fmt.Sprintf("invalid fixed size %s", size.Value))
	}
	attrs.Set("size", idl.Int(n))
	if _, err := self.tk.ExpectValue(")"); err != nil {
		return idl.Value{}, err
	}
	tok, err := self.tk.Next()
	if err != nil {
		return idl.Value{}, err
	}
	if tok.Value != ";" {
		self.tk.Prev()
	}
	return idl.MapValue(attrs), nil
}

func (self *parserAVDL) readEnum(attrs *idl.Map) (idl.Value, error) {
	if err := self.readOptionalName(attrs, "{"); err != nil {
		return idl.Value{}, err
	}
	symbols := []idl.Value{}
	tok, err := self.tk.Next()
	if err != nil {
		return idl.Value{}, err
	}
	if tok.Value != "}" {
		self.tk.Prev()
		for {
			symbol, err := self.tk.Next()
			if err != nil {
				return idl.Value{}, err
			}
			if symbol.Type == idl.TokenTypeEOF {
				return idl.Value{}, self.tk.mismatch("symbol", symbol)
			}
			symbols = append(symbols, idl.String(symbol.Value))
			done, err := self.endOfList("}")
			if err != nil {
				return idl.Value{}, err
			}
			if done {
				break
			}
		}
	}
	attrs.Set("symbols", idl.List(symbols...))
	return idl.MapValue(attrs), nil
}

func (self *parserAVDL) readContainer(attrs *idl.Map, key string) (idl.Value, error) {
	if _, err := self.tk.ExpectValue("<"); err != nil {
		return idl.Value{}, err
	}
	inner, err := self.readType(nil)
	if err != nil {
		return idl.Value{}, err
	}
	attrs.Set(key, inner)
	if _, err := self.tk.ExpectValue(">"); err != nil {
		return idl.Value{}, err
	}
	return idl.MapValue(attrs), nil
}

func (self *parserAVDL) readUnion() (idl.Value, error) {
	if _, err := self.tk.ExpectValue("{"); err != nil {
		return idl.Value{}, err
	}
	branches := []idl.Value{}
	for {
		typ, err := self.readType(nil)
		if err != nil {
			return idl.Value{}, err
		}
		branches = append(branches, typ)
		done, err := self.endOfList("}")
		if err != nil {
			return idl.Value{}, err
		}
		if done {
			break
		}
	}
	return idl.List(branches...), nil
}
