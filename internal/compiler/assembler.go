// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/target"
)

// Assembler resolves an IDL file and everything it imports into one protocol
// attribute tree. Imports are resolved one at a time in declaration order.
// An Assembler must not be used for more than one assembly at a time when its
// Hook keeps per-assembly state.
type Assembler struct {
	// Hook loads file content. It is also responsible for detecting repeated
	// imports by returning empty content.
	Hook       idl.ImportHook
	OneWayVoid bool
	Logger     *slog.Logger
}

type AssembleOption func(a *Assembler) error

func AssembleWithImportHook(hook idl.ImportHook) AssembleOption {
	return func(a *Assembler) error {
		a.Hook = hook
		return nil
	}
}

func AssembleWithOneWayVoid(v bool) AssembleOption {
	return func(a *Assembler) error {
		a.OneWayVoid = v
		return nil
	}
}

func AssembleWithLogger(logger *slog.Logger) AssembleOption {
	return func(a *Assembler) error {
		a.Logger = logger
		return nil
	}
}

// Assemble resolves uri with a fresh Assembler. Without a hook option the
// default hook of the host is used.
func Assemble(ctx context.Context, uri string, opts ...AssembleOption) (*idl.Map, error) {
	a := &Assembler{}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.Hook == nil {
		hook, err := NewDefaultImportHook(nil)
		if err != nil {
			return nil, err
		}
		a.Hook = hook
	}
	return a.Assemble(ctx, uri)
}

// Assemble returns the merged attributes of uri. Types of imported files come
// first, in resolution order, followed by the types of uri itself. The first
// error aborts the whole assembly.
func (self *Assembler) Assemble(ctx context.Context, uri string) (*idl.Map, error) {
	if self.Hook == nil {
		return nil, exc.New(exc.Location{URI: uri}, exc.CodeImportFailed, "no import hook configured")
	}
	logger := self.Logger
	if logger == nil {
		logger = discardLogger
	}
	return self.assemble(ctx, logger, uri)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (self *Assembler) assemble(ctx context.Context, logger *slog.Logger, uri string) (*idl.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := self.Hook.Import(ctx, uri, idl.ImportKindIDL)
	if err != nil {
		return nil, exc.WithURI(err, uri, exc.CodeImportFailed)
	}
	if content == "" {
		logger.Debug("skipping repeated import", "uri", uri)
		return idl.NewMap(), nil
	}
	logger.Debug("parsing", "uri", uri, "bytes", len(content))
	protocol, err := ParseProtocol(content, ParseOptions{URI: uri, OneWayVoid: self.OneWayVoid})
	if err != nil {
		return nil, exc.WithURI(err, uri, exc.CodeUnknownFatal)
	}
	attrs := protocol.Attrs

	var imported []idl.Value
	for _, imp := range protocol.Imports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		importURI := target.Join(uri, imp.Name)
		logger.Debug("importing", "uri", uri, "kind", string(imp.Kind), "import", importURI)
		var importedAttrs *idl.Map
		switch imp.Kind {
		case idl.ImportKindIDL:
			importedAttrs, err = self.assemble(ctx, logger, importURI)
		case idl.ImportKindProtocol, idl.ImportKindSchema:
			importedAttrs, err = self.importJSON(ctx, importURI, imp.Kind)
		default:
			return nil, exc.New(exc.Location{URI: uri}, exc.CodeInvalidImportKind, fmt.Sprintf("invalid import kind: %s", imp.Kind))
		}
		if err != nil {
			return nil, err
		}
		imported, err = mergeImported(attrs, importedAttrs, imported)
		if err != nil {
			return nil, exc.WithURI(err, uri, exc.CodeUnknownFatal)
		}
	}
	if len(imported) > 0 {
		if own, ok := attrs.Get("types"); ok {
			imported = append(imported, own.Items()...)
		}
		attrs.Set("types", idl.List(imported...))
		logger.Debug("merged imports", "uri", uri, "types", len(imported))
	}
	return attrs, nil
}

// importJSON loads a protocol or schema document. A schema becomes a
// protocol with a single type.
func (self *Assembler) importJSON(ctx context.Context, uri string, kind idl.ImportKind) (*idl.Map, error) {
	content, err := self.Hook.Import(ctx, uri, kind)
	if err != nil {
		return nil, exc.WithURI(err, uri, exc.CodeImportFailed)
	}
	if strings.TrimSpace(content) == "" {
		return idl.NewMap(), nil
	}
	doc, err := idl.DecodeJSON(content)
	if err != nil {
		return nil, exc.Wrap(exc.Location{URI: uri}, exc.CodeInvalidJSON, err)
	}
	if kind == idl.ImportKindSchema {
		m := idl.NewMap()
		m.Set("types", idl.List(doc))
		return m, nil
	}
	if !doc.IsMap() {
		return nil, exc.New(exc.Location{URI: uri}, exc.CodeImportFailed, fmt.Sprintf("protocol must be an object, found %s", doc.Kind()))
	}
	return doc.Map(), nil
}

// mergeImported appends the types of importedAttrs to imported and moves its
// messages into attrs. Types without a namespace inherit the namespace of
// the imported protocol, or the prefix of its name, or the empty string.
func mergeImported(attrs *idl.Map, importedAttrs *idl.Map, imported []idl.Value) ([]idl.Value, error) {
	if types, ok := importedAttrs.Get("types"); ok {
		if !types.IsList() {
			return nil, exc.New(exc.Location{}, exc.CodeImportFailed, fmt.Sprintf("imported types must be a list, found %s", types.Kind()))
		}
		namespace := inheritedNamespace(importedAttrs)
		for _, typ := range types.Items() {
			if typ.IsMap() && !typ.Map().Has("namespace") {
				typ.Map().Set("namespace", idl.String(namespace))
			}
			imported = append(imported, typ)
		}
	}
	messages, ok := importedAttrs.Get("messages")
	if !ok {
		return imported, nil
	}
	if !messages.IsMap() {
		return nil, exc.New(exc.Location{}, exc.CodeImportFailed, fmt.Sprintf("imported messages must be an object, found %s", messages.Kind()))
	}
	if messages.Map().Len() == 0 {
		return imported, nil
	}
	own, ok := attrs.Get("messages")
	if !ok || !own.IsMap() {
		own = idl.MapValue(idl.NewMap())
		attrs.Set("messages", own)
	}
	for _, name := range messages.Map().Keys() {
		if own.Map().Has(name) {
			return nil, exc.New(exc.Location{}, exc.CodeDuplicateMessage, fmt.Sprintf("duplicate message: %s", name))
		}
		msg, _ := messages.Map().Get(name)
		own.Map().Set(name, msg)
	}
	return imported, nil
}

func inheritedNamespace(attrs *idl.Map) string {
	if ns, ok := attrs.Get("namespace"); ok && ns.IsString() && ns.Text() != "" {
		return ns.Text()
	}
	if name, ok := attrs.Get("protocol"); ok && name.IsString() {
		if x := strings.LastIndexByte(name.Text(), '.'); x >= 0 && x < len(name.Text())-1 {
			return name.Text()[:x]
		}
	}
	return ""
}
