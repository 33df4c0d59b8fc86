// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

// CompileFileOptions carries the per-target settings of a compile request.
type CompileFileOptions struct {
	// Hook loads the file and its imports. Its duplicate detection state
	// covers this target only unless the caller shares it on purpose.
	Hook       idl.ImportHook
	OneWayVoid bool
	Logger     *slog.Logger
}

type SubCompiler interface {
	CompileFile(ctx context.Context, r exc.Reporter, file idl.File, opts CompileFileOptions) (*idl.CompileResult, error)
}

func DefaultSubCompilers() map[idl.FileKind]SubCompiler {
	scjson := &SubCompilerJSON{}
	return map[idl.FileKind]SubCompiler{
		idl.FileKindIDL:      &SubCompilerIDL{},
		idl.FileKindProtocol: scjson,
		idl.FileKindSchema:   scjson,
	}
}

// SubCompilerIDL assembles an IDL file together with its imports.
type SubCompilerIDL struct{}

func (self *SubCompilerIDL) CompileFile(ctx context.Context, r exc.Reporter, file idl.File, opts CompileFileOptions) (*idl.CompileResult, error) {
	uri := file.Path(ctx)
	a := &Assembler{
		Hook:       opts.Hook,
		OneWayVoid: opts.OneWayVoid,
		Logger:     opts.Logger,
	}
	attrs, err := a.Assemble(ctx, uri)
	if err != nil {
		return nil, r.Report(exc.WithURI(err, uri, exc.CodeUnknownFatal))
	}
	return &idl.CompileResult{URI: uri, Kind: idl.FileKindIDL, Attrs: attrs}, nil
}

// SubCompilerJSON loads protocol and schema documents. A schema is presented
// the same way an imported schema is: as a protocol with a single type.
type SubCompilerJSON struct{}

func (self *SubCompilerJSON) CompileFile(ctx context.Context, r exc.Reporter, file idl.File, opts CompileFileOptions) (*idl.CompileResult, error) {
	uri := file.Path(ctx)
	kind := file.Kind(ctx)
	content, err := fs.ReadFile(ctx, file)
	if err != nil {
		return nil, r.Report(exc.WithURI(err, uri, exc.CodeFileNotFound))
	}
	doc, err := idl.DecodeJSON(content)
	if err != nil {
		return nil, r.Report(exc.Wrap(exc.Location{URI: uri}, exc.CodeInvalidJSON, err))
	}
	var attrs *idl.Map
	switch kind {
	case idl.FileKindSchema:
		attrs = idl.NewMap()
		attrs.Set("types", idl.List(doc))
	case idl.FileKindProtocol:
		if !doc.IsMap() {
			return nil, r.Report(exc.New(exc.Location{URI: uri}, exc.CodeUnsupportedFileFormat, fmt.Sprintf("protocol must be an object, found %s", doc.Kind())))
		}
		attrs = doc.Map()
	default:
		return nil, r.Report(exc.New(exc.Location{URI: uri}, exc.CodeUnsupportedFileFormat, fmt.Sprintf("unsupported file kind %s", kind)))
	}
	return &idl.CompileResult{URI: uri, Kind: kind, Attrs: attrs}, nil
}
