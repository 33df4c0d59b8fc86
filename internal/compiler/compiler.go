// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/target"
)

type Option func(c *compiler) error

func OptionWithFS(fsys idl.FileSystem) Option {
	return func(c *compiler) error {
		c.FS = fsys
		return nil
	}
}

func OptionWithLookupEnv(lookupEnv func(string) (string, bool)) Option {
	return func(c *compiler) error {
		c.LookupENV = lookupEnv
		return nil
	}
}

// OptionWithExcReporter collects failures in the given reporter across every
// call to Compile. Without it each call starts from an empty reporter.
func OptionWithExcReporter(reporter exc.Reporter) Option {
	return func(c *compiler) error {
		c.Reporter = reporter
		return nil
	}
}

// OptionWithImportHook shares one hook between every target. By default each
// IDL target gets its own hook backed by the compiler FileSystem so that a
// file imported by two targets is merged into both. A shared hook makes the
// targets depend on each other so they are compiled one at a time in request
// order.
func OptionWithImportHook(hook idl.ImportHook) Option {
	return func(c *compiler) error {
		c.Hook = hook
		return nil
	}
}

// OptionWithMaxConcurrency bounds the number of targets compiled at once. A
// value below one selects the number of usable CPUs.
func OptionWithMaxConcurrency(n int) Option {
	return func(c *compiler) error {
		c.MaxConcurrency = n
		return nil
	}
}

func OptionWithLogger(logger *slog.Logger) Option {
	return func(c *compiler) error {
		c.Logger = logger
		return nil
	}
}

func OptionWithSubCompilers(scs map[idl.FileKind]SubCompiler) Option {
	return func(c *compiler) error {
		c.SubCompilers = scs
		return nil
	}
}

func New(opts ...Option) (idl.Compiler, error) {
	c := &compiler{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.LookupENV == nil {
		c.LookupENV = os.LookupEnv
	}
	if c.FS == nil {
		dfs, err := NewDefaultFS(c.LookupENV)
		if err != nil {
			return nil, err
		}
		c.FS = dfs
	}
	if c.MaxConcurrency < 1 {
		limit := runtime.GOMAXPROCS(-1)
		cpus := runtime.NumCPU()
		if limit > cpus {
			limit = cpus
		}
		c.MaxConcurrency = limit
	}
	if c.SubCompilers == nil {
		c.SubCompilers = DefaultSubCompilers()
	}
	if c.Logger == nil {
		c.Logger = discardLogger
	}
	return c, nil
}

type compiler struct {
	LookupENV      func(string) (string, bool)
	FS             idl.FileSystem
	Hook           idl.ImportHook
	MaxConcurrency int
	Reporter       exc.Reporter
	SubCompilers   map[idl.FileKind]SubCompiler
	Logger         *slog.Logger
}

// Compile assembles every target of the request. Targets are independent and
// run concurrently. A failing target does not stop the others. Results keep
// the order of the request and every failure is returned together as a
// MultiException.
func (self *compiler) Compile(ctx context.Context, req *idl.CompileRequest) (*idl.CompileResponse, error) {
	reporter := self.Reporter
	if reporter == nil {
		reporter = exc.NewReporter(nil)
	}
	files := make([]idl.File, 0, len(req.Files))
	seen := make(map[string]bool, len(req.Files))
	for _, f := range req.Files {
		uri := target.Normalize(f)
		in, err := self.FS.Open(ctx, uri)
		if err != nil {
			_ = reporter.Report(exc.WithURI(err, uri, exc.CodeFileNotFound))
			continue
		}
		for _, inf := range in {
			path := inf.Path(ctx)
			if inf.Kind(ctx) == idl.FileKindNone {
				_ = reporter.Report(exc.New(exc.Location{URI: path}, exc.CodeUnsupportedFileFormat, "unsupported file format"))
				continue
			}
			if seen[path] {
				continue
			}
			seen[path] = true
			files = append(files, inf)
		}
	}

	results := make([]*idl.CompileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	limit := max(1, min(self.MaxConcurrency, len(files)))
	if self.Hook != nil {
		limit = 1
	}
	g.SetLimit(limit)
	for x, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Failures are collected by the reporter.
			results[x], _ = self.compileFile(gctx, reporter, file, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &idl.CompileResponse{}
	for _, result := range results {
		if result != nil {
			resp.Results = append(resp.Results, result)
		}
	}
	caught := reporter.Reported()
	if len(caught) > 0 {
		return resp, MultiException(caught)
	}
	return resp, nil
}

func (self *compiler) compileFile(ctx context.Context, reporter exc.Reporter, file idl.File, req *idl.CompileRequest) (*idl.CompileResult, error) {
	path := file.Path(ctx)
	sc := self.SubCompilers[file.Kind(ctx)]
	if sc == nil {
		e := exc.New(exc.Location{URI: path}, exc.CodeUnsupportedFileFormat, "unsupported file format")
		return nil, reporter.Report(e)
	}
	hook := self.Hook
	if hook == nil {
		hook = fs.NewImportHook(self.FS)
	}
	self.Logger.Debug("compiling", "uri", path, "kind", file.Kind(ctx).String())
	return sc.CompileFile(ctx, reporter, file, CompileFileOptions{
		Hook:       hook,
		OneWayVoid: req.OneWayVoid,
		Logger:     self.Logger.With("target", path),
	})
}

type MultiException []exc.Exception

func (self MultiException) Error() string {
	var b strings.Builder
	for _, err := range self[:len(self)-1] {
		b.WriteString(err.Error())
		b.WriteString("; ")
	}
	b.WriteString(self[len(self)-1].Error())
	return b.String()
}
