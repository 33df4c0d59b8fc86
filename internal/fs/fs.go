// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

const (
	idlExt      = ".avdl" // Avro IDL
	protocolExt = ".avpr" // Avro protocol in JSON form
	schemaExt   = ".avsc" // Avro schema in JSON form
)

var knownExts = map[string]idl.FileKind{
	idlExt:      idl.FileKindIDL,
	protocolExt: idl.FileKindProtocol,
	schemaExt:   idl.FileKindSchema,
}

// KindOf returns the file kind implied by the extension of a path or URI.
func KindOf(uri string) idl.FileKind {
	p := uri
	if u, err := url.Parse(uri); err == nil {
		p = u.Path
	}
	return knownExts[strings.ToLower(path.Ext(p))]
}

var _ idl.FileSystem = FileSystemMulti{}

// FileSystemMulti is an ordered set of FileSystem implementations that are
// tried in order. Note that this type does not implement write operations.
// Those must be performed on individual backends.
type FileSystemMulti []idl.FileSystem

func (r FileSystemMulti) Open(ctx context.Context, uri string) ([]idl.File, error) {
	var denied error
	for _, fs := range r {
		files, err := fs.Open(ctx, uri)
		if err != nil {
			if exc.CodeOf(err) == exc.CodePermissionDenied && denied == nil {
				denied = err
			}
			continue
		}
		return files, nil
	}
	if denied != nil {
		return nil, denied
	}
	return nil, exc.New(exc.Location{URI: uri}, exc.CodeFileNotFound, fmt.Sprintf("could not open %s from any file system", uri))
}

func (r FileSystemMulti) Write(ctx context.Context, uri string, content string) error {
	return exc.New(exc.Location{URI: uri}, exc.CodeUnsuportedFileSystemOperation, "cannot write to a composite file system")
}

// FileFilter is a filter function type used to select which files to open when
// the path being opened is a directory. Implementations should return true if
// the file should be opened, false otherwise.
type FileFilter func(ctx context.Context, fname string) bool

type FileSystemLocalOption func(*fileSystemLocal)

// WithOptionFSFactory installs a custom factory function used to generate the
// underlying file system handle. The default value is os.DirFS. The string
// value provided to the factory function is the root directory of the file
// system. All paths given to open or write are considered relative to this
// root.
func WithOptionFSFactory(v func(root string) fs.FS) FileSystemLocalOption {
	return func(rfs *fileSystemLocal) {
		rfs.fsFactory = v
	}
}

// WithOptionFileFilter installs a custom filter function used to select files
// when a target is a directory. The default accepts .avdl, .avpr, and .avsc
// files.
func WithOptionFileFilter(v FileFilter) FileSystemLocalOption {
	return func(rfs *fileSystemLocal) {
		rfs.fileFilter = v
	}
}

type fileSystemLocal struct {
	root       string
	fsFactory  func(string) fs.FS
	fileFilter FileFilter
}

// NewFileSystemLocal creates a new FileSystem that uses the local file system.
// URIs are rooted paths relative to root. URIs with a scheme other than file
// are never found.
func NewFileSystemLocal(root string, options ...FileSystemLocalOption) (idl.FileSystem, error) {
	absroot, err := filepath.Abs(root)
	if err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: root}, err)
	}
	result := &fileSystemLocal{
		root:      absroot,
		fsFactory: os.DirFS,
		fileFilter: func(ctx context.Context, fname string) bool {
			return KindOf(fname) != idl.FileKindNone
		},
	}
	for _, option := range options {
		option(result)
	}
	return result, nil
}

func (r *fileSystemLocal) localPath(uri string) (string, error) {
	p := uri
	u, err := url.Parse(uri)
	if err == nil {
		if u.Scheme != "" && u.Scheme != "file" {
			return "", exc.New(exc.Location{URI: uri}, exc.CodeFileNotFound, fmt.Sprintf("%s is not a local path", uri))
		}
		p = u.Path
	}
	return path.Join("/", filepath.ToSlash(p)), nil
}

func (r *fileSystemLocal) Open(ctx context.Context, uri string) ([]idl.File, error) {
	rooted, err := r.localPath(uri)
	if err != nil {
		return nil, err
	}
	dir := r.fsFactory(r.root)
	// fs.FS requires un-rooted paths and spells the root itself as '.'.
	p := strings.TrimPrefix(rooted, "/")
	if p == "" {
		p = "."
	}
	d, err := dir.Open(p)
	if err != nil {
		return nil, fsErr(rooted, err)
	}
	defer d.Close()
	stat, err := d.Stat()
	if err != nil {
		return nil, fsErr(rooted, err)
	}
	if !stat.IsDir() {
		f := NewFileFN(rooted, func() (io.ReadCloser, error) {
			return dir.Open(p)
		}, KindOf(p))
		return []idl.File{f}, nil
	}
	rdf, ok := d.(fs.ReadDirFile)
	if !ok {
		return nil, exc.New(exc.Location{URI: rooted}, exc.CodeUnsuportedFileSystemOperation, "directory listing is not supported")
	}
	dfs, err := rdf.ReadDir(0)
	if err != nil {
		return nil, fsErr(rooted, err)
	}
	files := make([]idl.File, 0, len(dfs))
	for _, df := range dfs {
		if df.IsDir() {
			continue
		}
		if !r.fileFilter(ctx, df.Name()) {
			continue
		}
		dfPath := path.Join(p, df.Name())
		files = append(files, NewFileFN(path.Join("/", dfPath), func() (io.ReadCloser, error) {
			return dir.Open(dfPath)
		}, KindOf(dfPath)))
	}
	if len(files) < 1 {
		return nil, exc.New(exc.Location{URI: rooted}, exc.CodeFileNotFound, fmt.Sprintf("found directory %s but it is empty", rooted))
	}
	return files, nil
}

func (r *fileSystemLocal) Write(ctx context.Context, uri string, content string) error {
	rooted, err := r.localPath(uri)
	if err != nil {
		return err
	}
	p := filepath.Join(r.root, filepath.FromSlash(rooted))

	d := filepath.Dir(p)
	if err = os.MkdirAll(d, os.ModeDir|0o755); err != nil {
		return fsErr(d, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return fsErr(p, err)
	}
	return nil
}

func fsErr(uri string, err error) error {
	if errT, ok := err.(*fs.PathError); ok {
		switch {
		case errT.Err == fs.ErrNotExist || os.IsNotExist(errT):
			return exc.Wrap(exc.Location{URI: uri}, exc.CodeFileNotFound, errT)
		case errT.Err == fs.ErrPermission || os.IsPermission(errT):
			return exc.Wrap(exc.Location{URI: uri}, exc.CodePermissionDenied, errT)
		default:
			return exc.WrapUnknown(exc.Location{URI: uri}, errT)
		}
	}
	return exc.WrapUnknown(exc.Location{URI: uri}, err)
}
