// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/vmihailenco/msgpack/v5"

	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

type outputFormat string

const (
	formatJSON    outputFormat = "json"
	formatYAML    outputFormat = "yaml"
	formatMsgpack outputFormat = "msgpack"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatJSON, formatYAML, formatMsgpack:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

func (f outputFormat) extension() string {
	switch f {
	case formatYAML:
		return ".yaml"
	case formatMsgpack:
		return ".msgpack"
	default:
		return ".avpr"
	}
}

func encodeJSON(v idl.Value, indent string) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// encodeValue renders v in the given format. JSON output ends with a newline.
// YAML is produced from the JSON rendering and so does not keep key order.
func encodeValue(v idl.Value, format outputFormat, indent string) ([]byte, error) {
	switch format {
	case formatJSON:
		return encodeJSON(v, indent)
	case formatYAML:
		j, err := encodeJSON(v, "")
		if err != nil {
			return nil, err
		}
		return yaml.JSONToYAML(j)
	case formatMsgpack:
		return msgpack.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// writeResults sends every result to stdout when output is "-". A single
// result goes to the output file unless output names a directory. Several
// results always go to a directory, one file per target named after it.
func writeResults(ctx context.Context, stdout io.Writer, results []*idl.CompileResult, s assembleSettings) error {
	if s.Output == "" || s.Output == "-" {
		for x, result := range results {
			b, err := encodeValue(idl.MapValue(result.Attrs), s.Format, s.Indent)
			if err != nil {
				return err
			}
			if x > 0 && s.Format == formatYAML {
				if _, err := io.WriteString(stdout, "---\n"); err != nil {
					return err
				}
			}
			if _, err := stdout.Write(b); err != nil {
				return err
			}
		}
		return nil
	}

	if len(results) == 1 && !isDirTarget(s.Output) {
		dir, name := filepath.Split(s.Output)
		return writeResult(ctx, dir, name, results[0], s)
	}
	for _, result := range results {
		base := path.Base(result.URI)
		name := strings.TrimSuffix(base, path.Ext(base)) + s.Format.extension()
		if err := writeResult(ctx, s.Output, name, result, s); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(ctx context.Context, dir string, name string, result *idl.CompileResult, s assembleSettings) error {
	if dir == "" {
		dir = "."
	}
	b, err := encodeValue(idl.MapValue(result.Attrs), s.Format, s.Indent)
	if err != nil {
		return err
	}
	out, err := fs.NewFileSystemLocal(dir)
	if err != nil {
		return err
	}
	return out.Write(ctx, "/"+name, string(b))
}

func isDirTarget(output string) bool {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return true
	}
	stat, err := os.Stat(output)
	return err == nil && stat.IsDir()
}
