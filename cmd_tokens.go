// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"gopkg.microglot.org/avdl.go/internal/compiler"
	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
	"gopkg.microglot.org/avdl.go/internal/iter"
	"gopkg.microglot.org/avdl.go/internal/target"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] file",
	Short: "Print the token stream of an IDL file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().Bool("no-javadoc", false, "omit javadoc comments")
}

func runTokens(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noJavadoc, err := cmd.Flags().GetBool("no-javadoc")
	if err != nil {
		return err
	}
	uri, text, err := readInput(ctx, cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	var it idl.Iterator[*idl.Token] = compiler.Tokens(uri, text)
	if noJavadoc {
		it = iter.NewIteratorFilter(it, iter.FilterFunc[*idl.Token](func(ctx context.Context, tok *idl.Token) bool {
			return tok.Type != idl.TokenTypeJavadoc
		}))
	}
	tokens, err := iter.Collect(ctx, it)
	if err != nil {
		return err
	}
	return printTokens(cmd.OutOrStdout(), tokens)
}

func printTokens(w io.Writer, tokens []*idl.Token) error {
	for _, tok := range tokens {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", tok.Offset, tok.Type, strconv.Quote(tok.Value)); err != nil {
			return err
		}
	}
	return nil
}

// readInput loads a single file from the default search path, or standard
// input when name is "-".
func readInput(ctx context.Context, stdin io.Reader, name string) (string, string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", exc.WrapUnknown(exc.Location{URI: "-"}, err)
		}
		return "", string(b), nil
	}
	fsys, err := newSearchFS(nil)
	if err != nil {
		return "", "", err
	}
	uri := target.Normalize(name)
	files, err := fsys.Open(ctx, uri)
	if err != nil {
		return "", "", exc.WithURI(err, uri, exc.CodeFileNotFound)
	}
	if len(files) != 1 {
		return "", "", exc.New(exc.Location{URI: uri}, exc.CodeUnsupportedFileFormat, fmt.Sprintf("%s is a directory", uri))
	}
	text, err := fs.ReadFile(ctx, files[0])
	if err != nil {
		return "", "", err
	}
	return files[0].Path(ctx), text, nil
}
