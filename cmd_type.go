// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"gopkg.microglot.org/avdl.go/internal/compiler"
)

var typeCmd = &cobra.Command{
	Use:   "type [flags] file|-",
	Short: "Parse a single IDL type declaration",
	Long: `Type parses one type declaration, such as a record or a union, and prints
its schema. The declaration may be preceded by a javadoc comment and by
annotations. Use - to read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runType,
}

func init() {
	typeCmd.Flags().String("format", string(formatJSON), "output format (json|yaml|msgpack)")
	typeCmd.Flags().String("indent", "", "JSON indentation string")
}

func runType(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatFlag, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := parseFormat(formatFlag)
	if err != nil {
		return err
	}
	indent, err := cmd.Flags().GetString("indent")
	if err != nil {
		return err
	}
	uri, text, err := readInput(ctx, cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	v, err := compiler.ParseType(text, compiler.ParseOptions{URI: uri})
	if err != nil {
		return err
	}
	b, err := encodeValue(v, format, indent)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
