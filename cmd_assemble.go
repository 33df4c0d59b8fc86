// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gopkg.microglot.org/avdl.go/internal/compiler"
	"gopkg.microglot.org/avdl.go/internal/fs"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble [flags] targets...",
	Short: "Assemble IDL files and their imports into protocol declarations",
	Long: `Assemble resolves every target together with the files it imports. Targets
may be files, directories, file URIs, or http(s) URLs. Relative paths are
searched for in each --root, then in the working directory, then in the
platform data directories.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssemble,
}

func init() {
	addAssembleFlags(assembleCmd.Flags())
}

func runAssemble(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return cmd.Help()
	}
	ctx := cmd.Context()
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return err
	}
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd.Flags(), configPath, workDir)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if s.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	fsys, err := newSearchFS(s.Roots)
	if err != nil {
		return err
	}
	c, err := compiler.New(
		compiler.OptionWithLookupEnv(os.LookupEnv),
		compiler.OptionWithFS(fsys),
		compiler.OptionWithMaxConcurrency(s.MaxConcurrency),
		compiler.OptionWithLogger(logger),
	)
	if err != nil {
		return err
	}
	resp, compileErr := c.Compile(ctx, &idl.CompileRequest{
		Files:      args,
		OneWayVoid: s.OneWayVoid,
	})
	var multi compiler.MultiException
	if compileErr != nil && !errors.As(compileErr, &multi) {
		return compileErr
	}
	// Targets that assembled are written even when others failed.
	if resp != nil && len(resp.Results) > 0 {
		if err := writeResults(ctx, cmd.OutOrStdout(), resp.Results, s); err != nil {
			return err
		}
	}
	return compileErr
}

// newSearchFS orders the search path as the explicit roots, then the default
// roots, then the network.
func newSearchFS(roots []string) (idl.FileSystem, error) {
	mf := make(fs.FileSystemMulti, 0, len(roots)+2)
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		rf, err := fs.NewFileSystemLocal(absRoot)
		if err != nil {
			return nil, err
		}
		mf = append(mf, rf)
	}
	dfs, err := compiler.NewDefaultFS(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	mf = append(mf, dfs)
	hfs, err := fs.NewFileSystemHTTP("", nil)
	if err != nil {
		return nil, err
	}
	mf = append(mf, hfs)
	return mf, nil
}
