// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "avdlc [flags] [targets...]",
	Short: "Assemble Avro IDL files into protocol JSON",
	Long: `avdlc resolves Avro IDL files together with every file they import and
prints the resulting protocol declaration. Running avdlc without a sub-command
is the same as running avdlc assemble.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runAssemble,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.PersistentFlags().String("config", "", "path to an avdlc.toml file (default: search upwards from the working directory)")
	addAssembleFlags(rootCmd.Flags())

	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(typeCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		colorFlag, _ := rootCmd.PersistentFlags().GetString("color")
		useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
		printDiagnostics(os.Stderr, err, useColor)
		cancel()
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
