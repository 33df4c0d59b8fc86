// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The commands share package level state so these tests do not run in
// parallel.

func executeRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAssembleCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.avdl"), []byte(`protocol P { import idl "types.avdl"; void ping(); }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.avdl"), []byte(`protocol lib.T { record R { int a; } }`), 0o644))
	cfg := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(cfg, []byte("one_way_void = true\n"), 0o644))

	stdout, _, err := executeRoot(t, "", "assemble", "--config", cfg, filepath.Join(dir, "main.avdl"))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"protocol": "P",
		"messages": {"ping": {"response": "null", "request": [], "one-way": true}},
		"types": [{"type": "record", "name": "R", "fields": [{"type": "int", "name": "a"}], "namespace": "lib"}]
	}`, stdout)
}

func TestTokensCommand(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "doc.avdl")
	require.NoError(t, os.WriteFile(p, []byte(`/** d */ protocol P {}`), 0o644))

	stdout, _, err := executeRoot(t, "", "tokens", "--no-javadoc", p)
	require.NoError(t, err)
	require.Equal(t, "9\tname\t\"protocol\"\n18\tname\t\"P\"\n20\toperator\t\"{\"\n21\toperator\t\"}\"\n22\t(eof)\t\"\"\n", stdout)
}

func TestTypeCommand(t *testing.T) {
	stdout, _, err := executeRoot(t, "/** D. */ fixed F(2)", "type", "-")
	require.NoError(t, err)
	require.Equal(t, "{\"doc\":\"D.\",\"type\":\"fixed\",\"name\":\"F\",\"size\":2}\n", stdout)

	_, _, err = executeRoot(t, "union { int", "type", "-")
	require.Error(t, err)
}
