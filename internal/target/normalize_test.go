// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package target

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		target   string
		expected string
	}{
		{name: "relative", target: "a/b.avdl", expected: "/a/b.avdl"},
		{name: "absolute", target: "/a/b.avdl", expected: "/a/b.avdl"},
		{name: "dirty", target: "/a/./c/../b.avdl", expected: "/a/b.avdl"},
		{name: "file uri", target: "file:///a/b.avdl", expected: "/a/b.avdl"},
		{name: "http uri", target: "https://example.com/idl/b.avdl", expected: "https://example.com/idl/b.avdl"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, testCase.expected, Normalize(testCase.target))
		})
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		base     string
		imported string
		expected string
	}{
		{name: "sibling", base: "/a/root.avdl", imported: "b.avdl", expected: "/a/b.avdl"},
		{name: "nested", base: "/a/root.avdl", imported: "sub/b.avdl", expected: "/a/sub/b.avdl"},
		{name: "parent", base: "/a/root.avdl", imported: "../b.avdl", expected: "/b.avdl"},
		{name: "relative base", base: "root.avdl", imported: "b.avsc", expected: "/b.avsc"},
		{name: "http", base: "https://example.com/idl/root.avdl", imported: "b.avpr", expected: "https://example.com/idl/b.avpr"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, testCase.expected, Join(testCase.base, testCase.imported))
		})
	}
}
