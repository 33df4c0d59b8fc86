// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONEnd(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		pos      int
		expected int
	}{
		{name: "integer", input: "123,", expected: 3},
		{name: "negative float", input: "-1.5e+3]", expected: 7},
		{name: "true", input: "true}", expected: 4},
		{name: "null", input: "null", expected: 4},
		{name: "false", input: "false,", expected: 5},
		{name: "string with escape", input: `"a\"b" x`, expected: 6},
		{name: "nested object", input: `{"a":{"b":"}"}} tail`, expected: 15},
		{name: "nested array", input: "[1,[2]]", expected: 7},
		{name: "offset", input: "x = 42;", pos: 4, expected: 6},
		{name: "unterminated object", input: `{"a":1`, expected: -1},
		{name: "unterminated string", input: `"abc`, expected: -1},
		{name: "trailing escape", input: `"abc\`, expected: -1},
		{name: "bare word", input: "tru", expected: -1},
		{name: "past end", input: "1", pos: 1, expected: -1},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, testCase.expected, jsonEnd(testCase.input, testCase.pos))
		})
	}
}
