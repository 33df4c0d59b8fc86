// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import "strings"

// jsonEnd returns the offset just past the JSON value that starts at pos, or
// -1 if the text ends first. The value is delimited, not validated. Numbers
// and the true, false, and null literals are recognised by their first
// characters. Anything else is scanned as a string, object, or array by
// tracking nesting depth outside of string literals.
func jsonEnd(text string, pos int) int {
	if pos < 0 || pos >= len(text) {
		return -1
	}
	c := text[pos]
	pos = pos + 1
	switch {
	case c == '-' || isDigit(c):
		for pos < len(text) && strings.IndexByte("eE0123456789.+-", text[pos]) >= 0 {
			pos = pos + 1
		}
		return pos
	case strings.HasPrefix(text[pos-1:], "true"), strings.HasPrefix(text[pos-1:], "null"):
		return pos + 3
	case strings.HasPrefix(text[pos-1:], "false"):
		return pos + 4
	}
	depth := 0
	literal := false
	for {
		switch c {
		case '{', '[':
			if !literal {
				depth = depth + 1
			}
		case '}', ']':
			if !literal {
				depth = depth - 1
				if depth == 0 {
					return pos
				}
			}
		case '"':
			literal = !literal
			if depth == 0 && !literal {
				return pos
			}
		case '\\':
			pos = pos + 1
		}
		if pos >= len(text) {
			return -1
		}
		c = text[pos]
		pos = pos + 1
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
