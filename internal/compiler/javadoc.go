// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import "strings"

// extractJavadoc cleans the body of a /** */ comment. Every line after the
// first loses its leading "*" decoration along with one following space.
// Blank lines at either end are dropped but interior ones are kept.
func extractJavadoc(body string) string {
	lines := strings.Split(strings.Trim(body, " \t"), "\n")
	for x := 1; x < len(lines); x = x + 1 {
		lines[x] = stripJavadocPrefix(lines[x])
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func stripJavadocPrefix(line string) string {
	trimmed := strings.TrimLeft(line, " \t\r\f\v")
	if !strings.HasPrefix(trimmed, "*") {
		return line
	}
	trimmed = trimmed[1:]
	if trimmed != "" && strings.IndexByte(" \t\r\f\v", trimmed[0]) >= 0 {
		trimmed = trimmed[1:]
	}
	return trimmed
}
