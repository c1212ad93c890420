/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package browser

import "strings"

// DefaultMaxChars bounds page text handed to the model.
const DefaultMaxChars = 8000

// CompactText drops blank lines and truncates the result to maxChars
// characters. A non-positive maxChars means DefaultMaxChars.
func CompactText(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	out := strings.Join(kept, "\n")
	if r := []rune(out); len(r) > maxChars {
		out = string(r[:maxChars])
	}
	return out
}
