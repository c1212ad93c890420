/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// resolveFunc provides the replacement text for a binding name.
type resolveFunc func(name string) (string, error)

// walkTemplate copies template, replacing each {{name}} with resolve(name).
func walkTemplate(template string, resolve resolveFunc) (string, error) {
	var result strings.Builder
	for {
		before, rest, found := strings.Cut(template, "{{")
		result.WriteString(before)
		if !found {
			return result.String(), nil
		}
		inner, after, closed := strings.Cut(rest, "}}")
		if !closed {
			return "", errors.New("unclosed binding: missing '}}'")
		}
		name := strings.TrimSpace(inner)
		if !isValidIdentifier(name) {
			return "", fmt.Errorf("invalid binding identifier %q", name)
		}
		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)
		template = after
	}
}

// isValidIdentifier reports whether s starts with a letter and contains
// only letters, digits, and underscores.
func isValidIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}
