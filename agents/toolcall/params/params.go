/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract extracts a required parameter from args with type safety.
// Returns an error if the parameter is missing or cannot be converted to T.
func Extract[T any](args map[string]any, name string) (T, error) {
	var zero T

	value, exists := args[name]
	if !exists || value == nil {
		return zero, fmt.Errorf("%s parameter is required", name)
	}

	if v, ok := convert[T](value); ok {
		return v, nil
	}
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// ExtractOptional extracts an optional parameter with a default value.
// Returns the default if the parameter doesn't exist or is null, or an error if type conversion fails.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return defaultValue, nil
	}

	if v, ok := convert[T](value); ok {
		return v, nil
	}

	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// Decode parses raw JSON tool arguments into a map.
// Empty input decodes to an empty map, since models omit arguments for zero-parameter tools.
func Decode(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("parsing tool arguments: %w", err)
	}
	return args, nil
}

func convert[T any](value any) (T, bool) {
	if v, ok := value.(T); ok {
		return v, true
	}
	return convertNumeric[T](value)
}

// convertNumeric handles JSON numeric conversions (float64 and json.Number -> int/int32/int64/float64).
func convertNumeric[T any](value any) (T, bool) {
	var zero T

	var f float64
	switch n := value.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return zero, false
		}
		f = parsed
	default:
		return zero, false
	}

	switch any(zero).(type) {
	case int:
		return any(int(f)).(T), true
	case int32:
		return any(int32(f)).(T), true
	case int64:
		return any(int64(f)).(T), true
	case float64:
		return any(f).(T), true
	}
	return zero, false
}

// Error formats a tool error as result text the model can read and react to.
func Error(format string, args ...any) string {
	return "Error: " + fmt.Sprintf(format, args...)
}

// IsError reports whether a tool result reports a failure. Every tool
// starts its failure text with "Error".
func IsError(result string) bool {
	return strings.HasPrefix(result, "Error")
}
