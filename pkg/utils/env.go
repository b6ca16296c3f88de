package utils

import (
	"fmt"
	"sort"
	"strings"
)

// ParseEnvVars parses KEY=VALUE pairs for tool environments, separated by
// commas, semicolons or newlines.
func ParseEnvVars(input string) (map[string]string, error) {
	result := make(map[string]string)
	for _, part := range strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	}) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q, want KEY=VALUE", part)
		}
		result[key] = strings.TrimSpace(value)
	}
	return result, nil
}

// MergeEnvVars returns base overlaid with override. Neither map is changed.
func MergeEnvVars(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// FormatEnvVars renders env as sorted KEY=VALUE entries for logging.
func FormatEnvVars(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+env[k])
	}
	return strings.Join(parts, ", ")
}
