// Package strings holds small string-slice helpers shared across contexts.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every element, drops empties, and removes duplicates
// while preserving first-seen order. Changed-field lists pass through here
// before they are embedded in synthesized change reasons, so the output must
// be stable for a given input.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
