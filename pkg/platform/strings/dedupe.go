// Package strings provides string-slice utilities.
package strings

import (
	"strings"
)

// DedupeAndTrimLower lowercases and trims each element, dropping empties and
// duplicates. Order of first occurrence is preserved. Used to normalize
// cleartext tag lists before storage.
//
// Example:
//
//	DedupeAndTrimLower([]string{"  Food ", "water", "food", ""})
//	// Returns: []string{"food", "water"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; !ok {
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}

	return result
}
