package device

import "strings"

// Level bounds.
const (
	MinLevel = 0
	MaxLevel = 100
)

// ClampLevel limits n to [MinLevel, MaxLevel].
func ClampLevel(n int) int {
	switch {
	case n < MinLevel:
		return MinLevel
	case n > MaxLevel:
		return MaxLevel
	default:
		return n
	}
}

// NormalizeName replaces the controller's '|' separators with spaces and
// trims the result.
func NormalizeName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "|", " "))
}
