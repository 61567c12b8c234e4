package actions

import "strings"

// SanitizeText collapses every run of whitespace, newlines and tabs included,
// into a single space and trims both ends.
func SanitizeText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
