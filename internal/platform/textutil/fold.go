package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s for case-insensitive comparisons.
// Covers Cyrillic as well as Latin text.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
func ContainsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}
