package textutil

import (
	"strings"
	"unicode"
)

// Clip makes untrusted text safe for logs and error payloads: control
// characters become spaces, surrounding space is trimmed and the result is
// cut to at most limit runes.
func Clip(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value))
	runes := 0
	for i := range cleaned {
		if runes == limit {
			return cleaned[:i]
		}
		runes++
	}
	return cleaned
}
