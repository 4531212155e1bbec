package i18n

import (
	"fmt"
	"strings"
)

// Source exposes raw localized columns keyed by their stored field name
// (for example "title_mk", "title_en" or the legacy unsuffixed "title").
type Source interface {
	Field(key string) (string, bool)
}

// Fields is the decoded form of a record's text columns.
type Fields map[string]string

// Field implements Source.
func (f Fields) Field(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f[key]
	return v, ok
}

// Set stores value under key, lazily allocating the map.
func (f *Fields) Set(key, value string) {
	if *f == nil {
		*f = Fields{}
	}
	(*f)[key] = value
}

// MapSource adapts loosely typed JSON objects (section config payloads) to Source.
// Non-string values are formatted; nil values are absent.
type MapSource map[string]any

// Field implements Source.
func (m MapSource) Field(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	case float64, float32, int, int32, int64, bool:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

// Resolve returns the display text for base in lang. Probes "<base>_<lang>",
// then the Macedonian column, then the legacy unsuffixed column. Values that are
// empty after trimming count as missing. Returns "" when nothing is present.
func Resolve(src Source, base string, lang Language) string {
	if src == nil || base == "" {
		return ""
	}
	if !lang.Valid() {
		lang = Default
	}
	candidates := [3]string{base + "_" + string(lang), base + "_" + string(Macedonian), base}
	for i, key := range candidates {
		if i == 1 && lang == Macedonian {
			continue
		}
		if v, ok := src.Field(key); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ResolveAll resolves several bases at once, keyed by base.
func ResolveAll(src Source, lang Language, bases ...string) map[string]string {
	out := make(map[string]string, len(bases))
	for _, base := range bases {
		out[base] = Resolve(src, base, lang)
	}
	return out
}
