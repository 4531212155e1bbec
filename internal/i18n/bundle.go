package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Bundle holds static UI strings per language.
type Bundle struct {
	dict     map[Language]map[string]string
	fallback Language
}

// DefaultBundle loads the locale files compiled into the binary.
func DefaultBundle() (*Bundle, error) {
	sub, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: open embedded locales: %w", err)
	}
	return LoadFS(sub, Default)
}

// Load reads <lang>.json for every supported language from dir.
func Load(dir string, fallback Language) (*Bundle, error) {
	return LoadFS(os.DirFS(dir), fallback)
}

// LoadFS reads <lang>.json for every supported language from fsys. Only the
// fallback language file is mandatory.
func LoadFS(fsys fs.FS, fallback Language) (*Bundle, error) {
	if !fallback.Valid() {
		return nil, fmt.Errorf("i18n: unsupported fallback language %q", fallback)
	}
	b := &Bundle{dict: map[Language]map[string]string{}, fallback: fallback}
	for _, lang := range supportedLanguages {
		raw, err := fs.ReadFile(fsys, string(lang)+".json")
		if err != nil {
			if lang == fallback {
				return nil, fmt.Errorf("i18n: load locale %s: %w", lang, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("i18n: unmarshal %s: %w", lang, err)
		}
		b.dict[lang] = m
	}
	return b, nil
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() Language { return b.fallback }

// Keys lists the keys defined for the fallback language.
func (b *Bundle) Keys() []string {
	m := b.dict[b.fallback]
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// T returns the translation for key in lang, falling back to the default language and finally the key.
func (b *Bundle) T(lang Language, key string) string {
	if b == nil {
		return key
	}
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok && v != "" {
			return v
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
