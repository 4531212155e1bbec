package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a storefront language code.
type Language string

const (
	Macedonian Language = "mk"
	English    Language = "en"

	// Default is the primary storefront language and the fallback for every lookup.
	Default = Macedonian
)

var (
	supportedLanguages = []Language{Macedonian, English}
	languageMatcher    = language.NewMatcher([]language.Tag{language.Macedonian, language.English})
)

// Supported returns the languages text can be resolved in, default first.
func Supported() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// Valid reports whether the language is one of the supported codes.
func (l Language) Valid() bool {
	for _, s := range supportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// ParseLanguage maps a code or BCP 47 tag ("en", "en-GB", "MK") to a supported language.
func ParseLanguage(value string) (Language, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default, false
	}
	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return Default, false
	}
	base, _ := tag.Base()
	lang := Language(strings.ToLower(base.String()))
	if !lang.Valid() {
		return Default, false
	}
	return lang, true
}

// MatchAcceptLanguage picks the best supported language for an Accept-Language header.
func MatchAcceptLanguage(header string) Language {
	header = strings.TrimSpace(header)
	if header == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return supportedLanguages[index]
}
