package i18n

import "testing"

func TestResolveProbeOrder(t *testing.T) {
	t.Helper()

	cases := []struct {
		name string
		src  Source
		lang Language
		want string
	}{
		{name: "requested language", src: Fields{"title_mk": "Цвеќиња", "title_en": "Flowers"}, lang: English, want: "Flowers"},
		{name: "falls back to mk", src: Fields{"title_mk": "Цвеќиња", "title_en": ""}, lang: English, want: "Цвеќиња"},
		{name: "whitespace is missing", src: Fields{"title_mk": "Цвеќиња", "title_en": "   "}, lang: English, want: "Цвеќиња"},
		{name: "legacy column", src: Fields{"title": "Gerbera"}, lang: English, want: "Gerbera"},
		{name: "legacy column after empty mk", src: Fields{"title_mk": "", "title": "Gerbera"}, lang: Macedonian, want: "Gerbera"},
		{name: "nothing present", src: Fields{}, lang: English, want: ""},
		{name: "nil fields", src: Fields(nil), lang: English, want: ""},
		{name: "nil source", src: nil, lang: English, want: ""},
		{name: "invalid language uses default", src: Fields{"title_mk": "Цвеќиња", "title_en": "Flowers"}, lang: Language("de"), want: "Цвеќиња"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.src, "title", tc.lang); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveMapSource(t *testing.T) {
	src := MapSource{"cta_text_en": "Shop", "cta_text_mk": nil, "cta_text": 42.0}

	if got := Resolve(src, "cta_text", English); got != "Shop" {
		t.Fatalf("expected Shop, got %q", got)
	}
	if got := Resolve(src, "cta_text", Macedonian); got != "42" {
		t.Fatalf("expected legacy numeric value, got %q", got)
	}
	if got := Resolve(src, "missing", English); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestResolveAll(t *testing.T) {
	src := Fields{"title_en": "Roses", "subtitle_mk": "Свежи"}
	got := ResolveAll(src, English, "title", "subtitle")
	if got["title"] != "Roses" || got["subtitle"] != "Свежи" {
		t.Fatalf("unexpected resolution: %#v", got)
	}
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]struct {
		want Language
		ok   bool
	}{
		"en":    {English, true},
		"EN-gb": {English, true},
		"mk_MK": {Macedonian, true},
		"de":    {Default, false},
		"":      {Default, false},
		"???":   {Default, false},
	}
	for input, tc := range cases {
		got, ok := ParseLanguage(input)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLanguage(%q): expected (%s,%v), got (%s,%v)", input, tc.want, tc.ok, got, ok)
		}
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	if got := MatchAcceptLanguage("en-US,en;q=0.9"); got != English {
		t.Fatalf("expected en, got %s", got)
	}
	if got := MatchAcceptLanguage("fr-FR;q=0.9, mk;q=0.5"); got != Macedonian {
		t.Fatalf("expected mk, got %s", got)
	}
	if got := MatchAcceptLanguage(""); got != Default {
		t.Fatalf("expected default, got %s", got)
	}
}
