package i18n

import (
	"testing"
	"testing/fstest"
)

func TestBundleFallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"mk.json": {Data: []byte(`{"greeting":"Здраво","only_mk":"само"}`)},
		"en.json": {Data: []byte(`{"greeting":"Hello"}`)},
	}
	b, err := LoadFS(fsys, Macedonian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := b.T(English, "greeting"); got != "Hello" {
		t.Fatalf("expected Hello, got %q", got)
	}
	if got := b.T(English, "only_mk"); got != "само" {
		t.Fatalf("expected fallback translation, got %q", got)
	}
	if got := b.T(English, "missing.key"); got != "missing.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
}

func TestBundleRequiresFallbackFile(t *testing.T) {
	fsys := fstest.MapFS{"en.json": {Data: []byte(`{}`)}}
	if _, err := LoadFS(fsys, Macedonian); err == nil {
		t.Fatalf("expected error when fallback locale is missing")
	}
}

func TestDefaultBundleKeysMatch(t *testing.T) {
	b, err := DefaultBundle()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range b.Keys() {
		if got := b.T(English, key); got == key {
			t.Fatalf("english locale missing key %q", key)
		}
	}
}
