package firestore

import (
	"context"
	"errors"
	"testing"

	"github.com/Micevski239/gerbera-sub000/internal/platform/config"
)

func TestClientRequiresProject(t *testing.T) {
	t.Setenv(envGoogleProjectID, "")
	p := NewProvider(config.FirestoreConfig{})
	if _, err := p.Client(context.Background()); err == nil {
		t.Fatalf("expected missing project error")
	}
}

func TestClosedProvider(t *testing.T) {
	p := NewProvider(config.FirestoreConfig{ProjectID: "gerbera-dev"})
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if _, err := p.Client(context.Background()); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}
}

func TestEmulatorHostPrefersConfig(t *testing.T) {
	t.Setenv(envEmulatorHost, "localhost:9000")
	p := NewProvider(config.FirestoreConfig{EmulatorHost: " 127.0.0.1:8085 "})
	if got := p.emulatorHost(); got != "127.0.0.1:8085" {
		t.Fatalf("expected config host, got %s", got)
	}
	p = NewProvider(config.FirestoreConfig{})
	if got := p.emulatorHost(); got != "localhost:9000" {
		t.Fatalf("expected env host, got %s", got)
	}
}
