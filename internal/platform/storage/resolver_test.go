package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

type fakeSigner struct {
	email    string
	payloads int
	err      error
}

func (f *fakeSigner) Email() string { return f.email }

func (f *fakeSigner) SignBytes(_ context.Context, _ []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads++
	return []byte("signed"), nil
}

func TestPublicResolver(t *testing.T) {
	r, err := NewPublicResolver("https://cdn.example.com/images/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := r.ResolveImage(context.Background(), "/products/p1/main photo.jpg")
	if !ok || got != "https://cdn.example.com/images/products/p1/main%20photo.jpg" {
		t.Fatalf("unexpected url %q (ok=%v)", got, ok)
	}
	if _, ok := r.ResolveImage(context.Background(), "  "); ok {
		t.Fatalf("expected empty path to be unresolved")
	}
	if got, _ := r.ResolveImage(context.Background(), "https://other.example.com/a.jpg"); got != "https://other.example.com/a.jpg" {
		t.Fatalf("expected absolute url passthrough, got %q", got)
	}
	if _, err := NewPublicResolver("not a url"); err == nil {
		t.Fatalf("expected invalid base error")
	}
}

func TestSignedResolver(t *testing.T) {
	signer := &fakeSigner{email: "storefront@gerbera.iam.gserviceaccount.com"}
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r, err := NewSignedResolver("gerbera-images", signer, WithClock(func() time.Time { return now }), WithExpiry(10*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.ResolveImage(context.Background(), "products/p1/main.jpg")
	if !ok {
		t.Fatalf("expected signed url")
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.Contains(u.Path, "products/p1/main.jpg") {
		t.Fatalf("expected object path in %s", got)
	}
	if u.Query().Get("X-Goog-Expires") != "600" {
		t.Fatalf("expected 600s expiry, got %s", u.Query().Get("X-Goog-Expires"))
	}
	if signer.payloads != 1 {
		t.Fatalf("expected one signature, got %d", signer.payloads)
	}

	signer.err = errors.New("kms down")
	if _, ok := r.ResolveImage(context.Background(), "products/p2/main.jpg"); ok {
		t.Fatalf("expected signing failure to be unresolved")
	}
}

func TestNewSignedResolverValidation(t *testing.T) {
	if _, err := NewSignedResolver("", &fakeSigner{email: "a@b"}); !errors.Is(err, errInvalidBucket) {
		t.Fatalf("expected errInvalidBucket, got %v", err)
	}
	if _, err := NewSignedResolver("bucket", &fakeSigner{}); !errors.Is(err, errNoSigner) {
		t.Fatalf("expected errNoSigner, got %v", err)
	}
}

func TestServiceAccountSignerFromJSON(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	raw, _ := json.Marshal(map[string]string{
		"client_email": "storefront@gerbera.iam.gserviceaccount.com",
		"private_key":  string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
	})

	signer, err := NewServiceAccountSignerFromJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sig, err := signer.SignBytes(context.Background(), []byte("payload"))
	if err != nil || len(sig) == 0 {
		t.Fatalf("expected signature, got %v", err)
	}

	if _, err := NewServiceAccountSignerFromJSON([]byte(`{"client_email":"x"}`)); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestPassthroughResolver(t *testing.T) {
	if _, ok := PassthroughResolver.ResolveImage(context.Background(), "products/p1.jpg"); ok {
		t.Fatalf("expected relative path to be unresolved")
	}
	if got, ok := PassthroughResolver.ResolveImage(context.Background(), "https://x.test/a.jpg"); !ok || got != "https://x.test/a.jpg" {
		t.Fatalf("unexpected passthrough %q", got)
	}
}
