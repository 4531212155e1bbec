// Package storage turns stored image paths into URLs browsers can load.
package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

const (
	defaultSignedURLExpiry = 15 * time.Minute
	maxSignedURLExpiry     = 7 * 24 * time.Hour
)

var (
	errNoSigner      = errors.New("storage: signer is required")
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidBase   = errors.New("storage: public base url must be absolute")
)

// ImageResolver maps a stored image path to a URL. ok is false when the path
// is empty or cannot be resolved.
type ImageResolver interface {
	ResolveImage(ctx context.Context, path string) (string, bool)
}

// ImageResolverFunc adapts a function to ImageResolver.
type ImageResolverFunc func(ctx context.Context, path string) (string, bool)

// ResolveImage implements ImageResolver.
func (f ImageResolverFunc) ResolveImage(ctx context.Context, path string) (string, bool) {
	return f(ctx, path)
}

// PassthroughResolver returns absolute URLs unchanged and rejects everything else.
var PassthroughResolver ImageResolver = ImageResolverFunc(func(_ context.Context, path string) (string, bool) {
	path = strings.TrimSpace(path)
	if isAbsoluteURL(path) {
		return path, true
	}
	return "", false
})

// PublicResolver joins object paths onto a public bucket or CDN base URL.
type PublicResolver struct {
	base *url.URL
}

// NewPublicResolver parses baseURL, for example
// "https://storage.googleapis.com/gerbera-images".
func NewPublicResolver(baseURL string) (*PublicResolver, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errInvalidBase
	}
	return &PublicResolver{base: u}, nil
}

// ResolveImage implements ImageResolver.
func (r *PublicResolver) ResolveImage(_ context.Context, path string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}
	if isAbsoluteURL(path) {
		return path, true
	}
	return r.base.JoinPath(strings.Split(strings.TrimLeft(path, "/"), "/")...).String(), true
}

// SignedResolver issues short-lived V4 signed GET URLs for objects in a private bucket.
type SignedResolver struct {
	bucket string
	signer Signer
	expiry time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// SignedOption customises a SignedResolver.
type SignedOption func(*SignedResolver)

// WithExpiry overrides the URL lifetime.
func WithExpiry(expiry time.Duration) SignedOption {
	return func(r *SignedResolver) {
		if expiry > 0 && expiry <= maxSignedURLExpiry {
			r.expiry = expiry
		}
	}
}

// WithClock injects a clock.
func WithClock(clock func() time.Time) SignedOption {
	return func(r *SignedResolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithLogger sets the logger used for signing failures.
func WithLogger(logger *zap.Logger) SignedOption {
	return func(r *SignedResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewSignedResolver constructs a SignedResolver for bucket.
func NewSignedResolver(bucket string, signer Signer, opts ...SignedOption) (*SignedResolver, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	r := &SignedResolver{
		bucket: bucket,
		signer: signer,
		expiry: defaultSignedURLExpiry,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// ResolveImage implements ImageResolver. Signing failures are logged and
// reported as unresolved so a broken image never fails a whole page.
func (r *SignedResolver) ResolveImage(ctx context.Context, path string) (string, bool) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", false
	}
	if isAbsoluteURL(path) {
		return path, true
	}
	signed, err := storage.SignedURL(r.bucket, path, &storage.SignedURLOptions{
		GoogleAccessID: r.signer.Email(),
		Method:         "GET",
		Expires:        r.now().Add(r.expiry),
		Scheme:         storage.SigningSchemeV4,
		SignBytes: func(payload []byte) ([]byte, error) {
			return r.signer.SignBytes(ctx, payload)
		},
	})
	if err != nil {
		r.logger.Warn("storage: sign image url failed", zap.String("object", path), zap.Error(err))
		return "", false
	}
	return signed, true
}

func isAbsoluteURL(path string) bool {
	return strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://")
}
