// Package secrets resolves secret:// configuration references against
// Google Secret Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

const defaultVersion = "latest"

var accessRetry = gax.WithRetry(func() gax.Retryer {
	return gax.OnCodes([]codes.Code{codes.Unavailable, codes.DeadlineExceeded}, gax.Backoff{
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2,
	})
})

var ErrProjectRequired = errors.New("secrets: project id is required")

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Resolver fetches secret payloads and caches them for the process lifetime.
type Resolver struct {
	client     secretManagerClient
	ownsClient bool
	projectID  string
	logger     *zap.Logger
	fetches    metric.Int64Counter

	mu    sync.Mutex
	cache map[string]string
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClient injects a Secret Manager client; the Resolver will not close it.
func WithClient(client secretManagerClient) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// NewResolver creates a Resolver for projectID. Without WithClient a Secret
// Manager client is created with clientOpts.
func NewResolver(ctx context.Context, projectID string, clientOpts []option.ClientOption, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		projectID: strings.TrimSpace(projectID),
		logger:    zap.NewNop(),
		cache:     map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	counter, err := otel.GetMeterProvider().Meter("github.com/Micevski239/gerbera-sub000/internal/platform/secrets").
		Int64Counter("secrets.fetches", metric.WithDescription("Secret Manager accesses by outcome"))
	if err != nil {
		r.logger.Warn("secrets: unable to register fetch metric", zap.Error(err))
	}
	r.fetches = counter

	if r.client == nil {
		client, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("secrets: create client: %w", err)
		}
		r.client = client
		r.ownsClient = true
	}
	return r, nil
}

// ResolveSecret resolves "secret://<name>[?version=<v>&project=<p>]".
func (r *Resolver) ResolveSecret(ctx context.Context, ref string) (string, error) {
	name, err := r.resourceName(ref)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	if value, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return value, nil
	}
	r.mu.Unlock()

	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name}, accessRetry)
	if err != nil {
		r.record(ctx, "error")
		r.logger.Warn("secrets: access failed", zap.String("secret", maskName(name)), zap.Error(err))
		return "", fmt.Errorf("secrets: access %s: %w", maskName(name), err)
	}
	if resp.GetPayload() == nil {
		r.record(ctx, "empty")
		return "", fmt.Errorf("secrets: empty payload for %s", maskName(name))
	}
	value := string(resp.GetPayload().GetData())
	r.record(ctx, "ok")

	r.mu.Lock()
	r.cache[name] = value
	r.mu.Unlock()
	return value, nil
}

// Close releases the owned client.
func (r *Resolver) Close() error {
	if r == nil || !r.ownsClient || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Resolver) resourceName(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("secrets: invalid reference: %w", err)
	}
	if u.Scheme != "secret" {
		return "", fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	secret := strings.Trim(u.Host+u.Path, "/")
	if secret == "" {
		return "", errors.New("secrets: missing secret name")
	}
	query := u.Query()
	project := strings.TrimSpace(query.Get("project"))
	if project == "" {
		project = r.projectID
	}
	if project == "" {
		return "", ErrProjectRequired
	}
	version := strings.TrimSpace(query.Get("version"))
	if version == "" {
		version = defaultVersion
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, secret, version), nil
}

func (r *Resolver) record(ctx context.Context, outcome string) {
	if r.fetches == nil {
		return
	}
	r.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// maskName keeps the secret id but hides the project.
func maskName(name string) string {
	parts := strings.Split(name, "/")
	if len(parts) == 6 {
		return "projects/***/secrets/" + parts[3] + "/versions/" + parts[5]
	}
	return "***"
}
