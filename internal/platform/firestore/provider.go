// Package firestore opens the shared Firestore client used by the
// firestoredb datastore backend.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Micevski239/gerbera-sub000/internal/platform/config"
)

const (
	connectTimeout     = 10 * time.Second
	envEmulatorHost    = "FIRESTORE_EMULATOR_HOST"
	envGoogleProjectID = "GOOGLE_CLOUD_PROJECT"
)

var (
	ErrProviderClosed = errors.New("firestore: provider is closed")
	errNoProject      = errors.New("firestore: project id is required")
)

// Provider hands out one Firestore client per process. The client is created
// on first use; a failed attempt is retried by the next caller.
type Provider struct {
	cfg config.FirestoreConfig

	mu     sync.Mutex
	client *firestore.Client
	closed bool
}

func NewProvider(cfg config.FirestoreConfig) *Provider {
	return &Provider{cfg: cfg}
}

// Client returns the shared client.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return nil, ErrProviderClosed
	case p.client != nil:
		return p.client, nil
	}

	project := firstSet(p.cfg.ProjectID, os.Getenv(envGoogleProjectID))
	if project == "" {
		return nil, errNoProject
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := firestore.NewClient(ctx, project, p.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client for %s: %w", project, err)
	}
	p.client = client
	return client, nil
}

func (p *Provider) clientOptions() []option.ClientOption {
	host := p.emulatorHost()
	if host == "" {
		return nil
	}
	return []option.ClientOption{
		option.WithEndpoint(host),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

func (p *Provider) emulatorHost() string {
	return firstSet(p.cfg.EmulatorHost, os.Getenv(envEmulatorHost))
}

// Close shuts the client down. Later calls to Client fail with ErrProviderClosed.
func (p *Provider) Close(context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	client := p.client
	p.client = nil
	if client == nil {
		return nil
	}
	return client.Close()
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
