// Package di assembles the storefront runtime from configuration.
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
	"github.com/Micevski239/gerbera-sub000/internal/datastore/firestoredb"
	"github.com/Micevski239/gerbera-sub000/internal/datastore/memory"
	"github.com/Micevski239/gerbera-sub000/internal/datastore/mongostore"
	"github.com/Micevski239/gerbera-sub000/internal/datastore/sqlstore"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/platform/config"
	pfirestore "github.com/Micevski239/gerbera-sub000/internal/platform/firestore"
	"github.com/Micevski239/gerbera-sub000/internal/platform/storage"
	"github.com/Micevski239/gerbera-sub000/internal/repositories"
	"github.com/Micevski239/gerbera-sub000/internal/repositories/relational"
	"github.com/Micevski239/gerbera-sub000/internal/services"
)

const datastoreProbeTimeout = 2 * time.Second

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Catalog  services.CatalogService
	Homepage services.HomepageService
	System   services.SystemService
}

// Container wires the datastore, repositories and services for runtime use.
type Container struct {
	Config    config.Config
	Datastore datastore.Client
	Images    storage.ImageResolver
	Bundle    *i18n.Bundle
	Services  Services

	closers []func(context.Context) error
}

// Option customises container construction.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	datastore datastore.Client
	images    storage.ImageResolver
	clock     func() time.Time
}

// WithLogger sets the base logger for all components.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDatastore bypasses driver selection and uses client directly.
func WithDatastore(client datastore.Client) Option {
	return func(o *options) {
		o.datastore = client
	}
}

// WithImageResolver overrides the resolver derived from storage configuration.
func WithImageResolver(resolver storage.ImageResolver) Option {
	return func(o *options) {
		o.images = resolver
	}
}

// WithClock injects a clock into the services.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// NewContainer constructs the runtime dependencies. On failure every resource
// opened so far is released.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (_ *Container, err error) {
	o := options{logger: zap.NewNop(), clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	client := o.datastore
	if client == nil {
		client, err = c.openDatastore(ctx, cfg, o.logger)
		if err != nil {
			return nil, err
		}
	}
	c.Datastore = withQueryTimeout(client, cfg.Datastore.QueryTimeout)

	c.Images = o.images
	if c.Images == nil {
		if c.Images, err = newImageResolver(cfg.Storage, o.logger); err != nil {
			return nil, err
		}
	}

	if c.Bundle, err = loadBundle(cfg.I18n); err != nil {
		return nil, err
	}

	if c.Services, err = c.buildServices(cfg, o); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) buildServices(cfg config.Config, o options) (Services, error) {
	catalogRepo, err := relational.NewCatalogRepository(c.Datastore)
	if err != nil {
		return Services{}, fmt.Errorf("di: catalog repository: %w", err)
	}
	contentRepo, err := relational.NewContentRepository(c.Datastore)
	if err != nil {
		return Services{}, fmt.Errorf("di: content repository: %w", err)
	}

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog:         catalogRepo,
		Logger:          o.logger,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
		PoolSize:        cfg.Catalog.HomepagePoolSize,
		Clock:           o.clock,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: catalog service: %w", err)
	}

	composer := services.NewComposer(
		services.WithComposerLogger(o.logger),
		services.WithImageResolver(c.Images),
		services.WithBundle(c.Bundle),
	)
	homepage, err := services.NewHomepageService(services.HomepageServiceDeps{
		Content:  contentRepo,
		Catalog:  catalogRepo,
		Composer: composer,
		Logger:   o.logger,
		PoolSize: cfg.Catalog.HomepagePoolSize,
		Clock:    o.clock,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: homepage service: %w", err)
	}

	health, err := repositories.NewHealthRepository([]repositories.Probe{{
		Name:    "datastore",
		Timeout: datastoreProbeTimeout,
		Check:   datastoreProbe(c.Datastore),
	}}, repositories.WithHealthClock(o.clock))
	if err != nil {
		return Services{}, fmt.Errorf("di: health repository: %w", err)
	}
	system, err := services.NewSystemService(health)
	if err != nil {
		return Services{}, fmt.Errorf("di: system service: %w", err)
	}

	return Services{Catalog: catalog, Homepage: homepage, System: system}, nil
}

// Close releases datastore connections in reverse order of acquisition.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) openDatastore(ctx context.Context, cfg config.Config, logger *zap.Logger) (datastore.Client, error) {
	switch cfg.Datastore.Driver {
	case config.DriverMemory:
		store := memory.New()
		if path := strings.TrimSpace(cfg.Datastore.FixturesFile); path != "" {
			if err := store.LoadFixturesFile(path); err != nil {
				return nil, err
			}
		}
		return store, nil
	case config.DriverFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		if _, err := provider.Client(ctx); err != nil {
			return nil, fmt.Errorf("di: firestore client: %w", err)
		}
		c.closers = append(c.closers, provider.Close)
		return firestoredb.New(provider), nil
	case config.DriverMySQL, config.DriverPostgres:
		dialect, err := sqlstore.ParseDialect(cfg.Datastore.Driver)
		if err != nil {
			return nil, err
		}
		store, err := sqlstore.Open(ctx, dialect, cfg.Datastore.DSN, sqlstore.WithLogger(logger.Named("sqlstore")))
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil
	case config.DriverMongo:
		store, err := mongostore.Open(ctx, cfg.Datastore.DSN, cfg.Datastore.Database)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("di: unsupported datastore driver %q", cfg.Datastore.Driver)
	}
}

// withQueryTimeout bounds every select by timeout unless the caller's deadline is sooner.
func withQueryTimeout(client datastore.Client, timeout time.Duration) datastore.Client {
	if timeout <= 0 {
		return client
	}
	return datastore.ClientFunc(func(ctx context.Context, q datastore.Query) (datastore.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Select(ctx, q)
	})
}

func datastoreProbe(client datastore.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := client.Select(ctx, datastore.Query{
			Table: datastore.TableCategories,
			Range: &datastore.Range{Limit: 1},
		})
		return err
	}
}

func newImageResolver(cfg config.StorageConfig, logger *zap.Logger) (storage.ImageResolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case cfg.SignedURLs:
		signer, err := storage.NewServiceAccountSignerFromJSON([]byte(cfg.SignerKeyJSON))
		if err != nil {
			return nil, fmt.Errorf("di: storage signer: %w", err)
		}
		resolver, err := storage.NewSignedResolver(cfg.ImageBucket, signer,
			storage.WithExpiry(cfg.SignedURLTTL),
			storage.WithLogger(logger.Named("storage")),
		)
		if err != nil {
			return nil, fmt.Errorf("di: signed image urls: %w", err)
		}
		return resolver, nil
	case strings.TrimSpace(cfg.PublicBaseURL) != "":
		resolver, err := storage.NewPublicResolver(cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("di: public image urls: %w", err)
		}
		return resolver, nil
	default:
		return storage.PassthroughResolver, nil
	}
}

func loadBundle(cfg config.I18nConfig) (*i18n.Bundle, error) {
	fallback, ok := i18n.ParseLanguage(cfg.DefaultLanguage)
	if !ok {
		fallback = i18n.Default
	}
	if dir := strings.TrimSpace(cfg.LocalesDir); dir != "" {
		return i18n.Load(dir, fallback)
	}
	return i18n.DefaultBundle()
}
