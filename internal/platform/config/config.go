package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultDriver           = DriverMemory
	defaultQueryTimeout     = 5 * time.Second
	defaultLanguage         = "mk"
	defaultPageSize         = 12
	defaultMaxPageSize      = 100
	defaultHomepagePoolSize = 200
	defaultSignedURLTTL     = 15 * time.Minute
	defaultLogLevel         = "info"
)

// Datastore drivers.
const (
	DriverMemory    = "memory"
	DriverFirestore = "firestore"
	DriverMySQL     = "mysql"
	DriverPostgres  = "postgres"
	DriverMongo     = "mongo"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server        ServerConfig
	Datastore     DatastoreConfig
	Firestore     FirestoreConfig
	Storage       StorageConfig
	I18n          I18nConfig
	Catalog       CatalogConfig
	Secrets       SecretsConfig
	Observability ObservabilityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatastoreConfig selects and connects the catalog backend.
type DatastoreConfig struct {
	Driver       string
	DSN          string
	Database     string
	FixturesFile string
	QueryTimeout time.Duration
}

// FirestoreConfig configures the Firestore backend.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig controls how image paths become URLs.
type StorageConfig struct {
	ImageBucket   string
	PublicBaseURL string
	SignedURLs    bool
	SignerKeyJSON string
	SignedURLTTL  time.Duration
}

// I18nConfig configures language handling.
type I18nConfig struct {
	DefaultLanguage string
	LocalesDir      string
}

// CatalogConfig holds catalog paging limits.
type CatalogConfig struct {
	DefaultPageSize  int
	MaxPageSize      int
	HomepagePoolSize int
}

// SecretsConfig configures Secret Manager lookups for secret:// references.
type SecretsConfig struct {
	ProjectID string
}

// ObservabilityConfig configures logging and trace correlation.
type ObservabilityConfig struct {
	LogLevel string
	// TraceProjectID is the Cloud Trace project used to build trace resource names.
	TraceProjectID string
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path. An empty path disables the file layer.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets the resolver used for secret:// and sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// Lookup returns the value lookup Load uses: explicit map, then process
// environment, then the .env file. Useful for bootstrapping dependencies such
// as the secret resolver before Load runs.
func Lookup(opts ...Option) (func(string) (string, bool), error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}
	return options.lookup()
}

func (o loaderOptions) lookup() (func(string) (string, bool), error) {
	dotEnvValues, err := loadDotEnv(o.envFile)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		if o.envMap != nil {
			if value, ok := o.envMap[key]; ok {
				return value, true
			}
		}
		if o.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}, nil
}

// Load assembles configuration from defaults, the .env file, the process
// environment and explicit overrides, then resolves secret references.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
	for _, opt := range opts {
		opt(&options)
	}

	lookup, err := options.lookup()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "STOREFRONT_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STOREFRONT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Datastore: DatastoreConfig{
			Driver:       strings.ToLower(stringWithDefault(lookup, "STOREFRONT_DATASTORE_DRIVER", defaultDriver)),
			DSN:          stringWithDefault(lookup, "STOREFRONT_DATASTORE_DSN", ""),
			Database:     stringWithDefault(lookup, "STOREFRONT_DATASTORE_DATABASE", ""),
			FixturesFile: stringWithDefault(lookup, "STOREFRONT_DATASTORE_FIXTURES", ""),
			QueryTimeout: durationWithDefault(lookup, "STOREFRONT_DATASTORE_QUERY_TIMEOUT", defaultQueryTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "STOREFRONT_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "STOREFRONT_FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			ImageBucket:   stringWithDefault(lookup, "STOREFRONT_STORAGE_IMAGE_BUCKET", ""),
			PublicBaseURL: stringWithDefault(lookup, "STOREFRONT_STORAGE_PUBLIC_BASE_URL", ""),
			SignedURLs:    boolWithDefault(lookup, "STOREFRONT_STORAGE_SIGNED_URLS", false),
			SignerKeyJSON: stringWithDefault(lookup, "STOREFRONT_STORAGE_SIGNER_KEY", ""),
			SignedURLTTL:  durationWithDefault(lookup, "STOREFRONT_STORAGE_SIGNED_URL_TTL", defaultSignedURLTTL),
		},
		I18n: I18nConfig{
			DefaultLanguage: strings.ToLower(stringWithDefault(lookup, "STOREFRONT_I18N_DEFAULT_LANGUAGE", defaultLanguage)),
			LocalesDir:      stringWithDefault(lookup, "STOREFRONT_I18N_LOCALES_DIR", ""),
		},
		Catalog: CatalogConfig{
			DefaultPageSize:  intWithDefault(lookup, "STOREFRONT_CATALOG_PAGE_SIZE", defaultPageSize),
			MaxPageSize:      intWithDefault(lookup, "STOREFRONT_CATALOG_MAX_PAGE_SIZE", defaultMaxPageSize),
			HomepagePoolSize: intWithDefault(lookup, "STOREFRONT_CATALOG_HOMEPAGE_POOL_SIZE", defaultHomepagePoolSize),
		},
		Secrets: SecretsConfig{
			ProjectID: stringWithDefault(lookup, "STOREFRONT_SECRETS_PROJECT_ID", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       strings.ToLower(stringWithDefault(lookup, "STOREFRONT_LOG_LEVEL", defaultLogLevel)),
			TraceProjectID: stringWithDefault(lookup, "STOREFRONT_TRACE_PROJECT_ID", ""),
		},
	}

	secretFields := []*string{
		&cfg.Datastore.DSN,
		&cfg.Storage.SignerKeyJSON,
	}
	for _, field := range secretFields {
		value, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*field = value
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !IsSecretReference(value) {
		return value, nil
	}
	normalized := NormalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Datastore.Driver {
	case DriverMemory:
	case DriverFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
	case DriverMySQL, DriverPostgres:
		if cfg.Datastore.DSN == "" {
			missing = append(missing, "Datastore.DSN")
		}
	case DriverMongo:
		if cfg.Datastore.DSN == "" {
			missing = append(missing, "Datastore.DSN")
		}
		if cfg.Datastore.Database == "" {
			missing = append(missing, "Datastore.Database")
		}
	default:
		missing = append(missing, "Datastore.Driver")
	}
	if cfg.Datastore.QueryTimeout <= 0 {
		missing = append(missing, "Datastore.QueryTimeout")
	}
	if cfg.Storage.SignedURLs {
		if cfg.Storage.ImageBucket == "" {
			missing = append(missing, "Storage.ImageBucket")
		}
		if cfg.Storage.SignerKeyJSON == "" {
			missing = append(missing, "Storage.SignerKeyJSON")
		}
	}
	if cfg.I18n.DefaultLanguage != "mk" && cfg.I18n.DefaultLanguage != "en" {
		missing = append(missing, "I18n.DefaultLanguage")
	}
	if cfg.Catalog.DefaultPageSize <= 0 || cfg.Catalog.DefaultPageSize > cfg.Catalog.MaxPageSize {
		missing = append(missing, "Catalog.DefaultPageSize")
	}
	if cfg.Catalog.HomepagePoolSize <= 0 {
		missing = append(missing, "Catalog.HomepagePoolSize")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

// IsSecretReference reports whether value points at Secret Manager.
func IsSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

// NormalizeSecretReference rewrites sm:// references to the secret:// form.
func NormalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(trimmed, "sm://"); ok {
		return "secret://" + rest
	}
	return trimmed
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}
