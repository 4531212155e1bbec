package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Micevski239/gerbera-sub000/internal/di"
	"github.com/Micevski239/gerbera-sub000/internal/handlers"
	"github.com/Micevski239/gerbera-sub000/internal/platform/config"
	"github.com/Micevski239/gerbera-sub000/internal/platform/observability"
	"github.com/Micevski239/gerbera-sub000/internal/platform/secrets"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	lookup, err := config.Lookup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment: %v\n", err)
		os.Exit(1)
	}
	level, _ := lookup("STOREFRONT_LOG_LEVEL")
	baseLogger, err := observability.NewLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)

	var loadOpts []config.Option
	if projectID, _ := lookup("STOREFRONT_SECRETS_PROJECT_ID"); strings.TrimSpace(projectID) != "" {
		resolver, err := secrets.NewResolver(ctx, projectID, nil, secrets.WithLogger(logger.Named("secrets")))
		if err != nil {
			logger.Fatal("failed to initialise secret resolver", zap.Error(err))
		}
		defer func() {
			if err := resolver.Close(); err != nil {
				logger.Warn("secret resolver close error", zap.Error(err))
			}
		}()
		loadOpts = append(loadOpts, config.WithSecretResolver(resolver))
	}

	cfg, err := config.Load(ctx, loadOpts...)
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, di.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to initialise container", zap.Error(err), zap.String("driver", cfg.Datastore.Driver))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	version, _ := lookup("STOREFRONT_BUILD_VERSION")
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}

	storefront := handlers.NewStorefrontHandlers(
		handlers.WithCatalogService(container.Services.Catalog),
		handlers.WithHomepageService(container.Services.Homepage),
		handlers.WithProductImageResolver(container.Images),
		handlers.WithPageSizes(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize),
	)
	health := handlers.NewHealthHandlers(
		handlers.WithSystemService(container.Services.System),
		handlers.WithVersion(version),
	)

	httpLogger := logger.Named("http")
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(httpLogger),
			observability.TraceMiddleware(cfg.Observability.TraceProjectID),
			observability.RecoveryMiddleware(httpLogger),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithStorefrontRoutes(storefront.Routes),
		handlers.WithRequestTimeout(cfg.Server.WriteTimeout),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := httpLogger.With(zap.String("addr", server.Addr), zap.String("datastore", cfg.Datastore.Driver))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
