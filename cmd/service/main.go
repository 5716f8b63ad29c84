// Package main is the entry point for the quotes API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jsamuelsen/quotes-api/internal/adapters/clients"
	"github.com/jsamuelsen/quotes-api/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotes-api/internal/adapters/http"
	"github.com/jsamuelsen/quotes-api/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotes-api/internal/adapters/identity"
	"github.com/jsamuelsen/quotes-api/internal/adapters/store/bolt"
	"github.com/jsamuelsen/quotes-api/internal/adapters/store/firestore"
	"github.com/jsamuelsen/quotes-api/internal/app"
	"github.com/jsamuelsen/quotes-api/internal/platform/config"
	"github.com/jsamuelsen/quotes-api/internal/platform/firebase"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
	"github.com/jsamuelsen/quotes-api/internal/platform/telemetry"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const introspectionServiceName = "token-introspection"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting quotes api",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("auth_provider", cfg.Auth.Provider),
		slog.String("store_driver", cfg.Store.Driver),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	deps := &dependencies{cfg: cfg, logger: logger}
	defer deps.close()

	store, err := deps.openStore(ctx)
	if err != nil {
		return err
	}

	verifier, err := deps.newVerifier(ctx)
	if err != nil {
		return err
	}

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(store); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Repository: store,
		Logger:     logger,
	})

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName:   cfg.Telemetry.ServiceName,
		CORS:          cfg.CORS,
		Timeout:       cfg.Server.RequestTimeout,
		HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime)),
		QuoteHandler:  handlers.NewQuoteHandler(quoteService),
		Verifier:      verifier,
	})

	serverErr, err := server.Start()
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// quoteStore is what the service and the readiness probe need from a store.
type quoteStore interface {
	ports.QuoteRepository
	ports.HealthChecker
}

// dependencies builds the configured store and verifier and owns their
// shutdown. The Firebase app is shared between Firestore and Firebase Auth.
type dependencies struct {
	cfg     *config.Config
	logger  *slog.Logger
	fb      *firebase.App
	closers []io.Closer
}

func (d *dependencies) firebaseApp(ctx context.Context) (*firebase.App, error) {
	if d.fb != nil {
		return d.fb, nil
	}

	fbApp, err := firebase.New(ctx, d.cfg.Firebase)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase: %w", err)
	}

	d.fb = fbApp
	d.closers = append(d.closers, fbApp)

	return fbApp, nil
}

func (d *dependencies) openStore(ctx context.Context) (quoteStore, error) {
	switch d.cfg.Store.Driver {
	case config.StoreDriverBolt:
		if err := os.MkdirAll(filepath.Dir(d.cfg.Store.Bolt.Path), 0o750); err != nil {
			return nil, fmt.Errorf("creating bolt directory: %w", err)
		}

		store, err := bolt.Open(bolt.Config{
			Path:    d.cfg.Store.Bolt.Path,
			Bucket:  d.cfg.Store.Collection,
			Timeout: d.cfg.Store.Bolt.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("opening bolt store: %w", err)
		}

		d.closers = append(d.closers, store)
		d.logger.Info("using bolt quote store", slog.String("path", d.cfg.Store.Bolt.Path))

		return store, nil

	case config.StoreDriverFirestore:
		fbApp, err := d.firebaseApp(ctx)
		if err != nil {
			return nil, err
		}

		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating firestore client: %w", err)
		}

		d.logger.Info("using firestore quote store", slog.String("collection", d.cfg.Store.Collection))

		return firestore.New(client, d.cfg.Store.Collection), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", d.cfg.Store.Driver)
	}
}

func (d *dependencies) newVerifier(ctx context.Context) (ports.IdentityVerifier, error) {
	switch d.cfg.Auth.Provider {
	case config.AuthProviderFirebase:
		fbApp, err := d.firebaseApp(ctx)
		if err != nil {
			return nil, err
		}

		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating firebase auth client: %w", err)
		}

		return identity.NewFirebaseVerifier(authClient), nil

	case config.AuthProviderIntrospection:
		introspection := d.cfg.Auth.Introspection

		client, err := clients.New(&clients.Config{
			BaseURL:     introspection.Endpoint,
			ServiceName: introspectionServiceName,
			Timeout:     d.cfg.Client.Timeout,
			Retry:       d.cfg.Client.Retry,
			Circuit:     d.cfg.Client.CircuitBreaker,
			Transport:   d.cfg.Client.Transport,
			AuthFunc:    acl.BasicAuth(introspection.ClientID, introspection.ClientSecret),
			Logger:      d.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating introspection client: %w", err)
		}

		return acl.NewIntrospectionVerifier(client, ""), nil

	default:
		return nil, fmt.Errorf("unknown auth provider %q", d.cfg.Auth.Provider)
	}
}

// close releases resources in reverse order of acquisition.
func (d *dependencies) close() {
	var errs []error

	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		d.logger.Error("closing dependencies", slog.Any("error", err))
	}
}

// waitForShutdown blocks until a signal or a server error, then drains
// in-flight requests within shutdownTimeout.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}

		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
