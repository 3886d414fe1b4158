// Package app assembles the proxy from its parts and owns the process
// lifecycle: transformer registry, key resolution, conversion engine, HTTP
// server, and coordinated shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pivotproxy/pivot/internal/conversion"
	"github.com/pivotproxy/pivot/internal/keystore"
	"github.com/pivotproxy/pivot/internal/proxy"
	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/transform/claudemsg"
	"github.com/pivotproxy/pivot/internal/transform/openaichat"
)

// shutdownTimeout bounds the drain window for all services.
const shutdownTimeout = 5 * time.Second

// App orchestrates the lifecycle of the proxy server and related services.
type App struct {
	cfg    Config
	server *proxy.Server
	health *Health

	shutdownFuncs []func(context.Context) error
}

// New wires the application from a validated config. Provider API keys are
// resolved here, through the configured storage backend, so the rest of the
// process never touches key storage again.
func New(ctx context.Context, cfg Config) (*App, error) {
	registry := transform.NewRegistry()
	registry.Register(claudemsg.New())
	registry.Register(openaichat.New())

	store, err := keystore.New(cfg.Auth.Storage, literalKeys(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create key store: %w", err)
	}

	providers, err := resolveProviders(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	engine, err := conversion.NewEngine(registry, providers)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion engine: %w", err)
	}

	health := NewHealth()

	server, err := proxy.New(proxy.Config{
		Engine: engine,
		Routes: proxy.Routes{
			Messages:        cfg.Routes.Messages,
			ChatCompletions: cfg.Routes.ChatCompletions,
		},
		Readiness: health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy server: %w", err)
	}

	return &App{
		cfg:    cfg,
		server: server,
		health: health,
	}, nil
}

// OnShutdown registers fn to run during shutdown. Funcs run in reverse
// registration order, after the server has drained.
func (a *App) OnShutdown(fn func(context.Context) error) {
	a.shutdownFuncs = append(a.shutdownFuncs, fn)
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	shutdownFuncs := a.shutdownFuncs

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting proxy server")
	serverErrCh, err := a.server.Start(gCtx, a.cfg.Listen)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)

	a.health.SetReady(true)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	a.health.SetReady(false)
	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// literalKeys collects the inline api_key values by provider id for the
// literal storage backend.
func literalKeys(cfg Config) map[string]string {
	keys := make(map[string]string, len(cfg.Providers))
	for id, pc := range cfg.Providers {
		keys[id] = pc.APIKey
	}
	return keys
}

// resolveProviders turns provider configs into engine providers with their
// API keys resolved through the key store.
func resolveProviders(ctx context.Context, cfg Config, store keystore.Store) (map[string]conversion.Provider, error) {
	providers := make(map[string]conversion.Provider, len(cfg.Providers))
	for id, pc := range cfg.Providers {
		key, err := store.Read(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve api key for provider %q: %w", id, err)
		}

		providers[id] = conversion.Provider{
			ID:      id,
			Format:  transform.Format(pc.Format),
			BaseURL: pc.BaseURL,
			APIKey:  key,
			Referer: pc.Referer,
			Title:   pc.Title,
		}
	}
	return providers, nil
}
