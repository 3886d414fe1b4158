package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/pivotproxy/pivot/internal/keystore"
)

func TestApp_StopsOnContextCancel(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg := validConfig()
	cfg.Listen = "127.0.0.1:0"

	application, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	shutdownRan := false
	application.OnShutdown(func(context.Context) error {
		shutdownRan = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancellation")
	}

	if !shutdownRan {
		t.Error("expected registered shutdown func to run")
	}
	if application.health.IsReady() {
		t.Error("expected readiness to drop during shutdown")
	}
}

func TestApp_ResolvesKeysThroughKeyring(t *testing.T) {
	keyring.MockInit()

	cfg := validConfig()
	cfg.Auth.Storage = keystore.StorageKeyring

	store, err := keystore.New(keystore.StorageKeyring, nil)
	if err != nil {
		t.Fatalf("keystore.New: %v", err)
	}
	if err := store.Write(context.Background(), "openrouter", "sk-or-ring"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	providers, err := resolveProviders(context.Background(), cfg, store)
	if err != nil {
		t.Fatalf("resolveProviders: %v", err)
	}

	if got := providers["openrouter"].APIKey; got != "sk-or-ring" {
		t.Errorf("expected keyring key, got %q", got)
	}
	if got := providers["anthropic"].APIKey; got != "" {
		t.Errorf("expected empty key for provider without keyring entry, got %q", got)
	}
}

func TestApp_RejectsUnknownStorage(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Storage = "vault"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}
