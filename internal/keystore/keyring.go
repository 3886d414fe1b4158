package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService namespaces entries in the OS keyring.
const keyringService = "pivot-proxy"

// keyringStore persists keys in the OS keyring, one entry per provider.
type keyringStore struct{}

func (keyringStore) Read(_ context.Context, provider string) (string, error) {
	key, err := keyring.Get(keyringService, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read keyring entry for %q: %w", provider, err)
	}
	return key, nil
}

// Write stores the key. An empty key deletes the entry instead so clearing
// credentials leaves nothing behind.
func (keyringStore) Write(_ context.Context, provider, key string) error {
	if key == "" {
		err := keyring.Delete(keyringService, provider)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete keyring entry for %q: %w", provider, err)
		}
		return nil
	}

	if err := keyring.Set(keyringService, provider, key); err != nil {
		return fmt.Errorf("write keyring entry for %q: %w", provider, err)
	}
	return nil
}
