package keystore

import (
	"context"
	"fmt"
	"maps"
)

// literalStore serves keys copied out of the configuration file.
type literalStore struct {
	keys map[string]string
}

func newLiteralStore(keys map[string]string) literalStore {
	return literalStore{keys: maps.Clone(keys)}
}

func (s literalStore) Read(_ context.Context, provider string) (string, error) {
	return s.keys[provider], nil
}

func (s literalStore) Write(_ context.Context, provider, _ string) error {
	return fmt.Errorf("literal storage is read-only, set providers.%s.api_key in the config file", provider)
}
