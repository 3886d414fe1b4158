// Package keystore resolves provider API keys from their configured storage
// backend.
//
// Three backends exist: literal keys inline in the configuration, read-only
// environment variables, and the OS keyring. Reads are uniform across
// backends; writes are only meaningful for the keyring, which is what the
// auth commands manage.
package keystore

import (
	"context"
	"fmt"
)

// StorageType selects the backend keys are read from.
type StorageType string

const (
	// StorageLiteral reads keys directly from the provider configuration.
	StorageLiteral StorageType = "literal"

	// StorageEnv reads keys from PIVOT_PROVIDERS_<ID>_API_KEY variables.
	StorageEnv StorageType = "env"

	// StorageKeyring reads keys from the OS keyring.
	StorageKeyring StorageType = "keyring"
)

// Store reads and writes provider API keys. A missing key reads as an empty
// string with no error: providers without authentication are legal.
type Store interface {
	Read(ctx context.Context, provider string) (string, error)
	Write(ctx context.Context, provider, key string) error
}

// New returns the store for the given storage type. literals carries the
// inline keys by provider id and only matters for StorageLiteral.
func New(storage StorageType, literals map[string]string) (Store, error) {
	switch storage {
	case StorageLiteral:
		return newLiteralStore(literals), nil
	case StorageEnv:
		return envStore{}, nil
	case StorageKeyring:
		return keyringStore{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", storage)
	}
}
