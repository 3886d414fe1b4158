package keystore

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// envStore reads keys from the process environment.
type envStore struct{}

// EnvVar returns the environment variable holding the key for a provider:
// PIVOT_PROVIDERS_<ID>_API_KEY with the id uppercased and dashes folded to
// underscores.
func EnvVar(provider string) string {
	id := strings.ToUpper(strings.ReplaceAll(provider, "-", "_"))
	return fmt.Sprintf("PIVOT_PROVIDERS_%s_API_KEY", id)
}

func (envStore) Read(_ context.Context, provider string) (string, error) {
	return os.Getenv(EnvVar(provider)), nil
}

func (envStore) Write(_ context.Context, provider, _ string) error {
	return fmt.Errorf("env storage is read-only, export %s instead", EnvVar(provider))
}
