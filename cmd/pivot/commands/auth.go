package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/pivotproxy/pivot/internal/keystore"
)

// authCommand returns the 'auth' subcommand for managing provider API keys.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider API keys",
		Commands: []*cli.Command{
			authSetCommand(),
			authClearCommand(),
		},
	}
}

// authSetCommand returns the 'auth set' subcommand.
func authSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Prompt for a provider API key and save it",
		ArgsUsage: "<provider>",
		Action:    authSetAction,
	}
}

// authClearCommand returns the 'auth clear' subcommand.
func authClearCommand() *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "Remove a provider API key from storage",
		ArgsUsage: "<provider>",
		Action:    authClearAction,
	}
}

// authSetAction reads an API key from the terminal and writes it to the
// configured key storage.
func authSetAction(ctx context.Context, cmd *cli.Command) error {
	provider, store, err := authTarget(cmd)
	if err != nil {
		return err
	}

	key, err := readSecureInput(ctx, fmt.Sprintf("Enter API key for %s: ", provider))
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("api key cannot be empty")
	}

	if err := store.Write(ctx, provider, key); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	fmt.Printf("API key for %s saved\n", provider)
	return nil
}

// authClearAction removes a provider's API key from the configured storage.
func authClearAction(ctx context.Context, cmd *cli.Command) error {
	provider, store, err := authTarget(cmd)
	if err != nil {
		return err
	}

	// Clear via empty string write to maintain the storage abstraction
	if err := store.Write(ctx, provider, ""); err != nil {
		return fmt.Errorf("failed to clear key: %w", err)
	}

	fmt.Printf("API key for %s cleared\n", provider)
	return nil
}

// authTarget resolves the provider argument and the writable key store both
// auth actions need. Literal and env storage are read-only, so only keyring
// storage passes.
func authTarget(cmd *cli.Command) (string, keystore.Store, error) {
	provider := cmd.Args().First()
	if provider == "" {
		return "", nil, fmt.Errorf("provider id is required")
	}

	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load config: %w", err)
	}

	if _, ok := cfg.Providers[provider]; !ok {
		return "", nil, fmt.Errorf("unknown provider %q, configure it first", provider)
	}

	if cfg.Auth.Storage != keystore.StorageKeyring {
		return "", nil, fmt.Errorf("cannot manage keys with %s storage (read-only). Configure keyring storage", cfg.Auth.Storage)
	}

	store, err := keystore.New(cfg.Auth.Storage, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create key store: %w", err)
	}

	return provider, store, nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
