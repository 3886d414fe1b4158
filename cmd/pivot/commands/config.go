package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/pivotproxy/pivot/internal/app"
)

const envPrefix = "PIVOT_"

// defaultConfig is the base layer every other source overrides. Routes and
// providers have no sensible defaults; validation demands them.
var defaultConfig = map[string]any{
	"listen":            "127.0.0.1:4000",
	"log.level":         "info",
	"log.format":        "auto",
	"log.otlp_protocol": "grpc",
	"auth.storage":      "literal",
}

// flagBindings maps CLI flag names to the config keys they override.
var flagBindings = map[string]string{
	"listen":     "listen",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// loadConfig layers configuration sources: defaults, then the TOML file,
// then PIVOT_* environment variables, then CLI flags. environ is injectable
// so tests control the environment.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (app.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfig, "."), nil); err != nil {
		return app.Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return app.Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// PIVOT_LOG__LEVEL=debug sets log.level. Double underscores separate
	// path segments so keys like api_key survive the mapping.
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:      envPrefix,
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	}), nil); err != nil {
		return app.Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	for flag, key := range flagBindings {
		if cmd.IsSet(flag) {
			if err := k.Set(key, cmd.String(flag)); err != nil {
				return app.Config{}, fmt.Errorf("failed to apply flag %s: %w", flag, err)
			}
		}
	}

	var cfg app.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return app.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return app.Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
