package app

import (
	"strings"
	"testing"

	"github.com/pivotproxy/pivot/internal/keystore"
)

func validConfig() Config {
	return Config{
		Listen: "127.0.0.1:4000",
		Log: LogConfig{
			Level:        "info",
			Format:       "auto",
			OTLPProtocol: "grpc",
		},
		Auth: AuthConfig{Storage: keystore.StorageLiteral},
		Routes: RoutesConfig{
			Messages:        "openrouter",
			ChatCompletions: "anthropic",
		},
		Providers: map[string]ProviderConfig{
			"anthropic": {
				Format:  "claude",
				BaseURL: "https://api.anthropic.com/v1",
				APIKey:  "sk-ant-test",
			},
			"openrouter": {
				Format:  "openai",
				BaseURL: "https://openrouter.ai/api/v1",
				APIKey:  "sk-or-test",
			},
		},
	}
}

func TestConfig_ValidPasses(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfig_RejectsUnknownRouteTarget(t *testing.T) {
	cfg := validConfig()
	cfg.Routes.Messages = "missing"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected error to name the provider, got %v", err)
	}
}

func TestConfig_RejectsBadFieldValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad listen address", func(c *Config) { c.Listen = "nope" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad storage type", func(c *Config) { c.Auth.Storage = "vault" }},
		{"bad provider format", func(c *Config) {
			p := c.Providers["anthropic"]
			p.Format = "grpc"
			c.Providers["anthropic"] = p
		}},
		{"missing base url", func(c *Config) {
			p := c.Providers["anthropic"]
			p.BaseURL = ""
			c.Providers["anthropic"] = p
		}},
		{"no providers", func(c *Config) { c.Providers = nil }},
		{"missing route", func(c *Config) { c.Routes.ChatCompletions = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
