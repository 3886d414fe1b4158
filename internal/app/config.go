package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pivotproxy/pivot/internal/keystore"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the fully layered runtime configuration. The command layer
// assembles it from defaults, the TOML file, environment variables, and
// flags; everything downstream receives it resolved.
type Config struct {
	Listen    string                    `koanf:"listen" validate:"required,hostname_port"`
	Log       LogConfig                 `koanf:"log"`
	Auth      AuthConfig                `koanf:"auth"`
	Routes    RoutesConfig              `koanf:"routes"`
	Providers map[string]ProviderConfig `koanf:"providers" validate:"required,dive"`
}

// LogConfig controls the logging stack.
type LogConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=auto text json"`

	// OTLPEndpoint enables OTLP log export when set.
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPProtocol string `koanf:"otlp_protocol" validate:"required,oneof=grpc http"`
}

// AuthConfig selects where provider API keys are read from.
type AuthConfig struct {
	Storage keystore.StorageType `koanf:"storage" validate:"required,oneof=literal env keyring"`
}

// RoutesConfig binds each inbound surface to a configured provider id.
type RoutesConfig struct {
	Messages        string `koanf:"messages" validate:"required"`
	ChatCompletions string `koanf:"chat_completions" validate:"required"`
}

// ProviderConfig describes one upstream endpoint.
type ProviderConfig struct {
	Format  string `koanf:"format" validate:"required,oneof=claude openai"`
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// APIKey is only read with literal storage; empty means the provider
	// takes unauthenticated requests.
	APIKey string `koanf:"api_key"`

	// Referer and Title become the HTTP-Referer and X-Title headers some
	// OpenAI-compatible routers use for attribution.
	Referer string `koanf:"referer" validate:"omitempty,url"`
	Title   string `koanf:"title"`
}

// Validate checks field constraints and that both routes name configured
// providers.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	for surface, id := range map[string]string{
		"routes.messages":         c.Routes.Messages,
		"routes.chat_completions": c.Routes.ChatCompletions,
	} {
		if _, ok := c.Providers[id]; !ok {
			return fmt.Errorf("%s references unknown provider %q", surface, id)
		}
	}

	return nil
}
