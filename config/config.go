// Package config loads client settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	env "github.com/Netflix/go-env"
)

// SandboxBaseURL is the public sandbox API root.
const SandboxBaseURL = "https://public-api.sandbox.bunq.com/v1"

// Environment variables with defaults
type Config struct {
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// remote API settings
	APIKey            string        `env:"BUNQ_API_KEY"`
	BaseURL           string        `env:"BUNQ_BASE_URL,default=https://public-api.sandbox.bunq.com/v1"`
	DeviceDescription string        `env:"BUNQ_DEVICE_DESCRIPTION,default=bunq-go"`
	AppName           string        `env:"BUNQ_APP_NAME,default=bunq-go"`
	HTTPTimeout       time.Duration `env:"BUNQ_HTTP_TIMEOUT,default=30s"`

	// local state
	ContextPath       string `env:"BUNQ_CONTEXT_PATH,default=bunq-context.json"`
	ContextPassphrase string `env:"BUNQ_CONTEXT_PASSPHRASE"`
	KeyPath           string `env:"BUNQ_KEY_PATH,default=bunq-key.pem"`

	// local sandbox server
	SandboxAddr string `env:"BUNQ_SANDBOX_ADDR,default=127.0.0.1:8088"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// Load reads the environment and validates the result. The API key is not
// checked here; use RequireAPIKey for commands that talk to the remote.
func Load() (*Config, error) {
	var cfg Config

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that go-env cannot.
func (c *Config) Validate() error {
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", c.Environment)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BUNQ_BASE_URL: %q", c.BaseURL)
	}

	if c.Environment == "prod" && u.Scheme != "https" {
		return fmt.Errorf("BUNQ_BASE_URL must use https in prod, got %s", u.Scheme)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("BUNQ_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	if c.DeviceDescription == "" {
		return fmt.Errorf("BUNQ_DEVICE_DESCRIPTION must not be empty")
	}

	return nil
}

// RequireAPIKey reports a missing BUNQ_API_KEY.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("BUNQ_API_KEY is required")
	}

	return nil
}

// Encrypted reports whether the context file should be sealed.
func (c *Config) Encrypted() bool {
	return c.ContextPassphrase != ""
}
