package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/unowned-ai/quokka/pkg/api"
)

// EnvPrefix is prepended to every variable, e.g. QUOKKA_BASE_URL.
const EnvPrefix = "QUOKKA"

// Config holds client settings read from the environment.
// Command-line flags override these values after New returns.
type Config struct {
	// Generation service root, e.g. the API Gateway stage URL.
	BaseURL string `envconfig:"BASE_URL" default:"http://127.0.0.1:3000"`

	// Zero means no client-side deadline.
	Timeout time.Duration `envconfig:"TIMEOUT" default:"0s"`

	Debug    bool   `envconfig:"DEBUG" default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Local submission history, off unless asked for.
	HistoryEnabled bool   `envconfig:"HISTORY" default:"false"`
	HistoryDB      string `envconfig:"HISTORY_DB" default:""`
}

// Load reads QUOKKA_* environment variables without validating them, so
// callers can apply their own overrides before calling Validate.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &cfg, nil
}

// New creates a validated Config from QUOKKA_* environment variables.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogSummary writes the effective settings at debug level. Call it once
// logging is configured.
func (c *Config) LogSummary() {
	log.Debug().
		Str("base_url", c.BaseURL).
		Dur("timeout", c.Timeout).
		Bool("debug", c.Debug).
		Str("log_level", c.LogLevel).
		Bool("history", c.HistoryEnabled).
		Str("history_db", c.HistoryDB).
		Msg("configuration loaded")
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = api.DefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid BASE_URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BASE_URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid BASE_URL %q: missing host", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid TIMEOUT %s: must not be negative", c.Timeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		return fmt.Errorf("unsupported LOG_LEVEL: %s", c.LogLevel)
	}
	return nil
}

// ClientOptions translates the config into api client options.
func (c *Config) ClientOptions() []api.Option {
	var opts []api.Option
	if c.Timeout > 0 {
		opts = append(opts, api.WithHTTPTimeout(c.Timeout))
	}
	if c.Debug {
		opts = append(opts, api.WithDebugLogging(true))
	}
	return opts
}
