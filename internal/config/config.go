package config

import (
	"time"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

// Config represents the complete application configuration, merged from
// defaults, an optional YAML config file, and MYCHEM_* environment
// variables (in increasing precedence).
type Config struct {
	// BaseURL is the MyChemInfo API origin.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds each outbound API call.
	Timeout time.Duration `mapstructure:"timeout"`

	// CacheEnabled toggles caching of GET responses.
	CacheEnabled bool `mapstructure:"cache_enabled"`

	// CacheTTL is the lifetime of cached responses.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// CacheMaxEntries is the soft cap on cached responses.
	CacheMaxEntries int `mapstructure:"cache_max_entries"`

	// RateLimit is the outbound request budget in requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`

	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`
}

// HTTPConfig contains the optional HTTP transport configuration used by
// `serve --http`.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ClientConfig translates the application configuration into the API
// client's construction parameters.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:         c.BaseURL,
		Timeout:         c.Timeout,
		CacheEnabled:    c.CacheEnabled,
		CacheTTL:        c.CacheTTL,
		CacheMaxEntries: c.CacheMaxEntries,
		RateLimit:       c.RateLimit,
	}
}
