// Package config provides centralized configuration management. Settings are
// layered: built-in defaults, then an optional YAML config file, then
// MYCHEM_* environment variables. Nested keys map to env vars with dots
// replaced by underscores, e.g. logging.level becomes MYCHEM_LOGGING_LEVEL.
package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "MYCHEM"

// Unmarshal decodes the merged viper state into a typed Config. The caller
// is responsible for having called ReadInConfig and SetDefaults first; the
// cobra initConfig hook does both.
func Unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: rate_limit must be positive, got %g", c.RateLimit)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid http port %d", c.HTTP.Port)
	}
	return nil
}

// SetDefaults registers default configuration values on v.
func SetDefaults(v *viper.Viper) {
	// API client defaults
	v.SetDefault("base_url", client.DefaultBaseURL)
	v.SetDefault("timeout", "30s")
	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("cache_max_entries", client.DefaultCacheMaxEntries)
	v.SetDefault("rate_limit", 10.0)

	// Logging defaults. MYCHEM_LOG_LEVEL is accepted alongside the
	// canonical MYCHEM_LOGGING_LEVEL name.
	v.SetDefault("logging.level", "info")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", EnvPrefix+"_LOG_LEVEL")

	// HTTP transport defaults
	v.SetDefault("http.host", "localhost")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")
}

// secondsToDurationHookFunc decodes durations given as bare numbers, which
// are read as seconds. "3600" and 30.0 are as valid as "1h" and "30s".
func secondsToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return time.Duration(float64(v) * float64(time.Second)), nil
		case int64:
			return time.Duration(float64(v) * float64(time.Second)), nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case string:
			if _, err := time.ParseDuration(v); err == nil {
				return data, nil
			}
			seconds, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return data, nil
			}
			return time.Duration(seconds * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}
