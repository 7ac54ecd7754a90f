package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mychem-mcp/mychem-mcp/internal/config"
)

func TestDefaultConfigYAMLIsValid(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(defaultConfigYAML), &doc))

	assert.Contains(t, doc, "base_url")
	assert.Contains(t, doc, "cache_ttl")
	assert.Contains(t, doc, "logging")
	assert.Contains(t, doc, "http")
}

// The generated template must decode to the same values SetDefaults
// registers, so that a freshly written file changes nothing.
func TestDefaultConfigYAMLMatchesDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(defaultConfigYAML)))

	cfg, err := config.Unmarshal(v)
	require.NoError(t, err)

	defaults, err := config.Unmarshal(func() *viper.Viper {
		dv := viper.New()
		config.SetDefaults(dv)
		return dv
	}())
	require.NoError(t, err)

	assert.Equal(t, defaults, cfg)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}
