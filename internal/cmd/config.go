package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configInitOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write a YAML config file populated with the default settings, ready
to edit. Without --output the file goes to the user config directory, where
the server looks for it on startup.`,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "", "path to write the config file to")
}

// defaultConfigYAML mirrors config.SetDefaults. Every key can also be set
// via environment variables with the MYCHEM_ prefix.
const defaultConfigYAML = `# mychem-mcp configuration.
# Every key can also be set via environment variables with the MYCHEM_
# prefix, e.g. MYCHEM_CACHE_TTL=600 or MYCHEM_RATE_LIMIT=5.

# MyChemInfo API origin.
base_url: https://mychem.info/v1

# Timeout for each API request. Durations accept Go syntax ("30s", "1h")
# or a bare number of seconds.
timeout: 30s

# Response cache for GET requests.
cache_enabled: true
cache_ttl: 1h
cache_max_entries: 1024

# Outbound requests per second.
rate_limit: 10

logging:
  # debug, info, warn, or error. Logs go to stderr.
  level: info

# Settings for the optional HTTP transport (serve --http).
http:
  host: localhost
  port: 8080
  read_timeout: 30s
  write_timeout: 60s
  shutdown_timeout: 10s
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configInitOutput
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locating config directory: %w", err)
		}
		path = filepath.Join(configDir, binaryName, "config.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}
