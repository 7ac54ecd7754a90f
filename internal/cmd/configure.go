package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mychem-mcp/mychem-mcp/internal/observability"
)

// mcpServerName is the key under "mcpServers" in the Claude Desktop config.
const mcpServerName = "mychem"

var (
	configureDryRun bool
	configureStdout bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Register this server with Claude Desktop",
	Long: `Add (or update) an entry for this server in the Claude Desktop
configuration file, so that Claude Desktop launches it over stdio. Existing
entries for other servers are preserved. Restart Claude Desktop afterwards
for the change to take effect.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().BoolVar(&configureDryRun, "dry-run", false, "print the resulting config without writing it")
	configureCmd.Flags().BoolVar(&configureStdout, "stdout", false, "write the merged config to stdout instead of the config file")
}

// claudeConfigPath returns the platform specific location of the Claude
// Desktop configuration file.
func claudeConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable is not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "Claude", "claude_desktop_config.json"), nil
	}
}

// mergeServerEntry sets the entry for this server in the config data,
// creating the mcpServers section if needed and leaving other entries alone.
func mergeServerEntry(data map[string]any, command string, cmdArgs []string) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	servers, ok := data["mcpServers"].(map[string]any)
	if !ok {
		servers = map[string]any{}
		data["mcpServers"] = servers
	}
	args := make([]any, len(cmdArgs))
	for i, a := range cmdArgs {
		args[i] = a
	}
	servers[mcpServerName] = map[string]any{
		"command": command,
		"args":    args,
	}
	return data
}

// readExistingConfig loads the current config file. A missing or unparsable
// file yields an empty config rather than an error.
func readExistingConfig(path string) map[string]any {
	raw, err := os.ReadFile(path)
	if err != nil {
		return map[string]any{}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		observability.CLILogger.Warn("Existing config is not valid JSON, starting fresh",
			zap.String("path", path), zap.Error(err))
		return map[string]any{}
	}
	return data
}

func runConfigure(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	path, err := claudeConfigPath()
	if err != nil {
		return fmt.Errorf("locating Claude Desktop config: %w", err)
	}

	data := mergeServerEntry(readExistingConfig(path), exe, []string{"serve"})

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if configureStdout {
		fmt.Print(string(out))
		return nil
	}
	if configureDryRun {
		fmt.Printf("Would write %s:\n%s", path, out)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Registered %q in %s\n", mcpServerName, path)
	fmt.Println("Restart Claude Desktop for the change to take effect.")
	return nil
}
