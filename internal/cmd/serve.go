package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
	"github.com/mychem-mcp/mychem-mcp/internal/config"
	"github.com/mychem-mcp/mychem-mcp/internal/observability"
	"github.com/mychem-mcp/mychem-mcp/internal/server"
	"github.com/mychem-mcp/mychem-mcp/internal/tools"
)

var serveHTTP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server. By default the server speaks the MCP protocol over
stdio, which is how Claude Desktop and other MCP clients launch it. With
--http the same tools are exposed over a JSON HTTP API instead.

All log output goes to stderr so that stdout stays reserved for the MCP
stream.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve tools over HTTP instead of MCP stdio")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	observability.InitServerLogger(server.ServerName, cfg.Logging.Level)
	defer observability.Sync()
	log := observability.ServerLogger

	clientCfg := cfg.ClientConfig()
	clientCfg.Logger = log
	apiClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	registry := tools.NewRegistry()

	log.Info("Starting server",
		zap.String("version", versionInfo.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.Int("tools", registry.Len()),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
		zap.Float64("rate_limit", cfg.RateLimit),
	)

	if serveHTTP {
		return runHTTP(cfg.HTTP, registry, apiClient, log)
	}

	mcpServer := server.BuildMCPServer(registry, apiClient, versionInfo.Version, log)
	return server.ServeStdio(mcpServer)
}

func runHTTP(httpCfg config.HTTPConfig, registry *tools.Registry, apiClient *client.Client, log *zap.Logger) error {
	srv := server.NewHTTPServer(httpCfg, registry, apiClient, versionInfo.Version, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
