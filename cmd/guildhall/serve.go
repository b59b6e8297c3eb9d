package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/infrastructure/api"
	"github.com/emberline/guildhall/internal/config"
	"github.com/emberline/guildhall/internal/log"
)

func serveCmd(envFile *string) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web site, JSON API and MCP endpoint",
		Long: `Start the HTTP server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.guildhall)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/guildhall.db)
  STORAGE_DIR                  Rulebook file directory (default: {data_dir}/objects)
  STORAGE_URL                  Blob bucket URL used instead of STORAGE_DIR (e.g. mem://)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  CORS_ALLOWED_ORIGINS         Comma-separated origins allowed to call the API
  IMPORT_RATE_LIMIT            Imports per minute per address (default: 10)
  PUBLIC_SEARCH_LIMIT          Default public character hits (default: 5)
  METRICS_ENABLED              Serve Prometheus metrics on /metrics

  AUTH_JWT_SECRET              HS256 secret for access tokens (unset: everyone is a guest)
  AUTH_ISSUER                  Expected "iss" claim
  AUTH_AUDIENCE                Expected "aud" claim

  EXTRACTION_ENDPOINT_*        Language model used by the importer
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 3)
    MAX_TOKENS                 Answer length limit (default: 1024)
  EXTRACTION_CACHE_DIR         Record and replay model answers in this directory`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption
	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port > 0 {
		opts = append(opts, config.WithPort(port))
	}
	return cfg.Apply(opts...)
}

func runServe(ctx context.Context, envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)
	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting guildhall", attrs...)

	client, err := guildhall.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create guildhall client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close guildhall client", slog.Any("error", err))
		}
	}()

	if !client.ImportEnabled() {
		logger.Warn("no extraction endpoint configured, imports will answer 503")
	}
	if client.Verifier() == nil {
		logger.Warn("AUTH_JWT_SECRET is not set, every visitor is a guest")
	}

	apiServer, err := api.NewAPIServer(client,
		api.WithCORSOrigins(cfg.CORSOrigins()...),
		api.WithImportRateLimit(cfg.ImportRateLimit()),
		api.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return apiServer.Run(ctx, cfg.Addr())
}
