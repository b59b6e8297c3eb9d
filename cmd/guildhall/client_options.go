package main

import (
	"log/slog"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/infrastructure/provider"
	"github.com/emberline/guildhall/internal/config"
)

// clientOptions returns the guildhall.Option slice for cfg. Callers append
// entrypoint-specific options before passing it to guildhall.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []guildhall.Option {
	opts := []guildhall.Option{
		guildhall.WithDatabaseURL(cfg.DBURL()),
		guildhall.WithDataDir(cfg.DataDir()),
		guildhall.WithStorageDir(cfg.StorageDir()),
		guildhall.WithStorageURL(cfg.StorageURL()),
		guildhall.WithPublicSearchLimit(cfg.PublicSearchLimit()),
		guildhall.WithLogger(logger),
	}

	if a := cfg.Auth(); a.Enabled() {
		opts = append(opts, guildhall.WithAuth(a.Secret(), a.Issuer(), a.Audience()))
	}

	opts = append(opts, extractionOptions(cfg)...)

	if cfg.MetricsEnabled() {
		opts = append(opts, guildhall.WithMetrics())
	}
	return opts
}

// extractionOptions configures the import language model when the endpoint
// is set, or nothing otherwise.
func extractionOptions(cfg config.AppConfig) []guildhall.Option {
	endpoint := cfg.Extraction()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil
	}

	opts := []guildhall.Option{
		guildhall.WithOpenAIConfig(provider.OpenAIConfig{
			APIKey:        endpoint.APIKey(),
			BaseURL:       endpoint.BaseURL(),
			ChatModel:     endpoint.Model(),
			MaxTokens:     endpoint.MaxTokens(),
			Timeout:       endpoint.Timeout(),
			MaxRetries:    endpoint.MaxRetries(),
			InitialDelay:  endpoint.InitialDelay(),
			BackoffFactor: endpoint.BackoffFactor(),
		}),
		guildhall.WithExtractionMaxTokens(endpoint.MaxTokens()),
	}
	if dir := cfg.ExtractionCacheDir(); dir != "" {
		opts = append(opts, guildhall.WithExtractionCache(dir))
	}
	return opts
}
