package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EXTRACTION_ENDPOINT_MODEL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.guildhall
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/guildhall.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Auth configures access token verification.
	Auth AuthEnv `envconfig:"AUTH"`

	// ExtractionEndpoint configures the language model used by the importer.
	ExtractionEndpoint EndpointEnv `envconfig:"EXTRACTION_ENDPOINT"`

	// ExtractionCacheDir records model responses to disk and replays them.
	// Env: EXTRACTION_CACHE_DIR
	ExtractionCacheDir string `envconfig:"EXTRACTION_CACHE_DIR"`

	// StorageDir is where rulebook files are written.
	// Env: STORAGE_DIR
	// Default: {data_dir}/objects
	StorageDir string `envconfig:"STORAGE_DIR"`

	// StorageURL opens a blob bucket instead of STORAGE_DIR, for example
	// "mem://" or "file:///srv/objects".
	// Env: STORAGE_URL
	StorageURL string `envconfig:"STORAGE_URL"`

	// CORSAllowedOrigins is a comma-separated list of origins.
	// Env: CORS_ALLOWED_ORIGINS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// ImportRateLimit is the number of import requests per minute per client.
	// Env: IMPORT_RATE_LIMIT (default: 10)
	ImportRateLimit int `envconfig:"IMPORT_RATE_LIMIT" default:"10"`

	// PublicSearchLimit is the default number of public character hits.
	// Env: PUBLIC_SEARCH_LIMIT (default: 5)
	PublicSearchLimit int `envconfig:"PUBLIC_SEARCH_LIMIT" default:"5"`

	// MetricsEnabled serves Prometheus metrics on /metrics.
	// Env: METRICS_ENABLED (default: false)
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"false"`
}

// AuthEnv holds environment configuration for token verification.
type AuthEnv struct {
	// JWTSecret is the HS256 signing secret.
	// Env: AUTH_JWT_SECRET
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Issuer is the expected "iss" claim.
	// Env: AUTH_ISSUER
	Issuer string `envconfig:"ISSUER"`

	// Audience is the expected "aud" claim.
	// Env: AUTH_AUDIENCE
	Audience string `envconfig:"AUDIENCE"`
}

// EndpointEnv holds environment configuration for a model endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 3)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxTokens is the maximum completion length.
	// Env: *_MAX_TOKENS (default: 1024)
	MaxTokens int `envconfig:"MAX_TOKENS" default:"1024"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "GUILDHALL" would require GUILDHALL_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	var opts []AppConfigOption
	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	opts = append(opts, WithAuth(NewAuthConfig(e.Auth.JWTSecret, e.Auth.Issuer, e.Auth.Audience)))

	if e.ExtractionEndpoint.IsConfigured() {
		opts = append(opts, WithExtraction(e.ExtractionEndpoint.ToEndpoint()))
	}
	if e.ExtractionCacheDir != "" {
		opts = append(opts, WithExtractionCacheDir(e.ExtractionCacheDir))
	}
	if e.StorageDir != "" {
		opts = append(opts, WithStorageDir(e.StorageDir))
	}
	if e.StorageURL != "" {
		opts = append(opts, WithStorageURL(e.StorageURL))
	}
	if e.CORSAllowedOrigins != "" {
		opts = append(opts, WithCORSOrigins(ParseList(e.CORSAllowedOrigins)))
	}
	opts = append(opts,
		WithImportRateLimit(e.ImportRateLimit),
		WithPublicSearchLimit(e.PublicSearchLimit),
		WithMetricsEnabled(e.MetricsEnabled),
	)
	return NewAppConfigWithOptions(opts...)
}

// IsConfigured returns true if the endpoint has a key or base URL.
func (e EndpointEnv) IsConfigured() bool {
	return e.APIKey != "" || e.BaseURL != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxTokens(e.MaxTokens),
	}
	if e.Model != "" {
		opts = append(opts, WithModel(e.Model))
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpointWithOptions(opts...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
