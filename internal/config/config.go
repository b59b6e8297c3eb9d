// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultDatabaseFile          = "guildhall.db"
	DefaultStorageSubdir         = "objects"
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 3
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxTokens     = 1024
	DefaultImportRateLimit       = 10
	DefaultPublicSearchLimit     = 5
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures the language model endpoint used for extraction.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxTokens     int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxTokens:     DefaultEndpointMaxTokens,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxTokens returns the maximum completion length.
func (e Endpoint) MaxTokens() int { return e.maxTokens }

// IsConfigured reports whether the endpoint can be called. A key or a
// custom base URL (for keyless local servers) is enough.
func (e Endpoint) IsConfigured() bool {
	return e.apiKey != "" || e.baseURL != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxTokens sets the maximum completion length.
func WithMaxTokens(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AuthConfig configures access token verification.
type AuthConfig struct {
	secret   string
	issuer   string
	audience string
}

// NewAuthConfig creates an AuthConfig.
func NewAuthConfig(secret, issuer, audience string) AuthConfig {
	return AuthConfig{secret: secret, issuer: issuer, audience: audience}
}

// Secret returns the HMAC signing secret.
func (a AuthConfig) Secret() string { return a.secret }

// Issuer returns the expected "iss" claim, or empty to skip the check.
func (a AuthConfig) Issuer() string { return a.issuer }

// Audience returns the expected "aud" claim, or empty to skip the check.
func (a AuthConfig) Audience() string { return a.audience }

// Enabled reports whether tokens can be verified at all.
func (a AuthConfig) Enabled() bool { return a.secret != "" }

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	auth               AuthConfig
	extraction         *Endpoint
	extractionCacheDir string
	storageDir         string
	storageURL         string
	corsOrigins        []string
	importRateLimit    int
	publicSearchLimit  int
	metricsEnabled     bool
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guildhall"
	}
	return filepath.Join(home, ".guildhall")
}

// PrepareDir creates dir if it does not exist and returns it.
func PrepareDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	return dir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:              DefaultHost,
		port:              DefaultPort,
		dataDir:           dataDir,
		dbURL:             "sqlite:///" + filepath.Join(dataDir, DefaultDatabaseFile),
		logLevel:          DefaultLogLevel,
		logFormat:         LogFormatPretty,
		corsOrigins:       []string{},
		importRateLimit:   DefaultImportRateLimit,
		publicSearchLimit: DefaultPublicSearchLimit,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// Auth returns the token verification config.
func (c AppConfig) Auth() AuthConfig { return c.auth }

// Extraction returns the language model endpoint, or nil when unset.
func (c AppConfig) Extraction() *Endpoint { return c.extraction }

// ExtractionCacheDir returns the directory for recorded model responses.
// Empty disables recording.
func (c AppConfig) ExtractionCacheDir() string { return c.extractionCacheDir }

// StorageDir returns where rulebook files live.
func (c AppConfig) StorageDir() string {
	if c.storageDir != "" {
		return c.storageDir
	}
	return filepath.Join(c.dataDir, DefaultStorageSubdir)
}

// StorageURL returns the blob bucket URL, or "" to use StorageDir.
func (c AppConfig) StorageURL() string { return c.storageURL }

// CORSOrigins returns the allowed CORS origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// ImportRateLimit returns the allowed import requests per minute per client.
func (c AppConfig) ImportRateLimit() int { return c.importRateLimit }

// PublicSearchLimit returns the default number of public search hits.
func (c AppConfig) PublicSearchLimit() int { return c.publicSearchLimit }

// MetricsEnabled reports whether /metrics is served.
func (c AppConfig) MetricsEnabled() bool { return c.metricsEnabled }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory. A default SQLite URL follows it.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.HasSuffix(c.dbURL, DefaultDatabaseFile) {
			c.dbURL = "sqlite:///" + filepath.Join(dir, DefaultDatabaseFile)
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAuth sets the token verification config.
func WithAuth(a AuthConfig) AppConfigOption {
	return func(c *AppConfig) { c.auth = a }
}

// WithExtraction sets the language model endpoint.
func WithExtraction(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.extraction = &e }
}

// WithExtractionCacheDir enables recording of model responses.
func WithExtractionCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.extractionCacheDir = dir }
}

// WithStorageDir sets where rulebook files live.
func WithStorageDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.storageDir = dir }
}

// WithStorageURL keeps rulebook files in the bucket at url.
func WithStorageURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.storageURL = url }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithImportRateLimit sets import requests per minute per client.
func WithImportRateLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.importRateLimit = n
		}
	}
}

// WithPublicSearchLimit sets the default number of public search hits.
func WithPublicSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.publicSearchLimit = n
		}
	}
}

// WithMetricsEnabled toggles /metrics.
func WithMetricsEnabled(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.metricsEnabled = enabled }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	return NewAppConfig().Apply(opts...)
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are never included.
func (c AppConfig) LogAttrs() []slog.Attr {
	model := "(not configured)"
	baseURL := "(not configured)"
	if c.extraction != nil {
		model = c.extraction.Model()
		baseURL = c.extraction.BaseURL()
	}
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("storage_dir", c.StorageDir()),
		slog.String("storage_url", c.storageURL),
		slog.String("log_level", c.logLevel),
		slog.Bool("auth_enabled", c.auth.Enabled()),
		slog.String("extraction_base_url", baseURL),
		slog.String("extraction_model", model),
		slog.Int("cors_origins", len(c.corsOrigins)),
		slog.Int("import_rate_limit", c.importRateLimit),
		slog.Bool("metrics_enabled", c.metricsEnabled),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseList parses a comma-separated list, dropping blanks.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
