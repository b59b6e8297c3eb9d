package guildhall

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/domain/rules"
	"github.com/emberline/guildhall/infrastructure/provider"
	"github.com/emberline/guildhall/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	dbURL            string
	dataDir          string
	storageDir       string
	storageURL       string
	objects          rules.ObjectStore
	textProvider     provider.TextGenerator
	openAI           *provider.OpenAIConfig
	extractor        extraction.Extractor
	extractionCache  string
	extractionTokens int
	authSecret       string
	authIssuer       string
	authAudience     string
	searchLimit      int
	publicCandidates int
	importMetrics    bool
	logger           *slog.Logger
	closers          []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:     config.DefaultDataDir(),
		searchLimit: config.DefaultPublicSearchLimit,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores everything in the SQLite file at path. ":memory:" gives
// a throwaway database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres stores everything in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDatabaseURL accepts either a sqlite:/// or a postgres:// URL.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithDataDir sets the directory for local state.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithStorageDir keeps rulebook files under dir.
func WithStorageDir(dir string) Option {
	return func(c *clientConfig) {
		c.storageDir = dir
	}
}

// WithStorageURL keeps rulebook files in the blob bucket at url instead of
// the storage directory.
func WithStorageURL(url string) Option {
	return func(c *clientConfig) {
		c.storageURL = url
	}
}

// WithObjectStore replaces the filesystem rulebook store.
func WithObjectStore(s rules.ObjectStore) Option {
	return func(c *clientConfig) {
		c.objects = s
	}
}

// WithOpenAI extracts imports with the OpenAI API.
func WithOpenAI(apiKey string) Option {
	return WithOpenAIConfig(provider.OpenAIConfig{APIKey: apiKey})
}

// WithOpenAIConfig extracts imports with any OpenAI-compatible endpoint.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.openAI = &cfg
	}
}

// WithTextProvider extracts imports with p.
func WithTextProvider(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithExtractor replaces the language model extractor outright.
func WithExtractor(e extraction.Extractor) Option {
	return func(c *clientConfig) {
		c.extractor = e
	}
}

// WithExtractionCache replays recorded model answers from dir.
func WithExtractionCache(dir string) Option {
	return func(c *clientConfig) {
		c.extractionCache = dir
	}
}

// WithExtractionMaxTokens limits extraction answers to n tokens.
func WithExtractionMaxTokens(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.extractionTokens = n
		}
	}
}

// WithAuth verifies HS256 access tokens signed with secret. Empty issuer or
// audience skip that check.
func WithAuth(secret, issuer, audience string) Option {
	return func(c *clientConfig) {
		c.authSecret = secret
		c.authIssuer = issuer
		c.authAudience = audience
	}
}

// WithPublicSearchLimit sets the default number of public search hits.
func WithPublicSearchLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithPublicCandidates sets how many public characters an import considers
// per name.
func WithPublicCandidates(n int) Option {
	return func(c *clientConfig) {
		c.publicCandidates = n
	}
}

// WithMetrics records Prometheus metrics.
func WithMetrics() Option {
	return func(c *clientConfig) {
		c.importMetrics = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource to close with the client.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}

// OptionsFromConfig maps application configuration to client options.
func OptionsFromConfig(cfg config.AppConfig) []Option {
	opts := []Option{
		WithDataDir(cfg.DataDir()),
		WithDatabaseURL(cfg.DBURL()),
		WithStorageDir(cfg.StorageDir()),
		WithStorageURL(cfg.StorageURL()),
		WithPublicSearchLimit(cfg.PublicSearchLimit()),
	}
	if auth := cfg.Auth(); auth.Enabled() {
		opts = append(opts, WithAuth(auth.Secret(), auth.Issuer(), auth.Audience()))
	}
	if e := cfg.Extraction(); e != nil && e.IsConfigured() {
		opts = append(opts,
			WithOpenAIConfig(provider.OpenAIConfig{
				APIKey:        e.APIKey(),
				BaseURL:       e.BaseURL(),
				ChatModel:     e.Model(),
				Timeout:       e.Timeout(),
				MaxRetries:    e.MaxRetries(),
				InitialDelay:  e.InitialDelay(),
				BackoffFactor: e.BackoffFactor(),
			}),
			WithExtractionMaxTokens(e.MaxTokens()),
		)
	}
	if dir := cfg.ExtractionCacheDir(); dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.DataDir(), dir)
		}
		opts = append(opts, WithExtractionCache(dir))
	}
	if cfg.MetricsEnabled() {
		opts = append(opts, WithMetrics())
	}
	return opts
}
