package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint_Defaults(t *testing.T) {
	e := NewEndpoint()

	assert.Equal(t, DefaultEndpointTimeout, e.Timeout())
	assert.Equal(t, DefaultEndpointMaxRetries, e.MaxRetries())
	assert.Equal(t, DefaultEndpointInitialDelay, e.InitialDelay())
	assert.Equal(t, DefaultEndpointBackoffFactor, e.BackoffFactor())
	assert.Equal(t, DefaultEndpointMaxTokens, e.MaxTokens())
	assert.False(t, e.IsConfigured())
}

func TestEndpoint_WithOptions(t *testing.T) {
	e := NewEndpointWithOptions(
		WithBaseURL("https://llm.example.com/v1"),
		WithModel("m"),
		WithAPIKey("k"),
		WithTimeout(5*time.Second),
		WithMaxRetries(1),
		WithInitialDelay(time.Second),
		WithBackoffFactor(1.5),
		WithMaxTokens(0),
	)

	assert.True(t, e.IsConfigured())
	assert.Equal(t, "https://llm.example.com/v1", e.BaseURL())
	assert.Equal(t, "m", e.Model())
	assert.Equal(t, "k", e.APIKey())
	assert.Equal(t, 5*time.Second, e.Timeout())
	assert.Equal(t, 1, e.MaxRetries())
	assert.Equal(t, time.Second, e.InitialDelay())
	assert.Equal(t, 1.5, e.BackoffFactor())
	assert.Equal(t, DefaultEndpointMaxTokens, e.MaxTokens(), "non-positive max tokens keeps the default")
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, DefaultHost, cfg.Host())
	assert.Equal(t, DefaultPort, cfg.Port())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel())
	assert.Equal(t, LogFormatPretty, cfg.LogFormat())
	assert.Nil(t, cfg.Extraction())
	assert.False(t, cfg.Auth().Enabled())
	assert.Empty(t, cfg.CORSOrigins())
	assert.Equal(t, DefaultImportRateLimit, cfg.ImportRateLimit())
	assert.Equal(t, DefaultPublicSearchLimit, cfg.PublicSearchLimit())
	assert.Equal(t, filepath.Join(cfg.DataDir(), DefaultStorageSubdir), cfg.StorageDir())
	assert.False(t, cfg.MetricsEnabled())
}

func TestAppConfig_DataDirUpdatesDBURL(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithDataDir("/srv/gh"))
	assert.Equal(t, "sqlite:///"+filepath.Join("/srv/gh", DefaultDatabaseFile), cfg.DBURL())

	explicit := NewAppConfigWithOptions(WithDBURL("postgres://db/gh"), WithDataDir("/srv/gh"))
	assert.Equal(t, "postgres://db/gh", explicit.DBURL())
}

func TestAppConfig_Apply_DoesNotMutateReceiver(t *testing.T) {
	base := NewAppConfig()
	changed := base.Apply(WithPort(9999), WithImportRateLimit(-1))

	assert.Equal(t, DefaultPort, base.Port())
	assert.Equal(t, 9999, changed.Port())
	assert.Equal(t, DefaultImportRateLimit, changed.ImportRateLimit())
}

func TestAppConfig_CORSOrigins_Copy(t *testing.T) {
	origins := []string{"https://a.example"}
	cfg := NewAppConfigWithOptions(WithCORSOrigins(origins))
	origins[0] = "mutated"

	got := cfg.CORSOrigins()
	require.Len(t, got, 1)
	assert.Equal(t, "https://a.example", got[0])
	got[0] = "mutated again"
	assert.Equal(t, "https://a.example", cfg.CORSOrigins()[0])
}

func TestAppConfig_LogAttrs_HidesSecrets(t *testing.T) {
	cfg := NewAppConfigWithOptions(
		WithDBURL("postgres://user:pw@db/gh"),
		WithAuth(NewAuthConfig("topsecret", "", "")),
		WithExtraction(NewEndpointWithOptions(WithAPIKey("sk-hidden"), WithModel("m"))),
	)
	for _, attr := range cfg.LogAttrs() {
		value := attr.Value.String()
		assert.NotContains(t, value, "topsecret")
		assert.NotContains(t, value, "sk-hidden")
		assert.NotContains(t, value, "pw@")
		if attr.Key == "auth_enabled" {
			assert.Equal(t, slog.KindBool, attr.Value.Kind())
			assert.True(t, attr.Value.Bool())
		}
	}
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{}, ParseList(""))
	assert.Equal(t, []string{"a", "b"}, ParseList(" a ,, b ,"))
}
