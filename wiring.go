package guildhall

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/domain/rules"
	"github.com/emberline/guildhall/infrastructure/auth"
	"github.com/emberline/guildhall/infrastructure/extractor"
	"github.com/emberline/guildhall/infrastructure/provider"
	"github.com/emberline/guildhall/infrastructure/storage"
)

func buildVerifier(cfg *clientConfig) (*auth.Verifier, error) {
	if cfg.authSecret == "" {
		return nil, nil
	}
	var opts []auth.VerifierOption
	if cfg.authIssuer != "" {
		opts = append(opts, auth.WithIssuer(cfg.authIssuer))
	}
	if cfg.authAudience != "" {
		opts = append(opts, auth.WithAudience(cfg.authAudience))
	}
	v, err := auth.NewVerifier(cfg.authSecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("create token verifier: %w", err)
	}
	return v, nil
}

// buildObjectStore returns the rulebook store and, when it opened one, the
// bucket the client must close.
func buildObjectStore(ctx context.Context, cfg *clientConfig, dataDir string) (rules.ObjectStore, io.Closer, error) {
	if cfg.objects != nil {
		return cfg.objects, nil, nil
	}
	if cfg.storageURL != "" {
		b, err := storage.OpenURL(ctx, cfg.storageURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open rulebook storage: %w", err)
		}
		return b, b, nil
	}
	dir := cfg.storageDir
	if dir == "" {
		dir = defaultStorageDir(dataDir)
	}
	b, err := storage.NewLocal(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open rulebook storage: %w", err)
	}
	return b, b, nil
}

// buildExtractor picks, in order, an explicit extractor, a text provider, or
// an OpenAI-compatible endpoint. Without any of them imports are refused.
func buildExtractor(cfg *clientConfig, logger *slog.Logger) (extraction.Extractor, bool, error) {
	if cfg.extractor != nil {
		return cfg.extractor, true, nil
	}

	generator := cfg.textProvider
	if generator == nil && cfg.openAI != nil {
		openAICfg := *cfg.openAI
		if cfg.extractionCache != "" {
			replay, err := provider.NewReplayTransport(cfg.extractionCache, openAICfg.Transport, logger)
			if err != nil {
				return nil, false, fmt.Errorf("open extraction cache: %w", err)
			}
			openAICfg.Transport = replay
		}
		generator = provider.NewOpenAIProvider(openAICfg)
	}
	if generator == nil {
		return disabledExtractor{}, false, nil
	}

	e := extractor.NewProviderExtractor(generator, logger)
	if cfg.extractionTokens > 0 {
		e = e.WithMaxTokens(cfg.extractionTokens)
	}
	return e, true, nil
}

// disabledExtractor refuses every extraction.
type disabledExtractor struct{}

func (disabledExtractor) Extract(context.Context, string, extraction.Schema) (json.RawMessage, error) {
	return nil, ErrExtractionDisabled
}

var _ http.RoundTripper = (*provider.ReplayTransport)(nil)
