// Package app wires configuration into a ready pipeline.Service.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/auth"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/cache"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/config"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/conversion"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/corrections"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/credentials"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/extraction"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/httpclient"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/jobs"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/pipeline"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/translation"
)

// Translation modes reported by Status.
const (
	TranslationOAuth    = "oauth"
	TranslationSandbox  = "sandbox"
	TranslationDisabled = "disabled"
)

// Status describes which integrations are available.
type Status struct {
	Translation string `json:"translation"`
	Conversion  bool   `json:"conversion"`
	Cache       string `json:"cache"`
}

// App holds the wired service and the resources it owns.
type App struct {
	Service *pipeline.Service
	Status  Status
	closers []func() error
}

// New resolves the service bindings and builds every client.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	bindings, err := credentials.LoadFile(cfg.Bindings.Path, cfg.Translation.SandboxAPIKey)
	if err != nil {
		return nil, err
	}

	httpCfg := httpclient.Config{Timeout: cfg.HTTPClient.Timeout, MaxRetries: cfg.HTTPClient.MaxRetries}
	a := &App{}

	extHTTP := httpclient.New("extraction", nil, httpCfg, logger)
	extractor := extraction.NewClient(
		bindings.Extraction.BaseURL,
		extHTTP,
		jobs.NewPoller(cfg.Extraction.PollInterval, cfg.Extraction.MaxAttempts, logger.WithOperation("poll")),
		logger,
	)
	extTokens := auth.NewTokenAcquirer("extraction", bindings.Extraction, extHTTP.HTTP(), logger)

	translator, mode := newTranslator(cfg, bindings, httpCfg, logger)
	a.Status.Translation = mode

	converter := conversion.NewConverter(
		cfg.Conversion.BaseURL,
		cfg.Conversion.PublicKey,
		cfg.Conversion.Tool,
		httpclient.New("conversion", nil, httpCfg, logger),
		logger,
	)
	a.Status.Conversion = converter.Enabled()

	cacheClient, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.Status.Cache = cfg.Cache.Driver
	a.closers = append(a.closers, cacheClient.Close)

	deps := pipeline.Deps{
		Tokens:      extTokens,
		Extractor:   extractor,
		Converter:   converter,
		Corrections: corrections.NewFileStore(cfg.Corrections.Path),
		Results:     cache.NewJobResults(cacheClient, cfg.Cache.TTL),
		Logger:      logger,
	}
	// A nil *translation.Client must not end up in the interface.
	if translator != nil {
		deps.Translator = translator
	}

	a.Service = pipeline.NewService(deps, pipeline.Options{
		ClientID:     cfg.Extraction.ClientID,
		DocumentType: cfg.Extraction.DocumentType,
		SchemaName:   cfg.Extraction.SchemaName,
		Translation: translation.Options{
			SourceLang: cfg.Translation.SourceLang,
			TargetLang: cfg.Translation.TargetLang,
			StrictMode: cfg.Translation.StrictMode,
			Model:      cfg.Translation.Model,
		},
	})

	logger.Info().
		Str("extraction", bindings.Extraction.BaseURL).
		Str("translation", a.Status.Translation).
		Bool("conversion", a.Status.Conversion).
		Str("cache", a.Status.Cache).
		Msg("Services wired")

	return a, nil
}

// Close releases the resources held by the app.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newTranslator prefers the OAuth2 binding and falls back to the sandbox key.
func newTranslator(cfg *config.Config, b *credentials.Bindings, httpCfg httpclient.Config, logger *observability.Logger) (*translation.Client, string) {
	hc := httpclient.New("translation", nil, httpCfg, logger)

	if b.Translation != nil {
		endpoint := strings.TrimRight(b.Translation.BaseURL, "/") + cfg.Translation.Path
		tokens := auth.NewTokenAcquirer("translation", *b.Translation, hc.HTTP(), logger)
		return translation.NewOAuthClient(endpoint, tokens, hc, logger), TranslationOAuth
	}
	if b.SandboxAPIKey != "" {
		return translation.NewSandboxClient(cfg.Translation.Endpoint, b.SandboxAPIKey, hc, logger), TranslationSandbox
	}
	logger.Warn().Msg("No translation binding or sandbox key, translation disabled")
	return nil, TranslationDisabled
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Client, error) {
	switch cfg.Driver {
	case "redis":
		c, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			TLS:      cfg.Redis.TLS,
		})
		if err != nil {
			return nil, fmt.Errorf("connect job result cache: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemoryClient(cfg.MaxEntries), nil
	}
}
