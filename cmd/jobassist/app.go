package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/assistant"
	"github.com/kalambet/jobassist/internal/audit"
	"github.com/kalambet/jobassist/internal/config"
	"github.com/kalambet/jobassist/internal/embedcache"
	"github.com/kalambet/jobassist/internal/engine"
	"github.com/kalambet/jobassist/internal/ingest"
	"github.com/kalambet/jobassist/internal/matching"
	"github.com/kalambet/jobassist/internal/ratelimit"
	"github.com/kalambet/jobassist/internal/storage"
)

// app is the wired service graph shared by the commands that work on the
// local store.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	store     *storage.Store
	backends  *engine.Backends
	assistant *assistant.Service
	matcher   *matching.Service
	catalog   *ingest.Catalog
	worker    *ingest.Worker
}

// buildApp opens the store and connects the configured model backends. When
// a local Ollama server is used its models are pulled if missing, with
// progress written to progress.
func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger, progress io.Writer) (*app, error) {
	backends, err := engine.Detect(ctx, engine.DetectConfig{
		Provider:         cfg.Provider.Completion,
		EmbedProvider:    cfg.Provider.Embedding,
		OllamaBaseURL:    cfg.Ollama.BaseURL,
		OllamaModel:      cfg.Ollama.Model,
		OllamaEmbedModel: cfg.Ollama.EmbedModel,
		GeminiAPIKey:     cfg.Gemini.APIKey,
		GeminiModel:      cfg.Gemini.Model,
		GeminiEmbedModel: cfg.Gemini.EmbedModel,
		OpenRouterAPIKey: cfg.OpenRouter.APIKey,
		OpenRouterModel:  cfg.OpenRouter.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring model backends: %w", err)
	}
	if backends.Local != nil {
		var models []string
		if _, ok := backends.Completer.(*engine.OllamaEngine); ok {
			models = append(models, cfg.Ollama.Model)
		}
		if _, ok := backends.Embedder.(*engine.OllamaEngine); ok {
			models = append(models, cfg.Ollama.EmbedModel)
		}
		if err := engine.EnsureReady(ctx, backends.Local, progress, models...); err != nil {
			return nil, err
		}
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	cache := embedcache.New(store, backends.Embedder, embedcache.Options{
		Timeout: cfg.Embedding.Timeout,
		Logger:  log,
	})
	limiter := ratelimit.New(ratelimit.Config{
		Capacity: cfg.RateLimit.Capacity,
		Refill:   cfg.RateLimit.Refill,
		Interval: cfg.RateLimit.Interval,
	})

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		backends: backends,
		assistant: assistant.New(assistant.Deps{
			Store:      store,
			Embeddings: cache,
			Completer:  backends.Completer,
			Limiter:    limiter,
			Recorder:   audit.NewRecorder(store, log),
			Logger:     log,
		}, assistant.Config{
			MaxResults:   cfg.Assistant.MaxResults,
			ModelTimeout: cfg.Assistant.ModelTimeout,
		}),
		matcher: matching.NewService(store, log),
		catalog: ingest.NewCatalog(store, log),
		worker:  ingest.NewWorker(store, cache, cfg.Embedding.PollInterval, log),
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing storage", zap.Error(err))
	}
}
