package engine

import (
	"context"
	"fmt"

	"github.com/kalambet/jobassist/internal/proxy"
)

// Provider names accepted in configuration.
const (
	ProviderOllama     = "ollama"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// DetectConfig selects and configures the completion and embedding backends.
type DetectConfig struct {
	Provider      string // completion backend
	EmbedProvider string // embedding backend; "openrouter" is not supported

	OllamaBaseURL    string
	OllamaModel      string
	OllamaEmbedModel string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiEmbedModel string

	OpenRouterAPIKey string
	OpenRouterModel  string
}

// Backends holds the resolved backends. Local is non-nil when an Ollama
// server is in use and its models can be managed.
type Backends struct {
	Completer Completer
	Embedder  Embedder
	Local     *OllamaEngine
}

// Detect builds the configured backends. An empty provider defaults to
// Ollama, and the embedding provider defaults to the completion provider
// when that one can embed, else Ollama.
func Detect(ctx context.Context, cfg DetectConfig) (*Backends, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOllama
	}
	embedProvider := cfg.EmbedProvider
	if embedProvider == "" {
		embedProvider = provider
		if provider == ProviderOpenRouter {
			embedProvider = ProviderOllama
		}
	}

	var b Backends
	var gemini *GeminiEngine
	ollamaEngine := func() *OllamaEngine {
		if b.Local == nil {
			b.Local = NewOllamaEngine(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaEmbedModel)
		}
		return b.Local
	}
	geminiEngine := func() (*GeminiEngine, error) {
		if gemini != nil {
			return gemini, nil
		}
		g, err := NewGeminiEngine(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEmbedModel)
		if err != nil {
			return nil, err
		}
		gemini = g
		return g, nil
	}

	switch provider {
	case ProviderOllama:
		b.Completer = ollamaEngine()
	case ProviderGemini:
		g, err := geminiEngine()
		if err != nil {
			return nil, err
		}
		b.Completer = g
	case ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("openrouter api key is required")
		}
		b.Completer = NewOpenRouterEngine(proxy.NewClient(cfg.OpenRouterAPIKey), cfg.OpenRouterModel)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	switch embedProvider {
	case ProviderOllama:
		b.Embedder = ollamaEngine()
	case ProviderGemini:
		g, err := geminiEngine()
		if err != nil {
			return nil, err
		}
		b.Embedder = g
	default:
		return nil, fmt.Errorf("provider %q cannot embed", embedProvider)
	}

	return &b, nil
}
