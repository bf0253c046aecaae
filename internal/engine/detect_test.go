package engine

import (
	"context"
	"testing"
)

func TestDetect_DefaultsToOllama(t *testing.T) {
	b, err := Detect(context.Background(), DetectConfig{
		OllamaBaseURL: "http://localhost:11434",
		OllamaModel:   "llama3",
	})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if _, ok := b.Completer.(*OllamaEngine); !ok {
		t.Errorf("Completer = %T, want *OllamaEngine", b.Completer)
	}
	if b.Embedder != Embedder(b.Local) {
		t.Error("Embedder should share the local Ollama engine")
	}
}

func TestDetect_OpenRouterEmbedsWithOllama(t *testing.T) {
	b, err := Detect(context.Background(), DetectConfig{
		Provider:         ProviderOpenRouter,
		OpenRouterAPIKey: "sk-test",
		OpenRouterModel:  "meta-llama/llama-3-8b-instruct",
	})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if b.Completer.Name() != "openrouter/meta-llama/llama-3-8b-instruct" {
		t.Errorf("Completer.Name() = %q", b.Completer.Name())
	}
	if _, ok := b.Embedder.(*OllamaEngine); !ok {
		t.Errorf("Embedder = %T, want *OllamaEngine", b.Embedder)
	}
}

func TestDetect_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  DetectConfig
	}{
		{"unknown provider", DetectConfig{Provider: "mlx"}},
		{"openrouter without key", DetectConfig{Provider: ProviderOpenRouter}},
		{"gemini without key", DetectConfig{Provider: ProviderGemini}},
		{"openrouter cannot embed", DetectConfig{Provider: ProviderOllama, EmbedProvider: ProviderOpenRouter}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Detect(context.Background(), tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
