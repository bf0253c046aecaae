package engine

import (
	"context"
	"fmt"

	"github.com/kalambet/jobassist/internal/ollama"
)

// OllamaEngine adapts the internal/ollama.Client to Completer, Embedder and
// Manager.
type OllamaEngine struct {
	client     *ollama.Client
	chatModel  string
	embedModel string
}

// NewOllamaEngine creates an OllamaEngine backed by an Ollama server at baseURL.
func NewOllamaEngine(baseURL, chatModel, embedModel string) *OllamaEngine {
	return &OllamaEngine{
		client:     ollama.New(baseURL),
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

func (e *OllamaEngine) Name() string {
	return "ollama/" + e.chatModel
}

func (e *OllamaEngine) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]ollama.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, ollama.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, ollama.Message{Role: "user", Content: req.Prompt})

	out, err := e.client.Chat(ctx, e.chatModel, msgs, ollama.ChatOptions{
		Temperature: req.Temperature,
		JSON:        req.JSON,
	})
	if ollama.IsModelMissing(err) {
		return "", fmt.Errorf("chat model %s is not pulled (run `ollama pull %s`): %w", e.chatModel, e.chatModel, err)
	}
	return out, err
}

func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.Embed(ctx, e.embedModel, text)
	if ollama.IsModelMissing(err) {
		return nil, fmt.Errorf("embedding model %s is not pulled (run `ollama pull %s`): %w", e.embedModel, e.embedModel, err)
	}
	return vec, err
}

func (e *OllamaEngine) IsRunning(ctx context.Context) bool {
	return e.client.IsRunning(ctx)
}

func (e *OllamaEngine) ListModels(ctx context.Context) ([]string, error) {
	return e.client.ListModels(ctx)
}

func (e *OllamaEngine) HasModel(ctx context.Context, name string) bool {
	return e.client.HasModel(ctx, name)
}

func (e *OllamaEngine) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	var cb func(ollama.PullProgress)
	if onProgress != nil {
		cb = func(p ollama.PullProgress) {
			onProgress(PullProgress{
				Status:    p.Status,
				Total:     p.Total,
				Completed: p.Completed,
			})
		}
	}
	return e.client.PullModel(ctx, name, cb)
}

// Models returns the chat and embedding model names.
func (e *OllamaEngine) Models() (chat, embed string) {
	return e.chatModel, e.embedModel
}
