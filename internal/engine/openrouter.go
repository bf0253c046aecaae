package engine

import (
	"context"

	"github.com/kalambet/jobassist/internal/proxy"
)

// OpenRouterEngine completes prompts through OpenRouter's OpenAI-compatible
// API. It does not embed.
type OpenRouterEngine struct {
	client *proxy.Client
	model  string
}

func NewOpenRouterEngine(client *proxy.Client, model string) *OpenRouterEngine {
	return &OpenRouterEngine{client: client, model: model}
}

func (e *OpenRouterEngine) Name() string {
	return "openrouter/" + e.model
}

func (e *OpenRouterEngine) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]proxy.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, proxy.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, proxy.Message{Role: "user", Content: req.Prompt})

	temp := req.Temperature
	cr := proxy.ChatRequest{
		Model:       e.model,
		Messages:    msgs,
		Temperature: &temp,
	}
	if req.JSON {
		cr.ResponseFormat = &proxy.ResponseFormat{Type: "json_object"}
	}
	return e.client.Complete(ctx, cr)
}
