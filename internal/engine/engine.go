package engine

import "context"

// Completer produces a text completion for a prompt. Implementations are
// safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Name identifies the backend and model in logs, e.g. "ollama/llama3".
	Name() string
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Manager is implemented by backends that run locally and can report and
// fetch their models.
type Manager interface {
	IsRunning(ctx context.Context) bool
	ListModels(ctx context.Context) ([]string, error)
	HasModel(ctx context.Context, name string) bool
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}
