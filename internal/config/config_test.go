package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs the test from an empty directory with no config search hits.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider.Completion != "ollama" {
		t.Errorf("Provider.Completion = %q, want ollama", cfg.Provider.Completion)
	}
	if cfg.Server.Port != 4000 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.Addr() != "127.0.0.1:4000" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.RateLimit.Capacity != 20 || cfg.RateLimit.Refill != 20 || cfg.RateLimit.Interval != time.Minute {
		t.Errorf("RateLimit = %+v, want 20/20/1m", cfg.RateLimit)
	}
	if cfg.Assistant.MaxResults != 20 {
		t.Errorf("Assistant.MaxResults = %d, want 20", cfg.Assistant.MaxResults)
	}
	if cfg.Assistant.ModelTimeout != 30*time.Second {
		t.Errorf("Assistant.ModelTimeout = %v, want 30s", cfg.Assistant.ModelTimeout)
	}
	if cfg.Embedding.Timeout != 15*time.Second {
		t.Errorf("Embedding.Timeout = %v, want 15s", cfg.Embedding.Timeout)
	}
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("Ollama.EmbedModel = %q", cfg.Ollama.EmbedModel)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir should have a default")
	}
}

func TestLoad_SearchPath(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "xdg", "jobassist", "jobassist.yaml"), `
provider:
  completion: gemini
server:
  port: 5000
ratelimit:
  interval: 30s
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Completion != "gemini" {
		t.Errorf("Provider.Completion = %q, want gemini", cfg.Provider.Completion)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.RateLimit.Interval != 30*time.Second {
		t.Errorf("RateLimit.Interval = %v, want 30s", cfg.RateLimit.Interval)
	}
	if cfg.RateLimit.Capacity != 20 {
		t.Errorf("RateLimit.Capacity = %d, want default 20", cfg.RateLimit.Capacity)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "custom.yaml"), `
server:
  port: 5000
assistant:
  model_timeout: 10s
`)
	t.Setenv("JOBASSIST_SERVER_PORT", "6000")
	t.Setenv("JOBASSIST_OPENROUTER_API_KEY", "env-key")
	t.Setenv("JOBASSIST_LOG_DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Assistant.ModelTimeout != 10*time.Second {
		t.Errorf("Assistant.ModelTimeout = %v, want 10s from file", cfg.Assistant.ModelTimeout)
	}
	if cfg.OpenRouter.APIKey != "env-key" {
		t.Errorf("OpenRouter.APIKey = %q, want env-key", cfg.OpenRouter.APIKey)
	}
	if !cfg.Log.Debug {
		t.Error("Log.Debug should be set from the environment")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "JOBASSIST_GEMINI_API_KEY=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("JOBASSIST_GEMINI_API_KEY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "from-dotenv" {
		t.Errorf("Gemini.APIKey = %q, want from-dotenv", cfg.Gemini.APIKey)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("an explicit missing file should fail")
	}

	bad := writeFile(t, filepath.Join(dir, "bad.yaml"), "server:\n  port: 0\nassistant:\n  max_results: -1\n")
	_, err := Load(bad)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, want := range []string{"server.port", "assistant.max_results"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestShowAll_HidesSecrets(t *testing.T) {
	cfg := Config{
		Gemini:     GeminiConfig{APIKey: "secret-1"},
		OpenRouter: OpenRouterConfig{APIKey: "secret-2"},
		Server:     ServerConfig{Port: 4000, Token: "secret-3"},
	}

	keys := ShowAll(cfg)
	if len(keys) != len(ValidKeys()) {
		t.Errorf("ShowAll returned %d keys, ValidKeys %d", len(keys), len(ValidKeys()))
	}
	for _, k := range keys {
		if strings.HasPrefix(k.Value, "secret-") {
			t.Errorf("secret value exposed under %s", k.Key)
		}
		if k.Key == "server.port" && (k.Value != "4000" || k.EnvVar != "JOBASSIST_SERVER_PORT") {
			t.Errorf("server.port = %+v", k)
		}
	}
}

func TestAPIToken(t *testing.T) {
	dir := t.TempDir()

	got, err := APIToken(Config{Server: ServerConfig{Token: " configured "}, Storage: StorageConfig{DataDir: dir}})
	if err != nil || got != "configured" {
		t.Errorf("APIToken = %q, %v; want configured", got, err)
	}
	if _, err := os.Stat(filepath.Join(dir, tokenFileName)); !os.IsNotExist(err) {
		t.Error("a configured token should not be written to disk")
	}

	cfg := Config{Storage: StorageConfig{DataDir: filepath.Join(dir, "data")}}
	first, err := APIToken(cfg)
	if err != nil {
		t.Fatalf("APIToken: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("generated token length = %d, want 64", len(first))
	}
	second, err := APIToken(cfg)
	if err != nil || second != first {
		t.Errorf("second APIToken = %q, %v; want the stored token", second, err)
	}

	info, err := os.Stat(filepath.Join(cfg.Storage.DataDir, tokenFileName))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
}
