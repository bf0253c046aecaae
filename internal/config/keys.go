package config

import (
	"fmt"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override, e.g. JOBASSIST_SERVER_PORT.
const EnvPrefix = "JOBASSIST"

type keySpec struct {
	key     string
	def     any
	secret  bool
	extract func(cfg Config) any
}

var specs = []keySpec{
	{key: "provider.completion", def: "ollama", extract: func(c Config) any { return c.Provider.Completion }},
	{key: "provider.embedding", def: "", extract: func(c Config) any { return c.Provider.Embedding }},

	{key: "ollama.base_url", def: "http://localhost:11434", extract: func(c Config) any { return c.Ollama.BaseURL }},
	{key: "ollama.model", def: "llama3.2", extract: func(c Config) any { return c.Ollama.Model }},
	{key: "ollama.embed_model", def: "nomic-embed-text", extract: func(c Config) any { return c.Ollama.EmbedModel }},

	{key: "gemini.api_key", def: "", secret: true, extract: func(c Config) any { return c.Gemini.APIKey }},
	{key: "gemini.model", def: "gemini-2.5-flash", extract: func(c Config) any { return c.Gemini.Model }},
	{key: "gemini.embed_model", def: "text-embedding-004", extract: func(c Config) any { return c.Gemini.EmbedModel }},

	{key: "openrouter.api_key", def: "", secret: true, extract: func(c Config) any { return c.OpenRouter.APIKey }},
	{key: "openrouter.model", def: "meta-llama/llama-3.1-8b-instruct", extract: func(c Config) any { return c.OpenRouter.Model }},

	{key: "ratelimit.capacity", def: 20, extract: func(c Config) any { return c.RateLimit.Capacity }},
	{key: "ratelimit.refill", def: 20, extract: func(c Config) any { return c.RateLimit.Refill }},
	{key: "ratelimit.interval", def: time.Minute, extract: func(c Config) any { return c.RateLimit.Interval }},

	{key: "assistant.max_results", def: 20, extract: func(c Config) any { return c.Assistant.MaxResults }},
	{key: "assistant.model_timeout", def: 30 * time.Second, extract: func(c Config) any { return c.Assistant.ModelTimeout }},

	{key: "embedding.timeout", def: 15 * time.Second, extract: func(c Config) any { return c.Embedding.Timeout }},
	{key: "embedding.poll_interval", def: 500 * time.Millisecond, extract: func(c Config) any { return c.Embedding.PollInterval }},

	{key: "server.host", def: "127.0.0.1", extract: func(c Config) any { return c.Server.Host }},
	{key: "server.port", def: 4000, extract: func(c Config) any { return c.Server.Port }},
	{key: "server.max_conns", def: 256, extract: func(c Config) any { return c.Server.MaxConns }},
	{key: "server.token", def: "", secret: true, extract: func(c Config) any { return c.Server.Token }},

	{key: "storage.data_dir", def: defaultDataDir(), extract: func(c Config) any { return c.Storage.DataDir }},

	{key: "log.debug", def: false, extract: func(c Config) any { return c.Log.Debug }},
	{key: "log.json", def: false, extract: func(c Config) any { return c.Log.JSON }},
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all non-secret config key/value pairs from cfg.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: EnvVar(s.key),
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// ValidKeys returns the list of valid non-secret config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
