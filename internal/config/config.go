// Package config loads jobassist settings from jobassist.yaml, a .env file
// and JOBASSIST_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const appName = "jobassist"

type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Ollama     OllamaConfig     `mapstructure:"ollama"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

// ProviderConfig selects the completion and embedding backends. An empty
// embedding provider follows the completion provider.
type ProviderConfig struct {
	Completion string `mapstructure:"completion"`
	Embedding  string `mapstructure:"embedding"`
}

type OllamaConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed_model"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed_model"`
}

type OpenRouterConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type RateLimitConfig struct {
	Capacity int           `mapstructure:"capacity"`
	Refill   int           `mapstructure:"refill"`
	Interval time.Duration `mapstructure:"interval"`
}

type AssistantConfig struct {
	MaxResults   int           `mapstructure:"max_results"`
	ModelTimeout time.Duration `mapstructure:"model_timeout"`
}

type EmbeddingConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	MaxConns int    `mapstructure:"max_conns"`
	// Token is the bearer token for the HTTP API. When empty a token is
	// generated and kept in the data directory.
	Token string `mapstructure:"token"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
	JSON  bool `mapstructure:"json"`
}

// Addr is the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration with a fresh viper instance. An empty path
// searches for jobassist.yaml in the current directory and then in
// $XDG_CONFIG_HOME/jobassist; a missing file is not an error.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-provided viper instance, so command-line flags
// bound to it take precedence over the file and the environment.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	for _, s := range specs {
		v.SetDefault(s.key, s.def)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(configHome(), appName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxConns <= 0 {
		errs = append(errs, fmt.Errorf("server.max_conns must be positive"))
	}
	if c.RateLimit.Capacity <= 0 || c.RateLimit.Refill <= 0 || c.RateLimit.Interval <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit capacity, refill and interval must be positive"))
	}
	if c.Assistant.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("assistant.max_results must be positive"))
	}
	if c.Assistant.ModelTimeout <= 0 || c.Embedding.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("model and embedding timeouts must be positive"))
	}
	if c.Embedding.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("embedding.poll_interval must be positive"))
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		errs = append(errs, fmt.Errorf("storage.data_dir is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}
	return "."
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return appName + "-data"
		}
	}
	return filepath.Join(dir, appName)
}
