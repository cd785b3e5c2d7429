package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Data      DataConfig      `koanf:"data"`
	Jobs      JobsConfig      `koanf:"jobs"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Providers ProvidersConfig `koanf:"providers"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DataConfig struct {
	Dir string `koanf:"dir"`
}

type JobsConfig struct {
	MaxConcurrent int `koanf:"max_concurrent"`
	HistoryLimit  int `koanf:"history_limit"`
}

type PipelineConfig struct {
	// RequireImage makes a missing or unencodable hero image fail the whole
	// job instead of completing with an empty image field.
	RequireImage bool `koanf:"require_image"`
}

type ProvidersConfig struct {
	Anthropic AnthropicConfig `koanf:"anthropic"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Imagen    ImagenConfig    `koanf:"imagen"`
}

type AnthropicConfig struct {
	APIKey    string `koanf:"api_key"`
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	MaxTokens int    `koanf:"max_tokens"`
}

type GeminiConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

type ImagenConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads config from TOML file (if provided) then overlays env vars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	// 2. Load TOML config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load env vars. Double underscore separates levels so multi-word
	// keys stay addressable: LP_SERVER__PORT -> server.port,
	// LP_JOBS__MAX_CONCURRENT -> jobs.max_concurrent.
	// Only set env vars that have non-empty values to avoid overriding TOML config.
	if err := k.Load(env.ProviderWithValue("LP_", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		mapped := strings.Replace(
			strings.ToLower(strings.TrimPrefix(key, "LP_")),
			"__", ".", -1,
		)
		return mapped, value
	}), nil); err != nil {
		return nil, err
	}

	// 4. Handle provider key env vars (same names the original tooling uses)
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		k.Set("providers.anthropic.api_key", v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		k.Set("providers.gemini.api_key", v)
	}
	if v := os.Getenv("GOOGLE_IMAGEN_API_KEY"); v != "" {
		k.Set("providers.imagen.api_key", v)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Imagen piggybacks on the Gemini key when it has none of its own.
	if cfg.Providers.Imagen.APIKey == "" {
		cfg.Providers.Imagen.APIKey = cfg.Providers.Gemini.APIKey
	}

	return &cfg, nil
}
