package config

import (
	"github.com/knadh/koanf/v2"
)

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 8000,

		"data.dir": "./data",

		"jobs.max_concurrent": 4,
		"jobs.history_limit":  100,

		"pipeline.require_image": false,

		"providers.anthropic.base_url":   "https://api.anthropic.com",
		"providers.anthropic.model":      "claude-3-7-sonnet-20250219",
		"providers.anthropic.max_tokens": 8192,

		"providers.gemini.base_url": "https://generativelanguage.googleapis.com",
		"providers.gemini.model":    "gemini-2.0-flash",

		"providers.imagen.model": "imagen-3.0-generate-002",

		"logging.level":  "info",
		"logging.format": "pretty",
	}

	for key, val := range defaults {
		k.Set(key, val)
	}
	return nil
}
