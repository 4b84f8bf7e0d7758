package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("API keys fill per-provider slots", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "o-key")
		t.Setenv("OPENROUTER_API_KEY", "r-key")

		cfg := DefaultSettings()
		cfg.applyEnvOverrides()

		assert.Equal(t, "g-key", cfg.APIKeys.Gemini)
		assert.Equal(t, "o-key", cfg.APIKeys.OpenAI)
		assert.Equal(t, "r-key", cfg.APIKeys.OpenRouter)
		assert.Equal(t, ProviderOpenRouter, cfg.Provider, "keys alone do not switch provider")
	})

	t.Run("SYNAPSE_PROVIDER is lower-cased", func(t *testing.T) {
		t.Setenv("SYNAPSE_PROVIDER", "Gemini")

		cfg := DefaultSettings()
		cfg.applyEnvOverrides()

		assert.Equal(t, ProviderGemini, cfg.Provider)
	})

	t.Run("model and cache path", func(t *testing.T) {
		t.Setenv("SYNAPSE_MODEL", "openai/gpt-4-turbo")
		t.Setenv("SYNAPSE_CACHE_PATH", "/tmp/x.db")

		cfg := DefaultSettings()
		cfg.applyEnvOverrides()

		assert.Equal(t, "openai/gpt-4-turbo", cfg.Model)
		assert.Equal(t, "/tmp/x.db", cfg.Cache.Path)
	})

	t.Run("empty env leaves settings", func(t *testing.T) {
		t.Setenv("SYNAPSE_PROVIDER", "")
		t.Setenv("OPENAI_API_KEY", "")

		cfg := DefaultSettings()
		cfg.APIKeys.OpenAI = "keep"
		cfg.applyEnvOverrides()

		assert.Equal(t, "keep", cfg.APIKeys.OpenAI)
		assert.Equal(t, ProviderOpenRouter, cfg.Provider)
	})
}
