// Package config loads and validates synapse settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"synapse/internal/types"
)

// DefaultConfigPath is where the CLI looks for settings when --config is not given.
const DefaultConfigPath = ".synapse/config.yaml"

// Settings holds all synapse configuration. It is passed by value into
// every pipeline call; nothing in the pipeline writes back to it.
type Settings struct {
	Provider    string            `yaml:"provider"`
	APIKeys     APIKeys           `yaml:"api_keys"`
	Model       string            `yaml:"model"` // empty = provider default
	ImageModel  string            `yaml:"image_model,omitempty"`
	BaseURL     string            `yaml:"base_url,omitempty"` // OpenAI-compatible endpoint override
	Performance PerformanceConfig `yaml:"performance"`
	Guardrails  GuardrailsConfig  `yaml:"guardrails"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// APIKeys holds one credential per provider.
type APIKeys struct {
	Gemini     string `yaml:"gemini"`
	OpenAI     string `yaml:"openai"`
	OpenRouter string `yaml:"openrouter"`
}

// CacheConfig configures the essence caches.
type CacheConfig struct {
	Backend     string `yaml:"backend"` // sqlite, memory
	Path        string `yaml:"path"`    // sqlite database file
	SessionPath string `yaml:"session_path"`
	TTL         string `yaml:"ttl"`
	MaxEntries  int    `yaml:"max_entries"`
}

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		Provider:    ProviderOpenRouter,
		Model:       OpenRouterPremiumModel,
		Performance: DefaultPerformanceConfig(),
		Guardrails:  DefaultGuardrailsConfig(),
		Cache: CacheConfig{
			Backend:     "sqlite",
			Path:        ".synapse/essence.db",
			SessionPath: ".synapse/session.json",
			TTL:         "24h",
			MaxEntries:  100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads settings from a YAML file. A missing file yields defaults.
// A .env file next to the working directory is loaded first so that API
// keys can live outside the YAML.
func Load(path string) (Settings, error) {
	cfg := DefaultSettings()

	// Missing .env is normal.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes settings to a YAML file.
func (s Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (s *Settings) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		s.APIKeys.Gemini = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		s.APIKeys.OpenAI = key
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		s.APIKeys.OpenRouter = key
	}
	if p := os.Getenv("SYNAPSE_PROVIDER"); p != "" {
		s.Provider = strings.ToLower(p)
	}
	if m := os.Getenv("SYNAPSE_MODEL"); m != "" {
		s.Model = m
	}
	if path := os.Getenv("SYNAPSE_CACHE_PATH"); path != "" {
		s.Cache.Path = path
	}
}

// ActiveAPIKey returns the credential of the selected provider.
func (s Settings) ActiveAPIKey() string {
	switch s.Provider {
	case ProviderGemini:
		return s.APIKeys.Gemini
	case ProviderOpenAI:
		return s.APIKeys.OpenAI
	case ProviderOpenRouter:
		return s.APIKeys.OpenRouter
	default:
		return ""
	}
}

// GetCacheTTL returns the essence cache TTL as a duration.
func (s Settings) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(s.Cache.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// GetCacheMaxEntries returns the volatile cache capacity.
func (s Settings) GetCacheMaxEntries() int {
	if s.Cache.MaxEntries <= 0 {
		return 100
	}
	return s.Cache.MaxEntries
}

// Validate validates the configuration.
func (s Settings) Validate() error {
	if !IsValidProvider(s.Provider) {
		return fmt.Errorf("%w: invalid provider %q (valid: %v)", types.ErrConfiguration, s.Provider, ValidProviders)
	}
	if s.ActiveAPIKey() == "" {
		return fmt.Errorf("%w: API Key for %s is not configured", types.ErrConfiguration, ProviderDisplayName(s.Provider))
	}
	if err := s.Performance.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}
	if err := s.CheckModelAllowed(); err != nil {
		return err
	}
	for name, limit := range s.Guardrails.PlatformPostCaps {
		if _, err := types.ParsePlatform(name); err != nil {
			return fmt.Errorf("%w: platform_post_caps: %v", types.ErrConfiguration, err)
		}
		if limit < 0 {
			return fmt.Errorf("%w: platform_post_caps[%s] must be >= 0", types.ErrConfiguration, name)
		}
	}
	switch s.Cache.Backend {
	case "", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: invalid cache backend %q (valid: sqlite, memory)", types.ErrConfiguration, s.Cache.Backend)
	}
	return nil
}
