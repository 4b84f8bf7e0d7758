package config

import (
	"fmt"
	"slices"

	"synapse/internal/types"
)

// GuardrailsConfig holds user limits that block or truncate work before
// cost is incurred.
type GuardrailsConfig struct {
	EnforceModelAllowlist bool           `yaml:"enforce_model_allowlist"`
	ModelAllowlist        []string       `yaml:"model_allowlist"`
	PlatformPostCaps      map[string]int `yaml:"platform_post_caps"` // 0 or absent = unlimited
}

// DefaultGuardrailsConfig returns the default guardrails.
func DefaultGuardrailsConfig() GuardrailsConfig {
	return GuardrailsConfig{
		ModelAllowlist: []string{
			OpenRouterPremiumModel,
			"anthropic/claude-3-opus-20240229",
			"openai/gpt-4-turbo",
			"google/gemini-pro-1.5",
		},
		PlatformPostCaps: map[string]int{},
	}
}

// CheckModelAllowed enforces the OpenRouter model allowlist when enabled.
// An empty allowlist allows every model.
func (s Settings) CheckModelAllowed() error {
	if s.Provider != ProviderOpenRouter || !s.Guardrails.EnforceModelAllowlist {
		return nil
	}
	if len(s.Guardrails.ModelAllowlist) == 0 {
		return nil
	}
	model := s.EffectiveModel()
	if slices.Contains(s.Guardrails.ModelAllowlist, model) {
		return nil
	}
	return fmt.Errorf("%w: model %q is not in the OpenRouter allowlist", types.ErrConfiguration, model)
}

// PostCaps resolves the configured caps to platforms. Invalid names and
// non-positive limits are skipped.
func (g GuardrailsConfig) PostCaps() map[types.Platform]int {
	caps := make(map[types.Platform]int, len(g.PlatformPostCaps))
	for name, limit := range g.PlatformPostCaps {
		p, err := types.ParsePlatform(name)
		if err != nil || limit <= 0 {
			continue
		}
		caps[p] = limit
	}
	return caps
}
