package config

import "slices"

// Provider identifiers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{ProviderGemini, ProviderOpenAI, ProviderOpenRouter}

// Default models per provider.
const (
	GeminiTextModel  = "gemini-2.5-flash"
	GeminiImageModel = "imagen-3.0-generate-002"

	OpenAITextModel  = "gpt-4o"
	OpenAIImageModel = "dall-e-3"

	OpenRouterPremiumModel = "anthropic/claude-3-5-sonnet-20241022"
	OpenRouterAPIBase      = "https://openrouter.ai/api/v1"
	OpenAIAPIBase          = "https://api.openai.com/v1"
)

// App attribution headers sent to OpenRouter.
const (
	AppReferer = "https://aistrategist.dev"
	AppTitle   = "AI Campaign Strategist"
)

// defaultConcurrency is the per-provider parallel call budget.
var defaultConcurrency = map[string]int{
	ProviderGemini:     4,
	ProviderOpenAI:     6,
	ProviderOpenRouter: 8,
}

// IsValidProvider reports whether p names a supported provider.
func IsValidProvider(p string) bool {
	return slices.Contains(ValidProviders, p)
}

// ProviderDisplayName returns the human-readable provider name used in messages.
func ProviderDisplayName(p string) string {
	switch p {
	case ProviderGemini:
		return "Gemini"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderOpenRouter:
		return "OpenRouter"
	default:
		return p
	}
}

// EffectiveModel returns the text model for the selected provider.
// The default settings carry the OpenRouter model, so that value is ignored
// once another provider is selected.
func (s Settings) EffectiveModel() string {
	if s.Model != "" && (s.Provider == ProviderOpenRouter || s.Model != OpenRouterPremiumModel) {
		return s.Model
	}
	switch s.Provider {
	case ProviderGemini:
		return GeminiTextModel
	case ProviderOpenAI:
		return OpenAITextModel
	default:
		return OpenRouterPremiumModel
	}
}

// EffectiveImageModel returns the image model for the selected provider,
// or "" when the provider has none.
func (s Settings) EffectiveImageModel() string {
	if s.ImageModel != "" {
		return s.ImageModel
	}
	switch s.Provider {
	case ProviderGemini:
		return GeminiImageModel
	case ProviderOpenAI:
		return OpenAIImageModel
	default:
		return ""
	}
}
