package provider

import (
	"context"

	"synapse/internal/config"
)

// OpenRouter routes chat requests through openrouter.ai. It has no search
// and no image support.
type OpenRouter struct {
	chat *chatClient
}

// OpenRouterConfig configures the OpenRouter adapter.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	TransportOptions
}

// DefaultOpenRouterConfig returns sensible defaults.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:           apiKey,
		BaseURL:          config.OpenRouterAPIBase,
		Model:            config.OpenRouterPremiumModel,
		TransportOptions: TransportOptions{Streaming: true},
	}
}

// NewOpenRouter creates an OpenRouter adapter.
func NewOpenRouter(cfg OpenRouterConfig) *OpenRouter {
	return &OpenRouter{
		chat: newChatClient(chatConfig{
			Name:    config.ProviderOpenRouter,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Headers: map[string]string{
				"HTTP-Referer": config.AppReferer,
				"X-Title":      config.AppTitle,
			},
			Streaming:  cfg.Streaming,
			Timeout:    cfg.Timeout,
			HTTPClient: cfg.HTTPClient,
		}),
	}
}

func (o *OpenRouter) Name() string         { return config.ProviderOpenRouter }
func (o *OpenRouter) Model() string        { return o.chat.model }
func (o *OpenRouter) SupportsSearch() bool { return false }
func (o *OpenRouter) SupportsImages() bool { return false }

// GenerateStructured implements Provider.
func (o *OpenRouter) GenerateStructured(ctx context.Context, req Request) (string, error) {
	return o.chat.generateStructured(ctx, req)
}

// SearchGrounded implements Provider.
func (o *OpenRouter) SearchGrounded(context.Context, string) (Grounded, error) {
	return Grounded{}, unsupported("OpenRouter", "web search")
}

// GenerateImage implements Provider.
func (o *OpenRouter) GenerateImage(context.Context, string) (string, error) {
	return "", unsupported("OpenRouter", "image generation")
}
