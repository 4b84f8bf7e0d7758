package provider

import (
	"context"

	"synapse/internal/config"
)

// OpenAI talks to the OpenAI chat-completions and images endpoints.
type OpenAI struct {
	chat       *chatClient
	imageModel string
}

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	TransportOptions
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:           apiKey,
		BaseURL:          config.OpenAIAPIBase,
		Model:            config.OpenAITextModel,
		ImageModel:       config.OpenAIImageModel,
		TransportOptions: TransportOptions{Streaming: true},
	}
}

// NewOpenAI creates an OpenAI adapter.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	return &OpenAI{
		chat: newChatClient(chatConfig{
			Name:       config.ProviderOpenAI,
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Streaming:  cfg.Streaming,
			Timeout:    cfg.Timeout,
			HTTPClient: cfg.HTTPClient,
		}),
		imageModel: cfg.ImageModel,
	}
}

func (o *OpenAI) Name() string         { return config.ProviderOpenAI }
func (o *OpenAI) Model() string        { return o.chat.model }
func (o *OpenAI) SupportsSearch() bool { return false }
func (o *OpenAI) SupportsImages() bool { return true }

// GenerateStructured implements Provider.
func (o *OpenAI) GenerateStructured(ctx context.Context, req Request) (string, error) {
	return o.chat.generateStructured(ctx, req)
}

// SearchGrounded implements Provider.
func (o *OpenAI) SearchGrounded(context.Context, string) (Grounded, error) {
	return Grounded{}, unsupported("OpenAI", "web search")
}

// GenerateImage implements Provider.
func (o *OpenAI) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return o.chat.generateImage(ctx, o.imageModel, prompt)
}
