package provider

import (
	"fmt"
	"net/http"
	"time"

	"synapse/internal/config"
	"synapse/internal/logging"
	"synapse/internal/types"
)

// TransportOptions are shared HTTP settings for every adapter.
type TransportOptions struct {
	Streaming  bool          // OpenAI-compatible adapters only
	Timeout    time.Duration // per request when ctx has no deadline
	HTTPClient *http.Client  // nil = default client
}

// Option customises adapter construction.
type Option func(*TransportOptions)

// WithHTTPClient overrides the HTTP client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(o *TransportOptions) { o.HTTPClient = hc }
}

// New returns the adapter for the active provider in settings. It fails with
// ErrConfiguration when the provider is unknown or its API key is empty.
func New(s config.Settings, opts ...Option) (Provider, error) {
	transport := TransportOptions{
		Streaming: s.Performance.EnableStreaming,
		Timeout:   s.Performance.GetRequestTimeout(),
	}
	for _, opt := range opts {
		opt(&transport)
	}

	if !config.IsValidProvider(s.Provider) {
		return nil, fmt.Errorf("%w: invalid provider %q", types.ErrConfiguration, s.Provider)
	}
	key := s.ActiveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("%w: API Key for %s is not configured", types.ErrConfiguration, config.ProviderDisplayName(s.Provider))
	}

	model := s.EffectiveModel()
	logging.API("creating %s provider (model=%s streaming=%v)", s.Provider, model, transport.Streaming)

	switch s.Provider {
	case config.ProviderGemini:
		cfg := DefaultGeminiConfig(key)
		cfg.BaseURL = s.BaseURL
		cfg.Model = model
		cfg.ImageModel = s.EffectiveImageModel()
		cfg.TransportOptions = transport
		return NewGemini(cfg)

	case config.ProviderOpenAI:
		cfg := DefaultOpenAIConfig(key)
		if s.BaseURL != "" {
			cfg.BaseURL = s.BaseURL
		}
		cfg.Model = model
		cfg.ImageModel = s.EffectiveImageModel()
		cfg.TransportOptions = transport
		return NewOpenAI(cfg), nil

	default:
		cfg := DefaultOpenRouterConfig(key)
		if s.BaseURL != "" {
			cfg.BaseURL = s.BaseURL
		}
		cfg.Model = model
		cfg.TransportOptions = transport
		return NewOpenRouter(cfg), nil
	}
}
