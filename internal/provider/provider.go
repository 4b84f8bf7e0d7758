// Package provider adapts the supported LLM backends to one capability
// interface used by the campaign pipeline.
package provider

import (
	"context"
	"fmt"
	"strings"

	"synapse/internal/types"
)

// Provider is the capability surface the pipeline needs from a backend.
type Provider interface {
	// Name returns the provider id (gemini, openai, openrouter).
	Name() string
	// Model returns the text model requests are sent to.
	Model() string
	// GenerateStructured returns the raw JSON text produced for req.
	GenerateStructured(ctx context.Context, req Request) (string, error)
	// SearchGrounded runs a web-grounded query. Providers without search
	// return ErrUnsupportedProvider.
	SearchGrounded(ctx context.Context, query string) (Grounded, error)
	// GenerateImage returns a data URI for prompt.
	GenerateImage(ctx context.Context, prompt string) (string, error)
	SupportsSearch() bool
	SupportsImages() bool
}

// Request is a single structured-output call.
type Request struct {
	System string
	User   string
	Schema *Schema

	// OnProgress, when set, receives the number of characters received so
	// far on streaming transports.
	OnProgress func(chars int)
}

// Grounded is the result of a web-grounded search.
type Grounded struct {
	Text    string
	Sources []types.Source
}

// APIError is a non-2xx response from a provider HTTP endpoint. The message
// carries the status code and body so transient classification can see them.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, body)
}

func unsupported(provider, capability string) error {
	return fmt.Errorf("%w: %s does not support %s", types.ErrUnsupportedProvider, provider, capability)
}
