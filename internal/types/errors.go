package types

import "errors"

// Error taxonomy for campaign generation. Callers match with errors.Is;
// concrete failures wrap one of these with context.
var (
	// ErrConfiguration covers missing credentials, disallowed models and
	// invalid settings. Never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransientExhausted is returned once a transient provider failure
	// has been retried the configured number of times.
	ErrTransientExhausted = errors.New("transient provider error: retries exhausted")

	// ErrMalformedResponse means structured output was empty or not valid JSON.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNoContentExtracted means no URL produced usable text.
	ErrNoContentExtracted = errors.New("could not extract content from any of the provided URLs")

	// ErrUnsupportedProvider means the provider cannot serve the requested capability.
	ErrUnsupportedProvider = errors.New("unsupported provider capability")
)
