package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"synapse/internal/config"
	"synapse/internal/logging"
	"synapse/internal/types"
)

// =============================================================================
// GEMINI (google.golang.org/genai)
// =============================================================================

// Gemini uses the Gemini API for structured output, Google Search grounding
// and Imagen image generation.
type Gemini struct {
	client     *genai.Client
	model      string
	imageModel string
}

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string // empty = SDK default
	Model      string
	ImageModel string
	TransportOptions
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:     apiKey,
		Model:      config.GeminiTextModel,
		ImageModel: config.GeminiImageModel,
	}
}

// NewGemini creates a Gemini adapter. No network traffic happens here.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API Key for Gemini is not configured", types.ErrConfiguration)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{
		client:     client,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
	}, nil
}

func (g *Gemini) Name() string         { return config.ProviderGemini }
func (g *Gemini) Model() string        { return g.model }
func (g *Gemini) SupportsSearch() bool { return true }
func (g *Gemini) SupportsImages() bool { return true }

// GenerateStructured implements Provider. The SDK call is not streamed, so
// OnProgress fires once with the full length.
func (g *Gemini) GenerateStructured(ctx context.Context, req Request) (string, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "gemini structured request")
	defer timer.Stop()

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.Schema),
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), cfg)
	if err != nil {
		return "", wrapGenaiError(err)
	}
	text := resp.Text()
	if req.OnProgress != nil {
		req.OnProgress(len(text))
	}
	return text, nil
}

// SearchGrounded implements Provider using the Google Search tool.
func (g *Gemini) SearchGrounded(ctx context.Context, query string) (Grounded, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "gemini grounded search")
	defer timer.Stop()

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(query), cfg)
	if err != nil {
		return Grounded{}, wrapGenaiError(err)
	}

	sources := groundingSources(resp)
	logging.APIDebug("[gemini] grounded search returned %d sources", len(sources))
	return Grounded{Text: resp.Text(), Sources: sources}, nil
}

// GenerateImage implements Provider using Imagen.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "16:9",
	})
	if err != nil {
		return "", wrapGenaiError(err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return "", errors.New("gemini: image generation returned no data")
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(resp.GeneratedImages[0].Image.ImageBytes), nil
}

// groundingSources collects unique web sources from the first candidate.
func groundingSources(resp *genai.GenerateContentResponse) []types.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []types.Source
	seen := make(map[string]bool)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		out = append(out, types.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}

// wrapGenaiError converts SDK API errors to *APIError.
func wrapGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		logging.APIError("[gemini] request failed with status %d (%s)", apiErr.Code, apiErr.Status)
		return &APIError{Provider: config.ProviderGemini, StatusCode: apiErr.Code, Body: apiErr.Status + ": " + apiErr.Message}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}

var genaiTypes = map[SchemaType]genai.Type{
	TypeObject:  genai.TypeObject,
	TypeArray:   genai.TypeArray,
	TypeString:  genai.TypeString,
	TypeInteger: genai.TypeInteger,
}

// toGenaiSchema converts a Schema to the SDK representation.
func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiTypes[s.Type],
		Description: s.Description,
		Enum:        s.Enum,
		Items:       toGenaiSchema(s.Items),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}
