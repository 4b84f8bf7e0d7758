package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"synapse/internal/logging"
)

// =============================================================================
// OPENAI-COMPATIBLE CHAT CLIENT
// =============================================================================
// Shared by the OpenAI and OpenRouter adapters. Structured requests stream
// over SSE when enabled and fall back to one non-streaming json_object
// request on any stream failure.

type chatConfig struct {
	Name       string
	APIKey     string
	BaseURL    string
	Model      string
	Headers    map[string]string
	Streaming  bool
	Timeout    time.Duration
	HTTPClient *http.Client
}

type chatClient struct {
	name       string
	apiKey     string
	baseURL    string
	model      string
	headers    map[string]string
	streaming  bool
	timeout    time.Duration
	httpClient *http.Client
}

func newChatClient(cfg chatConfig) *chatClient {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &chatClient{
		name:       cfg.Name,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		headers:    cfg.Headers,
		streaming:  cfg.Streaming,
		timeout:    timeout,
		httpClient: hc,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Stream         bool                `json:"stream,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta *struct {
			Content string `json:"content,omitempty"`
		} `json:"delta,omitempty"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// withDefaultTimeout applies the request timeout when ctx has no deadline.
func (c *chatClient) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *chatClient) messages(req Request) []chatMessage {
	msgs := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	return append(msgs, chatMessage{Role: "user", Content: req.User})
}

func (c *chatClient) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// generateStructured streams when enabled, otherwise (or on stream failure)
// issues a json_object request.
func (c *chatClient) generateStructured(ctx context.Context, req Request) (string, error) {
	timer := logging.StartTimer(logging.CategoryAPI, c.name+" structured request")
	defer timer.Stop()

	if c.streaming {
		text, err := c.collectStream(ctx, req)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logging.APIWarn("[%s] streaming failed, falling back to json_object: %v", c.name, err)
	}
	return c.complete(ctx, req)
}

// complete sends one non-streaming request in JSON-object mode.
func (c *chatClient) complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := c.withDefaultTimeout(ctx)
	defer cancel()

	logging.APIDebug("[%s] complete: model=%s system_len=%d user_len=%d", c.name, c.model, len(req.System), len(req.User))

	httpReq, err := c.newRequest(ctx, "/chat/completions", chatRequest{
		Model:          c.model,
		Messages:       c.messages(req),
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logging.APIError("[%s] chat request failed with status %d", c.name, resp.StatusCode)
		return "", &APIError{Provider: c.name, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s API error: %s", c.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: no completion returned", c.name)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// collectStream drains the delta stream, reporting cumulative length.
func (c *chatClient) collectStream(ctx context.Context, req Request) (string, error) {
	deltas, errs := c.stream(ctx, req)
	var b strings.Builder
	for delta := range deltas {
		b.WriteString(delta)
		if req.OnProgress != nil {
			req.OnProgress(b.Len())
		}
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return b.String(), nil
}

// stream sends a streaming request and returns channels of content deltas.
// The error channel yields at most one value and is closed when done.
func (c *chatClient) stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	contentChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		ctx, cancel := c.withDefaultTimeout(ctx)
		defer cancel()

		startTime := time.Now()
		httpReq, err := c.newRequest(ctx, "/chat/completions", chatRequest{
			Model:    c.model,
			Messages: c.messages(req),
			Stream:   true,
		})
		if err != nil {
			errorChan <- err
			return
		}
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			errorChan <- fmt.Errorf("request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			errorChan <- &APIError{Provider: c.name, StatusCode: resp.StatusCode, Body: string(body)}
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				continue
			}
			if data == "[DONE]" {
				logging.APIDebug("[%s] stream completed in %v", c.name, time.Since(startTime))
				return
			}

			var chunk chatResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if chunk.Error != nil {
				errorChan <- fmt.Errorf("%s API error: %s", c.name, chunk.Error.Message)
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case contentChan <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				errorChan <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errorChan <- fmt.Errorf("stream error: %w", err)
			return
		}
		if ctx.Err() != nil {
			errorChan <- ctx.Err()
		}
	}()

	return contentChan, errorChan
}

// =============================================================================
// IMAGES
// =============================================================================

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// generateImage calls /images/generations and returns a PNG data URI.
func (c *chatClient) generateImage(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := c.withDefaultTimeout(ctx)
	defer cancel()

	httpReq, err := c.newRequest(ctx, "/images/generations", imageRequest{
		Model:          model,
		Prompt:         prompt,
		N:              1,
		Size:           "1792x1024",
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logging.APIError("[%s] image request failed with status %d", c.name, resp.StatusCode)
		return "", &APIError{Provider: c.name, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse image response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return "", fmt.Errorf("%s: image generation returned no data", c.name)
	}
	return "data:image/png;base64," + parsed.Data[0].B64JSON, nil
}
