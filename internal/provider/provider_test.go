package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"synapse/internal/config"
	"synapse/internal/throttle"
	"synapse/internal/types"
)

// chatServer serves /chat/completions. Streaming requests get sse (or
// streamStatus when non-zero); plain requests get plain.
type chatServer struct {
	sse          []string
	streamStatus int
	plain        string
	plainStatus  int

	streamCalls atomic.Int32
	plainCalls  atomic.Int32
	lastHeaders atomic.Value
	lastBody    atomic.Value
}

func (s *chatServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		s.lastHeaders.Store(r.Header.Clone())
		s.lastBody.Store(string(body))

		var req chatRequest
		require.NoError(t, json.Unmarshal(body, &req))

		if req.Stream {
			s.streamCalls.Add(1)
			if s.streamStatus != 0 {
				http.Error(w, "stream unavailable", s.streamStatus)
				return
			}
			w.Header().Set("Content-Type", "text/event-stream")
			for _, delta := range s.sse {
				chunk := fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, delta)
				fmt.Fprintf(w, "data: %s\n\n", chunk)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}

		s.plainCalls.Add(1)
		if s.plainStatus != 0 {
			http.Error(w, s.plain, s.plainStatus)
			return
		}
		assert.NotNil(t, req.ResponseFormat)
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, s.plain)
	})
}

func newTestSettings(provider, baseURL string) config.Settings {
	s := config.DefaultSettings()
	s.Provider = provider
	s.BaseURL = baseURL
	s.APIKeys = config.APIKeys{Gemini: "g-key", OpenAI: "o-key", OpenRouter: "r-key"}
	return s
}

func TestChat_StreamingReportsProgress(t *testing.T) {
	srv := &chatServer{sse: []string{`{"a":`, `1`, `}`}}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	p, err := New(newTestSettings(config.ProviderOpenAI, ts.URL))
	require.NoError(t, err)

	var progress []int
	text, err := p.GenerateStructured(context.Background(), Request{
		System:     "sys",
		User:       "user",
		OnProgress: func(n int) { progress = append(progress, n) },
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)
	assert.Equal(t, []int{5, 6, 7}, progress)
	assert.EqualValues(t, 1, srv.streamCalls.Load())
	assert.Zero(t, srv.plainCalls.Load())
}

func TestChat_StreamFailureFallsBackToJSONObject(t *testing.T) {
	srv := &chatServer{streamStatus: http.StatusBadGateway, plain: `{"ok":true}`}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	p, err := New(newTestSettings(config.ProviderOpenRouter, ts.URL))
	require.NoError(t, err)

	text, err := p.GenerateStructured(context.Background(), Request{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.EqualValues(t, 1, srv.streamCalls.Load())
	assert.EqualValues(t, 1, srv.plainCalls.Load())
	assert.Contains(t, srv.lastBody.Load().(string), `"response_format":{"type":"json_object"}`)
}

func TestChat_StreamingDisabled(t *testing.T) {
	srv := &chatServer{plain: `{}`}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	s := newTestSettings(config.ProviderOpenAI, ts.URL)
	s.Performance.EnableStreaming = false
	p, err := New(s)
	require.NoError(t, err)

	_, err = p.GenerateStructured(context.Background(), Request{User: "u"})
	require.NoError(t, err)
	assert.Zero(t, srv.streamCalls.Load())
}

func TestChat_APIErrorIsTransient(t *testing.T) {
	srv := &chatServer{streamStatus: http.StatusTooManyRequests, plain: "slow down", plainStatus: http.StatusTooManyRequests}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	p, err := New(newTestSettings(config.ProviderOpenAI, ts.URL))
	require.NoError(t, err)

	_, err = p.GenerateStructured(context.Background(), Request{User: "u"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "429")
	assert.True(t, throttle.IsTransient(err))
}

func TestChat_BadRequestIsFatal(t *testing.T) {
	srv := &chatServer{streamStatus: http.StatusBadRequest, plain: "bad input", plainStatus: http.StatusBadRequest}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	p, err := New(newTestSettings(config.ProviderOpenAI, ts.URL))
	require.NoError(t, err)

	_, err = p.GenerateStructured(context.Background(), Request{User: "u"})
	require.Error(t, err)
	assert.False(t, throttle.IsTransient(err))
}

func TestChat_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	p, err := New(newTestSettings(config.ProviderOpenAI, ts.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.GenerateStructured(ctx, Request{User: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChat_RequestTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-time.After(400 * time.Millisecond):
			case <-r.Context().Done():
			}
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
	}))
	defer ts.Close()

	s := newTestSettings(config.ProviderOpenAI, ts.URL)
	s.Performance.EnableStreaming = false
	s.Performance.RequestTimeout = "100ms"
	p, err := New(s)
	require.NoError(t, err)

	r := throttle.NewRetrier(throttle.RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond}, nil)
	out, err := throttle.Retry(context.Background(), r, func(ctx context.Context) (string, error) {
		return p.GenerateStructured(ctx, Request{User: "u"})
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGemini_RequestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	s := newTestSettings(config.ProviderGemini, ts.URL)
	s.Performance.RequestTimeout = "50ms"
	p, err := New(s)
	require.NoError(t, err)

	g, ok := p.(*Gemini)
	require.True(t, ok)
	got := g.client.ClientConfig().HTTPOptions.Timeout
	require.NotNil(t, got)
	assert.Equal(t, 50*time.Millisecond, *got)

	start := time.Now()
	_, err = p.GenerateStructured(context.Background(), Request{User: "u"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, throttle.IsTransient(err))
}

func TestOpenRouter_AttributionHeaders(t *testing.T) {
	srv := &chatServer{sse: []string{`{}`}}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	p, err := New(newTestSettings(config.ProviderOpenRouter, ts.URL))
	require.NoError(t, err)
	_, err = p.GenerateStructured(context.Background(), Request{User: "u"})
	require.NoError(t, err)

	h := srv.lastHeaders.Load().(http.Header)
	assert.Equal(t, config.AppReferer, h.Get("HTTP-Referer"))
	assert.Equal(t, config.AppTitle, h.Get("X-Title"))
	assert.Equal(t, "Bearer r-key", h.Get("Authorization"))
	assert.Equal(t, config.OpenRouterPremiumModel, p.Model())
}

func TestOpenRouter_Unsupported(t *testing.T) {
	p := NewOpenRouter(DefaultOpenRouterConfig("k"))

	assert.False(t, p.SupportsSearch())
	assert.False(t, p.SupportsImages())

	_, err := p.GenerateImage(context.Background(), "cat")
	assert.ErrorIs(t, err, types.ErrUnsupportedProvider)
	_, err = p.SearchGrounded(context.Background(), "cats")
	assert.ErrorIs(t, err, types.ErrUnsupportedProvider)
}

func TestOpenAI_GenerateImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, config.OpenAIImageModel, req.Model)
		assert.Equal(t, "1792x1024", req.Size)
		assert.Equal(t, "b64_json", req.ResponseFormat)
		fmt.Fprint(w, `{"data":[{"b64_json":"QUJD"}]}`)
	}))
	defer ts.Close()

	p, err := New(newTestSettings(config.ProviderOpenAI, ts.URL))
	require.NoError(t, err)
	require.True(t, p.SupportsImages())

	uri, err := p.GenerateImage(context.Background(), "a lighthouse")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,QUJD", uri)
}

func TestNew_Errors(t *testing.T) {
	s := newTestSettings(config.ProviderOpenRouter, "")
	s.APIKeys.OpenRouter = ""
	_, err := New(s)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), "API Key for OpenRouter is not configured")

	s = newTestSettings("anthropic", "")
	_, err = New(s)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestNew_SelectsAdapter(t *testing.T) {
	for _, name := range config.ValidProviders {
		t.Run(name, func(t *testing.T) {
			p, err := New(newTestSettings(name, ""))
			require.NoError(t, err)
			assert.Equal(t, name, p.Name())
			assert.Equal(t, name == config.ProviderGemini, p.SupportsSearch())
		})
	}
}

func TestAPIError_TruncatesBody(t *testing.T) {
	err := &APIError{Provider: "openai", StatusCode: 503, Body: strings.Repeat("x", 2000)}
	assert.Less(t, len(err.Error()), 600)
	assert.True(t, throttle.IsTransient(err))
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(PostBatchSchema([]types.Platform{types.PlatformX, types.PlatformLinkedIn}))

	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	posts := s.Properties["posts"]
	require.NotNil(t, posts)
	assert.Equal(t, genai.TypeArray, posts.Type)
	assert.Equal(t, []string{"X", "LinkedIn"}, posts.Items.Properties["platform"].Enum)
	assert.Equal(t, genai.TypeInteger, posts.Items.Properties["viralScore"].Type)
	assert.Nil(t, toGenaiSchema(nil))
}

func TestGroundingSources_Dedupes(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A again"}},
					{Web: nil},
					{Web: &genai.GroundingChunkWeb{URI: "https://b.example", Title: "B"}},
				},
			},
		}},
	}

	assert.Equal(t, []types.Source{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example", Title: "B"},
	}, groundingSources(resp))
	assert.Nil(t, groundingSources(&genai.GenerateContentResponse{}))
}
