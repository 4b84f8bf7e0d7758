package campaign

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/types"
)

func TestParseURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"topic", "future of solar panels", nil},
		{"single", "https://example.com/blog/post-1", []string{"https://example.com/blog/post-1"}},
		{"no scheme", "example.org/about", []string{"example.org/about"}},
		{"mixed separators", "https://a.example.com, http://b.example.net/x\n\tnot-a-url",
			[]string{"https://a.example.com", "http://b.example.net/x"}},
		{"duplicates", "https://a.example.com https://a.example.com", []string{"https://a.example.com"}},
		{"empty", "  ,  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseURLs(tt.input))
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://news.example.co.uk/2024/solar"))
	assert.True(t, IsURL("http://example.com/"))
	assert.False(t, IsURL("solar"))
	assert.False(t, IsURL("ftp://example.com"))
	assert.False(t, IsURL("https://example"))
}

func TestParseStructured_RoundTrip(t *testing.T) {
	want := map[string]string{"b": "ok"}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	for name, text := range map[string]string{
		"plain":       string(data),
		"json fence":  "```json\n" + string(data) + "\n```",
		"bare fence":  "```\n" + string(data) + "\n```",
		"with prose":  "Here you go:\n```json\n" + string(data) + "\n```\nEnjoy!",
		"inline pads": "```json   " + string(data) + "   ```",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseStructured[map[string]string](text, "test")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseStructured_Essence(t *testing.T) {
	e, err := ParseStructured[types.Essence]("```json\n{\"coreTakeaway\":\"ship it\",\"microAudience\":\"founders\"}\n```", "essence")
	require.NoError(t, err)
	assert.Equal(t, types.Essence{CoreTakeaway: "ship it", MicroAudience: "founders"}, e)
}

func TestParseStructured_Errors(t *testing.T) {
	_, err := ParseStructured[map[string]any]("   ", "strategic debrief")
	require.ErrorIs(t, err, types.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "empty")
	assert.Contains(t, err.Error(), "strategic debrief")

	_, err = ParseStructured[map[string]any]("{not json", "post batch 2")
	require.ErrorIs(t, err, types.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "post batch 2")
}

func TestWirePost_FractionalScore(t *testing.T) {
	resp, err := ParseStructured[batchResponse](`{"posts":[{"platform":"twitter","versionA":"a","viralScore":72.6}]}`, "batch")
	require.NoError(t, err)
	require.Len(t, resp.Posts, 1)

	r := &run{engine: NewEngine(EngineConfig{NewID: func() string { return "id-1" }})}
	posts := r.finalizePosts(resp.Posts, "")
	require.Len(t, posts, 1)
	assert.Equal(t, 73, posts[0].ViralScore)
	assert.Equal(t, types.PlatformX, posts[0].Platform)
	assert.Equal(t, "id-1", posts[0].ID)
}

func TestPostCapper(t *testing.T) {
	c := newPostCapper(map[types.Platform]int{types.PlatformX: 1})
	first := c.apply([]types.Post{{Platform: types.PlatformX}, {Platform: types.PlatformLinkedIn}, {Platform: types.PlatformX}})
	second := c.apply([]types.Post{{Platform: types.PlatformX}, {Platform: types.PlatformLinkedIn}})

	assert.Len(t, first, 2)
	assert.Equal(t, []types.Post{{Platform: types.PlatformLinkedIn}}, second)
}

func TestStubAcquirer(t *testing.T) {
	docs, err := (&StubAcquirer{}).Acquire(context.Background(), []string{"https://example.com/blog/ai-tools", "example.org"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "https://example.com/blog/ai-tools", docs[0].URL)
	assert.Contains(t, docs[0].Text, "Simulated content for blog ai-tools.")
	assert.Contains(t, docs[0].Text, "from the page at https://example.com/blog/ai-tools.")
	assert.Contains(t, docs[1].Text, "Simulated content for .")
}

func TestStubAcquirer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStubAcquirer().Acquire(ctx, []string{"https://example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 10))
	assert.Equal(t, "hi", truncate("hi", 0))
}
