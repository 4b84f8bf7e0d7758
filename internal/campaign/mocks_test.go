package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"synapse/internal/config"
	"synapse/internal/provider"
	"synapse/internal/types"
)

// --- fakeProvider ---

var contentFromPattern = regexp.MustCompile(`--- START CONTENT FROM (\S+) ---`)

// fakeProvider answers each request kind with canned JSON. Hooks override
// individual kinds; failures can be scripted per call.
type fakeProvider struct {
	search bool
	images bool

	sources      []types.Source
	modelScore   float64
	topicReply   string // raw override for topic synthesis
	failFirst    int    // number of leading calls that fail with failErr
	failErr      error
	essenceDelay time.Duration

	mu       sync.Mutex
	requests []provider.Request
	queries  []string
	calls    int

	active    atomic.Int32
	maxActive atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{modelScore: 87}
}

func (f *fakeProvider) Name() string         { return config.ProviderOpenRouter }
func (f *fakeProvider) Model() string        { return "fake-model" }
func (f *fakeProvider) SupportsSearch() bool { return f.search }
func (f *fakeProvider) SupportsImages() bool { return f.images }

func (f *fakeProvider) nextCall() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return f.failErr
	}
	return nil
}

func (f *fakeProvider) GenerateStructured(ctx context.Context, req provider.Request) (string, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := f.nextCall(); err != nil {
		return "", err
	}

	switch {
	case req.System == debriefSystemPrompt:
		return `{"campaignSynopsis":"Synopsis","primaryAudience":"Builders","keyThemes":["speed","trust"],"competitiveAngle":"Depth"}`, nil

	case req.System == essenceSystemPrompt:
		if f.essenceDelay > 0 {
			time.Sleep(f.essenceDelay)
		}
		return fmt.Sprintf(`{"coreTakeaway":"takeaway of %d chars","microAudience":"niche readers"}`, len(req.User)), nil

	case strings.Contains(req.System, "PRIMARY DIRECTIVE"):
		var posts []map[string]any
		for _, m := range contentFromPattern.FindAllStringSubmatch(req.User, -1) {
			for _, p := range schemaPlatforms(req.Schema) {
				posts = append(posts, f.post(p, m[1]))
			}
		}
		if req.OnProgress != nil {
			req.OnProgress(10)
		}
		return marshal(map[string]any{"posts": posts}), nil

	default:
		if f.topicReply != "" {
			return f.topicReply, nil
		}
		var posts []map[string]any
		for _, p := range schemaPlatforms(req.Schema) {
			posts = append(posts, f.post(p, "https://model-made-this-up.example"))
		}
		return "```json\n" + marshal(map[string]any{
			"strategicDebrief": map[string]any{
				"campaignSynopsis": "Solar goes mainstream",
				"primaryAudience":  "Homeowners",
				"keyThemes":        []string{"savings", "independence", "climate"},
				"competitiveAngle": "Cost clarity",
			},
			"posts": posts,
		}) + "\n```", nil
	}
}

func (f *fakeProvider) post(platform, source string) map[string]any {
	return map[string]any{
		"platform":     platform,
		"versionA":     "Version A for " + platform + " #solar",
		"versionB":     "Version B for " + platform,
		"angleA":       "Curiosity Gap",
		"angleB":       "Authority",
		"whyThisWorks": "Because",
		"viralScore":   f.modelScore,
		"imagePrompt":  "A rooftop at dawn",
		"sourceUrl":    source,
	}
}

func (f *fakeProvider) SearchGrounded(_ context.Context, query string) (provider.Grounded, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if !f.search {
		return provider.Grounded{}, fmt.Errorf("%w: no search", types.ErrUnsupportedProvider)
	}
	return provider.Grounded{Text: "Research about the topic.", Sources: f.sources}, nil
}

func (f *fakeProvider) GenerateImage(context.Context, string) (string, error) {
	if err := f.nextCall(); err != nil {
		return "", err
	}
	return "data:image/png;base64,QUJD", nil
}

func (f *fakeProvider) requestsWithSystem(system string) []provider.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []provider.Request
	for _, r := range f.requests {
		if r.System == system {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeProvider) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func schemaPlatforms(s *provider.Schema) []string {
	if s == nil {
		return nil
	}
	posts := s.Properties["posts"]
	if posts == nil || posts.Items == nil {
		return nil
	}
	return posts.Items.Properties["platform"].Enum
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// --- recorder ---

type recorded struct {
	result  types.CampaignResult
	message string
}

type recorder struct {
	mu      sync.Mutex
	updates []recorded
}

func (r *recorder) onUpdate(result types.CampaignResult, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, recorded{result: result, message: message})
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.message
	}
	return out
}

func (r *recorder) last() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[len(r.updates)-1]
}

func indexOf(msgs []string, prefix string) int {
	for i, m := range msgs {
		if strings.HasPrefix(m, prefix) {
			return i
		}
	}
	return -1
}

// --- helpers ---

type staticAcquirer struct {
	docs []types.Document
	err  error
}

func (a staticAcquirer) Acquire(context.Context, []string) ([]types.Document, error) {
	return a.docs, a.err
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.Provider = config.ProviderOpenRouter
	s.APIKeys.OpenRouter = "test-key"
	s.Performance.Mode = config.ModeBalanced
	s.Performance.Concurrency = 3
	s.Performance.MinDelay = "0s"
	s.Performance.InitialBackoff = "1ms"
	s.Performance.MaxRetries = 2
	return s
}

func newTestEngine(p *fakeProvider) *Engine {
	return NewEngine(EngineConfig{
		NewProvider: func(config.Settings) (provider.Provider, error) { return p, nil },
		Acquirer:    &StubAcquirer{},
	})
}

func urlList(n int) string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://site%d.example.com/post/%d", i, i)
	}
	return strings.Join(urls, "\n")
}
