// Package campaign runs the campaign generation pipeline: topic mode
// (search, then synthesis) and URL mode (debrief, essences, post batches).
package campaign

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"synapse/internal/cache"
	"synapse/internal/config"
	"synapse/internal/logging"
	"synapse/internal/provider"
	"synapse/internal/throttle"
	"synapse/internal/types"
)

// Status messages shared by both modes.
const (
	MsgCampaignReady = "Campaign Ready!"
	MsgFinalizing    = "Finalizing campaign..."
)

// progressInterval throttles streaming progress messages.
const progressInterval = 600 * time.Millisecond

// UpdateFunc receives a snapshot of the accumulated result and a status
// message. Snapshots never shrink within a run and are not shared with the
// pipeline, so callers may keep or modify them.
type UpdateFunc func(result types.CampaignResult, message string)

// ProviderFactory builds the provider for a run.
type ProviderFactory func(config.Settings) (provider.Provider, error)

// EngineConfig holds collaborators for an Engine. Zero values get defaults.
type EngineConfig struct {
	NewProvider  ProviderFactory        // default provider.New
	Acquirer     Acquirer               // default NewStubAcquirer()
	Essences     *cache.EssenceCache    // default session-only cache
	Backpressure *throttle.Backpressure // shared by limiters and retriers

	// SharedLimiter, when set, serves every provider instead of one
	// limiter per provider.
	SharedLimiter *throttle.Limiter

	NewID func() string // post ids, default uuid.NewString
}

// Engine runs campaigns. It is safe for concurrent use; runs share the
// backpressure domain, the essence cache and the per-provider limiters.
type Engine struct {
	cfg EngineConfig

	mu       sync.Mutex
	limiters map[string]*throttle.Limiter
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.NewProvider == nil {
		cfg.NewProvider = func(s config.Settings) (provider.Provider, error) { return provider.New(s) }
	}
	if cfg.Acquirer == nil {
		cfg.Acquirer = NewStubAcquirer()
	}
	if cfg.Essences == nil {
		cfg.Essences = cache.NewEssenceCache(nil, nil, cache.DefaultTTL)
	}
	if cfg.Backpressure == nil {
		cfg.Backpressure = throttle.NewBackpressure()
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Engine{cfg: cfg, limiters: make(map[string]*throttle.Limiter)}
}

// Essences returns the essence cache used by the engine.
func (e *Engine) Essences() *cache.EssenceCache { return e.cfg.Essences }

// Backpressure returns the shared backpressure domain.
func (e *Engine) Backpressure() *throttle.Backpressure { return e.cfg.Backpressure }

// limiterFor returns the process-wide limiter for the active provider. The
// first run for a provider fixes its capacity.
func (e *Engine) limiterFor(s config.Settings) *throttle.Limiter {
	if e.cfg.SharedLimiter != nil {
		return e.cfg.SharedLimiter
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if l, ok := e.limiters[s.Provider]; ok {
		return l
	}
	l := throttle.NewLimiter(throttle.LimiterConfig{
		Name:          s.Provider,
		Concurrency:   s.EffectiveConcurrency(),
		BaseDelay:     s.Performance.GetMinDelay(),
		PriorityQueue: s.Performance.PriorityQueue,
	}, e.cfg.Backpressure)
	e.limiters[s.Provider] = l
	logging.Throttle("limiter created for %s (concurrency=%d)", s.Provider, l.Concurrency())
	return l
}

// LimiterMetrics returns metrics for every limiter created so far, keyed by
// provider ("shared" for a shared limiter).
func (e *Engine) LimiterMetrics() map[string]throttle.LimiterMetrics {
	if e.cfg.SharedLimiter != nil {
		return map[string]throttle.LimiterMetrics{"shared": e.cfg.SharedLimiter.Metrics()}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]throttle.LimiterMetrics, len(e.limiters))
	for name, l := range e.limiters {
		out[name] = l.Metrics()
	}
	return out
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// GenerateCampaign runs URL mode when input contains at least one URL and
// topic mode otherwise. onUpdate is called synchronously from the pipeline;
// on success the last call carries the complete result.
func (e *Engine) GenerateCampaign(ctx context.Context, input string, settings config.Settings, platforms []types.Platform, onUpdate UpdateFunc) error {
	return e.execute(ctx, input, settings, platforms, func(u Update) {
		if onUpdate != nil {
			onUpdate(u.Result, u.Message)
		}
	})
}

// GenerateImageForPrompt returns a data URI for prompt using the active
// provider. It fails with ErrUnsupportedProvider when the provider has no
// image model.
func (e *Engine) GenerateImageForPrompt(ctx context.Context, prompt string, settings config.Settings) (string, error) {
	if err := settings.Validate(); err != nil {
		return "", err
	}
	prov, err := e.cfg.NewProvider(settings)
	if err != nil {
		return "", err
	}
	if !prov.SupportsImages() {
		return "", fmt.Errorf("%w: image generation is not supported for %s", types.ErrUnsupportedProvider, config.ProviderDisplayName(prov.Name()))
	}

	timer := logging.StartTimer(logging.CategoryAPI, "image generation")
	defer timer.Stop()

	r := e.newRun(settings, prov, nil, func(Update) {})
	return callProvider(ctx, r, throttle.PriorityHigh, func(ctx context.Context) (string, error) {
		return prov.GenerateImage(ctx, prompt)
	})
}

func (e *Engine) execute(ctx context.Context, input string, settings config.Settings, platforms []types.Platform, sink func(Update)) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("%w: input is empty", types.ErrConfiguration)
	}
	if len(platforms) == 0 {
		return fmt.Errorf("%w: no platforms selected", types.ErrConfiguration)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	prov, err := e.cfg.NewProvider(settings)
	if err != nil {
		return err
	}

	r := e.newRun(settings, prov, platforms, sink)
	timer := logging.StartTimer(logging.CategoryPipeline, "campaign run "+r.id)

	if urls := ParseURLs(input); len(urls) > 0 {
		r.log.Info("URL mode: %d URLs, provider=%s model=%s", len(urls), prov.Name(), prov.Model())
		err = r.generateForURLs(ctx, urls)
	} else {
		r.log.Info("topic mode: provider=%s model=%s", prov.Name(), prov.Model())
		err = r.generateForTopic(ctx, input)
	}

	timer.StopWithInfo()
	logging.ThrottleDebug("after run %s: %s (backpressure %s)", r.id, r.limiter.Metrics(), e.cfg.Backpressure)
	if err != nil {
		r.log.Error("run failed: %v", err)
	}
	return err
}

// =============================================================================
// RUN STATE
// =============================================================================

// run is the state of one generation. Only the pipeline goroutine touches
// result; emitted snapshots are clones.
type run struct {
	engine    *Engine
	id        string
	settings  config.Settings
	platforms []types.Platform
	prov      provider.Provider
	limiter   *throttle.Limiter
	retrier   *throttle.Retrier
	log       *logging.Logger
	sink      func(Update)

	result types.CampaignResult
}

func (e *Engine) newRun(settings config.Settings, prov provider.Provider, platforms []types.Platform, sink func(Update)) *run {
	id := uuid.NewString()
	return &run{
		engine:    e,
		id:        id,
		settings:  settings,
		platforms: platforms,
		prov:      prov,
		limiter:   e.limiterFor(settings),
		retrier: throttle.NewRetrier(throttle.RetryConfig{
			MaxRetries:   settings.Performance.MaxRetries,
			InitialDelay: settings.Performance.GetInitialBackoff(),
		}, e.cfg.Backpressure),
		log:  logging.WithRequestID(logging.CategoryPipeline, id),
		sink: sink,
	}
}

func (r *run) emit(kind UpdateKind, message string, added []types.Post) {
	r.log.Debug("update kind=%s: %s", kind, message)
	r.sink(Update{
		Kind:    kind,
		Message: message,
		Result:  r.result.Clone(),
		Added:   added,
	})
}

func (r *run) status(message string) { r.emit(UpdateStatus, message, nil) }

// done attaches metrics and emits the terminal update.
func (r *run) done() {
	m := types.ComputeMetrics(r.result.Posts)
	r.result.Metrics = &m
	r.emit(UpdateDone, MsgCampaignReady, nil)
}

// progress returns an OnProgress callback that emits message at most once
// per progressInterval.
func (r *run) progress(message string) func(int) {
	var last time.Time
	return func(int) {
		if now := time.Now(); now.Sub(last) > progressInterval {
			last = now
			r.status(message)
		}
	}
}

// callProvider runs op through the limiter with transient-failure retry.
func callProvider[T any](ctx context.Context, r *run, prio throttle.Priority, op func(context.Context) (T, error)) (T, error) {
	return throttle.Do(ctx, r.limiter, prio, func(ctx context.Context) (T, error) {
		return throttle.Retry(ctx, r.retrier, op)
	})
}

func (r *run) generate(ctx context.Context, prio throttle.Priority, req provider.Request) (string, error) {
	return callProvider(ctx, r, prio, func(ctx context.Context) (string, error) {
		return r.prov.GenerateStructured(ctx, req)
	})
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
