package config

import (
	"fmt"
	"math"
	"time"
)

// Performance modes.
const (
	ModeEconomy      = "economy"
	ModeBalanced     = "balanced"
	ModePremium      = "premium"
	ModeUltraPremium = "ultra_premium"
)

// premiumConcurrencyMultiplier boosts the provider default in premium modes.
const premiumConcurrencyMultiplier = 1.5

// PerformanceConfig tunes batching, truncation and pacing of provider calls.
type PerformanceConfig struct {
	Mode        string `yaml:"mode"`
	Concurrency int    `yaml:"concurrency"` // 0 = provider default

	MicroBatchEssences bool `yaml:"micro_batch_essences"`
	MicroBatchSize     int  `yaml:"micro_batch_size"`
	URLBatchSize       int  `yaml:"url_batch_size"`
	MaxURLsPerRun      int  `yaml:"max_urls_per_run"`

	DebriefTruncate int `yaml:"debrief_truncate"`
	EssenceTruncate int `yaml:"essence_truncate"`
	PostTruncate    int `yaml:"post_truncate"`

	MinDelay       string `yaml:"min_delay"`
	MaxRetries     int    `yaml:"max_retries"`
	InitialBackoff string `yaml:"initial_backoff"`
	RequestTimeout string `yaml:"request_timeout"`

	PriorityQueue   bool `yaml:"priority_queue"`
	EnableCache     bool `yaml:"enable_cache"`
	EnableStreaming bool `yaml:"enable_streaming"`
}

// DefaultPerformanceConfig returns the default performance tuning.
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		Mode:               ModePremium,
		MicroBatchEssences: true,
		MicroBatchSize:     5,
		URLBatchSize:       10,
		MaxURLsPerRun:      50,
		DebriefTruncate:    2500,
		EssenceTruncate:    3000,
		PostTruncate:       5000,
		MinDelay:           "50ms",
		MaxRetries:         5,
		InitialBackoff:     "500ms",
		RequestTimeout:     "120s",
		EnableCache:        true,
		EnableStreaming:    true,
	}
}

// Validate checks that performance values are within acceptable ranges.
func (p PerformanceConfig) Validate() error {
	switch p.Mode {
	case "", ModeEconomy, ModeBalanced, ModePremium, ModeUltraPremium:
	default:
		return fmt.Errorf("invalid performance mode %q", p.Mode)
	}
	if p.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if p.MicroBatchSize < 0 || p.URLBatchSize < 0 || p.MaxURLsPerRun < 0 {
		return fmt.Errorf("batch sizes and max_urls_per_run must be >= 0")
	}
	if p.DebriefTruncate < 0 || p.EssenceTruncate < 0 || p.PostTruncate < 0 {
		return fmt.Errorf("truncation lengths must be >= 0")
	}
	return nil
}

// EffectiveConcurrency returns the parallel call budget for the active
// provider: the explicit override or the provider default, boosted in
// premium modes, never below 1.
func (s Settings) EffectiveConcurrency() int {
	base := s.Performance.Concurrency
	if base <= 0 {
		base = defaultConcurrency[s.Provider]
	}
	mult := 1.0
	if s.Performance.Mode == ModePremium || s.Performance.Mode == ModeUltraPremium {
		mult = premiumConcurrencyMultiplier
	}
	return max(1, int(math.Floor(float64(base)*mult)))
}

// EffectiveMicroBatchSize returns the essence chunk size.
func (p PerformanceConfig) EffectiveMicroBatchSize() int {
	return orDefault(p.MicroBatchSize, 5)
}

// EffectiveURLBatchSize returns the number of URLs per post generation call.
func (p PerformanceConfig) EffectiveURLBatchSize() int {
	return orDefault(p.URLBatchSize, 10)
}

// EffectiveMaxURLs returns the per-run URL guardrail.
func (p PerformanceConfig) EffectiveMaxURLs() int {
	return orDefault(p.MaxURLsPerRun, 50)
}

// EffectiveDebriefTruncate returns the per-URL char budget for the debrief corpus.
func (p PerformanceConfig) EffectiveDebriefTruncate() int {
	return orDefault(p.DebriefTruncate, 2500)
}

// EffectiveEssenceTruncate returns the per-URL char budget for essence distillation.
func (p PerformanceConfig) EffectiveEssenceTruncate() int {
	return orDefault(p.EssenceTruncate, 3000)
}

// EffectivePostTruncate returns the per-URL char budget for post generation.
func (p PerformanceConfig) EffectivePostTruncate() int {
	return orDefault(p.PostTruncate, 5000)
}

// GetMinDelay returns the limiter release delay.
func (p PerformanceConfig) GetMinDelay() time.Duration {
	return parseDurationOr(p.MinDelay, 50*time.Millisecond)
}

// GetInitialBackoff returns the first retry delay.
func (p PerformanceConfig) GetInitialBackoff() time.Duration {
	return parseDurationOr(p.InitialBackoff, 500*time.Millisecond)
}

// GetRequestTimeout returns the HTTP timeout for provider calls.
func (p PerformanceConfig) GetRequestTimeout() time.Duration {
	return parseDurationOr(p.RequestTimeout, 120*time.Second)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
