package throttle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"synapse/internal/logging"
	"synapse/internal/types"
)

// transientMarkers are the substrings that identify a retryable provider
// failure. Provider adapters must surface status codes and upstream
// messages in their error text for this to work.
var transientMarkers = []string{
	"rate",
	"limit",
	"timeout",
	"overloaded",
	"temporarily",
	"503",
	"429",
}

// IsTransient reports whether err looks like rate limiting, overload or a
// timeout. Cancellation is never transient; per-request deadlines are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// RetryConfig configures a Retrier.
type RetryConfig struct {
	MaxRetries   int           // retries after the first attempt
	InitialDelay time.Duration // first backoff, doubled every round
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   5,
		InitialDelay: 500 * time.Millisecond,
	}
}

// Retrier retries transient failures with exponential backoff scaled by
// the shared backpressure factor.
type Retrier struct {
	cfg   RetryConfig
	bp    *Backpressure
	sleep func(context.Context, time.Duration) error
}

// NewRetrier creates a retrier. A nil backpressure gets a private domain.
func NewRetrier(cfg RetryConfig, bp *Backpressure) *Retrier {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if bp == nil {
		bp = NewBackpressure()
	}
	return &Retrier{cfg: cfg, bp: bp, sleep: sleepCtx}
}

// Retry runs op until it succeeds, fails fatally, or has been attempted
// MaxRetries+1 times. Exhaustion wraps both types.ErrTransientExhausted
// and the last error.
func Retry[T any](ctx context.Context, r *Retrier, op func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := r.cfg.InitialDelay

	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !IsTransient(err) {
			return zero, err
		}
		if attempt >= r.cfg.MaxRetries {
			logging.ThrottleWarn("giving up after %d attempts: %v", attempt+1, err)
			return zero, fmt.Errorf("%w after %d attempts: %w", types.ErrTransientExhausted, attempt+1, err)
		}

		factor := r.bp.Increase()
		wait := time.Duration(float64(delay) * factor)
		logging.ThrottleDebug("transient failure (attempt %d/%d), retrying in %v: %v",
			attempt+1, r.cfg.MaxRetries+1, wait, err)
		if err := r.sleep(ctx, wait); err != nil {
			return zero, err
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
