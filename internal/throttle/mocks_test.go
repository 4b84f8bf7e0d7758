package throttle

import (
	"context"
	"sync"
	"time"
)

// recordingSleeper captures backoff waits instead of sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func newTestRetrier(cfg RetryConfig, bp *Backpressure) (*Retrier, *recordingSleeper) {
	r := NewRetrier(cfg, bp)
	s := &recordingSleeper{}
	r.sleep = s.sleep
	return r, s
}
