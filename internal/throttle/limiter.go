package throttle

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"synapse/internal/logging"
)

// =============================================================================
// CONCURRENCY LIMITER
// =============================================================================
//
// Limiter bounds the number of in-flight provider calls. Callers beyond
// capacity wait in a queue that is either FIFO or ordered by priority
// (ties FIFO). A finished task keeps its slot for baseDelay x backpressure
// before handing it to the next waiter, which paces bursts.

// Priority defines the scheduling priority of a queued task.
type Priority int

const (
	// PriorityLow is for background and speculative work.
	PriorityLow Priority = iota + 1
	// PriorityMedium is the default for pipeline calls.
	PriorityMedium
	// PriorityHigh is for calls on the critical path of a phase.
	PriorityHigh
	// PriorityCritical jumps ahead of everything else.
	PriorityCritical
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// LimiterConfig configures a Limiter.
type LimiterConfig struct {
	Name          string        // used in logs
	Concurrency   int           // max simultaneous tasks, >= 1
	BaseDelay     time.Duration // slot hold time after completion, scaled by backpressure
	PriorityQueue bool          // order waiters by priority instead of FIFO
}

// DefaultLimiterConfig returns sensible defaults.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Name:        "default",
		Concurrency: 4,
		BaseDelay:   50 * time.Millisecond,
	}
}

// LimiterMetrics is a point-in-time view of limiter counters.
// These are for observability only.
type LimiterMetrics struct {
	Submitted  int64
	Completed  int64
	Failed     int64
	AvgLatency time.Duration
	ErrorRate  float64
	QueueDepth int
	Active     int
}

// String returns a human-readable metrics summary.
func (m LimiterMetrics) String() string {
	return fmt.Sprintf("submitted=%d completed=%d failed=%d avg=%v err_rate=%.2f queued=%d active=%d",
		m.Submitted, m.Completed, m.Failed, m.AvgLatency.Round(time.Millisecond), m.ErrorRate, m.QueueDepth, m.Active)
}

// Limiter is a bounded, optionally prioritised execution queue.
type Limiter struct {
	cfg LimiterConfig
	bp  *Backpressure

	mu      sync.Mutex
	active  int
	waiting waitQueue
	seq     uint64

	submitted    int64
	completed    int64
	failed       int64
	totalLatency time.Duration
}

// NewLimiter creates a limiter. A nil backpressure gets a private domain.
func NewLimiter(cfg LimiterConfig, bp *Backpressure) *Limiter {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	if bp == nil {
		bp = NewBackpressure()
	}
	return &Limiter{cfg: cfg, bp: bp}
}

// Concurrency returns the configured capacity.
func (l *Limiter) Concurrency() int { return l.cfg.Concurrency }

// Execute runs task once a slot is available. It returns ctx.Err() if the
// context ends while the task is still queued; the task is then never run.
func (l *Limiter) Execute(ctx context.Context, priority Priority, task func(context.Context) error) error {
	l.mu.Lock()
	l.submitted++
	l.mu.Unlock()

	if err := l.acquire(ctx, priority); err != nil {
		return err
	}

	start := time.Now()
	err := task(ctx)
	elapsed := time.Since(start)

	l.mu.Lock()
	l.completed++
	l.totalLatency += elapsed
	if err != nil {
		l.failed++
	}
	l.mu.Unlock()

	if err == nil {
		l.bp.Decay()
	}
	l.release()
	return err
}

// Do runs fn through the limiter and returns its value.
func Do[T any](ctx context.Context, l *Limiter, priority Priority, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := l.Execute(ctx, priority, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}

func (l *Limiter) acquire(ctx context.Context, priority Priority) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.active < l.cfg.Concurrency && l.waiting.Len() == 0 {
		l.active++
		l.mu.Unlock()
		return nil
	}

	l.seq++
	w := &waiter{
		priority: priority,
		seq:      l.seq,
		ready:    make(chan struct{}),
	}
	if !l.cfg.PriorityQueue {
		w.priority = PriorityMedium
	}
	heap.Push(&l.waiting, w)
	depth := l.waiting.Len()
	l.mu.Unlock()

	logging.ThrottleDebug("[%s] queued %s task (depth=%d)", l.cfg.Name, priority, depth)

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		granted := w.granted
		if !granted {
			heap.Remove(&l.waiting, w.index)
		}
		l.mu.Unlock()
		if granted {
			// The slot was handed over while we were leaving; pass it on.
			l.handoff()
		}
		return ctx.Err()
	}
}

// release returns a slot after the paced delay.
func (l *Limiter) release() {
	delay := time.Duration(float64(l.cfg.BaseDelay) * l.bp.Factor())
	if delay <= 0 {
		l.handoff()
		return
	}
	time.AfterFunc(delay, l.handoff)
}

// handoff gives the slot to the next waiter or frees it.
func (l *Limiter) handoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.waiting.Len() > 0 {
		w := heap.Pop(&l.waiting).(*waiter)
		w.granted = true
		close(w.ready)
		return
	}
	l.active--
}

// Metrics returns a snapshot of the limiter counters.
func (l *Limiter) Metrics() LimiterMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := LimiterMetrics{
		Submitted:  l.submitted,
		Completed:  l.completed,
		Failed:     l.failed,
		QueueDepth: l.waiting.Len(),
		Active:     l.active,
	}
	if l.completed > 0 {
		m.AvgLatency = l.totalLatency / time.Duration(l.completed)
		m.ErrorRate = float64(l.failed) / float64(l.completed)
	}
	return m
}

// -----------------------------------------------------------------------------
// Wait queue
// -----------------------------------------------------------------------------

type waiter struct {
	priority Priority
	seq      uint64
	ready    chan struct{}
	granted  bool
	index    int
}

// waitQueue is a heap ordered by priority (desc) then arrival (asc).
type waitQueue []*waiter

func (q waitQueue) Len() int { return len(q) }

func (q waitQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q waitQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *waitQueue) Push(x any) {
	w := x.(*waiter)
	w.index = len(*q)
	*q = append(*q, w)
}

func (q *waitQueue) Pop() any {
	old := *q
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*q = old[:n-1]
	return w
}
