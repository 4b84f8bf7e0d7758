// Package throttle paces provider calls: a bounded, optionally prioritised
// limiter, a transient-error retrier, and the shared backpressure factor
// that couples the two.
package throttle

import (
	"fmt"
	"sync"
)

// Default backpressure tuning.
const (
	DefaultMaxFactor    = 8.0
	DefaultGrowthFactor = 1.5
	DefaultDecayFactor  = 0.9
)

// Backpressure is a shared delay multiplier. The retrier raises it on
// transient failures and the limiter lets it decay on success; every wait
// in the pipeline is scaled by it. Runs that share one instance share a
// backpressure domain.
type Backpressure struct {
	mu     sync.Mutex
	factor float64
	max    float64
	growth float64
	decay  float64
}

// NewBackpressure creates a backpressure domain with default tuning.
func NewBackpressure() *Backpressure {
	return &Backpressure{
		factor: 1,
		max:    DefaultMaxFactor,
		growth: DefaultGrowthFactor,
		decay:  DefaultDecayFactor,
	}
}

// Factor returns the current multiplier, always within [1, max].
func (b *Backpressure) Factor() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.factor
}

// Increase grows the multiplier after detected rate pressure.
func (b *Backpressure) Increase() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factor = min(b.max, b.factor*b.growth)
	return b.factor
}

// Decay moves the multiplier back toward 1 after a success.
func (b *Backpressure) Decay() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factor = max(1, b.factor*b.decay)
	return b.factor
}

// Reset returns the multiplier to 1.
func (b *Backpressure) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factor = 1
}

func (b *Backpressure) String() string {
	return fmt.Sprintf("backpressure(x%.2f)", b.Factor())
}
