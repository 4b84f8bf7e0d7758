// Package cache implements the essence caches: a bounded LRU/TTL memory
// tier, a durable tier over a store.KV backend, and the two-tier essence
// lookup that sits in front of provider calls.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf16"
)

// DefaultTTL is the lifetime of cached essences.
const DefaultTTL = 24 * time.Hour

// DefaultMaxSize bounds the memory tier.
const DefaultMaxSize = 100

// Entry wraps a cached value with its expiry and access bookkeeping.
type Entry[T any] struct {
	Data         T             `json:"data"`
	Timestamp    time.Time     `json:"timestamp"`
	AccessCount  int           `json:"accessCount"`
	LastAccessed time.Time     `json:"lastAccessed"`
	TTL          time.Duration `json:"ttl"`
}

// Expired reports whether the entry is no longer visible at now.
func (e Entry[T]) Expired(now time.Time) bool {
	return now.After(e.Timestamp.Add(e.TTL))
}

// Stats describes cache occupancy and effectiveness.
type Stats struct {
	Size    int
	MaxSize int // 0 = unbounded
	Hits    int64
	Misses  int64
}

// HitRate returns hits / lookups, or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("size=%d max=%d hits=%d misses=%d hit_rate=%.2f",
		s.Size, s.MaxSize, s.Hits, s.Misses, s.HitRate())
}

// Store is the contract shared by every cache tier.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Has(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

// Fingerprint is a djb2 hash of s over its UTF-16 code units, rendered as
// lower-case hex. The value is stable across releases; durable keys depend
// on it.
func Fingerprint(s string) string {
	var h uint32 = 5381
	for _, u := range utf16.Encode([]rune(s)) {
		h = h<<5 + h + uint32(u)
	}
	return strconv.FormatUint(uint64(h), 16)
}
