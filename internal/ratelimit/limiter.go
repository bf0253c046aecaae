// Package ratelimit implements per-subject token buckets.
//
// Buckets live in process memory for the lifetime of the Limiter; a
// multi-replica deployment needs a shared external store instead.
package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config sets the bucket shape: Capacity tokens, refilled at Refill tokens
// per Interval.
type Config struct {
	Capacity int
	Refill   int
	Interval time.Duration
}

// DefaultConfig allows 20 requests per minute per subject.
func DefaultConfig() Config {
	return Config{Capacity: 20, Refill: 20, Interval: time.Minute}
}

// Bucket is a single subject's token bucket.
type Bucket struct {
	capacity float64
	refill   float64
	interval float64
	clock    Clock

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// TryConsume refills the bucket for the time elapsed since the last refill,
// then takes one token if available.
func (b *Bucket) TryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens += float64(elapsed) * b.refill / b.interval
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastRefill = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Available returns the current token count without refilling.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

type shard struct {
	mu      sync.Mutex
	buckets map[string]*Bucket
}

// Limiter maps subjects to buckets. Safe for concurrent use.
type Limiter struct {
	cfg    Config
	clock  Clock
	shards [shardCount]shard
}

// New creates a Limiter using the wall clock.
func New(cfg Config) *Limiter {
	return NewWithClock(cfg, realClock{})
}

// NewWithClock creates a Limiter with a custom clock (for testing).
// Non-positive config values fall back to DefaultConfig.
func NewWithClock(cfg Config, clock Clock) *Limiter {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.Refill <= 0 {
		cfg.Refill = def.Refill
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	l := &Limiter{cfg: cfg, clock: clock}
	for i := range l.shards {
		l.shards[i].buckets = make(map[string]*Bucket)
	}
	return l
}

// Bucket returns the subject's bucket, creating a full one on first access.
func (l *Limiter) Bucket(subject string) *Bucket {
	s := &l.shards[shardIndex(subject)]

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets[subject]; ok {
		return b
	}
	b := &Bucket{
		capacity:   float64(l.cfg.Capacity),
		refill:     float64(l.cfg.Refill),
		interval:   float64(l.cfg.Interval),
		clock:      l.clock,
		tokens:     float64(l.cfg.Capacity),
		lastRefill: l.clock.Now(),
	}
	s.buckets[subject] = b
	return b
}

// Allow consumes one token from the subject's bucket.
func (l *Limiter) Allow(subject string) bool {
	return l.Bucket(subject).TryConsume()
}

func shardIndex(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
