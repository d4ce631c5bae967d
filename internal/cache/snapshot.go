// Package cache provides a single-value TTL snapshot used by the read-side
// pages: the whole ledger is cheap to hold but not to reload on every
// request, and every append invalidates it.
package cache

import (
	"sync"
	"time"
)

type Snapshot[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	value     T
	ok        bool
	expiresAt time.Time
}

// NewSnapshot creates a snapshot cache. A non-positive ttl disables caching:
// Get never hits.
func NewSnapshot[T any](ttl time.Duration) *Snapshot[T] {
	return &Snapshot[T]{ttl: ttl}
}

func (s *Snapshot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.ok || time.Now().After(s.expiresAt) {
		return zero, false
	}
	return s.value, true
}

func (s *Snapshot[T]) Set(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ttl <= 0 {
		return
	}
	s.value = value
	s.ok = true
	s.expiresAt = time.Now().Add(s.ttl)
}

func (s *Snapshot[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.ok = false
}
