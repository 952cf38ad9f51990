// Package session keeps converted documents in memory for a limited time.
package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultTTL is how long an entry lives after insertion
const DefaultTTL = 30 * time.Minute

type entry[V any] struct {
	value   V
	created time.Time
}

// Info describes one live entry
type Info struct {
	Key       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is a TTL cache keyed by session id. Safe for concurrent use.
type Store[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

// NewStore creates a store whose entries expire ttl after insertion
func NewStore[V any](ttl time.Duration) *Store[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// WithClock replaces the clock used by Get, List and Run.
func (s *Store[V]) WithClock(now func() time.Time) *Store[V] {
	s.now = now
	return s
}

// TTL returns the configured lifetime
func (s *Store[V]) TTL() time.Duration { return s.ttl }

// Insert stores value under key, evicting expired entries first.
func (s *Store[V]) Insert(key string, value V, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(ts)
	s.entries[key] = entry[V]{value: value, created: ts}
}

// Get returns the value for key if it exists and has not expired.
func (s *Store[V]) Get(key string) (V, bool) {
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.expired(e, now) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// EvictExpired removes entries older than the TTL and reports how many went.
func (s *Store[V]) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

// Len counts stored entries, including expired ones not yet evicted
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// List returns live entries, oldest first.
func (s *Store[V]) List() []Info {
	now := s.now()

	s.mu.RLock()
	out := make([]Info, 0, len(s.entries))
	for k, e := range s.entries {
		if s.expired(e, now) {
			continue
		}
		out = append(out, Info{Key: k, CreatedAt: e.created, ExpiresAt: e.created.Add(s.ttl)})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Run sweeps expired entries every interval until ctx is done.
func (s *Store[V]) Run(ctx context.Context, interval time.Duration, onEvict func(int)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictExpired(s.now()); n > 0 && onEvict != nil {
				onEvict(n)
			}
		}
	}
}

func (s *Store[V]) evictLocked(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

func (s *Store[V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.created) > s.ttl
}
