// Package ratelimit throttles the public login endpoints. OTP request and
// verify are the only unauthenticated writes in the system, which makes them
// the natural target for enumeration and SMS-pumping abuse.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// InMemoryStore implements Store with a sliding window per key. Single
// process only; multi-replica deployments use the Redis store.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	now     func() time.Time
}

type slidingWindow struct {
	timestamps []time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

// WithClock overrides the clock. Test helper.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := s.windows[key]
	if w == nil {
		w = &slidingWindow{}
		s.windows[key] = w
	}
	w.expire(now.Add(-window))

	if len(w.timestamps) >= limit {
		return Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: w.timestamps[0].Add(window),
		}, nil
	}

	w.timestamps = append(w.timestamps, now)
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(window),
	}, nil
}

// expire drops timestamps at or before the cutoff.
func (w *slidingWindow) expire(cutoff time.Time) {
	i := 0
	for ; i < len(w.timestamps); i++ {
		if w.timestamps[i].After(cutoff) {
			break
		}
	}
	w.timestamps = w.timestamps[i:]
}
