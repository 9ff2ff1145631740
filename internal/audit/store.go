package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the outbox contract. Append is on the workflow critical path;
// ListPending and MarkPublished belong to the outbox worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListPending(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error
}

// InMemory keeps events in memory. Used by unit tests and dev runs without
// Postgres; events are retained after publishing for inspection.
type InMemory struct {
	mu        sync.RWMutex
	events    []Event
	published map[uuid.UUID]bool
}

func NewInMemory() *InMemory {
	return &InMemory{published: make(map[uuid.UUID]bool)}
}

func (s *InMemory) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListPending(ctx context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if s.published[e.ID] {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *InMemory) MarkPublished(ctx context.Context, ids []uuid.UUID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = true
	}
	return nil
}

// Events returns every appended event. Test helper.
func (s *InMemory) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
