package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sharebite/sharebite-bot/domains/ratelimit"
)

type memCounter struct {
	count       int
	windowStart time.Time
}

// MemoryCounterStore is the in-process fast path. Counters reset on process
// restart and are not synchronized across instances. Used as fallback when
// Valkey is not enabled.
type MemoryCounterStore struct {
	mu       sync.Mutex
	window   time.Duration
	counters map[string]*memCounter

	now func() time.Time
}

var _ ratelimit.ICounterStore = (*MemoryCounterStore)(nil)

func NewMemoryCounterStore(window time.Duration) *MemoryCounterStore {
	return &MemoryCounterStore{
		window:   window,
		counters: make(map[string]*memCounter),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Incr(ctx context.Context, userID string) (int, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[userID]
	if !ok || now.Sub(c.windowStart) >= s.window {
		c = &memCounter{count: 1, windowStart: now}
		s.counters[userID] = c
	} else {
		c.count++
	}

	return c.count, c.windowStart.Add(s.window), nil
}
