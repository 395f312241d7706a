// Package memory implements rate limit storage in process memory. It is
// the default backend; a single kiosk host has no counters to share.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit"
)

type record struct {
	count int
	reset time.Time
}

// Store implements ratelimit.Store with per-key fixed windows. Expired
// windows are recycled lazily on the next touch.
type Store struct {
	mu      sync.Mutex
	entries map[string]record
	now     func() time.Time
}

// NewStore creates an empty in-memory rate limit store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]record),
		now:     time.Now,
	}
}

func keyStr(key ratelimit.LimitKey) string {
	return fmt.Sprintf("rate:%s:%s:%s", key.Type, key.RemoteIP, key.Endpoint)
}

// Increment counts an attempt and returns the running total
func (s *Store) Increment(ctx context.Context, key ratelimit.LimitKey, limit ratelimit.Limit) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	k := keyStr(key)
	rec := s.entries[k]
	if rec.reset.IsZero() || now.After(rec.reset) {
		rec.count = 0
		rec.reset = now.Add(limit.Period)
	}
	rec.count++
	s.entries[k] = rec

	if rec.count > limit.Rate+limit.BurstSize {
		return rec.count, ratelimit.ErrLimitExceeded
	}
	return rec.count, nil
}

// Reset clears a rate limit counter
func (s *Store) Reset(ctx context.Context, key ratelimit.LimitKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, keyStr(key))
	return nil
}

// Status reports the current standing without counting an attempt
func (s *Store) Status(ctx context.Context, key ratelimit.LimitKey, limit ratelimit.Limit) (*ratelimit.LimitStatus, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.entries[keyStr(key)]
	if rec.reset.IsZero() || now.After(rec.reset) {
		return &ratelimit.LimitStatus{
			Limit:     limit,
			Remaining: limit.Rate + limit.BurstSize,
			Reset:     now.Add(limit.Period),
		}, nil
	}

	remaining := limit.Rate + limit.BurstSize - rec.count
	if remaining < 0 {
		remaining = 0
	}
	return &ratelimit.LimitStatus{
		Limit:     limit,
		Remaining: remaining,
		Reset:     rec.reset,
	}, nil
}

// Len reports the number of live windows
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
