package handlers

import (
	"context"
	"sync"
	"time"
)

// DefaultReplayTTL is how long a keyed result stays replayable.
const DefaultReplayTTL = 24 * time.Hour

type replayKey struct {
	scope string
	key   string
}

type replayEntry struct {
	status  int
	body    any
	expires time.Time
}

// ReplayStore keeps the responses of keyed production entries so a retried
// POST returns the first result instead of adding the quantity again.
type ReplayStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[replayKey]replayEntry
}

// NewReplayStore returns a store whose entries expire after ttl
// (DefaultReplayTTL when ttl <= 0).
func NewReplayStore(ttl time.Duration) *ReplayStore {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return &ReplayStore{ttl: ttl, entries: make(map[replayKey]replayEntry)}
}

// Lookup matches middleware.IdempotencyLookup.
func (s *ReplayStore) Lookup(_ context.Context, scope, key string, now time.Time) (bool, error) {
	_, _, ok := s.Get(scope, key, now)
	return ok, nil
}

// Get returns the stored response for (scope, key) if it has not expired.
func (s *ReplayStore) Get(scope, key string, now time.Time) (int, any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[replayKey{scope, key}]
	if !ok {
		return 0, nil, false
	}
	if !now.Before(e.expires) {
		delete(s.entries, replayKey{scope, key})
		return 0, nil, false
	}
	return e.status, e.body, true
}

// Put records a response and drops expired entries.
func (s *ReplayStore) Put(scope, key string, status int, body any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[replayKey{scope, key}] = replayEntry{status: status, body: body, expires: now.Add(s.ttl)}
}

// Len reports the number of stored entries, expired ones included.
func (s *ReplayStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
