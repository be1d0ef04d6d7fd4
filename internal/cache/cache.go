package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock abstracts time.Now so tests can expire entries deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// entry stores one cached value with its expiry.
type entry struct {
	expiresAt time.Time
	value     any
}

// Store memoizes fill results per key for a TTL. Keys encode the
// operation and its full argument tuple, so identical calls share an
// entry while different arguments never collide. There is no eviction
// beyond expiry overwrite; the key universe here is small and fixed.
// Safe for concurrent use.
type Store struct {
	clock Clock

	mu    sync.RWMutex
	items map[string]entry

	// group coalesces concurrent fills of the same key so a cold key
	// costs at most one upstream call per TTL window.
	group singleflight.Group
}

// New returns an empty Store on the real clock.
func New() *Store { return NewWithClock(realClock{}) }

// NewWithClock returns an empty Store reading time from clock.
func NewWithClock(clock Clock) *Store {
	return &Store{clock: clock, items: make(map[string]entry)}
}

// GetOrFill returns the cached value for key while it is younger than
// ttl. On a miss or an expired entry it runs fill, stores the result for
// ttl, and returns it. Fill errors are returned and never cached, so the
// next caller retries.
func (s *Store) GetOrFill(ctx context.Context, key string, ttl time.Duration, fill func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := s.lookup(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// A concurrent caller may have filled the key while this one
		// waited on the flight group.
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		v, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.items[key] = entry{expiresAt: s.clock.Now().Add(ttl), value: v}
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	if !ok || !s.clock.Now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}
