package finder

import (
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
)

// SessionStore keeps one controller per browser session in memory. Sessions
// idle for longer than the TTL are dropped, and the least recently used one
// is evicted once capacity is reached.
type SessionStore struct {
	cache gcache.Cache
	ttl   time.Duration
}

// NewSessionStore builds a store creating controllers with factory.
func NewSessionStore(capacity int, ttl time.Duration, factory func() *Controller) *SessionStore {
	cache := gcache.New(capacity).
		LRU().
		Expiration(ttl).
		LoaderFunc(func(key interface{}) (interface{}, error) {
			return factory(), nil
		}).
		Build()

	return &SessionStore{cache: cache, ttl: ttl}
}

// Get returns the controller for id, creating it on first use, and extends
// the session's lifetime.
func (s *SessionStore) Get(id uuid.UUID) (*Controller, error) {
	value, err := s.cache.Get(id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	ctrl, ok := value.(*Controller)
	if !ok {
		return nil, fmt.Errorf("load session: unexpected value %T", value)
	}
	if err := s.cache.SetWithExpire(id, ctrl, s.ttl); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return ctrl, nil
}

// Exists reports whether a live session is stored for id.
func (s *SessionStore) Exists(id uuid.UUID) bool {
	return s.cache.Has(id)
}

// Len is the number of live sessions.
func (s *SessionStore) Len() int {
	return s.cache.Len(true)
}
