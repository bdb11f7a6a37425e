package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and when Redis is
// not configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]memoryEntry
}

type memoryEntry struct {
	sess    Session
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{ttl: ttl, entries: make(map[int64]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return Session{}, false, nil
	}
	if time.Now().After(e.expires) {
		delete(s.entries, userID)
		return Session{}, false, nil
	}
	return e.sess, true, nil
}

func (s *MemoryStore) Put(_ context.Context, userID int64, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = memoryEntry{sess: sess, expires: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}
