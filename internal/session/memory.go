package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store that lives only as long as the process. It backs
// tests and local runs without a database file.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[int64]*Session
	ttl time.Duration
	now func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{m: map[int64]*Session{}, ttl: ttl, now: time.Now}
}

func (ms *MemoryStore) Load(ctx context.Context, userID int64) (*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	s, ok := ms.m[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if Expired(s.UpdatedAt, ms.ttl, ms.now()) {
		delete(ms.m, userID)
		return nil, ErrNoSession
	}
	return s.Clone(), nil
}

func (ms *MemoryStore) Save(ctx context.Context, userID int64, s *Session) error {
	c := s.Clone()
	c.UpdatedAt = ms.now()
	ms.mu.Lock()
	ms.m[userID] = c
	ms.mu.Unlock()
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, userID int64) error {
	ms.mu.Lock()
	delete(ms.m, userID)
	ms.mu.Unlock()
	return nil
}

func (ms *MemoryStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var n int64
	for id, s := range ms.m {
		if s.UpdatedAt.Before(before) {
			delete(ms.m, id)
			n++
		}
	}
	return n, nil
}

// Expired reports whether a session last touched at updated is past ttl.
// A zero ttl never expires.
func Expired(updated time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(updated) > ttl
}
