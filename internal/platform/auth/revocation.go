package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks session tokens that were ended before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocationStore keeps revoked token ids in memory. Entries are
// dropped once the token would have expired anyway.
type MemoryRevocationStore struct {
	mu       sync.RWMutex
	entries  map[string]time.Time // JTI -> token expiry
	interval time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewMemoryRevocationStore creates a store and starts a background
// goroutine that removes expired entries every interval. A zero interval
// defaults to five minutes.
func NewMemoryRevocationStore(interval time.Duration) *MemoryRevocationStore {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s := &MemoryRevocationStore{
		entries:  make(map[string]time.Time),
		interval: interval,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Revoke records jti until expiresAt. The user id is only kept by stores
// shared between instances.
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[jti]; !exists {
		s.entries[jti] = expiresAt
	}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[jti]
	return ok, nil
}

// Close stops the background cleanup goroutine. Safe to call more than once.
func (s *MemoryRevocationStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryRevocationStore) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup(time.Now())
		}
	}
}

// cleanup removes entries whose tokens expired before now.
func (s *MemoryRevocationStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, jti)
		}
	}
}
