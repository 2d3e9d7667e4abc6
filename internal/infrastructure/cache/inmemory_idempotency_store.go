package cache

import (
	"context"
	"sync"
	"time"

	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// DefaultSweepInterval is how often expired claims are dropped from memory
const DefaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps idempotency claims in process memory.
// Claims are not shared between instances.
type InMemoryIdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]time.Time // key -> expiry
	now    func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a store that sweeps expired claims
// every sweepInterval (DefaultSweepInterval when <= 0)
func NewInMemoryIdempotencyStore(sweepInterval time.Duration) *InMemoryIdempotencyStore {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	s := &InMemoryIdempotencyStore{
		claims: make(map[string]time.Time),
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(sweepInterval)
	return s
}

// MarkProcessed claims key for ttl. An expired claim can be taken again.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.claims[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key holds an unexpired claim
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.claims[key]
	return ok && s.now().Before(expiry), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Len returns the number of stored claims, expired ones included
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, expiry := range s.claims {
		if !now.Before(expiry) {
			delete(s.claims, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
