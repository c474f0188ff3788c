package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps processed keys in a map with expiry.
// State is local to the process.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	expiries  map[string]time.Time
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expiries: make(map[string]time.Time),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(5 * time.Minute)
	return s
}

// MarkProcessed records key until ttl elapses. It returns false while an
// unexpired mark exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiries[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiries[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key holds an unexpired mark
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expiries[key]
	return ok && s.now().Before(exp), nil
}

// Unmark forgets key
func (s *InMemoryIdempotencyStore) Unmark(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expiries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
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
	for key, exp := range s.expiries {
		if !now.Before(exp) {
			delete(s.expiries, key)
		}
	}
}

// Size returns the number of stored keys, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
