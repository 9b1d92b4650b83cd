// momo-gateway/internal/orders/memory.go
package orders

import (
	"context"
	"log"
	"sync"
	"time"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Order
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{data: map[string]Order{}, ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	s.data[o.OrderID] = o
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, orderID string, resultCode int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.ResultCode = resultCode
	o.Message = message
	o.UpdatedAt = s.now()
	s.data[orderID] = o
	return nil
}

func (s *MemoryStore) Get(_ context.Context, orderID string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

// StartSweeper evicts orders untouched for longer than the TTL until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, o := range s.data {
		if o.UpdatedAt.Before(cutoff) {
			delete(s.data, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("[orders] sweeper evicted %d expired orders", evicted)
	}
	return evicted
}
