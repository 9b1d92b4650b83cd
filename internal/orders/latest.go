// momo-gateway/internal/orders/latest.go
package orders

import (
	"context"
	"log"
	"sync"
	"time"
)

type sessionSlot struct {
	orderID string
	at      time.Time
}

// Latest is a last-write-wins mailbox for the most recently created order id,
// globally and per client session. Session slots expire after ttl; the global one never does.
type Latest struct {
	mu        sync.RWMutex
	global    string
	bySession map[string]sessionSlot
	ttl       time.Duration
	now       func() time.Time
}

func NewLatest(ttl time.Duration) *Latest {
	return &Latest{bySession: map[string]sessionSlot{}, ttl: ttl, now: time.Now}
}

// Set overwrites the global slot and, when session is not empty, that session's slot.
func (l *Latest) Set(session, orderID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.global = orderID
	if session != "" {
		l.bySession[session] = sessionSlot{orderID: orderID, at: l.now()}
	}
}

func (l *Latest) Get() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.global
}

// GetFor returns the session's latest order, falling back to the global one.
func (l *Latest) GetFor(session string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.bySession[session]; ok && session != "" {
		return s.orderID
	}
	return l.global
}

// Sessions is the number of session slots currently held.
func (l *Latest) Sessions() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.bySession)
}

// StartSweeper drops session slots older than the TTL until ctx is done.
func (l *Latest) StartSweeper(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}

func (l *Latest) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.ttl)
	evicted := 0
	for session, s := range l.bySession {
		if s.at.Before(cutoff) {
			delete(l.bySession, session)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("[orders] sweeper dropped %d idle sessions", evicted)
	}
	return evicted
}
