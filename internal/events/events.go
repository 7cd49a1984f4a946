// Package events is a small typed publish/subscribe channel for cross-screen signals.
package events

import "sync"

// LowStockChanged is published whenever a product mutation may have changed the set
// of low-stock products.
type LowStockChanged struct {
	ProductID int64
	Reason    string // toggle, create, update
}

// SessionExpired is published by the HTTP client after a 401 cleared the token.
type SessionExpired struct{}

// Forbidden is published when a read was rejected with 403.
type Forbidden struct {
	Path string
}

// Topic fans values of one type out to subscribers. Publishing never blocks: each
// subscriber has a one-slot buffer and only the latest undelivered signal is kept.
type Topic[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

// Subscribe returns a receive channel and a cancel func that closes it.
func (t *Topic[T]) Subscribe() (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = make(map[int]chan T)
	}
	id := t.next
	t.next++
	ch := make(chan T, 1)
	t.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if sub, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish delivers v to every subscriber, replacing a pending undelivered value.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- v:
		default:
			// Drop the stale pending value and keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (t *Topic[T]) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Bus groups the topics shared by the application.
type Bus struct {
	LowStockChanged Topic[LowStockChanged]
	SessionExpired  Topic[SessionExpired]
	Forbidden       Topic[Forbidden]
}
