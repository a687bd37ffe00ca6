package storefront

import (
	"context"
	"sync"
)

// CartEvent carries the current number of items in the cart.
type CartEvent struct {
	Count int `json:"count"`
}

// CartBroadcast fans out cart-count updates to in-process subscribers.
// Subscribers always observe the most recent count; intermediate values may
// be skipped when a subscriber is slow.
type CartBroadcast struct {
	mu   sync.RWMutex
	subs map[int]chan CartEvent
	next int
	last CartEvent
	seen bool
}

// NewCartBroadcast creates a broadcast with no subscribers.
func NewCartBroadcast() *CartBroadcast {
	return &CartBroadcast{subs: make(map[int]chan CartEvent)}
}

// Publish delivers event to every subscriber without blocking.
func (b *CartBroadcast) Publish(_ context.Context, event CartEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = event
	b.seen = true
	for _, ch := range b.subs {
		offerLatest(ch, event)
	}
}

// offerLatest replaces any undelivered value in the one-slot channel.
func offerLatest(ch chan CartEvent, event CartEvent) {
	for {
		select {
		case ch <- event:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe returns a channel of cart events and a cancel func. When a count
// was already published the channel starts with it.
func (b *CartBroadcast) Subscribe() (<-chan CartEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan CartEvent, 1)
	if b.seen {
		ch <- b.last
	}
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Last returns the most recently published count and whether one exists.
func (b *CartBroadcast) Last() (CartEvent, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.seen
}

// CartCount sums the cantidad field across cart items.
func CartCount(items []Record) int {
	total := 0
	for _, item := range items {
		total += item.Int("cantidad")
	}
	return total
}
