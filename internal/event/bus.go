// Package event provides a small topic-based event bus. Topics use
// dot-notation (e.g. "patch.updated"); subscription patterns may use "*" to
// match a single segment. Delivery is synchronous: the engine's state
// mutations are already serialized, so handlers observe consistent state.
package event

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// Errors returned by bus operations.
var (
	ErrNilHandler   = errors.New("handler cannot be nil")
	ErrInvalidTopic = errors.New("invalid topic")
)

// Topic is a hierarchical event type like "patch.updated".
type Topic string

// Matches reports whether the topic matches a subscription pattern.
// A "*" pattern segment matches exactly one topic segment.
func (t Topic) Matches(pattern Topic) bool {
	if t == pattern {
		return true
	}
	ts := strings.Split(string(t), ".")
	ps := strings.Split(string(pattern), ".")
	if len(ts) != len(ps) {
		return false
	}
	for i := range ps {
		if ps[i] != "*" && ps[i] != ts[i] {
			return false
		}
	}
	return true
}

// Handler receives published events.
type Handler func(topic Topic, payload any)

// Subscription identifies an active subscription for unsubscribe.
type Subscription uint64

// Bus is the central event bus. The zero value is not usable; create one
// with NewBus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Subscription]*subscription
	nextID atomic.Uint64

	published atomic.Uint64
	delivered atomic.Uint64
}

type subscription struct {
	pattern Topic
	handler Handler
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Subscription]*subscription)}
}

// Subscribe registers a handler for topics matching the pattern.
func (b *Bus) Subscribe(pattern Topic, handler Handler) (Subscription, error) {
	if handler == nil {
		return 0, ErrNilHandler
	}
	if pattern == "" {
		return 0, ErrInvalidTopic
	}

	id := Subscription(b.nextID.Add(1))
	b.mu.Lock()
	b.subs[id] = &subscription{pattern: pattern, handler: handler}
	b.mu.Unlock()
	return id, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(id Subscription) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Publish delivers an event synchronously to all matching subscribers.
func (b *Bus) Publish(topic Topic, payload any) {
	b.published.Add(1)

	b.mu.RLock()
	var handlers []Handler
	for _, sub := range b.subs {
		if topic.Matches(sub.pattern) {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.delivered.Add(1)
		h(topic, payload)
	}
}

// Stats reports counters since the bus was created.
func (b *Bus) Stats() (published, delivered uint64) {
	return b.published.Load(), b.delivered.Load()
}
