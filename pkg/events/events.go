// Package events carries the outbound completion signals raised after a
// product is persisted, so external listeners (tables, audit logs) can react.
package events

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	EventBus "github.com/asaskevich/EventBus"
)

const (
	// TopicProductSaved fires after a new product was created.
	TopicProductSaved = "product-saved"
	// TopicProductUpdated fires after an existing product was updated.
	TopicProductUpdated = "product-updated"
)

// Signal is the payload delivered to subscribers.
type Signal struct {
	Topic     string
	Message   string
	ProductID string
}

// Handler receives signals.
type Handler func(Signal)

// Bus publishes signals to topic subscribers.
//
// EventBus identifies handlers by their code pointer, so two closures built
// by the same function are indistinguishable to its Unsubscribe. Bus keeps
// its own subscription list per topic and attaches one sync and one async
// dispatcher per topic to EventBus.
type Bus struct {
	bus EventBus.Bus

	mu     sync.RWMutex
	nextID uint64
	topics map[string]*topicSubs
}

type subscription struct {
	id uint64
	fn Handler
}

type topicSubs struct {
	sync  []subscription
	async []subscription
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{
		bus:    EventBus.New(),
		topics: make(map[string]*topicSubs),
	}
}

// Publish delivers sig to the subscribers of sig.Topic. Synchronous handlers
// run before Publish returns.
func (b *Bus) Publish(sig Signal) {
	if b == nil || strings.TrimSpace(sig.Topic) == "" {
		return
	}
	b.bus.Publish(sig.Topic, sig)
}

// Subscribe registers fn for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic string, fn Handler) (func(), error) {
	return b.subscribe(topic, fn, false)
}

// SubscribeAsync registers fn to run off the publishing goroutine.
func (b *Bus) SubscribeAsync(topic string, fn Handler) (func(), error) {
	return b.subscribe(topic, fn, true)
}

func (b *Bus) subscribe(topic string, fn Handler, async bool) (func(), error) {
	if b == nil {
		return nil, errors.New("events: bus is nil")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" || fn == nil {
		return nil, errors.New("events: topic and handler required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		if err := b.attachLocked(topic); err != nil {
			return nil, err
		}
		subs = &topicSubs{}
		b.topics[topic] = subs
	}

	b.nextID++
	sub := subscription{id: b.nextID, fn: fn}
	if async {
		subs.async = append(subs.async, sub)
	} else {
		subs.sync = append(subs.sync, sub)
	}

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, sub.id) })
	}, nil
}

// attachLocked registers the topic dispatchers with EventBus.
func (b *Bus) attachLocked(topic string) error {
	if err := b.bus.Subscribe(topic, func(sig Signal) {
		for _, sub := range b.snapshot(topic, false) {
			sub.fn(sig)
		}
	}); err != nil {
		return fmt.Errorf("events: attach %s: %w", topic, err)
	}
	if err := b.bus.SubscribeAsync(topic, func(sig Signal) {
		for _, sub := range b.snapshot(topic, true) {
			sub.fn(sig)
		}
	}, false); err != nil {
		return fmt.Errorf("events: attach async %s: %w", topic, err)
	}
	return nil
}

func (b *Bus) snapshot(topic string, async bool) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs, ok := b.topics[topic]
	if !ok {
		return nil
	}
	if async {
		return append([]subscription(nil), subs.async...)
	}
	return append([]subscription(nil), subs.sync...)
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	subs.sync = without(subs.sync, id)
	subs.async = without(subs.async, id)
}

func without(subs []subscription, id uint64) []subscription {
	kept := subs[:0:0]
	for _, sub := range subs {
		if sub.id != id {
			kept = append(kept, sub)
		}
	}
	return kept
}

// Wait blocks until asynchronous handlers finish.
func (b *Bus) Wait() {
	if b != nil {
		b.bus.WaitAsync()
	}
}

// HasSubscribers reports whether topic has a handler.
func (b *Bus) HasSubscribers(topic string) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs, ok := b.topics[strings.TrimSpace(topic)]
	return ok && len(subs.sync)+len(subs.async) > 0
}
