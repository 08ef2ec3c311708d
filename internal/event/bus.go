package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventRefreshStarted  EventType = "refresh_started"
	EventRefreshComplete EventType = "refresh_complete"
	EventRefreshFailed   EventType = "refresh_failed"
	EventMediaCached     EventType = "media_cached"
)

// RefreshResult is the payload of the refresh completion events.
type RefreshResult struct {
	Path     string
	Rows     int
	Duration time.Duration
	Err      error
}

type Event struct {
	Type    EventType
	Payload interface{}
}

type Handler func(event Event)

type Bus interface {
	Subscribe(topic EventType, handler Handler) string
	Unsubscribe(topic EventType, subID string)
	Publish(topic EventType, payload interface{})
}

type subscription struct {
	id      string
	handler Handler
}

// InMemoryBus delivers each event to every subscriber on its own goroutine.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[EventType][]subscription),
	}
}

// Subscribe returns an id for Unsubscribe.
func (b *InMemoryBus) Subscribe(topic EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handler: handler})
	return id
}

func (b *InMemoryBus) Unsubscribe(topic EventType, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[topic]
	for i, s := range subs {
		if s.id == subID {
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			b.handlers[topic] = append(next, subs[i+1:]...)
			return
		}
	}
}

// Publish never blocks on handlers.
func (b *InMemoryBus) Publish(topic EventType, payload interface{}) {
	b.mu.RLock()
	subs := b.handlers[topic]
	b.mu.RUnlock()

	evt := Event{Type: topic, Payload: payload}
	for _, s := range subs {
		go s.handler(evt)
	}
}

// NopBus drops every event.
type NopBus struct{}

func (NopBus) Subscribe(EventType, Handler) string    { return "" }
func (NopBus) Unsubscribe(EventType, string)          {}
func (NopBus) Publish(topic EventType, _ interface{}) {}
