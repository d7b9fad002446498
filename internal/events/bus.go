// Package events provides a non-blocking pub/sub bus for spawn lifecycle
// events, plus an audit-log subscriber.
package events

import (
	"sync"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// EventSlotCreated is published when the planner creates a named slot.
	EventSlotCreated EventType = "slot_created"
	// EventResourceSpawned is published for each successful launch.
	EventResourceSpawned EventType = "resource_spawned"
	// EventSpawnFailed is published for each failed or skipped resource.
	EventSpawnFailed EventType = "spawn_failed"
	// EventBatchCompleted is published once per processed request.
	EventBatchCompleted EventType = "batch_completed"
)

// Event represents one occurrence on the bus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      map[string]any
}

// Subscriber is a function that receives events.
type Subscriber func(Event)

// Bus is a non-blocking publish/subscribe fan-out. Delivery is
// asynchronous via buffered channels; a full subscriber channel drops the
// event rather than stalling the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	bufferSize  int
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers fn for one event type and returns an unsubscribe
// function. fn runs on its own goroutine; a panic inside it is swallowed
// so one bad subscriber cannot take the bus down.
func (b *Bus) Subscribe(eventType EventType, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)

	go func() {
		for event := range ch {
			func() {
				defer func() { _ = recover() }()
				fn(event)
			}()
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, subCh := range subs {
			if subCh == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish sends an event to every subscriber of the type, never blocking.
func (b *Bus) Publish(eventType EventType, data map[string]any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}
	for _, ch := range b.subscribers[eventType] {
		select {
		case ch <- event:
		default:
			// Channel full; drop rather than block the pipeline.
		}
	}
}

// Close closes all subscriber channels and clears subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for eventType, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, eventType)
	}
}
