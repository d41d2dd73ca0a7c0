// Package event provides the in-process activity bus for the chatbot
// service, backed by watermill.
package event

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventType represents the type of event.
type EventType string

const (
	ChatMessage        EventType = "chat.message"
	ChatProactive      EventType = "chat.proactive"
	ChatSessionCleared EventType = "chat.session_cleared"
	RAGSearch          EventType = "rag.search"
)

// activityTopic is the watermill topic every event flows through.
const activityTopic = "chatbot.activity"

// Event represents an event to be published.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Listener is a function that receives events in process.
type Listener func(event Event)

// listenerEntry wraps a listener with an ID.
type listenerEntry struct {
	id uint64
	fn Listener
}

// Bus fans events out two ways: direct listeners keep their typed Data,
// and a watermill gochannel carries the JSON form to streaming
// consumers such as the SSE endpoint.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	listeners map[EventType][]listenerEntry
	global    []listenerEntry

	nextID uint64
	closed bool
}

// globalBus is the default event bus instance.
var globalBus = newBus()

func newBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		listeners: make(map[EventType][]listenerEntry),
	}
}

// NewBus creates a new event bus instance.
func NewBus() *Bus {
	return newBus()
}

// newID generates a unique listener ID.
func (b *Bus) newID() uint64 {
	return atomic.AddUint64(&b.nextID, 1)
}

// Subscribe registers a listener for a specific event type.
// Returns an unsubscribe function.
func Subscribe(eventType EventType, fn Listener) func() {
	return globalBus.Subscribe(eventType, fn)
}

func (b *Bus) Subscribe(eventType EventType, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.listeners[eventType] = append(b.listeners[eventType], listenerEntry{id: id, fn: fn})

	return func() {
		b.unsubscribe(eventType, id)
	}
}

// SubscribeAll registers a listener for all events.
// Returns an unsubscribe function.
func SubscribeAll(fn Listener) func() {
	return globalBus.SubscribeAll(fn)
}

func (b *Bus) SubscribeAll(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.global = append(b.global, listenerEntry{id: id, fn: fn})

	return func() {
		b.unsubscribeGlobal(id)
	}
}

func (b *Bus) unsubscribe(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.listeners[eventType]
	for i, entry := range entries {
		if entry.id == id {
			b.listeners[eventType] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

func (b *Bus) unsubscribeGlobal(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.global {
		if entry.id == id {
			b.global = append(b.global[:i], b.global[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all listeners asynchronously. Each listener
// runs in its own goroutine so a slow one cannot block the publisher.
func Publish(event Event) {
	globalBus.Publish(event)
}

func (b *Bus) Publish(event Event) {
	fns, ok := b.collect(event.Type)
	if !ok {
		return
	}
	for _, fn := range fns {
		go fn(event)
	}
	go b.forward(event)
}

// PublishSync sends an event to all listeners synchronously, and pushes
// it through the watermill channel before returning.
func PublishSync(event Event) {
	globalBus.PublishSync(event)
}

func (b *Bus) PublishSync(event Event) {
	fns, ok := b.collect(event.Type)
	if !ok {
		return
	}
	for _, fn := range fns {
		fn(event)
	}
	b.forward(event)
}

// collect snapshots the listeners for an event type. The second return
// is false when the bus is closed.
func (b *Bus) collect(eventType EventType) ([]Listener, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, false
	}
	fns := make([]Listener, 0, len(b.listeners[eventType])+len(b.global))
	for _, entry := range b.listeners[eventType] {
		fns = append(fns, entry.fn)
	}
	for _, entry := range b.global {
		fns = append(fns, entry.fn)
	}
	return fns, true
}

// forward pushes the event through the watermill channel for Stream
// consumers. Typed Data becomes its JSON form on this path.
func (b *Bus) forward(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	_ = b.pubsub.Publish(activityTopic, msg)
}

// Stream delivers every event published after the call. The returned
// channel closes when ctx is canceled or the bus closes.
func Stream(ctx context.Context) (<-chan Event, error) {
	return globalBus.Stream(ctx)
}

func (b *Bus) Stream(ctx context.Context) (<-chan Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, activityTopic)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev Event
			err := json.Unmarshal(msg.Payload, &ev)
			msg.Ack()
			if err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Reset clears all listeners from the global bus (for testing).
func Reset() {
	_ = globalBus.Close()

	// Small delay to allow goroutines to clean up
	time.Sleep(10 * time.Millisecond)

	globalBus = newBus()
}

// Close closes the bus and all its listeners.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.listeners = make(map[EventType][]listenerEntry)
	b.global = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}
