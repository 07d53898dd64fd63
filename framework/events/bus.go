package events

import "sync"

// Metadata carries the identifiers an event was raised under.
type Metadata struct {
	SessionID      string
	ConversationID string
}

// Event is a named notification with a payload.
type Event struct {
	Name     string
	Data     any
	Metadata Metadata
}

// Handler processes an event.
type Handler func(Event)

// Bus delivers container notifications to whoever is listening.
type Bus interface {
	Subscribe(name string, handler Handler) func()
	Publish(name string, data any)
	PublishWithMetadata(name string, data any, md Metadata)
}

type subscription struct {
	id      int64
	handler Handler
}

// SimpleBus is a thread-safe in-memory bus. Handlers run synchronously on
// the publishing goroutine, in subscription order.
type SimpleBus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   int64
}

// NewSimpleBus creates an empty bus.
func NewSimpleBus() *SimpleBus {
	return &SimpleBus{handlers: make(map[string][]subscription)}
}

// Subscribe registers handler for name and returns the unsubscribe func.
func (b *SimpleBus) Subscribe(name string, handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[name] = append(b.handlers[name], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[name]
		out := subs[:0]
		for _, s := range subs {
			if s.id != id {
				out = append(out, s)
			}
		}
		b.handlers[name] = out
	}
}

// Publish emits an event without metadata.
func (b *SimpleBus) Publish(name string, data any) {
	b.PublishWithMetadata(name, data, Metadata{})
}

// PublishWithMetadata emits an event to every subscriber of name.
func (b *SimpleBus) PublishWithMetadata(name string, data any, md Metadata) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[name]...)
	b.mu.RUnlock()
	ev := Event{Name: name, Data: data, Metadata: md}
	for _, s := range subs {
		s.handler(ev)
	}
}

// SubscribeWithFilter subscribes handler but only forwards events the
// predicate accepts.
func (b *SimpleBus) SubscribeWithFilter(name string, predicate func(Event) bool, handler Handler) func() {
	return b.Subscribe(name, func(ev Event) {
		if predicate(ev) {
			handler(ev)
		}
	})
}

// BySession accepts events raised for the given session.
func BySession(sessionID string) func(Event) bool {
	return func(ev Event) bool { return ev.Metadata.SessionID == sessionID }
}

// Nop is a Bus that drops everything.
type Nop struct{}

func (Nop) Subscribe(string, Handler) func()          { return func() {} }
func (Nop) Publish(string, any)                       {}
func (Nop) PublishWithMetadata(string, any, Metadata) {}
