package contexts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/events"
)

// ConversationManager is the process-wide registry of conversations. It is
// touched concurrently by every request of every session.
type ConversationManager struct {
	conversations sync.Map // *Conversation → struct{}

	timeout time.Duration
	bus     events.Bus
	log     *zap.Logger
	now     func() time.Time
}

// NewConversationManager returns an empty registry. New conversations get
// timeout as their idle timeout.
func NewConversationManager(timeout time.Duration, bus events.Bus, log *zap.Logger) *ConversationManager {
	if bus == nil {
		bus = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ConversationManager{timeout: timeout, bus: bus, log: log, now: time.Now}
}

// Create registers a new transient conversation for sessionID.
func (m *ConversationManager) Create(sessionID string) *Conversation {
	c := newConversation(m, sessionID, m.timeout, m.now())
	m.conversations.Store(c, struct{}{})
	return c
}

// Add registers c.
func (m *ConversationManager) Add(c *Conversation) {
	c.manager = m
	m.conversations.Store(c, struct{}{})
}

// Remove unregisters c and reports whether it was registered.
func (m *ConversationManager) Remove(c *Conversation) bool {
	_, ok := m.conversations.LoadAndDelete(c)
	return ok
}

// Find returns the conversation with id in sessionID, or nil.
func (m *ConversationManager) Find(id, sessionID string) *Conversation {
	var found *Conversation
	m.conversations.Range(func(k, _ any) bool {
		c := k.(*Conversation)
		if c.SessionID() == sessionID && c.ID() == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Conversations returns a snapshot of the registry.
func (m *ConversationManager) Conversations() []*Conversation {
	var out []*Conversation
	m.conversations.Range(func(k, _ any) bool {
		out = append(out, k.(*Conversation))
		return true
	})
	return out
}

// Len is the number of registered conversations.
func (m *ConversationManager) Len() int { return len(m.Conversations()) }

// DestroyConversationContextWithSessionID removes and destroys every
// conversation of sessionID, whatever its timeout. It returns how many
// were removed.
func (m *ConversationManager) DestroyConversationContextWithSessionID(ctx context.Context, sessionID string) int {
	n := 0
	for _, c := range m.Conversations() {
		if c.SessionID() != sessionID {
			continue
		}
		if m.Remove(c) {
			c.Context().Destroy(ctx)
			n++
		}
	}
	return n
}

// Sweep removes and destroys every conversation idle longer than its
// timeout at now. It returns the ids removed.
func (m *ConversationManager) Sweep(ctx context.Context, now time.Time) []string {
	var removed []string
	for _, c := range m.Conversations() {
		if !c.Expired(now) {
			continue
		}
		if m.Remove(c) {
			c.Context().Destroy(ctx)
			removed = append(removed, c.ID())
			m.publish(events.ConversationTimedOut, c)
		}
	}
	if len(removed) > 0 {
		m.log.Debug("conversations timed out", zap.Strings("ids", removed))
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (m *ConversationManager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx, m.now())
		}
	}
}

// DestroyAll destroys and forgets every conversation.
func (m *ConversationManager) DestroyAll(ctx context.Context) {
	for _, c := range m.Conversations() {
		if m.Remove(c) {
			c.Context().Destroy(ctx)
		}
	}
}

func (m *ConversationManager) publish(name string, c *Conversation) {
	m.bus.PublishWithMetadata(name, c.ID(), events.Metadata{SessionID: c.SessionID(), ConversationID: c.ID()})
}
