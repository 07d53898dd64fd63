package contexts

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/km-arc/go-webbeans/framework/events"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Conversation is a unit of work that can span several requests of one
// session once it is made long-running with Begin.
type Conversation struct {
	mu         sync.Mutex
	id         string
	sessionID  string
	transient  bool
	lastActive time.Time
	timeout    time.Duration

	used    atomic.Int32
	context *Context
	manager *ConversationManager
}

func newConversation(m *ConversationManager, sessionID string, timeout time.Duration, now time.Time) *Conversation {
	c := &Conversation{
		id:         uuid.NewString(),
		sessionID:  sessionID,
		transient:  true,
		lastActive: now,
		timeout:    timeout,
		context:    NewContext(metadata.Conversation),
		manager:    m,
	}
	c.context.SetActive(true)
	return c
}

func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Conversation) SessionID() string { return c.sessionID }

func (c *Conversation) IsTransient() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transient
}

func (c *Conversation) Timeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// SetTimeout changes the idle timeout. Zero disables expiry.
func (c *Conversation) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

func (c *Conversation) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Touch records activity at now.
func (c *Conversation) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = now
}

// Expired reports whether the conversation has been idle longer than its
// timeout at now.
func (c *Conversation) Expired(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout != 0 && now.Sub(c.lastActive) > c.timeout
}

// Context holds the conversation-scoped instances.
func (c *Conversation) Context() *Context { return c.context }

// Begin makes the conversation long-running. An explicit id must not be
// taken by another conversation of the same session.
func (c *Conversation) Begin(id ...string) error {
	explicit := ""
	if len(id) > 0 && id[0] != "" && id[0] != c.ID() {
		explicit = id[0]
		if c.manager != nil && c.manager.Find(explicit, c.sessionID) != nil {
			return errors.New("conversation: id " + explicit + " is already in use")
		}
	}

	c.mu.Lock()
	if !c.transient {
		c.mu.Unlock()
		return errors.New("conversation: already long-running")
	}
	if explicit != "" {
		c.id = explicit
	}
	c.transient = false
	c.mu.Unlock()

	if c.manager != nil {
		c.manager.publish(events.ConversationBegun, c)
	}
	return nil
}

// End makes a long-running conversation transient again; it is
// destroyed at the end of the request.
func (c *Conversation) End() error {
	c.mu.Lock()
	if c.transient {
		c.mu.Unlock()
		return errors.New("conversation: already transient")
	}
	c.transient = true
	c.mu.Unlock()

	if c.manager != nil {
		c.manager.publish(events.ConversationEnded, c)
	}
	return nil
}

// Use marks the conversation as used by one more request and returns the
// resulting count. More than one signals a concurrent request.
func (c *Conversation) Use() int32 { return c.used.Add(1) }

// Release undoes one Use.
func (c *Conversation) Release() {
	if c.used.Add(-1) < 0 {
		c.used.Store(0)
	}
}

// InUse is the current use count.
func (c *Conversation) InUse() int32 { return c.used.Load() }
