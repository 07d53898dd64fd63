package contexts

import (
	"context"
	"sync"

	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Unit is the per-request state that would otherwise live in thread-local
// storage: the request and dependent contexts, plus the session and
// conversation the request is attached to. A Unit must not be shared
// between requests.
type Unit struct {
	mu sync.Mutex

	request   *Context
	dependent *Context

	sessionID string
	session   *Context

	conversation *Conversation
}

type unitKey struct{}

// WithUnit returns a child of ctx carrying a fresh Unit.
func WithUnit(ctx context.Context) (context.Context, *Unit) {
	u := &Unit{dependent: NewContext(metadata.Dependent)}
	u.dependent.SetActive(true)
	return context.WithValue(ctx, unitKey{}, u), u
}

// UnitFrom returns the Unit attached to ctx.
func UnitFrom(ctx context.Context) (*Unit, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(unitKey{}).(*Unit)
	return u, ok
}

// SessionID is the id of the attached session, or "".
func (u *Unit) SessionID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sessionID
}

// Conversation is the conversation attached to the request, if any.
func (u *Unit) Conversation() *Conversation {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conversation
}
