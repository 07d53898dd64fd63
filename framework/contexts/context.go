package contexts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Contextual knows how to create and destroy instances of one bean.
type Contextual interface {
	ID() string
	Create(ctx context.Context, cc *CreationalContext) (any, error)
	Destroy(ctx context.Context, instance any, cc *CreationalContext)
}

// Instance is one live entry of a context.
type Instance struct {
	Contextual Contextual
	Value      any
	Creational *CreationalContext
	seq        uint64
}

type entry struct {
	once sync.Once
	inst *Instance
	err  error
}

// Context holds the instances of one scope for one governing unit: a
// request, a session, a conversation or the process.
type Context struct {
	scope  metadata.ScopeKind
	active atomic.Bool

	mu      sync.Mutex
	entries map[string]*entry
	seq     atomic.Uint64
}

// NewContext returns an inactive context for scope.
func NewContext(scope metadata.ScopeKind) *Context {
	return &Context{scope: scope, entries: make(map[string]*entry)}
}

func (c *Context) Scope() metadata.ScopeKind { return c.scope }

func (c *Context) IsActive() bool { return c.active.Load() }

func (c *Context) SetActive(active bool) { c.active.Store(active) }

// Get returns the instance for contextual, creating it on first use.
// Concurrent first calls create the instance once.
func (c *Context) Get(ctx context.Context, contextual Contextual) (any, error) {
	if !c.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrContextNotActive, c.scope)
	}
	if c.scope == metadata.Dependent {
		return c.GetDependent(ctx, contextual, nil)
	}

	c.mu.Lock()
	e, ok := c.entries[contextual.ID()]
	if !ok {
		e = &entry{}
		c.entries[contextual.ID()] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		cc := NewCreationalContext(contextual)
		v, err := contextual.Create(ctx, cc)
		if err != nil {
			e.err = err
			return
		}
		e.inst = &Instance{Contextual: contextual, Value: v, Creational: cc, seq: c.seq.Add(1)}
	})
	if e.err != nil {
		c.mu.Lock()
		if c.entries[contextual.ID()] == e {
			delete(c.entries, contextual.ID())
		}
		c.mu.Unlock()
		return nil, e.err
	}
	return e.inst.Value, nil
}

// GetDependent creates a new instance and, when parent is given, records
// it as a dependent of parent.
func (c *Context) GetDependent(ctx context.Context, contextual Contextual, parent *CreationalContext) (any, error) {
	cc := NewCreationalContext(contextual)
	v, err := contextual.Create(ctx, cc)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		parent.AddDependent(contextual, v, cc)
	}
	return v, nil
}

// Existing returns the instance for id without creating one.
func (c *Context) Existing(id string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok || e.inst == nil {
		return nil, false
	}
	return e.inst.Value, true
}

// Put stores an already built instance, as when a session is activated
// from a passivation store.
func (c *Context) Put(contextual Contextual, value any, cc *CreationalContext) {
	e := &entry{inst: &Instance{Contextual: contextual, Value: value, Creational: cc, seq: c.seq.Add(1)}}
	e.once.Do(func() {})
	c.mu.Lock()
	c.entries[contextual.ID()] = e
	c.mu.Unlock()
}

// Instances returns the live instances in creation order.
func (c *Context) Instances() []*Instance {
	c.mu.Lock()
	out := make([]*Instance, 0, len(c.entries))
	for _, e := range c.entries {
		if e.inst != nil {
			out = append(out, e.inst)
		}
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Len is the number of live instances.
func (c *Context) Len() int { return len(c.Instances()) }

// Destroy tears down every instance, newest first, then deactivates the
// context.
func (c *Context) Destroy(ctx context.Context) {
	instances := c.Instances()
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	for i := len(instances) - 1; i >= 0; i-- {
		in := instances[i]
		in.Contextual.Destroy(ctx, in.Value, in.Creational)
	}
	c.SetActive(false)
}

// ── Creational context ─────────────────────────────────────────────────────

type dependent struct {
	contextual Contextual
	value      any
	cc         *CreationalContext
}

// CreationalContext tracks the dependent objects created while building
// one instance so they can be destroyed along with it.
type CreationalContext struct {
	contextual Contextual

	mu         sync.Mutex
	dependents []dependent
}

// NewCreationalContext returns a context for instances of contextual.
func NewCreationalContext(contextual Contextual) *CreationalContext {
	return &CreationalContext{contextual: contextual}
}

func (cc *CreationalContext) Contextual() Contextual { return cc.contextual }

// AddDependent records a dependent instance owned by this one.
func (cc *CreationalContext) AddDependent(contextual Contextual, value any, child *CreationalContext) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dependents = append(cc.dependents, dependent{contextual: contextual, value: value, cc: child})
}

// Dependents is the number of recorded dependents.
func (cc *CreationalContext) Dependents() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return len(cc.dependents)
}

// Release destroys every dependent, newest first.
func (cc *CreationalContext) Release(ctx context.Context) {
	cc.mu.Lock()
	deps := cc.dependents
	cc.dependents = nil
	cc.mu.Unlock()
	for i := len(deps) - 1; i >= 0; i-- {
		d := deps[i]
		d.contextual.Destroy(ctx, d.value, d.cc)
	}
}
