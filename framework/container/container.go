package container

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/events"
	"github.com/km-arc/go-webbeans/framework/inject"
	"github.com/km-arc/go-webbeans/framework/interceptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/registry"
)

// Contract types of the built-in beans.
const (
	ConversationType = "webbeans.Conversation"
	ContainerType    = "webbeans.Container"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the deployed runtime. It owns the validated beans, the
// resolver, and the context service, and hands out references.
//
// A Container is safe for concurrent use. Per-request state travels in the
// context.Context passed to each call; see contexts.WithUnit.
type Container struct {
	deployment *Deployment
	universe   *metadata.Universe
	registry   *registry.Registry
	scopes     *metadata.ScopeTable

	beans       []*bean.Bean
	byID        map[string]*bean.Bean
	contextuals map[*bean.Bean]*contextual
	resolver    *inject.Resolver

	contexts *contexts.Service
	proxies  interceptor.ProxyFactory
	bus      events.Bus
	log      *zap.Logger

	shutdown atomic.Bool
}

func newContainer(d *Deployment, beans []*bean.Bean) *Container {
	c := &Container{
		deployment:  d,
		universe:    d.Universe,
		registry:    d.Registry,
		scopes:      d.scopes,
		byID:        make(map[string]*bean.Bean),
		contextuals: make(map[*bean.Bean]*contextual),
		contexts:    contexts.NewService(d.contextsOptions()),
		proxies:     d.proxies,
		bus:         d.bus,
		log:         d.log,
	}
	c.beans = append(beans, c.builtins()...)
	for _, b := range c.beans {
		c.byID[b.ID] = b
		if c.contextuals[b] == nil {
			c.contextuals[b] = &contextual{container: c, bean: b}
		}
	}
	c.resolver = inject.NewResolver(c.beans)
	return c
}

// builtins registers the beans every deployment provides.
func (c *Container) builtins() []*bean.Bean {
	conversation := builtin("builtin#Conversation", ConversationType)
	c.contextuals[conversation] = &contextual{container: c, bean: conversation,
		produce: func(ctx context.Context) (any, error) {
			return c.contexts.CurrentConversation(ctx)
		}}

	self := builtin("builtin#Container", ContainerType)
	c.contextuals[self] = &contextual{container: c, bean: self,
		produce: func(context.Context) (any, error) { return c, nil }}

	return []*bean.Bean{conversation, self}
}

func builtin(id, typ string) *bean.Bean {
	b := &bean.Bean{
		ID:         id,
		Kind:       bean.BuiltIn,
		Types:      []string{typ},
		Scope:      metadata.Dependent,
		Qualifiers: []metadata.Qualifier{metadata.Default(), metadata.Any()},
	}
	b.SetEnabled(true)
	return b
}

func (c *Container) start(ctx context.Context) error {
	for _, kind := range []metadata.ScopeKind{metadata.Application, metadata.Singleton} {
		if err := c.contexts.StartContext(ctx, kind, nil); err != nil {
			return err
		}
	}
	return nil
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// Beans returns every bean, disabled ones included.
func (c *Container) Beans() []*bean.Bean {
	return append([]*bean.Bean(nil), c.beans...)
}

// Bean returns the bean with the given id.
func (c *Container) Bean(id string) (*bean.Bean, bool) {
	b, ok := c.byID[id]
	return b, ok
}

func (c *Container) Resolver() *inject.Resolver        { return c.resolver }
func (c *Container) Contexts() *contexts.Service       { return c.contexts }
func (c *Container) Registry() *registry.Registry      { return c.registry }
func (c *Container) Universe() *metadata.Universe      { return c.universe }
func (c *Container) Scopes() *metadata.ScopeTable      { return c.scopes }
func (c *Container) Bus() events.Bus                   { return c.bus }
func (c *Container) Logger() *zap.Logger               { return c.log }
func (c *Container) Providers() *ProviderRegistry      { return c.deployment.providers }
func (c *Container) Proxies() interceptor.ProxyFactory { return c.proxies }

// ── References ────────────────────────────────────────────────────────────────

// Reference resolves typ and returns a client reference to it.
//
// Normal-scoped beans yield a proxy from the proxy factory, a bare
// *interceptor.Proxy unless a wrapper is registered for typ. Pseudo-scoped
// beans yield the instance itself, wrapped when the bean is intercepted
// and a wrapper exists.
//
//	ref, err := c.Reference(ctx, "shop.Cart")
//	out, err := ref.(*interceptor.Proxy).Call(ctx, "add", item)
func (c *Container) Reference(ctx context.Context, typ string, qualifiers ...metadata.Qualifier) (any, error) {
	if err := c.deployment.providers.bootFor(c, typ); err != nil {
		return nil, err
	}
	b, err := c.resolver.Resolve(typ, qualifiers...)
	if err != nil {
		return nil, err
	}
	return c.reference(ctx, b, typ, nil, true)
}

// ReferenceByName resolves a bean by name.
func (c *Container) ReferenceByName(ctx context.Context, name string) (any, error) {
	b, err := c.resolver.ResolveByName(name)
	if err != nil {
		return nil, err
	}
	return c.reference(ctx, b, b.ReturnType(), nil, true)
}

// ReferenceTo returns a client reference to b exposed as typ.
func (c *Container) ReferenceTo(ctx context.Context, b *bean.Bean, typ string) (any, error) {
	return c.reference(ctx, b, typ, nil, true)
}

// MustReference is like Reference but panics on failure.
func (c *Container) MustReference(ctx context.Context, typ string, qualifiers ...metadata.Qualifier) any {
	ref, err := c.Reference(ctx, typ, qualifiers...)
	if err != nil {
		panic(fmt.Sprintf("container: reference to [%s]: %v", typ, err))
	}
	return ref
}

// Get returns the contextual instance of b current for ctx, creating it
// when needed. Dependent beans get a new instance on every call.
func (c *Container) Get(ctx context.Context, b *bean.Bean) (any, error) {
	h, err := c.Handler(ctx, b)
	if err != nil {
		return nil, err
	}
	return h.Target(), nil
}

// Handler returns the interception handler of the instance of b current
// for ctx.
func (c *Container) Handler(ctx context.Context, b *bean.Bean) (*interceptor.Handler, error) {
	return c.handler(ctx, b, nil)
}

// Instance returns a programmatic lookup for typ.
//
//	carts := c.Instance("shop.Cart")
//	if !carts.IsUnsatisfied() { cart, err := carts.Get(ctx) }
func (c *Container) Instance(typ string, qualifiers ...metadata.Qualifier) *inject.Instance {
	if len(qualifiers) == 0 {
		qualifiers = []metadata.Qualifier{metadata.Default()}
	}
	return inject.NewInstance(c.resolver, typ, qualifiers, func(ctx context.Context, b *bean.Bean) (any, error) {
		return c.reference(ctx, b, typ, nil, false)
	})
}

// Shutdown announces the shutdown and destroys every context.
func (c *Container) Shutdown(ctx context.Context) {
	if !c.shutdown.CompareAndSwap(false, true) {
		return
	}
	c.bus.Publish(events.BeforeShutdown, c)
	c.contexts.Destroy(ctx)
	c.log.Info("container shut down")
}

// reference computes the value handed out for b. client asks for a proxy
// even when no wrapper is registered for typ.
func (c *Container) reference(ctx context.Context, b *bean.Bean, typ string, parent *contexts.CreationalContext, client bool) (any, error) {
	if c.shutdown.Load() {
		return nil, ErrShutdown
	}
	normal, err := c.scopes.IsNormal(b.Scope)
	if err != nil {
		return nil, err
	}
	if normal {
		if client || c.proxies.Supports(typ) {
			return c.proxies.Create(b, typ, c.lookup(b)), nil
		}
		h, err := c.handler(ctx, b, nil)
		if err != nil {
			return nil, err
		}
		return h.Target(), nil
	}

	h, err := c.handler(ctx, b, parent)
	if err != nil {
		return nil, err
	}
	if b.Intercepted() && c.proxies.Supports(typ) {
		return c.proxies.Create(b, typ, func(context.Context) (*interceptor.Handler, error) { return h, nil }), nil
	}
	return h.Target(), nil
}

func (c *Container) lookup(b *bean.Bean) interceptor.Lookup {
	return func(ctx context.Context) (*interceptor.Handler, error) {
		return c.handler(ctx, b, nil)
	}
}

// handler fetches the instance of b from its context. Dependent instances
// are recorded on parent when given.
func (c *Container) handler(ctx context.Context, b *bean.Bean, parent *contexts.CreationalContext) (*interceptor.Handler, error) {
	cx, ok := c.contexts.CurrentContext(ctx, b.Scope)
	if !ok {
		return nil, fmt.Errorf("%w: %s needed by %s", contexts.ErrContextNotActive, b.Scope, b.ID)
	}
	if err := circular(ctx, b); err != nil {
		return nil, err
	}
	cb := c.contextuals[b]
	if cb == nil {
		return nil, fmt.Errorf("container: %s is not part of this deployment", b.ID)
	}
	var v any
	var err error
	if b.Scope == metadata.Dependent {
		v, err = cx.GetDependent(ctx, cb, parent)
	} else {
		v, err = cx.Get(ctx, cb)
	}
	if err != nil {
		return nil, err
	}
	return v.(*interceptor.Handler), nil
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve calls Reference and type-asserts the result.
//
//	cart, err := container.Resolve[*interceptor.Proxy](ctx, c, "shop.Cart")
func Resolve[T any](ctx context.Context, c *Container, typ string, qualifiers ...metadata.Qualifier) (T, error) {
	var zero T
	ref, err := c.Reference(ctx, typ, qualifiers...)
	if err != nil {
		return zero, err
	}
	typed, ok := ref.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: [%s] resolved to %T", zero, typ, ref)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](ctx context.Context, c *Container, typ string, qualifiers ...metadata.Qualifier) T {
	typed, err := Resolve[T](ctx, c, typ, qualifiers...)
	if err != nil {
		panic(err.Error())
	}
	return typed
}
