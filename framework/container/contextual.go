package container

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/inject"
	"github.com/km-arc/go-webbeans/framework/interceptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// contextual creates and destroys the instances of one bean. Contexts
// store the *interceptor.Handler it returns, never the bare target.
type contextual struct {
	container *Container
	bean      *bean.Bean
	// produce replaces construction for built-in beans.
	produce func(ctx context.Context) (any, error)
}

func (cb *contextual) ID() string { return cb.bean.ID }

func (cb *contextual) Create(ctx context.Context, cc *contexts.CreationalContext) (any, error) {
	if cb.produce != nil {
		v, err := cb.produce(ctx)
		if err != nil {
			return nil, err
		}
		return interceptor.NewHandler(cb.bean, v, nil, nil), nil
	}
	return cb.container.create(ctx, cb.bean, cc, true)
}

func (cb *contextual) Destroy(ctx context.Context, instance any, cc *contexts.CreationalContext) {
	if h, ok := instance.(*interceptor.Handler); ok && cb.bean.Kind == bean.Managed {
		if err := h.Lifecycle(ctx, metadata.PreDestroy); err != nil {
			cb.container.log.Warn("pre-destroy callback failed", zap.String("bean", cb.bean.ID), zap.Error(err))
		}
	}
	if cc != nil {
		cc.Release(ctx)
	}
}

// ── Creation ──────────────────────────────────────────────────────────────────

type creatingKey struct{}

// creating is the chain of beans under construction on the current call
// path.
type creating struct {
	bean   *bean.Bean
	parent *creating
}

func (cr *creating) has(b *bean.Bean) bool {
	for ; cr != nil; cr = cr.parent {
		if cr.bean == b {
			return true
		}
	}
	return false
}

func (cr *creating) path(b *bean.Bean) string {
	ids := []string{b.ID}
	for ; cr != nil; cr = cr.parent {
		ids = append(ids, cr.bean.ID)
		if cr.bean == b {
			break
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return strings.Join(ids, " -> ")
}

// circular reports b being requested while it is still under
// construction on this call path.
func circular(ctx context.Context, b *bean.Bean) error {
	chain, _ := ctx.Value(creatingKey{}).(*creating)
	if !chain.has(b) {
		return nil
	}
	return fmt.Errorf("container: circular dependency %s; inject one side through a proxy wrapper or Instance", chain.path(b))
}

// create builds a complete instance of b: target, interceptor and
// decorator instances, injected fields and initializers. postConstruct is
// false when the state is about to be restored from a passivation store.
func (c *Container) create(ctx context.Context, b *bean.Bean, cc *contexts.CreationalContext, postConstruct bool) (*interceptor.Handler, error) {
	if err := circular(ctx, b); err != nil {
		return nil, err
	}
	chain, _ := ctx.Value(creatingKey{}).(*creating)
	ctx = context.WithValue(ctx, creatingKey{}, &creating{bean: b, parent: chain})

	if b.Kind == bean.Producer {
		return c.produce(ctx, b, cc)
	}

	target, err := c.instantiate(ctx, b, cc, nil)
	if err != nil {
		return nil, err
	}

	interceptors := make(map[*bean.Bean]any)
	for _, kind := range metadata.InterceptionTypes {
		for _, d := range b.Stack[kind] {
			if d.Self() || interceptors[d.Interceptor] != nil {
				continue
			}
			inst, err := c.instantiate(ctx, d.Interceptor, cc, nil)
			if err != nil {
				return nil, fmt.Errorf("interceptor %s of %s: %w", d.Interceptor.ID, b.ID, err)
			}
			interceptors[d.Interceptor] = inst
		}
	}

	decorators := make([]any, len(b.Decorators))
	delegate := target
	for i := len(b.Decorators) - 1; i >= 0; i-- {
		inst, err := c.instantiate(ctx, b.Decorators[i], cc, delegate)
		if err != nil {
			return nil, fmt.Errorf("decorator %s of %s: %w", b.Decorators[i].ID, b.ID, err)
		}
		decorators[i] = inst
		delegate = inst
	}

	h := interceptor.NewHandler(b, target, interceptors, decorators)
	if postConstruct {
		if err := h.Lifecycle(ctx, metadata.PostConstruct); err != nil {
			cc.Release(ctx)
			return nil, fmt.Errorf("post-construct of %s: %w", b.ID, err)
		}
	}
	c.log.Debug("instance created", zap.String("bean", b.ID), zap.String("scope", string(b.Scope)))
	return h, nil
}

// instantiate calls the constructor and performs field and initializer
// injection. delegate is set on the delegate field of a decorator.
func (c *Container) instantiate(ctx context.Context, b *bean.Bean, cc *contexts.CreationalContext, delegate any) (any, error) {
	if b.Constructor == nil || b.Constructor.New == nil {
		return nil, fmt.Errorf("container: %s has no usable constructor", b.ID)
	}
	args := make([]any, len(b.Constructor.Params))
	for _, ip := range b.InjectionPoints {
		if ip.Field != nil || ip.Method != nil {
			continue
		}
		v, err := c.injectValue(ctx, ip, cc)
		if err != nil {
			return nil, err
		}
		args[ip.Index] = v
	}
	target, err := b.Constructor.New(args)
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", b.ID, err)
	}

	for _, ip := range b.InjectionPoints {
		if ip.Field == nil {
			continue
		}
		if ip.Delegate {
			ip.Field.Set(target, delegate)
			continue
		}
		v, err := c.injectValue(ctx, ip, cc)
		if err != nil {
			return nil, err
		}
		ip.Field.Set(target, v)
	}

	for _, m := range b.Initializers {
		args, err := c.methodArgs(ctx, b, m, cc)
		if err != nil {
			return nil, err
		}
		if _, err := m.Invoke(target, args); err != nil {
			return nil, fmt.Errorf("initializer %s.%s: %w", b.ID, m.Name, err)
		}
	}
	return target, nil
}

// produce calls the producer method on the current instance of the
// declaring bean.
func (c *Container) produce(ctx context.Context, pb *bean.Bean, cc *contexts.CreationalContext) (*interceptor.Handler, error) {
	var parent any
	if !pb.Method.Modifiers.Has(metadata.Static) {
		h, err := c.handler(ctx, pb.Parent, cc)
		if err != nil {
			return nil, fmt.Errorf("producer %s: %w", pb.ID, err)
		}
		parent = h.Target()
	}
	args, err := c.methodArgs(ctx, pb, pb.Method, cc)
	if err != nil {
		return nil, err
	}
	v, err := pb.Method.Invoke(parent, args)
	if err != nil {
		return nil, fmt.Errorf("producer %s: %w", pb.ID, err)
	}
	if v == nil && pb.Scope != metadata.Dependent {
		return nil, fmt.Errorf("producer %s returned nil for %s scope", pb.ID, pb.Scope)
	}
	return interceptor.NewHandler(pb, v, nil, nil), nil
}

func (c *Container) methodArgs(ctx context.Context, b *bean.Bean, m *metadata.Method, cc *contexts.CreationalContext) ([]any, error) {
	args := make([]any, len(m.Params))
	for _, ip := range b.InjectionPoints {
		if ip.Method != m {
			continue
		}
		v, err := c.injectValue(ctx, ip, cc)
		if err != nil {
			return nil, err
		}
		args[ip.Index] = v
	}
	return args, nil
}

// injectValue computes the value for one injection point. Dependent
// instances it creates are owned by cc.
func (c *Container) injectValue(ctx context.Context, ip *bean.InjectionPoint, cc *contexts.CreationalContext) (any, error) {
	if ip.Deferred() {
		if err := inject.CheckDeferred(ip); err != nil {
			return nil, err
		}
		typ := ip.TypeArgs[0]
		return inject.NewInstance(c.resolver, typ, ip.Qualifiers, func(ctx context.Context, b *bean.Bean) (any, error) {
			return c.reference(ctx, b, typ, cc, false)
		}), nil
	}
	b, err := c.resolver.ResolvePoint(ip)
	if err != nil {
		return nil, err
	}
	return c.reference(ctx, b, ip.Type, cc, false)
}
