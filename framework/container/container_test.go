package container_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/events"
	"github.com/km-arc/go-webbeans/framework/inject"
	"github.com/km-arc/go-webbeans/framework/interceptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/passivation"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type journal struct {
	mu    sync.Mutex
	lines []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = append(j.lines, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.lines...)
}

type counter interface{ Count() int }

type sessionCart struct {
	Items []string `json:"items"`
	j     *journal
}

func (c *sessionCart) Count() int { return len(c.Items) }

type loudCart struct {
	delegate counter
}

type clock struct{ j *journal }

type pricing struct {
	Clock *clock
	j     *journal
}

type checkout struct{ j *journal }

type auditor struct{ j *journal }

func note(j *journal, what string) func(any) error {
	return func(any) error {
		j.add(what)
		return nil
	}
}

// shop describes a small deployment around a session scoped cart.
func shop(j *journal) []*metadata.Type {
	return []*metadata.Type{
		metadata.Define("shop.Cart").Interface().Type(),

		metadata.Define("shop.SessionCart").
			Implements("shop.Cart").
			Scoped(metadata.Session).
			Serializable().
			Constructor(metadata.NoArgs(func() any { return &sessionCart{j: j} })).
			Method(
				metadata.Business("add", func(target any, args []any) (any, error) {
					c := target.(*sessionCart)
					c.Items = append(c.Items, args[0].(string))
					return len(c.Items), nil
				}, metadata.Param{Type: "string"}),
				metadata.Business("count", func(target any, _ []any) (any, error) {
					return target.(*sessionCart).Count(), nil
				}),
				metadata.Lifecycle(metadata.PostConstruct, "init", note(j, "cart.init")),
				metadata.Lifecycle(metadata.PreDestroy, "close", note(j, "cart.close")),
				metadata.Lifecycle(metadata.PrePassivate, "freeze", note(j, "cart.freeze")),
				metadata.Lifecycle(metadata.PostActivate, "thaw", note(j, "cart.thaw")),
			).Type(),

		metadata.Define("shop.Clock").
			Constructor(metadata.NoArgs(func() any { return &clock{j: j} })).
			Method(metadata.Lifecycle(metadata.PreDestroy, "stop", note(j, "clock.stop"))).
			Type(),

		metadata.Define("shop.Pricing").
			Scoped(metadata.Application).
			Constructor(metadata.NoArgs(func() any { return &pricing{j: j} })).
			Field(metadata.Inject("Clock", "shop.Clock", func(target, v any) { target.(*pricing).Clock = v.(*clock) })).
			Method(
				metadata.Lifecycle(metadata.PreDestroy, "close", note(j, "pricing.close")),
				metadata.Produces("currency", "shop.Currency", func(any, []any) (any, error) { return "EUR", nil }),
			).Type(),

		metadata.Define("shop.Checkout").
			Scoped(metadata.Request).
			Bound(metadata.Q("shop.Audited")).
			Constructor(metadata.NoArgs(func() any { return &checkout{j: j} })).
			Method(
				metadata.Business("pay", func(target any, args []any) (any, error) {
					target.(*checkout).j.add(fmt.Sprintf("pay %v", args[0]))
					return "paid", nil
				}, metadata.Param{Type: "int"}),
				metadata.Lifecycle(metadata.PreDestroy, "done", note(j, "checkout.done")),
			).Type(),

		metadata.Define("shop.AuditInterceptor").
			Interceptor().
			Bound(metadata.Q("shop.Audited")).
			Constructor(metadata.NoArgs(func() any { return &auditor{j: j} })).
			Method(metadata.Around(metadata.AroundInvoke, "audit", func(target any, args []any) (any, error) {
				ic := args[0].(*interceptor.InvocationContext)
				target.(*auditor).j.add("audit " + ic.Method().Name)
				return ic.Proceed()
			})).Type(),

		metadata.Define("shop.LoudCart").
			Decorator().
			Implements("shop.Cart").
			Constructor(metadata.NoArgs(func() any { return &loudCart{} })).
			Field(metadata.Delegate("delegate", "shop.Cart", func(target, v any) { target.(*loudCart).delegate = v.(counter) })).
			Method(metadata.Business("count", func(target any, _ []any) (any, error) {
				return target.(*loudCart).delegate.Count() * 10, nil
			})).Type(),
	}
}

func deploy(t *testing.T, j *journal, setup func(d *container.Deployment), opts ...container.Option) *container.Container {
	t.Helper()
	d := container.NewDeployment(container.DefaultConfig(), opts...)
	d.Add(shop(j)...)
	require.NoError(t, d.Registry.EnableInterceptor("shop.AuditInterceptor"))
	if setup != nil {
		setup(d)
	}
	c, err := d.Deploy(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })
	return c
}

// request starts request, session and conversation contexts on a new unit.
func request(t *testing.T, c *container.Container, sid string) context.Context {
	t.Helper()
	ctx, _ := contexts.WithUnit(context.Background())
	svc := c.Contexts()
	require.NoError(t, svc.StartContext(ctx, metadata.Request, nil))
	require.NoError(t, svc.StartContext(ctx, metadata.Session, contexts.SessionParams{ID: sid}))
	require.NoError(t, svc.StartContext(ctx, metadata.Conversation, nil))
	return ctx
}

// ── deployment ────────────────────────────────────────────────────────────────

func TestDeploy_BuildsBeans(t *testing.T) {
	t.Parallel()
	j := &journal{}
	bus := events.NewSimpleBus()
	var discovered []string
	var validated bool
	bus.Subscribe(events.BeanDiscovered, func(ev events.Event) { discovered = append(discovered, ev.Data.(fmt.Stringer).String()) })
	bus.Subscribe(events.AfterDeploymentValidation, func(events.Event) { validated = true })

	c := deploy(t, j, nil, container.WithBus(bus))
	assert.True(t, validated)

	_, ok := c.Bean("shop.Cart")
	assert.False(t, ok, "interfaces are not beans")
	_, ok = c.Bean("shop.Pricing#currency()")
	assert.True(t, ok, "producer bean")
	_, ok = c.Bean("builtin#Conversation")
	assert.True(t, ok)
	assert.Len(t, discovered, 6)
}

func TestDeploy_CollectsEveryDefect(t *testing.T) {
	t.Parallel()
	d := container.NewDeployment(container.DefaultConfig())
	d.Add(
		metadata.Define("x.NeedsMissing").
			Constructor(metadata.NoArgs(func() any { return &struct{}{} })).
			Field(metadata.Inject("M", "x.Missing", func(any, any) {})).
			Type(),
		metadata.Define("x.Service").Interface().Type(),
		metadata.Define("x.A").Implements("x.Service").Constructor(metadata.NoArgs(func() any { return 1 })).Type(),
		metadata.Define("x.B").Implements("x.Service").Constructor(metadata.NoArgs(func() any { return 2 })).Type(),
		metadata.Define("x.NeedsService").
			Constructor(metadata.NoArgs(func() any { return &struct{}{} })).
			Field(metadata.Inject("S", "x.Service", func(any, any) {})).
			Type(),
		metadata.Define("x.BadScope").Scoped("FlashScoped").Constructor(metadata.NoArgs(func() any { return 3 })).Type(),
	)
	require.NoError(t, d.Registry.EnableInterceptor("x.Ghost"))

	_, err := d.Deploy(context.Background())
	require.Error(t, err)
	var de *container.DeploymentError
	require.ErrorAs(t, err, &de)
	assert.Len(t, de.Errs, 4)
	assert.ErrorIs(t, err, inject.ErrUnsatisfied)
	assert.ErrorIs(t, err, inject.ErrAmbiguous)
	assert.ErrorIs(t, err, metadata.ErrUnrecognizedScope)

	_, err = d.Deploy(context.Background())
	assert.Error(t, err, "a deployment runs once")
}

func TestDeploy_ReportsEverySpecializationDefect(t *testing.T) {
	t.Parallel()
	ctor := func() *metadata.Constructor { return metadata.NoArgs(func() any { return &struct{}{} }) }
	d := container.NewDeployment(container.DefaultConfig())
	d.Add(
		metadata.Define("a.Base").Named("first").Constructor(ctor()).Type(),
		metadata.Define("a.Derived").Extends("a.Base").Specializes().Named("second").Constructor(ctor()).Type(),
		metadata.Define("b.Base").Named("third").Constructor(ctor()).Type(),
		metadata.Define("b.Derived").Extends("b.Base").Specializes().Named("fourth").Constructor(ctor()).Type(),
	)

	_, err := d.Deploy(context.Background())
	require.Error(t, err)
	var de *container.DeploymentError
	require.ErrorAs(t, err, &de)
	require.Len(t, de.Errs, 2)
	assert.Contains(t, de.Errs[0].Error(), "a.Derived")
	assert.Contains(t, de.Errs[1].Error(), "b.Derived")
}

func TestDeploy_PassivatingBeanWithPlainDependent(t *testing.T) {
	t.Parallel()
	d := container.NewDeployment(container.DefaultConfig())
	d.Add(
		metadata.Define("x.Helper").Constructor(metadata.NoArgs(func() any { return &struct{}{} })).Type(),
		metadata.Define("x.Wizard").
			Scoped(metadata.Session).
			Serializable().
			Constructor(metadata.NoArgs(func() any { return &struct{}{} })).
			Field(metadata.Inject("H", "x.Helper", func(any, any) {})).
			Type(),
	)
	_, err := d.Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non passivation capable dependent")
}

// ── references ────────────────────────────────────────────────────────────────

func TestReference_InterceptedRequestBean(t *testing.T) {
	t.Parallel()
	j := &journal{}
	c := deploy(t, j, nil)
	ctx := request(t, c, "s1")

	ref, err := c.Reference(ctx, "shop.Checkout")
	require.NoError(t, err)
	proxy, ok := ref.(*interceptor.Proxy)
	require.True(t, ok)

	out, err := proxy.Call(ctx, "pay", 42)
	require.NoError(t, err)
	assert.Equal(t, "paid", out)
	assert.Equal(t, []string{"audit pay", "pay 42"}, j.all())

	require.NoError(t, c.Contexts().StopContext(ctx, metadata.Request, nil))
	assert.Contains(t, j.all(), "checkout.done")

	_, err = proxy.Call(ctx, "pay", 1)
	assert.ErrorIs(t, err, contexts.ErrContextNotActive)
}

func TestReference_RequestInstancesAreIsolated(t *testing.T) {
	t.Parallel()
	c := deploy(t, &journal{}, nil)
	b, ok := c.Bean("shop.Checkout")
	require.True(t, ok)

	a, err := c.Get(request(t, c, "s1"), b)
	require.NoError(t, err)
	other, err := c.Get(request(t, c, "s2"), b)
	require.NoError(t, err)
	assert.NotSame(t, a, other)
}

func TestReference_ApplicationBeanWithDependent(t *testing.T) {
	t.Parallel()
	j := &journal{}
	d := container.NewDeployment(container.DefaultConfig())
	d.Add(shop(j)...)
	require.NoError(t, d.Registry.EnableInterceptor("shop.AuditInterceptor"))
	c, err := d.Deploy(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	proxy := container.MustResolve[*interceptor.Proxy](ctx, c, "shop.Pricing")
	p, err := proxy.Instance(ctx)
	require.NoError(t, err)
	pr := p.(*pricing)
	require.NotNil(t, pr.Clock)

	again, err := c.Get(ctx, beanOf(t, c, "shop.Pricing"))
	require.NoError(t, err)
	assert.Same(t, pr, again)

	c.Shutdown(ctx)
	assert.Equal(t, []string{"pricing.close", "clock.stop"}, j.all())
	_, err = c.Reference(ctx, "shop.Pricing")
	assert.Error(t, err)
}

func TestReference_Producer(t *testing.T) {
	t.Parallel()
	c := deploy(t, &journal{}, nil)
	v, err := c.Reference(context.Background(), "shop.Currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR", v)

	s, err := container.Resolve[string](context.Background(), c, "shop.Currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR", s)

	_, err = container.Resolve[int](context.Background(), c, "shop.Currency")
	assert.Error(t, err)
}

func TestReference_Decorator(t *testing.T) {
	t.Parallel()
	j := &journal{}
	c := deploy(t, j, func(d *container.Deployment) {
		require.NoError(t, d.Registry.EnableDecorator("shop.LoudCart"))
	})
	ctx := request(t, c, "s1")

	cart := container.MustResolve[*interceptor.Proxy](ctx, c, "shop.Cart")
	n, err := cart.Call(ctx, "add", "apple")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = cart.Call(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestReference_AbstractDecorator(t *testing.T) {
	t.Parallel()
	j := &journal{}
	d := container.NewDeployment(container.DefaultConfig())
	types := shop(j)
	for _, typ := range types {
		if typ.Name == "shop.LoudCart" {
			typ.Abstract = true
		}
	}
	d.Add(types...)
	require.NoError(t, d.Registry.EnableInterceptor("shop.AuditInterceptor"))
	require.NoError(t, d.Registry.EnableDecorator("shop.LoudCart"))
	c, err := d.Deploy(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })
	ctx := request(t, c, "s1")

	cart := container.MustResolve[*interceptor.Proxy](ctx, c, "shop.Cart")
	_, err = cart.Call(ctx, "add", "pear")
	require.NoError(t, err)
	n, err := cart.Call(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestDeploy_AbstractDecoratorWithoutConstructor(t *testing.T) {
	t.Parallel()
	d := container.NewDeployment(container.DefaultConfig())
	d.Add(
		metadata.Define("x.Greeter").Interface().Type(),
		metadata.Define("x.Hello").Implements("x.Greeter").Constructor(metadata.NoArgs(func() any { return &struct{}{} })).Type(),
		metadata.Define("x.Polite").Abstract().Decorator().Implements("x.Greeter").
			Field(metadata.Delegate("inner", "x.Greeter", func(any, any) {})).Type(),
	)
	require.NoError(t, d.Registry.EnableDecorator("x.Polite"))

	_, err := d.Deploy(context.Background())
	require.Error(t, err)
	assert.True(t, bean.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "abstract decorator")
}

func TestReference_Unresolvable(t *testing.T) {
	t.Parallel()
	c := deploy(t, &journal{}, nil)
	_, err := c.Reference(context.Background(), "shop.Nothing")
	assert.ErrorIs(t, err, inject.ErrUnsatisfied)
	assert.Panics(t, func() { c.MustReference(context.Background(), "shop.Nothing") })
}

func TestReference_SessionScopeNeedsSession(t *testing.T) {
	t.Parallel()
	c := deploy(t, &journal{}, nil)
	_, err := c.Get(context.Background(), beanOf(t, c, "shop.SessionCart"))
	assert.ErrorIs(t, err, contexts.ErrContextNotActive)
}

func TestReference_ByName(t *testing.T) {
	t.Parallel()
	d := container.NewDeployment(container.DefaultConfig())
	d.Add(metadata.Define("x.Greeter").
		Named("greeter").
		Scoped(metadata.Singleton).
		Constructor(metadata.NoArgs(func() any { return &clock{} })).
		Type())
	c, err := d.Deploy(context.Background())
	require.NoError(t, err)

	a, err := c.ReferenceByName(context.Background(), "greeter")
	require.NoError(t, err)
	b, err := c.ReferenceByName(context.Background(), "greeter")
	require.NoError(t, err)
	assert.Same(t, a, b, "singletons are shared")

	_, err = c.ReferenceByName(context.Background(), "nobody")
	assert.ErrorIs(t, err, inject.ErrUnsatisfied)
}

func TestCreate_CircularDependency(t *testing.T) {
	t.Parallel()
	type node struct{ Next any }
	types := func() []*metadata.Type {
		return []*metadata.Type{
			metadata.Define("x.A").Scoped(metadata.Request).
				Constructor(metadata.NoArgs(func() any { return &node{} })).
				Field(metadata.Inject("Next", "x.B", func(target, v any) { target.(*node).Next = v })).Type(),
			metadata.Define("x.B").Scoped(metadata.Request).
				Constructor(metadata.NoArgs(func() any { return &node{} })).
				Field(metadata.Inject("Next", "x.A", func(target, v any) { target.(*node).Next = v })).Type(),
		}
	}

	d := container.NewDeployment(container.DefaultConfig())
	d.Add(types()...)
	c, err := d.Deploy(context.Background())
	require.NoError(t, err)
	ctx := request(t, c, "s1")
	_, err = c.Get(ctx, beanOf(t, c, "x.A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency x.A -> x.B -> x.A")

	// A proxy wrapper on one side breaks the cycle.
	d = container.NewDeployment(container.DefaultConfig())
	d.Add(types()...)
	d.Wrappers.Register("x.B", func(p *interceptor.Proxy) any { return p })
	c, err = d.Deploy(context.Background())
	require.NoError(t, err)
	ctx = request(t, c, "s1")
	a, err := c.Get(ctx, beanOf(t, c, "x.A"))
	require.NoError(t, err)
	next, ok := a.(*node).Next.(*interceptor.Proxy)
	require.True(t, ok)
	b, err := next.Instance(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b.(*node).Next)
}

func TestInject_BuiltinsAndInstance(t *testing.T) {
	t.Parallel()
	type flow struct {
		Conversation *contexts.Conversation
		Container    *container.Container
		Clocks       *inject.Instance
	}
	j := &journal{}
	c := deploy(t, j, func(d *container.Deployment) {
		d.Add(metadata.Define("x.Flow").
			Scoped(metadata.Request).
			Constructor(metadata.NoArgs(func() any { return &flow{} })).
			Field(
				metadata.Inject("Conversation", container.ConversationType, func(target, v any) { target.(*flow).Conversation = v.(*contexts.Conversation) }),
				metadata.Inject("Container", container.ContainerType, func(target, v any) { target.(*flow).Container = v.(*container.Container) }),
				&metadata.Field{Name: "Clocks", Type: metadata.InstanceType, TypeArgs: []string{"shop.Clock"}, Inject: true,
					Set: func(target, v any) { target.(*flow).Clocks = v.(*inject.Instance) }},
			).Type())
	})
	ctx := request(t, c, "s1")

	v, err := c.Get(ctx, beanOf(t, c, "x.Flow"))
	require.NoError(t, err)
	f := v.(*flow)

	conv, err := c.Contexts().CurrentConversation(ctx)
	require.NoError(t, err)
	assert.Same(t, conv, f.Conversation)
	assert.Same(t, c, f.Container)

	require.False(t, f.Clocks.IsUnsatisfied())
	clk, err := f.Clocks.Get(ctx)
	require.NoError(t, err)
	assert.IsType(t, &clock{}, clk)

	// Dependents looked up through the Instance die with the flow.
	require.NoError(t, c.Contexts().StopContext(ctx, metadata.Request, nil))
	assert.Contains(t, j.all(), "clock.stop")

	direct, err := c.Instance("shop.Clock").Get(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &clock{}, direct)
}

// ── passivation ───────────────────────────────────────────────────────────────

func TestPassivation_RoundTrip(t *testing.T) {
	t.Parallel()
	j := &journal{}
	c := deploy(t, j, nil)
	store := passivation.NewMemoryStore()
	ctx := request(t, c, "s1")

	cart := container.MustResolve[*interceptor.Proxy](ctx, c, "shop.Cart")
	for _, item := range []string{"apple", "pear"} {
		_, err := cart.Call(ctx, "add", item)
		require.NoError(t, err)
	}

	require.NoError(t, c.PassivateSession(ctx, "s1", store, time.Hour))
	_, ok := c.Contexts().Session("s1")
	assert.False(t, ok)
	assert.Equal(t, []string{"cart.init", "cart.freeze"}, j.all())

	next, _ := contexts.WithUnit(context.Background())
	require.NoError(t, c.Contexts().StartContext(next, metadata.Request, nil))
	require.NoError(t, c.ActivateSession(next, "s1", store))

	n, err := cart.Call(next, "count")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"cart.init", "cart.freeze", "cart.thaw"}, j.all())

	_, err = store.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, passivation.ErrNotFound)
	assert.ErrorIs(t, c.ActivateSession(next, "s1", store), passivation.ErrNotFound)
}

func TestPassivation_UnknownSession(t *testing.T) {
	t.Parallel()
	c := deploy(t, &journal{}, nil)
	err := c.PassivateSession(context.Background(), "nope", passivation.NewMemoryStore(), 0)
	assert.True(t, errors.Is(err, contexts.ErrContextNotActive))
}

// ── providers ─────────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registered bool
	booted     bool
}

func (p *eagerProvider) Register(d *container.Deployment) error {
	p.registered = true
	d.Add(metadata.Define("p.Greeter").Scoped(metadata.Application).
		Constructor(metadata.NoArgs(func() any { return &clock{} })).Type())
	return nil
}

func (p *eagerProvider) Boot(c *container.Container) error {
	p.booted = true
	_, err := c.Reference(context.Background(), "p.Greeter")
	return err
}

type deferredProvider struct {
	container.BaseProvider
	booted int
}

func (p *deferredProvider) Register(d *container.Deployment) error {
	d.Add(metadata.Define("p.Lazy").Constructor(metadata.NoArgs(func() any { return &clock{} })).Type())
	return nil
}

func (p *deferredProvider) Boot(*container.Container) error {
	p.booted++
	return nil
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"p.Lazy"} }

type failingProvider struct{ container.BaseProvider }

func (p *failingProvider) Register(*container.Deployment) error { return errors.New("no licence") }

func TestProviders(t *testing.T) {
	t.Parallel()
	eager := &eagerProvider{}
	lazy := &deferredProvider{}
	d := container.NewDeployment(container.DefaultConfig())
	d.Register(eager, lazy, eager)
	assert.True(t, eager.registered)

	c, err := d.Deploy(context.Background())
	require.NoError(t, err)
	assert.True(t, eager.booted)
	assert.True(t, c.Providers().Booted())
	assert.Len(t, c.Providers().Providers(), 1)
	assert.False(t, c.Providers().IsBooted(lazy))

	for i := 0; i < 2; i++ {
		_, err = c.Reference(context.Background(), "p.Lazy")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, lazy.booted)
}

func TestProviders_RegisterFailureFailsDeployment(t *testing.T) {
	t.Parallel()
	d := container.NewDeployment(container.DefaultConfig())
	d.Register(&failingProvider{})
	_, err := d.Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no licence")
}

func TestShutdown_PublishesOnce(t *testing.T) {
	t.Parallel()
	bus := events.NewSimpleBus()
	var n int
	bus.Subscribe(events.BeforeShutdown, func(events.Event) { n++ })
	c := deploy(t, &journal{}, nil, container.WithBus(bus))
	c.Shutdown(context.Background())
	c.Shutdown(context.Background())
	assert.Equal(t, 1, n)

	_, err := c.Reference(context.Background(), "shop.Clock")
	assert.ErrorIs(t, err, container.ErrShutdown)
}

func beanOf(t *testing.T, c *container.Container, id string) *bean.Bean {
	t.Helper()
	b, ok := c.Bean(id)
	require.True(t, ok, id)
	return b
}
