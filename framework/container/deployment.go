package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/events"
	"github.com/km-arc/go-webbeans/framework/interceptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/registry"
	"github.com/km-arc/go-webbeans/framework/specialization"
)

// ── Configuration ─────────────────────────────────────────────────────────────

// Config holds the container settings that are fixed for its lifetime.
type Config struct {
	// NoCheckedExceptions rejects lifecycle callbacks that declare a
	// checked exception.
	NoCheckedExceptions bool

	SupportsConversation bool
	ConversationTimeout  time.Duration
	// RetainLongRunning keeps long-running conversations across requests.
	RetainLongRunning bool

	// Scopes declares additional scopes beside the built-in ones.
	Scopes []metadata.ScopeDef
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		NoCheckedExceptions:  true,
		SupportsConversation: true,
		ConversationTimeout:  30 * time.Minute,
	}
}

// Option customises a Deployment.
type Option func(*Deployment)

// WithLogger sets the logger of the deployment and of the container it
// produces.
func WithLogger(log *zap.Logger) Option {
	return func(d *Deployment) { d.log = log }
}

// WithBus sets the bus lifecycle notifications are published on.
func WithBus(bus events.Bus) Option {
	return func(d *Deployment) { d.bus = bus }
}

// WithProxies replaces the default proxy factory.
func WithProxies(f interceptor.ProxyFactory) Option {
	return func(d *Deployment) { d.proxies = f }
}

// ── Deployment ────────────────────────────────────────────────────────────────

// Deployment gathers everything the container is built from: type
// metadata, enablement, and service providers. It is filled during
// bootstrap and consumed once by Deploy.
//
//	d := container.NewDeployment(container.DefaultConfig())
//	d.Add(cartType, checkoutType)
//	d.Registry.EnableInterceptor("shop.Audited")
//	c, err := d.Deploy(ctx)
type Deployment struct {
	Universe *metadata.Universe
	Registry *registry.Registry
	Wrappers *interceptor.Factory

	config    Config
	scopes    *metadata.ScopeTable
	log       *zap.Logger
	bus       events.Bus
	proxies   interceptor.ProxyFactory
	providers *ProviderRegistry

	errs     bean.ErrorStack
	deployed bool
}

// NewDeployment returns an empty deployment. Invalid extra scopes are
// reported by Deploy.
func NewDeployment(cfg Config, opts ...Option) *Deployment {
	d := &Deployment{
		Universe: metadata.NewUniverse(),
		Registry: registry.New(),
		Wrappers: interceptor.NewFactory(),
		config:   cfg,
		log:      zap.NewNop(),
		bus:      events.Nop{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.proxies == nil {
		d.proxies = d.Wrappers
	}
	d.providers = newProviderRegistry(d)

	scopes, err := metadata.NewScopeTable(cfg.Scopes...)
	if err != nil {
		d.errs.Push(err)
		scopes = metadata.DefaultScopes()
	}
	d.scopes = scopes
	return d
}

// Config returns the settings the deployment was created with.
func (d *Deployment) Config() Config { return d.config }

// Scopes is the scope table beans are validated against.
func (d *Deployment) Scopes() *metadata.ScopeTable { return d.scopes }

// Logger is the deployment logger.
func (d *Deployment) Logger() *zap.Logger { return d.log }

// Add registers type metadata. Duplicate names are reported by Deploy.
func (d *Deployment) Add(types ...*metadata.Type) {
	if err := d.Universe.Add(types...); err != nil {
		d.errs.Push(err)
	}
}

// AddStereotype registers a stereotype.
func (d *Deployment) AddStereotype(st *metadata.Stereotype) { d.Universe.AddStereotype(st) }

// Register adds service providers. Eager providers contribute to the
// deployment right away; deferred ones when Deploy runs.
func (d *Deployment) Register(providers ...ServiceProvider) {
	for _, p := range providers {
		if err := d.providers.Register(p); err != nil {
			d.errs.Push(err)
		}
	}
}

// Providers is the provider registry of this deployment.
func (d *Deployment) Providers() *ProviderRegistry { return d.providers }

// ── Pipeline ──────────────────────────────────────────────────────────────────

// Deploy runs discovery and validation and returns a running container.
//
// Every step runs even after an earlier one failed, so one deployment
// reports every defect at once as a *DeploymentError.
func (d *Deployment) Deploy(ctx context.Context) (*Container, error) {
	if d.deployed {
		return nil, errors.New("container: deployment already ran")
	}
	d.deployed = true

	if err := d.providers.registerDeferred(); err != nil {
		d.errs.Push(err)
	}

	opts := bean.Options{NoCheckedExceptions: d.config.NoCheckedExceptions}
	builder := bean.NewBuilder(d.Universe, d.scopes, d.Registry, opts)

	beans := d.discover(builder)
	d.errs.Push(d.Registry.Validate())

	producers := d.producers(builder, beans)
	beans = append(beans, producers...)

	if err := specialization.NewResolver(d.Universe).Resolve(beans); err != nil {
		d.errs.Push(err)
	}

	composer := interceptor.NewComposer(d.Universe, d.Registry, opts)
	for _, b := range beans {
		if err := composer.Compose(b); err != nil {
			d.errs.Push(fmt.Errorf("composing %s: %w", b.ID, err))
		}
	}

	c := newContainer(d, beans)
	d.validate(c)

	if d.errs.HasErrors() {
		errs := d.errs.Errors()
		for _, err := range errs {
			d.log.Error("deployment error", zap.Error(err))
		}
		return nil, &DeploymentError{Errs: errs}
	}

	if err := c.start(ctx); err != nil {
		return nil, err
	}
	d.bus.Publish(events.AfterDeploymentValidation, c)
	if err := d.providers.boot(c); err != nil {
		return nil, err
	}
	d.log.Info("container deployed", zap.Int("beans", len(c.beans)))
	return c, nil
}

// discover builds a bean for every concrete type and every decorator.
// Interfaces, other abstract types and extensions are skipped.
func (d *Deployment) discover(builder *bean.Builder) []*bean.Bean {
	var beans []*bean.Bean
	for _, t := range d.Universe.Types() {
		if t.Interface || t.Extension || t.Inner || (t.Abstract && !t.Decorator) {
			continue
		}
		b, err := builder.Build(t)
		if err != nil {
			d.errs.Push(err)
			continue
		}
		switch b.Kind {
		case bean.Interceptor:
			if !d.Registry.IsInterceptorEnabled(t.Name) {
				continue
			}
			d.Registry.Add(b)
		case bean.Decorator:
			if !d.Registry.IsDecoratorEnabled(t.Name) {
				continue
			}
			d.Registry.Add(b)
		}
		d.bus.Publish(events.BeanDiscovered, b)
		beans = append(beans, b)
	}
	return beans
}

func (d *Deployment) producers(builder *bean.Builder, beans []*bean.Bean) []*bean.Bean {
	var out []*bean.Bean
	for _, b := range beans {
		if b.Kind != bean.Managed {
			continue
		}
		ps, err := builder.BuildProducers(b)
		d.errs.Push(err)
		for _, p := range ps {
			d.bus.Publish(events.BeanDiscovered, p)
		}
		out = append(out, ps...)
	}
	return out
}

// validate resolves every injection point of every enabled bean and
// checks that bean names are unique.
func (d *Deployment) validate(c *Container) {
	names := make(map[string]bool)
	for _, b := range c.beans {
		if !b.Enabled() {
			continue
		}
		for _, ip := range b.InjectionPoints {
			if ip.Delegate {
				continue
			}
			target, err := c.resolver.ResolvePoint(ip)
			if err != nil {
				d.errs.Push(err)
				continue
			}
			if target != nil {
				d.checkPassivating(b, ip, target)
			}
		}
		if b.Name != "" && !names[b.Name] {
			names[b.Name] = true
			if _, err := c.resolver.ResolveByName(b.Name); err != nil {
				d.errs.Push(err)
			}
		}
	}
}

// checkPassivating rejects a passivating-scoped bean that depends on a
// Dependent bean which can not be passivated with it.
func (d *Deployment) checkPassivating(owner *bean.Bean, ip *bean.InjectionPoint, target *bean.Bean) {
	if !d.scopes.IsPassivating(owner.Scope) {
		return
	}
	if target.Scope == metadata.Dependent && !target.PassivationCapable && target.Kind != bean.BuiltIn {
		d.errs.Push(bean.Configf(owner.ID, "", "passivating bean injects non passivation capable dependent %s at %s", target.ID, ip))
	}
}

func (d *Deployment) contextsOptions() contexts.Options {
	return contexts.Options{
		Scopes:               d.scopes,
		Bus:                  d.bus,
		Logger:               d.log,
		SupportsConversation: d.config.SupportsConversation,
		ConversationTimeout:  d.config.ConversationTimeout,
		RetainLongRunning:    d.config.RetainLongRunning,
	}
}
