package container

import (
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider is an extension of the deployment. Register contributes
// type metadata and enablement before discovery; Boot runs once the
// container is deployed and validated, so it may take references.
//
//	type ShopProvider struct{ container.BaseProvider }
//
//	func (p *ShopProvider) Register(d *container.Deployment) error {
//	    d.Add(shop.CartType(), shop.CheckoutType())
//	    return d.Registry.EnableInterceptor("shop.Audited")
//	}
//
//	func (p *ShopProvider) Boot(c *container.Container) error {
//	    c.Logger().Info("shop ready")
//	    return nil
//	}
type ServiceProvider interface {
	// Register contributes to the deployment. Do not take references here.
	Register(d *Deployment) error

	// Boot is called after deployment validation.
	Boot(c *Container) error

	// Provides lists the contract types this provider contributes. Used
	// for deferred booting.
	Provides() []string

	// IsDeferred reports whether Boot waits until one of the Provides()
	// types is first referenced.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op implementations of
// Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(d *container.Deployment) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of providers,
// including deferred ones.
type ProviderRegistry struct {
	mu         sync.Mutex
	deployment *Deployment
	eager      []ServiceProvider
	pending    []ServiceProvider
	deferred   map[string]ServiceProvider // type → provider
	registered map[ServiceProvider]bool
	booted     map[ServiceProvider]bool
	ready      bool
}

func newProviderRegistry(d *Deployment) *ProviderRegistry {
	return &ProviderRegistry{
		deployment: d,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
		booted:     make(map[ServiceProvider]bool),
	}
}

// Register adds a provider. Eager providers register with the deployment
// immediately; deferred ones when the deployment runs.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, typ := range provider.Provides() {
			r.deferred[typ] = provider
		}
		r.pending = append(r.pending, provider)
		r.mu.Unlock()
		return nil
	}
	r.eager = append(r.eager, provider)
	r.mu.Unlock()

	if err := provider.Register(r.deployment); err != nil {
		return fmt.Errorf("provider %T: %w", provider, err)
	}
	return nil
}

// registerDeferred lets deferred providers contribute their metadata.
// Every type must be known before validation even if booting waits.
func (r *ProviderRegistry) registerDeferred() error {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, p := range pending {
		if err := p.Register(r.deployment); err != nil {
			return fmt.Errorf("provider %T: %w", p, err)
		}
	}
	return nil
}

// boot calls Boot() on every eager provider.
func (r *ProviderRegistry) boot(c *Container) error {
	r.mu.Lock()
	r.ready = true
	eager := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()
	for _, p := range eager {
		if err := r.bootOne(c, p); err != nil {
			return err
		}
	}
	return nil
}

// bootFor boots the deferred provider of typ, once.
func (r *ProviderRegistry) bootFor(c *Container, typ string) error {
	r.mu.Lock()
	p, ok := r.deferred[typ]
	ready := r.ready
	r.mu.Unlock()
	if !ok || !ready {
		return nil
	}
	return r.bootOne(c, p)
}

func (r *ProviderRegistry) bootOne(c *Container, p ServiceProvider) error {
	r.mu.Lock()
	if r.booted[p] {
		r.mu.Unlock()
		return nil
	}
	r.booted[p] = true
	r.mu.Unlock()
	if err := p.Boot(c); err != nil {
		return fmt.Errorf("booting provider %T: %w", p, err)
	}
	return nil
}

// Booted reports whether the container has booted the eager providers.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// IsBooted reports whether p has run its Boot().
func (r *ProviderRegistry) IsBooted(p ServiceProvider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted[p]
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
