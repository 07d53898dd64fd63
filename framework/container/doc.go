// Package container deploys type metadata into a running bean container
// and hands out references to contextual instances.
//
// # Overview
//
// A Deployment collects type metadata, interceptor/decorator/alternative
// enablement and service providers. Deploy runs the whole pipeline:
//
//  1. Discover: build a bean for every concrete type
//  2. Producers: build a bean for every producer method
//  3. Specialize: disable specialized beans, inherit names and qualifiers
//  4. Compose: attach interceptor chains and decorators
//  5. Validate: resolve every injection point, check bean names
//
// Every defect found along the way is reported at once in a
// *DeploymentError.
//
// # Container Lifecycle
//
//  1. Create: d := container.NewDeployment(container.DefaultConfig())
//  2. Describe: d.Add(types...); d.Registry.EnableInterceptor(...)
//  3. Extend: d.Register(&MyProvider{})
//  4. Deploy: c, err := d.Deploy(ctx)   eager providers boot here
//  5. Serve requests
//  6. Shut down: c.Shutdown(ctx)
//
// # References
//
//	// Normal-scoped beans come back as client proxies
//	ref, err := c.Reference(ctx, "shop.Cart")
//	total, err := ref.(*interceptor.Proxy).Call(ctx, "total")
//
//	// Generic, no type assertion required
//	cart, err := container.Resolve[*interceptor.Proxy](ctx, c, "shop.Cart")
//
//	// Typed proxies
//	d.Wrappers.Register("shop.Cart", func(p *interceptor.Proxy) any { return &cartProxy{p} })
//
//	// Programmatic lookup
//	carts := c.Instance("shop.Cart", metadata.Q("shop.Premium"))
//
// Request-, session- and conversation-scoped instances live in the
// contexts.Unit carried by ctx; the HTTP middleware attaches one per
// request.
//
// # Service Providers
//
//	type ShopProvider struct{ container.BaseProvider }
//
//	func (p *ShopProvider) Register(d *container.Deployment) error {
//	    d.Add(shop.Types()...)
//	    return d.Registry.EnableInterceptor("shop.Audited")
//	}
//
//	func (p *ShopProvider) Boot(c *container.Container) error {
//	    // safe to take references here
//	    return nil
//	}
//
// # Deferred Providers
//
// A deferred provider still registers its metadata during Deploy, since
// every bean must be validated up front, but its Boot waits until one of
// the types it Provides() is first referenced.
//
// # Passivation
//
//	store := passivation.NewMemoryStore()
//	err := c.PassivateSession(ctx, "s1", store, time.Hour)
//	err = c.ActivateSession(ctx, "s1", store)
package container
