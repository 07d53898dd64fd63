package interceptor

import (
	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/registry"
)

// Composer attaches interceptor chains and decorators to beans.
type Composer struct {
	universe *metadata.Universe
	registry *registry.Registry
	opts     bean.Options
}

// NewComposer returns a composer reading enablement from reg.
func NewComposer(u *metadata.Universe, reg *registry.Registry, opts bean.Options) *Composer {
	return &Composer{universe: u, registry: reg, opts: opts}
}

// Compose fills b.Business, b.Stack and b.Decorators.
//
// For each interception type the chain holds the externally bound
// interceptors in registry order, then the bean's own methods walking the
// hierarchy superclass first. A non-private method overridden further
// down the hierarchy is dropped; a private one stacks.
func (c *Composer) Compose(b *bean.Bean) error {
	b.Stack = bean.Stack{}
	if b.Type == nil || b.Kind == bean.Producer || b.Kind == bean.BuiltIn {
		return nil
	}
	b.Business = c.businessMethods(b.Type.Name)
	if b.Kind != bean.Managed {
		return nil
	}

	for _, kind := range metadata.InterceptionTypes {
		var chain []*bean.InterceptorData

		external, err := c.external(b, kind)
		if err != nil {
			return err
		}
		chain = append(chain, external...)

		self, err := c.methods(b.Type.Name, kind, false)
		if err != nil {
			return err
		}
		for _, m := range self {
			chain = append(chain, &bean.InterceptorData{Kind: kind, Method: m})
		}
		if len(chain) > 0 {
			b.Stack[kind] = chain
		}
	}

	b.Decorators = c.registry.DecoratorsFor(c.universe, b)
	return nil
}

// external collects the chain entries contributed by interceptor classes.
// Class-level bindings apply to every invocation; method-level bindings
// only to the annotated method.
func (c *Composer) external(b *bean.Bean, kind metadata.InterceptionType) ([]*bean.InterceptorData, error) {
	classLevel := c.registry.InterceptorsFor(b.Bindings, kind)
	var out []*bean.InterceptorData

	for _, ib := range c.registry.Interceptors() {
		if contains(classLevel, ib) {
			ms, err := c.methods(ib.Type.Name, kind, true)
			if err != nil {
				return nil, err
			}
			for _, m := range ms {
				out = append(out, &bean.InterceptorData{
					Kind:                      kind,
					Method:                    m,
					Interceptor:               ib,
					DefinedInInterceptorClass: true,
				})
			}
			continue
		}
		if kind.IsLifecycle() {
			continue
		}
		for _, bm := range b.Business {
			if len(bm.Bindings) == 0 {
				continue
			}
			bindings := append(append([]metadata.Binding(nil), b.Bindings...), bm.Bindings...)
			if !contains(c.registry.InterceptorsFor(bindings, kind), ib) {
				continue
			}
			ms, err := c.methods(ib.Type.Name, kind, true)
			if err != nil {
				return nil, err
			}
			for _, m := range ms {
				out = append(out, &bean.InterceptorData{
					Kind:                      kind,
					Method:                    m,
					Interceptor:               ib,
					DefinedInInterceptorClass: true,
					DefinedInMethod:           true,
					AnnotatedMethod:           bm,
				})
			}
		}
	}
	return out, nil
}

// methods walks the hierarchy of class superclass first and returns the
// accepted methods for kind.
func (c *Composer) methods(class string, kind metadata.InterceptionType, external bool) ([]*metadata.Method, error) {
	hierarchy := c.universe.ReverseHierarchy(class)
	var out []*metadata.Method
	for i, t := range hierarchy {
		m, err := bean.DeclaredMethod(t, kind)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		if external && kind.IsLifecycle() && len(m.Params) == 0 {
			// The interceptor's own callback.
			continue
		}
		if err := bean.CheckMethod(t.Name, m, kind, external, c.opts.NoCheckedExceptions); err != nil {
			return nil, err
		}
		if bean.Overridden(m, hierarchy[i+1:]) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// businessMethods lists the plain methods callable on class, most derived
// declaration first.
func (c *Composer) businessMethods(class string) []*metadata.Method {
	var out []*metadata.Method
	seen := make(map[string]bool)
	for _, t := range c.universe.Hierarchy(class) {
		for _, m := range t.Methods {
			if m.Invoke == nil || m.Modifiers.Has(metadata.Static) || m.Modifiers.Has(metadata.Private) || interception(m) {
				continue
			}
			if m.Has(metadata.AnnProduces) || m.Has(metadata.AnnInject) {
				continue
			}
			if seen[m.Signature()] {
				continue
			}
			seen[m.Signature()] = true
			out = append(out, m)
		}
	}
	return out
}

func interception(m *metadata.Method) bool {
	for _, kind := range metadata.InterceptionTypes {
		if m.Has(kind.Annotation()) {
			return true
		}
	}
	return false
}

func contains(beans []*bean.Bean, b *bean.Bean) bool {
	for _, x := range beans {
		if x == b {
			return true
		}
	}
	return false
}
