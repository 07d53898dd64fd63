package bean

import (
	"errors"

	"github.com/km-arc/go-webbeans/framework/metadata"
)

// AlternativesPolicy answers whether an alternative is switched on for the
// deployment.
type AlternativesPolicy interface {
	IsAlternativeEnabled(class string) bool
	IsStereotypeAlternativeEnabled(stereotype string) bool
}

// Options are fixed for the lifetime of a container.
type Options struct {
	// NoCheckedExceptions rejects lifecycle callbacks that declare
	// checked exceptions.
	NoCheckedExceptions bool
}

// Builder turns metadata types into beans.
type Builder struct {
	universe *metadata.Universe
	scopes   *metadata.ScopeTable
	policy   AlternativesPolicy
	opts     Options
}

// NewBuilder returns a builder reading from universe.
func NewBuilder(universe *metadata.Universe, scopes *metadata.ScopeTable, policy AlternativesPolicy, opts Options) *Builder {
	return &Builder{universe: universe, scopes: scopes, policy: policy, opts: opts}
}

// Options returns the options the builder was created with.
func (b *Builder) Options() Options { return b.opts }

// CheckManagedType reports why t can not be a managed bean, or nil.
func (b *Builder) CheckManagedType(t *metadata.Type) error {
	switch {
	case t.Interface:
		return Configf(t.Name, "", "an interface can not be a managed bean")
	case t.Inner:
		return Configf(t.Name, "", "a non-static inner class can not be a managed bean")
	case t.Extension:
		return Configf(t.Name, "", "an extension can not be a managed bean")
	case t.Interceptor && t.Decorator:
		return Configf(t.Name, "", "a class can not be both an interceptor and a decorator")
	case t.Abstract && !t.Decorator:
		return Configf(t.Name, "", "an abstract class can only be a decorator")
	case t.Specializes && t.Super == "":
		return Configf(t.Name, "", "a specializing class must extend another class")
	}
	if t.Interceptor || t.Decorator {
		for _, m := range t.Methods {
			if m.Has(metadata.AnnProduces) {
				return Configf(t.Name, m.Name, "interceptors and decorators can not declare producer methods")
			}
			if m.HasParamAnnotation(metadata.AnnObserves) {
				return Configf(t.Name, m.Name, "interceptors and decorators can not declare observer methods")
			}
		}
	}
	return nil
}

// Build creates the bean for t. Interceptor and decorator types produce
// beans of the matching kind.
func (b *Builder) Build(t *metadata.Type) (*Bean, error) {
	if err := b.CheckManagedType(t); err != nil {
		return nil, err
	}
	stereotypes := b.universe.Stereotypes(t.Stereotypes)

	bn := &Bean{
		ID:          t.Name,
		Kind:        Managed,
		Type:        t,
		Types:       b.typeClosure(t.Name),
		Stereotypes: t.Stereotypes,
		Specializes: t.Specializes,
	}
	switch {
	case t.Interceptor:
		bn.Kind = Interceptor
	case t.Decorator:
		bn.Kind = Decorator
	}

	scope, err := b.scope(t.Name, "", t.Scope, stereotypes)
	if err != nil {
		return nil, err
	}
	if (t.Interceptor || t.Decorator) && scope != metadata.Dependent {
		return nil, Configf(t.Name, "", "%s must be Dependent scoped, found %s", bn.Kind, scope)
	}
	bn.Scope = scope

	bn.Named, bn.Name = t.Named, t.BeanName
	if !bn.Named {
		bn.Named = stereotypeNamed(stereotypes)
	}
	if bn.Named && bn.Name == "" {
		bn.Name = metadata.DefaultBeanName(t.Name)
	}
	bn.Qualifiers = withDefaults(t.Qualifiers, bn.Name)

	bn.Bindings = append(bn.Bindings, t.Bindings...)
	for _, st := range stereotypes {
		bn.Bindings = append(bn.Bindings, st.Bindings...)
	}

	bn.Alternative = t.Alternative || stereotypeAlternative(stereotypes)
	bn.SetEnabled(!bn.Alternative || b.alternativeEnabled(t.Name, stereotypes))

	if b.scopes.IsPassivating(scope) {
		if !t.Serializable {
			return nil, Configf(t.Name, "", "bean with passivating scope %s must be passivation capable", scope)
		}
	}
	bn.PassivationCapable = t.Serializable

	ctor, err := b.constructor(t)
	if err != nil {
		if t.Abstract {
			return nil, Configf(t.Name, "", "abstract decorator must declare a constructor building its concrete form")
		}
		return nil, err
	}
	bn.Constructor = ctor

	if err := b.checkCallbacks(t, bn.Kind == Interceptor); err != nil {
		return nil, err
	}

	if err := b.injectionPoints(bn); err != nil {
		return nil, err
	}

	switch bn.Kind {
	case Interceptor:
		if len(t.Bindings) == 0 {
			return nil, Configf(t.Name, "", "interceptor declares no interceptor binding")
		}
		bn.Intercepts = b.intercepts(t)
	case Decorator:
		if err := b.decorator(bn); err != nil {
			return nil, err
		}
	}
	return bn, nil
}

// BuildProducers creates a bean for every producer method declared on the
// parent's type.
func (b *Builder) BuildProducers(parent *Bean) ([]*Bean, error) {
	var out []*Bean
	var errs ErrorStack
	for _, m := range parent.Type.Methods {
		if !m.Has(metadata.AnnProduces) {
			continue
		}
		pb, err := b.buildProducer(parent, m)
		if err != nil {
			errs.Push(err)
			continue
		}
		out = append(out, pb)
	}
	return out, errs.Err()
}

func (b *Builder) buildProducer(parent *Bean, m *metadata.Method) (*Bean, error) {
	class := parent.Type.Name
	if m.IsVoid() {
		return nil, Configf(class, m.Name, "producer method can not return void")
	}
	if m.HasParamAnnotation(metadata.AnnDisposes) || m.HasParamAnnotation(metadata.AnnObserves) {
		return nil, Configf(class, m.Name, "producer method can not declare disposer or observer parameters")
	}
	if m.Modifiers.Has(metadata.Static) && m.Has(metadata.AnnSpecializes) {
		return nil, Configf(class, m.Name, "static producer method can not specialize")
	}

	stereotypes := b.universe.Stereotypes(m.Stereotypes)
	scope, err := b.scope(class, m.Name, m.Scope, stereotypes)
	if err != nil {
		return nil, err
	}

	pb := &Bean{
		ID:          class + "#" + m.Signature(),
		Kind:        Producer,
		Type:        parent.Type,
		Types:       b.typeClosure(m.Return),
		Scope:       scope,
		Stereotypes: m.Stereotypes,
		Specializes: m.Has(metadata.AnnSpecializes),
		Method:      m,
		Parent:      parent,
	}
	pb.Named, pb.Name = m.Named, m.BeanName
	if !pb.Named {
		pb.Named = stereotypeNamed(stereotypes)
	}
	if pb.Named && pb.Name == "" {
		pb.Name = metadata.ProducerDefaultName(m.Name)
	}
	pb.Qualifiers = withDefaults(m.Qualifiers, pb.Name)

	pb.Alternative = m.Has(metadata.AnnAlternative) || stereotypeAlternative(stereotypes)
	enabled := parent.Enabled()
	if pb.Alternative {
		enabled = b.alternativeEnabled(class, stereotypes)
	}
	pb.SetEnabled(enabled)

	if rt, ok := b.universe.Type(m.Return); ok {
		pb.PassivationCapable = rt.Serializable
	}
	for i, p := range m.Params {
		pb.InjectionPoints = append(pb.InjectionPoints, paramPoint(pb, m, i, p))
	}
	return pb, nil
}

func (b *Builder) typeClosure(name string) []string {
	types := b.universe.Closure(name)
	return append(types, metadata.ObjectType)
}

func (b *Builder) scope(class, method string, declared metadata.ScopeKind, stereotypes []*metadata.Stereotype) (metadata.ScopeKind, error) {
	scope := declared
	if scope == "" {
		for _, st := range stereotypes {
			if st.Scope == "" {
				continue
			}
			if scope != "" && scope != st.Scope {
				return "", Configf(class, method, "stereotypes declare conflicting scopes %s and %s", scope, st.Scope)
			}
			scope = st.Scope
		}
	}
	if scope == "" {
		scope = metadata.Dependent
	}
	if _, err := b.scopes.Lookup(scope); err != nil {
		return "", &ConfigurationError{Class: class, Method: method, Msg: "invalid scope", Err: err}
	}
	return scope, nil
}

func (b *Builder) alternativeEnabled(class string, stereotypes []*metadata.Stereotype) bool {
	if b.policy == nil {
		return false
	}
	if b.policy.IsAlternativeEnabled(class) {
		return true
	}
	for _, st := range stereotypes {
		if st.Alternative && b.policy.IsStereotypeAlternativeEnabled(st.Name) {
			return true
		}
	}
	return false
}

func (b *Builder) constructor(t *metadata.Type) (*metadata.Constructor, error) {
	var inject *metadata.Constructor
	for _, c := range t.Constructors {
		if !c.Inject {
			continue
		}
		if inject != nil {
			return nil, Configf(t.Name, "", "more than one constructor is marked for injection")
		}
		inject = c
	}
	if inject != nil {
		for _, p := range inject.Params {
			if p.Has(metadata.AnnDisposes) || p.Has(metadata.AnnObserves) {
				return nil, Configf(t.Name, "", "injection constructor can not declare disposer or observer parameters")
			}
		}
		return inject, nil
	}
	if c := t.NoArgConstructor(); c != nil {
		return c, nil
	}
	return nil, Configf(t.Name, "", "no usable constructor: declare a no-argument constructor or mark one for injection")
}

// checkCallbacks validates every interception method declared anywhere in
// t's hierarchy. Each class may declare at most one method per kind.
func (b *Builder) checkCallbacks(t *metadata.Type, interceptor bool) error {
	for _, c := range b.universe.ReverseHierarchy(t.Name) {
		for _, kind := range metadata.InterceptionTypes {
			m, err := DeclaredMethod(c, kind)
			if err != nil {
				return err
			}
			if m == nil {
				continue
			}
			if err := CheckMethod(c.Name, m, kind, interceptor, b.opts.NoCheckedExceptions); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) injectionPoints(bn *Bean) error {
	t := bn.Type
	if bn.Constructor != nil && bn.Constructor.Inject {
		for i, p := range bn.Constructor.Params {
			bn.InjectionPoints = append(bn.InjectionPoints, paramPoint(bn, nil, i, p))
		}
	}
	for _, c := range b.universe.ReverseHierarchy(t.Name) {
		for _, f := range c.Fields {
			if !f.Inject && !f.Delegate {
				continue
			}
			if f.Set == nil {
				return Configf(c.Name, f.Name, "injected field has no setter")
			}
			ip := &InjectionPoint{
				Bean:       bn,
				Type:       f.Type,
				TypeArgs:   f.TypeArgs,
				TypeVars:   f.TypeVars,
				Qualifiers: pointQualifiers(f.Qualifiers),
				Field:      f,
				Index:      -1,
				Delegate:   f.Delegate,
			}
			if f.Delegate {
				if bn.Delegate != nil {
					return Configf(c.Name, f.Name, "decorator declares more than one delegate injection point")
				}
				bn.Delegate = ip
			}
			bn.InjectionPoints = append(bn.InjectionPoints, ip)
		}
		for _, m := range c.Methods {
			if !m.Has(metadata.AnnInject) {
				continue
			}
			if m.Modifiers.Has(metadata.Static) {
				return Configf(c.Name, m.Name, "initializer method can not be static")
			}
			if m.Has(metadata.AnnProduces) || m.HasParamAnnotation(metadata.AnnDisposes) || m.HasParamAnnotation(metadata.AnnObserves) {
				return Configf(c.Name, m.Name, "initializer method can not be a producer, disposer or observer")
			}
			bn.Initializers = append(bn.Initializers, m)
			for i, p := range m.Params {
				bn.InjectionPoints = append(bn.InjectionPoints, paramPoint(bn, m, i, p))
			}
		}
	}
	return nil
}

func (b *Builder) intercepts(t *metadata.Type) []metadata.InterceptionType {
	var out []metadata.InterceptionType
	for _, kind := range metadata.InterceptionTypes {
		for _, c := range b.universe.Hierarchy(t.Name) {
			m, _ := DeclaredMethod(c, kind)
			if m == nil {
				continue
			}
			if kind.IsLifecycle() && len(m.Params) == 0 {
				// The interceptor's own callback, not an interception.
				continue
			}
			out = append(out, kind)
			break
		}
	}
	return out
}

func (b *Builder) decorator(bn *Bean) error {
	if bn.Delegate == nil {
		return Configf(bn.Type.Name, "", "decorator has no delegate injection point")
	}
	for _, n := range b.universe.Closure(bn.Type.Name) {
		if t, ok := b.universe.Type(n); ok && t.Interface {
			bn.Decorated = append(bn.Decorated, n)
		}
	}
	if len(bn.Decorated) == 0 {
		return Configf(bn.Type.Name, "", "decorator implements no decorated interface")
	}
	for _, d := range bn.Decorated {
		if !b.universe.IsAssignable(d, bn.Delegate.Type) {
			return Configf(bn.Type.Name, bn.Delegate.Field.Name, "delegate type %s does not implement decorated type %s", bn.Delegate.Type, d)
		}
	}
	return nil
}

func paramPoint(bn *Bean, m *metadata.Method, i int, p metadata.Param) *InjectionPoint {
	return &InjectionPoint{
		Bean:       bn,
		Type:       p.Type,
		TypeArgs:   p.TypeArgs,
		TypeVars:   p.TypeVars,
		Qualifiers: pointQualifiers(p.Qualifiers),
		Method:     m,
		Index:      i,
	}
}

// pointQualifiers applies the Default qualifier to unqualified points.
func pointQualifiers(qs []metadata.Qualifier) []metadata.Qualifier {
	if len(qs) == 0 {
		return []metadata.Qualifier{metadata.Default()}
	}
	return qs
}

// withDefaults adds Default when the bean declares no qualifier other
// than Named, Any always, and Named when the bean has a name.
func withDefaults(declared []metadata.Qualifier, name string) []metadata.Qualifier {
	out := append([]metadata.Qualifier(nil), declared...)
	explicit := false
	for _, q := range declared {
		if q.Type != metadata.NamedQualifier && q.Type != metadata.AnyQualifier {
			explicit = true
		}
	}
	if !explicit && !metadata.Contains(out, metadata.DefaultQualifier) {
		out = append(out, metadata.Default())
	}
	if !metadata.Contains(out, metadata.AnyQualifier) {
		out = append(out, metadata.Any())
	}
	if name != "" && !metadata.Contains(out, metadata.NamedQualifier) {
		out = append(out, metadata.Named(name))
	}
	return out
}

// Rename replaces the bean name and its Named qualifier.
func Rename(bn *Bean, name string) {
	bn.Name = name
	out := bn.Qualifiers[:0]
	for _, q := range bn.Qualifiers {
		if q.Type != metadata.NamedQualifier {
			out = append(out, q)
		}
	}
	bn.Qualifiers = out
	if name != "" {
		bn.Qualifiers = append(bn.Qualifiers, metadata.Named(name))
	}
}

func stereotypeNamed(sts []*metadata.Stereotype) bool {
	for _, st := range sts {
		if st.Named {
			return true
		}
	}
	return false
}

func stereotypeAlternative(sts []*metadata.Stereotype) bool {
	for _, st := range sts {
		if st.Alternative {
			return true
		}
	}
	return false
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
