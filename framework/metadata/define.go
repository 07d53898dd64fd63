package metadata

// TypeBuilder is the fluent way to describe a type in code.
//
//	t := metadata.Define("shop.CheckoutService").
//	    Scoped(metadata.Request).
//	    Implements("shop.Checkout").
//	    Constructor(metadata.NoArgs(func() any { return &CheckoutService{} })).
//	    Method(metadata.Lifecycle(metadata.PostConstruct, "init", initFn)).
//	    Type()
type TypeBuilder struct {
	t *Type
}

// Define starts describing the named type.
func Define(name string) *TypeBuilder {
	return &TypeBuilder{t: &Type{Name: name}}
}

func (b *TypeBuilder) Extends(super string) *TypeBuilder {
	b.t.Super = super
	return b
}

func (b *TypeBuilder) Implements(ifaces ...string) *TypeBuilder {
	b.t.Interfaces = append(b.t.Interfaces, ifaces...)
	return b
}

func (b *TypeBuilder) Scoped(kind ScopeKind) *TypeBuilder {
	b.t.Scope = kind
	return b
}

func (b *TypeBuilder) Qualified(qs ...Qualifier) *TypeBuilder {
	b.t.Qualifiers = append(b.t.Qualifiers, qs...)
	return b
}

// Named gives the bean an explicit name. An empty name means the default
// name derived from the type.
func (b *TypeBuilder) Named(name string) *TypeBuilder {
	b.t.Named = true
	b.t.BeanName = name
	return b
}

func (b *TypeBuilder) Stereotyped(names ...string) *TypeBuilder {
	b.t.Stereotypes = append(b.t.Stereotypes, names...)
	return b
}

func (b *TypeBuilder) Bound(bindings ...Binding) *TypeBuilder {
	b.t.Bindings = append(b.t.Bindings, bindings...)
	return b
}

func (b *TypeBuilder) Alternative() *TypeBuilder {
	b.t.Alternative = true
	return b
}

func (b *TypeBuilder) Specializes() *TypeBuilder {
	b.t.Specializes = true
	return b
}

func (b *TypeBuilder) Interceptor() *TypeBuilder {
	b.t.Interceptor = true
	return b
}

func (b *TypeBuilder) Decorator() *TypeBuilder {
	b.t.Decorator = true
	return b
}

// Interface marks the type as a contract only. Interfaces are never beans.
func (b *TypeBuilder) Interface() *TypeBuilder {
	b.t.Interface = true
	return b
}

func (b *TypeBuilder) Abstract() *TypeBuilder {
	b.t.Abstract = true
	return b
}

func (b *TypeBuilder) Serializable() *TypeBuilder {
	b.t.Serializable = true
	return b
}

func (b *TypeBuilder) Constructor(cs ...*Constructor) *TypeBuilder {
	b.t.Constructors = append(b.t.Constructors, cs...)
	return b
}

func (b *TypeBuilder) Method(ms ...*Method) *TypeBuilder {
	b.t.Methods = append(b.t.Methods, ms...)
	return b
}

func (b *TypeBuilder) Field(fs ...*Field) *TypeBuilder {
	b.t.Fields = append(b.t.Fields, fs...)
	return b
}

// Type returns the described type.
func (b *TypeBuilder) Type() *Type { return b.t }

// ── Member helpers ──────────────────────────────────────────────────────────

// NoArgs wraps a plain factory as a parameterless constructor.
func NoArgs(fn func() any) *Constructor {
	return &Constructor{New: func([]any) (any, error) { return fn(), nil }}
}

// InjectConstructor declares an injection constructor taking params.
func InjectConstructor(fn func(args []any) (any, error), params ...Param) *Constructor {
	return &Constructor{Params: params, Inject: true, New: fn}
}

// Lifecycle declares a zero-argument void callback for kind.
func Lifecycle(kind InterceptionType, name string, fn func(target any) error) *Method {
	return &Method{
		Name:        name,
		Annotations: []string{kind.Annotation()},
		Invoke: func(target any, _ []any) (any, error) {
			return nil, fn(target)
		},
	}
}

// Around declares an around-invoke style method. fn receives the
// invocation context as its single argument.
func Around(kind InterceptionType, name string, fn Invoker) *Method {
	return &Method{
		Name:        name,
		Params:      []Param{{Type: InvocationContextType}},
		Return:      ObjectType,
		Annotations: []string{kind.Annotation()},
		Invoke:      fn,
	}
}

// Business declares a plain business method.
func Business(name string, fn Invoker, params ...Param) *Method {
	return &Method{Name: name, Params: params, Return: ObjectType, Invoke: fn}
}

// Inject declares an injectable field.
func Inject(name, typ string, set func(target, value any), qs ...Qualifier) *Field {
	return &Field{Name: name, Type: typ, Qualifiers: qs, Inject: true, Set: set}
}

// Produces declares a producer method returning typ. Scope, qualifiers
// and name are set on the returned method.
func Produces(name, typ string, fn Invoker, params ...Param) *Method {
	return &Method{
		Name:        name,
		Params:      params,
		Return:      typ,
		Annotations: []string{AnnProduces},
		Invoke:      fn,
	}
}

// Delegate declares the delegate field of a decorator.
func Delegate(name, typ string, set func(target, value any), qs ...Qualifier) *Field {
	return &Field{Name: name, Type: typ, Qualifiers: qs, Delegate: true, Set: set}
}
