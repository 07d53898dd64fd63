package metadata

import "strings"

// ── Modifiers & annotations ─────────────────────────────────────────────────

// Modifier is a bit set of declaration modifiers.
type Modifier uint8

const (
	Private Modifier = 1 << iota
	Static
	Final
	Abstract
)

func (m Modifier) Has(x Modifier) bool { return m&x != 0 }

// Annotation names understood by the builder and composer.
const (
	AnnInject        = "Inject"
	AnnProduces      = "Produces"
	AnnDisposes      = "Disposes"
	AnnObserves      = "Observes"
	AnnSpecializes   = "Specializes"
	AnnAlternative   = "Alternative"
	AnnPostConstruct = "PostConstruct"
	AnnPreDestroy    = "PreDestroy"
	AnnAroundInvoke  = "AroundInvoke"
	AnnAroundTimeout = "AroundTimeout"
	AnnPrePassivate  = "PrePassivate"
	AnnPostActivate  = "PostActivate"
)

// Well-known type names.
const (
	ObjectType            = "any"
	InvocationContextType = "InvocationContext"
	InstanceType          = "Instance"
	ProviderType          = "Provider"
)

// ── Interception types ──────────────────────────────────────────────────────

// InterceptionType is the lifecycle event an interceptor method handles.
type InterceptionType int

const (
	AroundInvoke InterceptionType = iota
	AroundTimeout
	PostConstruct
	PreDestroy
	PrePassivate
	PostActivate
)

// InterceptionTypes lists every interception type in declaration order.
var InterceptionTypes = []InterceptionType{
	AroundInvoke, AroundTimeout, PostConstruct, PreDestroy, PrePassivate, PostActivate,
}

func (t InterceptionType) String() string {
	switch t {
	case AroundInvoke:
		return "AroundInvoke"
	case AroundTimeout:
		return "AroundTimeout"
	case PostConstruct:
		return "PostConstruct"
	case PreDestroy:
		return "PreDestroy"
	case PrePassivate:
		return "PrePassivate"
	case PostActivate:
		return "PostActivate"
	default:
		return "Unknown"
	}
}

// Annotation returns the method annotation that marks this interception type.
func (t InterceptionType) Annotation() string { return t.String() }

// IsLifecycle reports whether t is a lifecycle callback rather than an
// around-invoke style interception.
func (t InterceptionType) IsLifecycle() bool {
	return t != AroundInvoke && t != AroundTimeout
}

// ── Members ─────────────────────────────────────────────────────────────────

// Invoker calls a method on target. It is the precomputed replacement for
// reflective invocation.
type Invoker func(target any, args []any) (any, error)

// Exception is a declared thrown type.
type Exception struct {
	Type    string
	Checked bool
}

// Param is a constructor or method parameter.
type Param struct {
	Type     string
	TypeArgs []string
	// TypeVars lists the entries of TypeArgs that are type parameters
	// of the declaring type or method.
	TypeVars    []string
	Qualifiers  []Qualifier
	Annotations []string
}

func (p Param) Has(annotation string) bool { return hasString(p.Annotations, annotation) }

// Method describes a method declared directly on a type.
type Method struct {
	Name        string
	Params      []Param
	Return      string // empty for void
	Modifiers   Modifier
	Annotations []string
	Throws      []Exception

	// Bindings are method-level interceptor bindings.
	Bindings []Binding

	// Producer metadata, only read when the method is annotated Produces.
	Qualifiers  []Qualifier
	Scope       ScopeKind
	BeanName    string
	Named       bool
	Stereotypes []string

	Invoke Invoker

	declaring string
}

// DeclaringType is the name of the type the method was added to.
func (m *Method) DeclaringType() string { return m.declaring }

func (m *Method) Has(annotation string) bool { return hasString(m.Annotations, annotation) }

// IsVoid reports whether the method returns nothing.
func (m *Method) IsVoid() bool { return m.Return == "" }

// ParamTypes returns the parameter type names.
func (m *Method) ParamTypes() []string {
	out := make([]string, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Type
	}
	return out
}

// Signature is name(type,type).
func (m *Method) Signature() string {
	return m.Name + "(" + strings.Join(m.ParamTypes(), ",") + ")"
}

// SameSignature reports whether both methods share name and parameter types.
func (m *Method) SameSignature(o *Method) bool { return m.Signature() == o.Signature() }

// HasCheckedException reports whether the method declares a checked exception.
func (m *Method) HasCheckedException() bool {
	for _, e := range m.Throws {
		if e.Checked {
			return true
		}
	}
	return false
}

// HasParamAnnotation reports whether any parameter carries annotation.
func (m *Method) HasParamAnnotation(annotation string) bool {
	for _, p := range m.Params {
		if p.Has(annotation) {
			return true
		}
	}
	return false
}

// Constructor describes a way to build an instance.
type Constructor struct {
	Params []Param
	Inject bool
	New    func(args []any) (any, error)
}

// Field is an injectable field.
type Field struct {
	Name       string
	Type       string
	TypeArgs   []string
	TypeVars   []string
	Qualifiers []Qualifier
	Inject     bool
	Delegate   bool
	Set        func(target, value any)
}

// ── Types ───────────────────────────────────────────────────────────────────

// Type is the immutable description of a declared type: what the
// discovery pass extracted from it.
type Type struct {
	Name       string
	Super      string
	Interfaces []string

	Abstract  bool
	Interface bool
	// Inner marks a non-static nested type.
	Inner bool

	Scope       ScopeKind
	Qualifiers  []Qualifier
	BeanName    string
	Named       bool
	Stereotypes []string
	Bindings    []Binding

	Alternative  bool
	Specializes  bool
	Interceptor  bool
	Decorator    bool
	Extension    bool
	Serializable bool

	Constructors []*Constructor
	Methods      []*Method
	Fields       []*Field
}

// SimpleName is the part after the last dot.
func (t *Type) SimpleName() string {
	if i := strings.LastIndex(t.Name, "."); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Method returns the declared method with the given name and parameter
// types, or nil.
func (t *Type) Method(name string, params ...string) *Method {
	want := name + "(" + strings.Join(params, ",") + ")"
	for _, m := range t.Methods {
		if m.Signature() == want {
			return m
		}
	}
	return nil
}

// MethodsNamed returns every declared method called name.
func (t *Type) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range t.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// NoArgConstructor returns the parameterless constructor, if declared.
func (t *Type) NoArgConstructor() *Constructor {
	for _, c := range t.Constructors {
		if len(c.Params) == 0 {
			return c
		}
	}
	return nil
}

// Stereotype is a named bundle of bean metadata.
type Stereotype struct {
	Name        string
	Scope       ScopeKind
	Alternative bool
	Named       bool
	Bindings    []Binding
	Stereotypes []string
}

func hasString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
