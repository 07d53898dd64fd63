package bean

import (
	"fmt"

	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Kind tells what sort of declaration produced a bean.
type Kind int

const (
	Managed Kind = iota
	Producer
	Interceptor
	Decorator
	BuiltIn
)

func (k Kind) String() string {
	switch k {
	case Managed:
		return "managed"
	case Producer:
		return "producer"
	case Interceptor:
		return "interceptor"
	case Decorator:
		return "decorator"
	case BuiltIn:
		return "built-in"
	default:
		return "unknown"
	}
}

// Bean is the runtime record of a resolvable component.
//
// Beans are created during discovery. Only the specialization pass flips
// the enabled and specialized flags, and only the stack composer fills
// Stack and Decorators. After deployment validation a Bean is read-only.
type Bean struct {
	ID   string
	Kind Kind
	// Type is the implementation type, or the declaring type of a producer.
	Type *metadata.Type

	Types       []string
	Scope       metadata.ScopeKind
	Qualifiers  []metadata.Qualifier
	Name        string
	Named       bool
	Stereotypes []string
	Bindings    []metadata.Binding

	Alternative        bool
	Specializes        bool
	PassivationCapable bool

	Constructor     *metadata.Constructor
	Initializers    []*metadata.Method
	InjectionPoints []*InjectionPoint

	// Producer beans.
	Method *metadata.Method
	Parent *Bean

	// Interceptor beans.
	Intercepts []metadata.InterceptionType

	// Decorator beans.
	Delegate  *InjectionPoint
	Decorated []string

	// Business lists the invocable methods across the hierarchy, most
	// derived declaration first. Filled by the stack composer.
	Business   []*metadata.Method
	Stack      Stack
	Decorators []*Bean

	enabled     bool
	specialized bool
}

// Enabled reports whether the bean takes part in resolution.
func (b *Bean) Enabled() bool { return b.enabled }

func (b *Bean) SetEnabled(enabled bool) { b.enabled = enabled }

// Specialized reports whether the specialization pass already handled
// this bean.
func (b *Bean) Specialized() bool { return b.specialized }

func (b *Bean) SetSpecialized(specialized bool) { b.specialized = specialized }

// ReturnType is the implementation type name, or the produced type for a
// producer bean.
func (b *Bean) ReturnType() string {
	if b.Kind == Producer && b.Method != nil {
		return b.Method.Return
	}
	if b.Type == nil {
		return ""
	}
	return b.Type.Name
}

// HasType reports whether the bean exposes typ.
func (b *Bean) HasType(typ string) bool {
	for _, t := range b.Types {
		if t == typ {
			return true
		}
	}
	return false
}

// BusinessMethod returns the business method called name taking nargs
// arguments, or nil.
func (b *Bean) BusinessMethod(name string, nargs int) *metadata.Method {
	for _, m := range b.Business {
		if m.Name == name && len(m.Params) == nargs {
			return m
		}
	}
	return nil
}

// Intercepted reports whether invocations must go through a chain.
func (b *Bean) Intercepted() bool {
	return !b.Stack.Empty() || len(b.Decorators) > 0
}

func (b *Bean) String() string {
	name := ""
	if b.Name != "" {
		name = fmt.Sprintf(" name=%q", b.Name)
	}
	return fmt.Sprintf("%s bean %s [%s]%s", b.Kind, b.ID, b.Scope, name)
}

// InjectionPoint is one dependency a bean declares.
type InjectionPoint struct {
	Bean       *Bean
	Type       string
	TypeArgs   []string
	TypeVars   []string
	Qualifiers []metadata.Qualifier

	// Field is set for field injection. Otherwise Method (nil for the
	// constructor) and Index name the parameter.
	Field  *metadata.Field
	Method *metadata.Method
	Index  int

	Delegate bool
}

// Deferred reports whether the point wraps a lookup resolved on first use.
func (ip *InjectionPoint) Deferred() bool {
	return ip.Type == metadata.InstanceType || ip.Type == metadata.ProviderType
}

func (ip *InjectionPoint) String() string {
	owner := ""
	if ip.Bean != nil {
		owner = ip.Bean.ID
	}
	switch {
	case ip.Field != nil:
		return fmt.Sprintf("%s.%s %s", owner, ip.Field.Name, ip.Type)
	case ip.Method != nil:
		return fmt.Sprintf("%s.%s param %d %s", owner, ip.Method.Name, ip.Index, ip.Type)
	default:
		return fmt.Sprintf("%s constructor param %d %s", owner, ip.Index, ip.Type)
	}
}
