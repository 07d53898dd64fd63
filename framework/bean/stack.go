package bean

import (
	"fmt"

	"github.com/km-arc/go-webbeans/framework/metadata"
)

// InterceptorData is one entry of a composed chain.
type InterceptorData struct {
	Kind   metadata.InterceptionType
	Method *metadata.Method

	// Interceptor is the declaring interceptor bean, nil when the bean
	// intercepts itself.
	Interceptor *Bean

	DefinedInInterceptorClass bool
	// DefinedInMethod marks entries contributed by a method-level binding;
	// AnnotatedMethod is the business method they apply to.
	DefinedInMethod bool
	AnnotatedMethod *metadata.Method
}

// Self reports whether the entry is a method on the bean itself.
func (d *InterceptorData) Self() bool { return d.Interceptor == nil }

func (d *InterceptorData) String() string {
	owner := "self"
	if d.Interceptor != nil {
		owner = d.Interceptor.ID
	}
	s := fmt.Sprintf("%s %s.%s (%s)", d.Kind, d.Method.DeclaringType(), d.Method.Name, owner)
	if d.DefinedInMethod && d.AnnotatedMethod != nil {
		s += " on " + d.AnnotatedMethod.Signature()
	}
	return s
}

// Stack holds the ordered chain for each interception type, outermost
// first.
type Stack map[metadata.InterceptionType][]*InterceptorData

// For returns the chain that applies to an invocation of method. Lifecycle
// kinds ignore method.
func (s Stack) For(kind metadata.InterceptionType, method *metadata.Method) []*InterceptorData {
	var out []*InterceptorData
	for _, d := range s[kind] {
		if d.DefinedInMethod && (method == nil || d.AnnotatedMethod != method) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Empty reports whether no kind has any entry.
func (s Stack) Empty() bool {
	for _, ds := range s {
		if len(ds) > 0 {
			return false
		}
	}
	return true
}
