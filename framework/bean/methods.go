package bean

import (
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// DeclaredMethod returns the single method declared directly on t that
// carries the annotation for kind, or nil. Two such methods on one class
// is a configuration error.
func DeclaredMethod(t *metadata.Type, kind metadata.InterceptionType) (*metadata.Method, error) {
	var found *metadata.Method
	for _, m := range t.Methods {
		if !m.Has(kind.Annotation()) {
			continue
		}
		if found != nil {
			return nil, Configf(t.Name, m.Name, "%s method already defined as %s", kind, found.Name)
		}
		found = m
	}
	return found, nil
}

// CheckMethod validates the shape of an interception method. external is
// set when the method lives on an interceptor class rather than on the
// bean it applies to.
func CheckMethod(class string, m *metadata.Method, kind metadata.InterceptionType, external, noCheckedExceptions bool) error {
	if kind.IsLifecycle() {
		return checkLifecycle(class, m, kind, external, noCheckedExceptions)
	}
	return checkAround(class, m, kind)
}

func checkLifecycle(class string, m *metadata.Method, kind metadata.InterceptionType, external, noCheckedExceptions bool) error {
	switch len(m.Params) {
	case 0:
	case 1:
		if !external || m.Params[0].Type != metadata.InvocationContextType {
			return Configf(class, m.Name, "%s method may only take an %s parameter when declared on an interceptor", kind, metadata.InvocationContextType)
		}
	default:
		return Configf(class, m.Name, "%s method has %d parameters", kind, len(m.Params))
	}
	if !m.IsVoid() {
		return Configf(class, m.Name, "%s method must return void", kind)
	}
	if m.Modifiers.Has(metadata.Static) {
		return Configf(class, m.Name, "%s method can not be static", kind)
	}
	if noCheckedExceptions && m.HasCheckedException() {
		return Configf(class, m.Name, "%s method can not throw checked exceptions", kind)
	}
	return nil
}

func checkAround(class string, m *metadata.Method, kind metadata.InterceptionType) error {
	if len(m.Params) != 1 || m.Params[0].Type != metadata.InvocationContextType {
		return Configf(class, m.Name, "%s method must take exactly one %s parameter", kind, metadata.InvocationContextType)
	}
	if m.IsVoid() {
		return Configf(class, m.Name, "%s method must return a value", kind)
	}
	if m.Modifiers.Has(metadata.Static) || m.Modifiers.Has(metadata.Final) {
		return Configf(class, m.Name, "%s method can not be static or final", kind)
	}
	return nil
}

// Overridden reports whether m, declared on an ancestor, is overridden by
// a non-private method of the same signature in any of the more derived
// types. Private methods never override nor get overridden.
func Overridden(m *metadata.Method, derived []*metadata.Type) bool {
	if m.Modifiers.Has(metadata.Private) {
		return false
	}
	for _, t := range derived {
		o := t.Method(m.Name, m.ParamTypes()...)
		if o != nil && !o.Modifiers.Has(metadata.Private) {
			return true
		}
	}
	return false
}
