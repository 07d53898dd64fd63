package metadata

import (
	"fmt"
	"sync"
)

// Universe holds every type and stereotype known to a deployment and
// answers hierarchy and assignability questions about them. It is filled
// during discovery and read-only afterwards.
type Universe struct {
	mu          sync.RWMutex
	types       map[string]*Type
	order       []string
	stereotypes map[string]*Stereotype
}

// NewUniverse returns an empty universe.
func NewUniverse() *Universe {
	return &Universe{
		types:       make(map[string]*Type),
		stereotypes: make(map[string]*Stereotype),
	}
}

// Add registers types. Adding a name twice is an error.
func (u *Universe) Add(types ...*Type) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, t := range types {
		if t == nil || t.Name == "" {
			return fmt.Errorf("metadata: type without a name")
		}
		if _, exists := u.types[t.Name]; exists {
			return fmt.Errorf("metadata: type %s is already registered", t.Name)
		}
		for _, m := range t.Methods {
			m.declaring = t.Name
		}
		u.types[t.Name] = t
		u.order = append(u.order, t.Name)
	}
	return nil
}

// AddStereotype registers a stereotype definition.
func (u *Universe) AddStereotype(s *Stereotype) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stereotypes[s.Name] = s
}

// Type returns the named type.
func (u *Universe) Type(name string) (*Type, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	t, ok := u.types[name]
	return t, ok
}

// Types returns all types in registration order.
func (u *Universe) Types() []*Type {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*Type, 0, len(u.order))
	for _, n := range u.order {
		out = append(out, u.types[n])
	}
	return out
}

// Stereotype returns the named stereotype.
func (u *Universe) Stereotype(name string) (*Stereotype, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s, ok := u.stereotypes[name]
	return s, ok
}

// Stereotypes expands names transitively through meta-stereotypes.
func (u *Universe) Stereotypes(names []string) []*Stereotype {
	var out []*Stereotype
	seen := make(map[string]bool)
	var walk func([]string)
	walk = func(ns []string) {
		for _, n := range ns {
			if seen[n] {
				continue
			}
			seen[n] = true
			if s, ok := u.Stereotype(n); ok {
				out = append(out, s)
				walk(s.Stereotypes)
			}
		}
	}
	walk(names)
	return out
}

// Superclass returns the direct superclass of name, if known.
func (u *Universe) Superclass(name string) (*Type, bool) {
	t, ok := u.Type(name)
	if !ok || t.Super == "" {
		return nil, false
	}
	return u.Type(t.Super)
}

// Hierarchy returns name and its known superclasses, most derived first.
func (u *Universe) Hierarchy(name string) []*Type {
	var out []*Type
	seen := make(map[string]bool)
	for n := name; n != "" && !seen[n]; {
		seen[n] = true
		t, ok := u.Type(n)
		if !ok {
			break
		}
		out = append(out, t)
		n = t.Super
	}
	return out
}

// ReverseHierarchy returns the hierarchy with the most basic ancestor first.
func (u *Universe) ReverseHierarchy(name string) []*Type {
	h := u.Hierarchy(name)
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return h
}

// Closure returns name plus every superclass and interface reachable from
// it, including names that are not registered types.
func (u *Universe) Closure(name string) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(n string) {
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
		t, ok := u.Type(n)
		if !ok {
			return
		}
		walk(t.Super)
		for _, i := range t.Interfaces {
			walk(i)
		}
	}
	walk(name)
	return out
}

// IsAssignable reports whether a value of type from can be used where to
// is required.
func (u *Universe) IsAssignable(to, from string) bool {
	if to == from || to == ObjectType {
		return true
	}
	for _, n := range u.Closure(from) {
		if n == to {
			return true
		}
	}
	return false
}
