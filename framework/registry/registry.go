package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Registry tracks which interceptors, decorators and alternatives a
// deployment enables and in what order interceptors and decorators run.
//
// It is written during discovery and only read afterwards.
type Registry struct {
	mu sync.RWMutex

	interceptorOrder []string
	decoratorOrder   []string

	alternatives           map[string]bool
	alternativeStereotypes map[string]bool

	interceptors []*bean.Bean
	decorators   []*bean.Bean
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		alternatives:           make(map[string]bool),
		alternativeStereotypes: make(map[string]bool),
	}
}

// ── Enablement ──────────────────────────────────────────────────────────────

// EnableInterceptor appends class to the interceptor order. Listing a
// class twice is an error.
func (r *Registry) EnableInterceptor(class string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.interceptorOrder, class) >= 0 {
		return fmt.Errorf("registry: interceptor %s is already enabled", class)
	}
	r.interceptorOrder = append(r.interceptorOrder, class)
	return nil
}

// EnableDecorator appends class to the decorator order.
func (r *Registry) EnableDecorator(class string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.decoratorOrder, class) >= 0 {
		return fmt.Errorf("registry: decorator %s is already enabled", class)
	}
	r.decoratorOrder = append(r.decoratorOrder, class)
	return nil
}

// EnableAlternative switches on an alternative class.
func (r *Registry) EnableAlternative(class string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.alternatives[class] {
		return fmt.Errorf("registry: alternative %s is already enabled", class)
	}
	r.alternatives[class] = true
	return nil
}

// EnableAlternativeStereotype switches on every alternative carrying the
// stereotype.
func (r *Registry) EnableAlternativeStereotype(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.alternativeStereotypes[name] {
		return fmt.Errorf("registry: alternative stereotype %s is already enabled", name)
	}
	r.alternativeStereotypes[name] = true
	return nil
}

func (r *Registry) IsInterceptorEnabled(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return indexOf(r.interceptorOrder, class) >= 0
}

func (r *Registry) IsDecoratorEnabled(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return indexOf(r.decoratorOrder, class) >= 0
}

// IsAlternativeEnabled implements bean.AlternativesPolicy.
func (r *Registry) IsAlternativeEnabled(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alternatives[class]
}

// IsStereotypeAlternativeEnabled implements bean.AlternativesPolicy.
func (r *Registry) IsStereotypeAlternativeEnabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alternativeStereotypes[name]
}

// InterceptorOrder returns the enabled interceptor classes in order.
func (r *Registry) InterceptorOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.interceptorOrder...)
}

// DecoratorOrder returns the enabled decorator classes in order.
func (r *Registry) DecoratorOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.decoratorOrder...)
}

// Alternatives returns the enabled alternative classes and stereotypes.
func (r *Registry) Alternatives() (classes, stereotypes []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.alternatives {
		classes = append(classes, c)
	}
	for s := range r.alternativeStereotypes {
		stereotypes = append(stereotypes, s)
	}
	sort.Strings(classes)
	sort.Strings(stereotypes)
	return classes, stereotypes
}

// ── Interceptor and decorator beans ────────────────────────────────────────

// Add records an interceptor or decorator bean. Beans of other kinds are
// ignored.
func (r *Registry) Add(b *bean.Bean) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch b.Kind {
	case bean.Interceptor:
		r.interceptors = append(r.interceptors, b)
	case bean.Decorator:
		r.decorators = append(r.decorators, b)
	}
}

// Validate checks that every enabled class has a matching bean.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs bean.ErrorStack
	for _, class := range r.interceptorOrder {
		if find(r.interceptors, class) == nil {
			errs.Push(bean.Configf(class, "", "enabled interceptor is not an interceptor bean"))
		}
	}
	for _, class := range r.decoratorOrder {
		if find(r.decorators, class) == nil {
			errs.Push(bean.Configf(class, "", "enabled decorator is not a decorator bean"))
		}
	}
	return errs.Err()
}

// Interceptors returns the enabled interceptor beans in their declared
// order.
func (r *Registry) Interceptors() []*bean.Bean {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ordered(r.interceptors, r.interceptorOrder)
}

// Decorators returns the enabled decorator beans in their declared order.
func (r *Registry) Decorators() []*bean.Bean {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ordered(r.decorators, r.decoratorOrder)
}

// InterceptorsFor returns, in order, the enabled interceptors that handle
// kind and whose every binding is present in bindings.
func (r *Registry) InterceptorsFor(bindings []metadata.Binding, kind metadata.InterceptionType) []*bean.Bean {
	if len(bindings) == 0 {
		return nil
	}
	var out []*bean.Bean
	for _, ib := range r.Interceptors() {
		if !handles(ib, kind) {
			continue
		}
		if metadata.ContainsAll(bindings, ib.Type.Bindings) {
			out = append(out, ib)
		}
	}
	return out
}

// DecoratorsFor returns, in order, the enabled decorators whose delegate
// type and qualifiers match b.
func (r *Registry) DecoratorsFor(u *metadata.Universe, b *bean.Bean) []*bean.Bean {
	if b.Kind == bean.Interceptor || b.Kind == bean.Decorator {
		return nil
	}
	var out []*bean.Bean
	for _, d := range r.Decorators() {
		if decorates(u, d, b) {
			out = append(out, d)
		}
	}
	return out
}

func decorates(u *metadata.Universe, d, b *bean.Bean) bool {
	if d.Delegate == nil || !b.HasType(d.Delegate.Type) {
		return false
	}
	if !metadata.ContainsAll(b.Qualifiers, d.Delegate.Qualifiers) {
		return false
	}
	for _, typ := range d.Decorated {
		if !u.IsAssignable(typ, b.ReturnType()) {
			return false
		}
	}
	return true
}

func handles(ib *bean.Bean, kind metadata.InterceptionType) bool {
	for _, k := range ib.Intercepts {
		if k == kind {
			return true
		}
	}
	return false
}

func ordered(beans []*bean.Bean, order []string) []*bean.Bean {
	out := make([]*bean.Bean, 0, len(order))
	for _, class := range order {
		if b := find(beans, class); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func find(beans []*bean.Bean, class string) *bean.Bean {
	for _, b := range beans {
		if b.Type.Name == class {
			return b
		}
	}
	return nil
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
