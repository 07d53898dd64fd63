package inject

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Resolver answers injection requests against a deployed bean set.
//
// The bean set must not change after NewResolver; results are cached.
type Resolver struct {
	beans []*bean.Bean
	cache sync.Map // request key → []*bean.Bean
}

// NewResolver returns a resolver over beans. Disabled beans are kept for
// most-specialized lookups but never returned by Resolve.
func NewResolver(beans []*bean.Bean) *Resolver {
	return &Resolver{beans: beans}
}

// Beans returns every bean in the set, enabled or not.
func (r *Resolver) Beans() []*bean.Bean { return r.beans }

// Candidates returns the enabled beans exposing typ whose qualifiers
// match, after alternatives and specialization narrowing. An empty
// qualifier list means Default.
func (r *Resolver) Candidates(typ string, qualifiers ...metadata.Qualifier) []*bean.Bean {
	qualifiers = requested(qualifiers)
	key := cacheKey(typ, qualifiers)
	if v, ok := r.cache.Load(key); ok {
		return v.([]*bean.Bean)
	}

	var set []*bean.Bean
	for _, b := range r.beans {
		if !b.Enabled() || b.Kind == bean.Interceptor || b.Kind == bean.Decorator {
			continue
		}
		if b.HasType(typ) && metadata.ContainsAll(b.Qualifiers, qualifiers) {
			set = append(set, b)
		}
	}
	set = r.narrow(set)

	v, _ := r.cache.LoadOrStore(key, set)
	return v.([]*bean.Bean)
}

// Resolve returns the single bean for typ and qualifiers.
func (r *Resolver) Resolve(typ string, qualifiers ...metadata.Qualifier) (*bean.Bean, error) {
	set := r.Candidates(typ, qualifiers...)
	switch len(set) {
	case 0:
		return nil, &UnsatisfiedError{Type: typ, Qualifiers: requested(qualifiers)}
	case 1:
		return set[0], nil
	default:
		return nil, &AmbiguousError{Type: typ, Qualifiers: requested(qualifiers), Candidates: ids(set)}
	}
}

// ResolveByName returns the single enabled bean called name.
func (r *Resolver) ResolveByName(name string) (*bean.Bean, error) {
	var set []*bean.Bean
	for _, b := range r.beans {
		if b.Enabled() && b.Name == name {
			set = append(set, b)
		}
	}
	set = r.narrow(set)
	switch len(set) {
	case 0:
		return nil, &UnsatisfiedError{Type: metadata.ObjectType, Qualifiers: []metadata.Qualifier{metadata.Named(name)}}
	case 1:
		return set[0], nil
	default:
		return nil, &AmbiguousError{Type: metadata.ObjectType, Qualifiers: []metadata.Qualifier{metadata.Named(name)}, Candidates: ids(set)}
	}
}

// ResolvePoint resolves an injection point. Deferred points are only
// checked and yield a nil bean.
func (r *Resolver) ResolvePoint(ip *bean.InjectionPoint) (*bean.Bean, error) {
	if ip.Deferred() {
		return nil, CheckDeferred(ip)
	}
	b, err := r.Resolve(ip.Type, ip.Qualifiers...)
	switch e := err.(type) {
	case *UnsatisfiedError:
		e.Point = ip.String()
	case *AmbiguousError:
		e.Point = ip.String()
	}
	return b, err
}

// MostSpecialized follows specialization from b down to the bean that
// finally replaces it.
func (r *Resolver) MostSpecialized(b *bean.Bean) *bean.Bean {
	seen := map[*bean.Bean]bool{b: true}
	for {
		next := r.specializerOf(b)
		if next == nil || seen[next] {
			return b
		}
		seen[next] = true
		b = next
	}
}

// specializerOf returns the bean that directly specializes b.
func (r *Resolver) specializerOf(b *bean.Bean) *bean.Bean {
	if b.Type == nil {
		return nil
	}
	for _, c := range r.beans {
		if c == b || !c.Specializes || c.Kind != b.Kind || c.Type == nil || c.Type.Super != b.Type.Name {
			continue
		}
		if b.Kind == bean.Producer && c.Method.Signature() != b.Method.Signature() {
			continue
		}
		return c
	}
	return nil
}

// narrow prefers enabled alternatives, then drops every bean another
// candidate specializes.
func (r *Resolver) narrow(set []*bean.Bean) []*bean.Bean {
	if len(set) < 2 {
		return set
	}
	var alts []*bean.Bean
	for _, b := range set {
		if b.Alternative {
			alts = append(alts, b)
		}
	}
	if len(alts) > 0 {
		set = alts
	}
	for changed := true; changed && len(set) > 1; {
		changed = false
		for i, b := range set {
			sp := r.specializerOf(b)
			if sp != nil && in(set, sp) {
				set = append(append([]*bean.Bean(nil), set[:i]...), set[i+1:]...)
				changed = true
				break
			}
		}
	}
	return set
}

// CheckDeferred validates an Instance or Provider point: exactly one
// concrete type argument.
func CheckDeferred(ip *bean.InjectionPoint) error {
	if len(ip.TypeArgs) != 1 {
		return bean.Configf(owner(ip), "", "injection point %s must have exactly one type argument", ip)
	}
	arg := ip.TypeArgs[0]
	if arg == "" || strings.HasPrefix(arg, "?") || slices.Contains(ip.TypeVars, arg) {
		return bean.Configf(owner(ip), "", "injection point %s has a non-concrete type argument %q", ip, arg)
	}
	return nil
}

func owner(ip *bean.InjectionPoint) string {
	if ip.Bean == nil {
		return ""
	}
	return ip.Bean.ID
}

func requested(qs []metadata.Qualifier) []metadata.Qualifier {
	if len(qs) == 0 {
		return []metadata.Qualifier{metadata.Default()}
	}
	return qs
}

func cacheKey(typ string, qs []metadata.Qualifier) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = q.String()
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s|%s", typ, strings.Join(parts, ""))
}

func ids(set []*bean.Bean) []string {
	out := make([]string, len(set))
	for i, b := range set {
		out[i] = b.ID
	}
	sort.Strings(out)
	return out
}

func in(set []*bean.Bean, b *bean.Bean) bool {
	for _, x := range set {
		if x == b {
			return true
		}
	}
	return false
}
