package specialization

import (
	"sort"
	"strings"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Resolver settles which beans are superseded by specializing beans.
// It mutates the enabled and specialized flags and must run before the
// bean set is shared between goroutines.
type Resolver struct {
	universe *metadata.Universe
}

// NewResolver returns a resolver over u. Alternative enablement is read
// from the beans themselves, as set by the builder.
func NewResolver(u *metadata.Universe) *Resolver {
	return &Resolver{universe: u}
}

// Resolve handles class specialization first, then producer methods.
// Every defect is reported, not only the first.
func (r *Resolver) Resolve(beans []*bean.Bean) error {
	var errs bean.ErrorStack
	errs.Push(r.ResolveClasses(beans))
	errs.Push(r.ResolveProducers(beans))
	return errs.Err()
}

// ── Classes ─────────────────────────────────────────────────────────────────

// ResolveClasses disables every managed bean superseded by a class
// marked as specializing its superclass.
func (r *Resolver) ResolveClasses(beans []*bean.Bean) error {
	var errs bean.ErrorStack
	var classes []string
	seen := make(map[string]bool)
	for _, b := range beans {
		if b.Kind == bean.Managed && b.Specializes && !seen[b.Type.Name] {
			seen[b.Type.Name] = true
			classes = append(classes, b.Type.Name)
		}
	}

	done := make(map[string]bool)
	for _, err := range r.checkSiblings(beans, done) {
		errs.Push(err)
	}
	for _, class := range classes {
		errs.Push(r.configure(class, seen, beans, done, make(map[string]bool)))
	}
	return errs.Err()
}

// checkSiblings rejects two enabled beans directly specializing the same
// superclass. Their classes are marked done so they are not configured.
func (r *Resolver) checkSiblings(beans []*bean.Bean, done map[string]bool) []error {
	var supers []string
	bySuper := make(map[string][]*bean.Bean)
	for _, b := range beans {
		if b.Kind == bean.Producer || !b.Specializes || !b.Enabled() || b.Type.Super == "" {
			continue
		}
		if _, ok := bySuper[b.Type.Super]; !ok {
			supers = append(supers, b.Type.Super)
		}
		bySuper[b.Type.Super] = append(bySuper[b.Type.Super], b)
	}

	var out []error
	for _, super := range supers {
		siblings := bySuper[super]
		if len(siblings) < 2 {
			continue
		}
		names := make([]string, len(siblings))
		for i, b := range siblings {
			names[i] = b.Type.Name
			done[b.Type.Name] = true
		}
		out = append(out, inconsistent(super, "more than one enabled bean specializes it: %s", strings.Join(names, ", ")))
	}
	return out
}

func (r *Resolver) configure(class string, specializing map[string]bool, beans []*bean.Bean, done, visiting map[string]bool) error {
	if visiting[class] {
		return inconsistent(class, "specialization cycle")
	}
	visiting[class] = true
	if done[class] {
		return nil
	}
	done[class] = true

	var resolvers []*bean.Bean
	for _, b := range beans {
		if b.Kind != bean.Producer && b.Specializes && b.HasType(class) {
			resolvers = append(resolvers, b)
		}
	}
	if len(resolvers) == 0 {
		return inconsistent(class, "specialized bean is not enabled in the deployment")
	}

	specialized := resolvers[0]
	if len(resolvers) > 1 {
		if err := r.checkDirectChain(class, resolvers); err != nil {
			return err
		}
		// Widest candidate wins.
		for _, sp := range resolvers {
			if sp != specialized && r.universe.IsAssignable(sp.ReturnType(), specialized.ReturnType()) {
				specialized = sp
			}
		}
	}

	t, ok := r.universe.Type(class)
	if !ok || t.Super == "" {
		return inconsistent(class, "specializing class has no superclass")
	}
	var superBean *bean.Bean
	for _, b := range beans {
		if b.Kind != bean.Producer && b.ReturnType() == t.Super {
			superBean = b
			break
		}
	}
	if superBean == nil {
		return inconsistent(class, "superclass %s is not a bean that can be specialized", t.Super)
	}

	if specializing[t.Super] && superBean.Enabled() {
		if err := r.configure(t.Super, specializing, beans, done, visiting); err != nil {
			return err
		}
	}

	classBean := resolvers[0]
	for _, b := range resolvers {
		if b.Type.Name == class {
			classBean = b
		}
	}
	if classBean.Enabled() {
		superBean.SetEnabled(false)
	}

	if specialized.Specialized() {
		return nil
	}
	if specialized.Kind != superBean.Kind {
		return definition(class, "specializing class and its superclass must be the same kind of bean, found %s and %s", specialized.Kind, superBean.Kind)
	}
	if superBean.Name != "" {
		if specialized.Named {
			return definition(class, "specializing class may not explicitly declare a bean name")
		}
		bean.Rename(specialized, superBean.Name)
	}
	inheritQualifiers(specialized, superBean)
	specialized.SetSpecialized(true)
	return nil
}

// checkDirectChain requires the candidates to form one line where each
// directly extends the previous.
func (r *Resolver) checkDirectChain(class string, candidates []*bean.Bean) error {
	list := append([]*bean.Bean(nil), candidates...)
	var incomparable *Error
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].ReturnType(), list[j].ReturnType()
		switch {
		case a == b:
			return false
		case r.universe.IsAssignable(a, b):
			return true
		case r.universe.IsAssignable(b, a):
			return false
		}
		if incomparable == nil {
			incomparable = inconsistent(class, "%s and %s are not assignable to each other", a, b)
		}
		return false
	})
	if incomparable != nil {
		return incomparable
	}
	for i := 0; i < len(list)-1; i++ {
		next, ok := r.universe.Type(list[i+1].ReturnType())
		if !ok || next.Super != list[i].ReturnType() {
			return inconsistent(class, "more than one specialized bean is enabled in the deployment")
		}
	}
	return nil
}

// ── Producer methods ───────────────────────────────────────────────────────

// ResolveProducers groups specializing producer methods into chains along
// their declaring class hierarchy and disables all but the last bean of
// each chain.
func (r *Resolver) ResolveProducers(beans []*bean.Bean) error {
	var errs bean.ErrorStack
	var producers []*bean.Bean
	for _, b := range beans {
		if b.Kind == bean.Producer {
			producers = append(producers, b)
		}
	}

	for {
		var start *bean.Bean
		for _, p := range producers {
			if p.Specializes {
				start = p
				break
			}
		}
		if start == nil {
			return errs.Err()
		}

		chain := []*bean.Bean{start}
		sig := start.Method.Signature()
		broken := false

		for left := start; left != nil; {
			super := r.superOf(left)
			var found *bean.Bean
			for _, p := range producers {
				if p.Type.Name == super && p.Method.Signature() == sig {
					found = p
					break
				}
			}
			if found == nil {
				if left == start {
					errs.Push(inconsistent(start.Type.Name, "producer method %s does not override a producer method of its direct superclass", start.Method.Name))
					broken = true
				}
				break
			}
			chain = append([]*bean.Bean{found}, chain...)
			left = nil
			if found.Specializes {
				left = found
			}
		}

		for right := start; right != nil; {
			var found *bean.Bean
			for _, p := range producers {
				if r.superOf(p) == right.Type.Name && p.Specializes && p.Method.Signature() == sig {
					found = p
					break
				}
			}
			if found != nil {
				chain = append(chain, found)
			}
			right = found
		}

		producers = remove(producers, chain)
		if !broken {
			errs.Push(r.configureChain(chain))
		}
	}
}

// configureChain walks a base-first chain, disabling each predecessor and
// passing names down.
func (r *Resolver) configureChain(chain []*bean.Bean) error {
	named := chain[0]
	for i := 1; i < len(chain); i++ {
		b, superBean := chain[i], chain[i-1]

		superHasName := named.Name != ""
		if superHasName {
			if b.Named {
				return definition(b.Type.Name, "specializing producer method %s may not explicitly declare a bean name", b.Method.Name)
			}
			bean.Rename(b, named.Name)
		}

		if b.Enabled() {
			superBean.SetEnabled(false)
		}
		inheritQualifiers(b, superBean)
		b.SetSpecialized(true)

		if !superHasName {
			named = b
		}
	}
	return nil
}

func (r *Resolver) superOf(b *bean.Bean) string {
	return b.Type.Super
}

func inheritQualifiers(to, from *bean.Bean) {
	for _, q := range from.Qualifiers {
		if q.Type == metadata.NamedQualifier {
			continue
		}
		if !metadata.ContainsAll(to.Qualifiers, []metadata.Qualifier{q}) {
			to.Qualifiers = append(to.Qualifiers, q)
		}
	}
}

func remove(from, drop []*bean.Bean) []*bean.Bean {
	out := from[:0]
	for _, b := range from {
		keep := true
		for _, d := range drop {
			if b == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, b)
		}
	}
	return out
}
