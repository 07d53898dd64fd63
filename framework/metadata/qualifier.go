package metadata

import (
	"sort"
	"strings"
)

// Well-known qualifier types.
const (
	DefaultQualifier = "Default"
	AnyQualifier     = "Any"
	NamedQualifier   = "Named"
)

// Qualifier is a typed key/value annotation value. The same shape is used
// for interceptor bindings.
type Qualifier struct {
	Type    string
	Members map[string]string
	// NonBinding lists members ignored when matching.
	NonBinding []string
}

// Binding is an interceptor binding value.
type Binding = Qualifier

// Q builds a qualifier from alternating member name/value pairs.
//
//	metadata.Q("Payment", "kind", "card")
func Q(typ string, kv ...string) Qualifier {
	q := Qualifier{Type: typ}
	if len(kv) > 1 {
		q.Members = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			q.Members[kv[i]] = kv[i+1]
		}
	}
	return q
}

func Default() Qualifier { return Qualifier{Type: DefaultQualifier} }
func Any() Qualifier     { return Qualifier{Type: AnyQualifier} }

// Named returns the Named qualifier carrying name.
func Named(name string) Qualifier { return Q(NamedQualifier, "value", name) }

// Matches reports whether q and o have the same type and agree on every
// binding member.
func (q Qualifier) Matches(o Qualifier) bool {
	if q.Type != o.Type {
		return false
	}
	skip := make(map[string]bool, len(q.NonBinding)+len(o.NonBinding))
	for _, m := range q.NonBinding {
		skip[m] = true
	}
	for _, m := range o.NonBinding {
		skip[m] = true
	}
	for k, v := range q.Members {
		if !skip[k] && o.Members[k] != v {
			return false
		}
	}
	for k, v := range o.Members {
		if !skip[k] && q.Members[k] != v {
			return false
		}
	}
	return true
}

func (q Qualifier) String() string {
	if len(q.Members) == 0 {
		return "@" + q.Type
	}
	keys := make([]string, 0, len(q.Members))
	for k := range q.Members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + q.Members[k]
	}
	return "@" + q.Type + "(" + strings.Join(parts, ",") + ")"
}

// ContainsAll reports whether every qualifier in want is matched by some
// qualifier in have.
func ContainsAll(have, want []Qualifier) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h.Matches(w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Contains reports whether have holds a qualifier of the given type.
func Contains(have []Qualifier, typ string) bool {
	for _, h := range have {
		if h.Type == typ {
			return true
		}
	}
	return false
}
