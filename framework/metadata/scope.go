package metadata

import (
	"errors"
	"fmt"
	"sort"
)

// ScopeKind names a scope. The built-in kinds mirror the standard scopes;
// any other value is a custom scope that must be declared through
// NewScopeTable before beans can use it.
type ScopeKind string

const (
	Dependent    ScopeKind = "Dependent"
	Request      ScopeKind = "RequestScoped"
	Session      ScopeKind = "SessionScoped"
	Conversation ScopeKind = "ConversationScoped"
	Application  ScopeKind = "ApplicationScoped"
	Singleton    ScopeKind = "Singleton"
)

// ErrUnrecognizedScope is returned when a scope kind is neither built in nor
// declared as an external scope.
var ErrUnrecognizedScope = errors.New("unrecognized scope")

// ScopeDef describes how the runtime treats a scope kind.
type ScopeDef struct {
	Kind ScopeKind
	// Normal scopes hand out client proxies; pseudo-scopes hand out the
	// instance itself.
	Normal bool
	// Passivating scopes require passivation-capable beans.
	Passivating bool
	// External is set for scopes contributed by an extension.
	External bool
}

// ScopeTable is the process-wide scope lookup. It is populated once by
// NewScopeTable and never mutated afterwards, so it is safe to share.
type ScopeTable struct {
	defs map[ScopeKind]ScopeDef
}

// NewScopeTable returns a table holding the built-in scopes plus the given
// external scopes. Redeclaring a built-in kind is an error.
func NewScopeTable(external ...ScopeDef) (*ScopeTable, error) {
	t := &ScopeTable{defs: map[ScopeKind]ScopeDef{
		Dependent:    {Kind: Dependent},
		Singleton:    {Kind: Singleton},
		Request:      {Kind: Request, Normal: true},
		Application:  {Kind: Application, Normal: true},
		Session:      {Kind: Session, Normal: true, Passivating: true},
		Conversation: {Kind: Conversation, Normal: true, Passivating: true},
	}}
	for _, def := range external {
		if def.Kind == "" {
			return nil, errors.New("metadata: external scope without a kind")
		}
		if _, exists := t.defs[def.Kind]; exists {
			return nil, fmt.Errorf("metadata: scope %s is already declared", def.Kind)
		}
		def.External = true
		t.defs[def.Kind] = def
	}
	return t, nil
}

// DefaultScopes is the table with only the built-in scopes.
func DefaultScopes() *ScopeTable {
	t, _ := NewScopeTable()
	return t
}

// Lookup returns the definition of kind or ErrUnrecognizedScope.
func (t *ScopeTable) Lookup(kind ScopeKind) (ScopeDef, error) {
	def, ok := t.defs[kind]
	if !ok {
		return ScopeDef{}, fmt.Errorf("%w: %s", ErrUnrecognizedScope, kind)
	}
	return def, nil
}

// IsNormal reports whether kind is a normal scope.
func (t *ScopeTable) IsNormal(kind ScopeKind) (bool, error) {
	def, err := t.Lookup(kind)
	if err != nil {
		return false, err
	}
	return def.Normal, nil
}

// IsPassivating reports whether kind is a passivating scope. Unknown kinds
// are never passivating.
func (t *ScopeTable) IsPassivating(kind ScopeKind) bool {
	return t.defs[kind].Passivating
}

// Kinds returns every declared scope kind in a stable order.
func (t *ScopeTable) Kinds() []ScopeKind {
	out := make([]ScopeKind, 0, len(t.defs))
	for k := range t.defs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
