package inject

import (
	"context"
	"errors"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Getter returns the injectable value of a resolved bean.
type Getter func(ctx context.Context, b *bean.Bean) (any, error)

// Instance is a lookup deferred until first use, injected where a point
// asks for Instance or Provider of some type.
type Instance struct {
	resolver   *Resolver
	typ        string
	qualifiers []metadata.Qualifier
	get        Getter
}

// NewInstance returns a deferred lookup for typ.
func NewInstance(r *Resolver, typ string, qualifiers []metadata.Qualifier, get Getter) *Instance {
	return &Instance{resolver: r, typ: typ, qualifiers: qualifiers, get: get}
}

// Type is the required type.
func (i *Instance) Type() string { return i.typ }

// Get resolves and returns the value.
func (i *Instance) Get(ctx context.Context) (any, error) {
	b, err := i.resolver.Resolve(i.typ, i.qualifiers...)
	if err != nil {
		return nil, err
	}
	return i.get(ctx, b)
}

// All returns a value for every matching bean.
func (i *Instance) All(ctx context.Context) ([]any, error) {
	var out []any
	for _, b := range i.resolver.Candidates(i.typ, i.qualifiers...) {
		v, err := i.get(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (i *Instance) IsUnsatisfied() bool {
	_, err := i.resolver.Resolve(i.typ, i.qualifiers...)
	return errors.Is(err, ErrUnsatisfied)
}

func (i *Instance) IsAmbiguous() bool {
	_, err := i.resolver.Resolve(i.typ, i.qualifiers...)
	return errors.Is(err, ErrAmbiguous)
}

// Select narrows the lookup with more qualifiers. The implicit Default
// qualifier is dropped once an explicit one is added.
func (i *Instance) Select(qualifiers ...metadata.Qualifier) *Instance {
	var qs []metadata.Qualifier
	for _, q := range i.qualifiers {
		if q.Type != metadata.DefaultQualifier || len(qualifiers) == 0 {
			qs = append(qs, q)
		}
	}
	qs = append(qs, qualifiers...)
	return &Instance{resolver: i.resolver, typ: i.typ, qualifiers: qs, get: i.get}
}
