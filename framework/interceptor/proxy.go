package interceptor

import (
	"context"
	"sync"

	"github.com/km-arc/go-webbeans/framework/bean"
)

// Lookup finds the handler of the instance current for ctx.
type Lookup func(ctx context.Context) (*Handler, error)

// Proxy is the default client proxy. Every call resolves the current
// contextual instance first, so a proxy can be held across requests.
type Proxy struct {
	bean   *bean.Bean
	lookup Lookup
}

// NewProxy returns a proxy for b.
func NewProxy(b *bean.Bean, lookup Lookup) *Proxy {
	return &Proxy{bean: b, lookup: lookup}
}

func (p *Proxy) Bean() *bean.Bean { return p.bean }

// Call invokes a business method on the current instance.
func (p *Proxy) Call(ctx context.Context, method string, args ...any) (any, error) {
	h, err := p.lookup(ctx)
	if err != nil {
		return nil, err
	}
	return h.Call(ctx, method, args...)
}

// Instance returns the current underlying instance.
func (p *Proxy) Instance(ctx context.Context) (any, error) {
	h, err := p.lookup(ctx)
	if err != nil {
		return nil, err
	}
	return h.Target(), nil
}

// ProxyFactory produces the value injected in place of a normal-scoped or
// intercepted bean.
type ProxyFactory interface {
	// Create returns a proxy for b assignable to typ.
	Create(b *bean.Bean, typ string, lookup Lookup) any
	// Supports reports whether Create can produce a value of typ.
	Supports(typ string) bool
}

// Wrapper adapts a generic proxy to a concrete Go type, usually a small
// hand-written struct implementing the contract by calling Proxy.Call.
type Wrapper func(p *Proxy) any

// Factory is the default ProxyFactory. Types without a registered wrapper
// get a bare *Proxy.
type Factory struct {
	mu       sync.RWMutex
	wrappers map[string]Wrapper
}

// NewFactory returns a factory with no wrappers.
func NewFactory() *Factory {
	return &Factory{wrappers: make(map[string]Wrapper)}
}

// Register installs the wrapper for contract type typ.
//
//	f.Register("shop.Cart", func(p *interceptor.Proxy) any { return &cartProxy{p} })
func (f *Factory) Register(typ string, w Wrapper) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wrappers[typ] = w
}

func (f *Factory) Supports(typ string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.wrappers[typ]
	return ok
}

func (f *Factory) Create(b *bean.Bean, typ string, lookup Lookup) any {
	p := NewProxy(b, lookup)
	f.mu.RLock()
	w, ok := f.wrappers[typ]
	f.mu.RUnlock()
	if !ok {
		return p
	}
	return w(p)
}
