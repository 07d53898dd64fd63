package interceptor

import (
	"context"
	"fmt"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// Handler runs the composed chains for one bean instance. It owns the
// interceptor and decorator instances created alongside the target.
type Handler struct {
	bean         *bean.Bean
	target       any
	interceptors map[*bean.Bean]any
	decorators   []any
}

// NewHandler binds a target to its interceptor instances and to its
// decorator instances, given in the order of b.Decorators.
func NewHandler(b *bean.Bean, target any, interceptors map[*bean.Bean]any, decorators []any) *Handler {
	return &Handler{bean: b, target: target, interceptors: interceptors, decorators: decorators}
}

func (h *Handler) Bean() *bean.Bean { return h.bean }

// Target is the real instance.
func (h *Handler) Target() any { return h.target }

// Call invokes the business method called name through the around-invoke
// chain, the decorators and finally the target.
func (h *Handler) Call(ctx context.Context, name string, args ...any) (any, error) {
	m := h.bean.BusinessMethod(name, len(args))
	if m == nil {
		return nil, fmt.Errorf("interceptor: %s has no method %s taking %d arguments", h.bean.ID, name, len(args))
	}
	return h.Invoke(ctx, m, args)
}

// Invoke runs m through the around-invoke chain.
func (h *Handler) Invoke(ctx context.Context, m *metadata.Method, args []any) (any, error) {
	return h.around(ctx, metadata.AroundInvoke, m, args)
}

// InvokeTimeout runs m through the around-timeout chain.
func (h *Handler) InvokeTimeout(ctx context.Context, m *metadata.Method, args []any) (any, error) {
	return h.around(ctx, metadata.AroundTimeout, m, args)
}

func (h *Handler) around(ctx context.Context, kind metadata.InterceptionType, m *metadata.Method, args []any) (any, error) {
	ic := &InvocationContext{
		ctx:          ctx,
		kind:         kind,
		target:       h.target,
		method:       m,
		params:       args,
		chain:        h.bean.Stack.For(kind, m),
		interceptors: h.interceptor,
		final: func(_ context.Context, params []any) (any, error) {
			return h.decorated(m, params)
		},
	}
	return ic.Proceed()
}

// Lifecycle runs the chain for a lifecycle interception type.
func (h *Handler) Lifecycle(ctx context.Context, kind metadata.InterceptionType) error {
	if !kind.IsLifecycle() {
		return fmt.Errorf("interceptor: %s is not a lifecycle callback", kind)
	}
	ic := &InvocationContext{
		ctx:          ctx,
		kind:         kind,
		target:       h.target,
		chain:        h.bean.Stack.For(kind, nil),
		interceptors: h.interceptor,
	}
	_, err := ic.Proceed()
	return err
}

// decorated calls the outermost decorator implementing m, else the
// target. Each decorator's delegate already points at the next one.
func (h *Handler) decorated(m *metadata.Method, params []any) (any, error) {
	for i, d := range h.bean.Decorators {
		if i >= len(h.decorators) {
			break
		}
		if dm := d.Type.Method(m.Name, m.ParamTypes()...); dm != nil && dm.Invoke != nil {
			return dm.Invoke(h.decorators[i], params)
		}
	}
	return m.Invoke(h.target, params)
}

func (h *Handler) interceptor(ib *bean.Bean) (any, error) {
	inst, ok := h.interceptors[ib]
	if !ok {
		return nil, fmt.Errorf("interceptor: no instance of %s for %s", ib.ID, h.bean.ID)
	}
	return inst, nil
}
