package interceptor

import (
	"context"
	"fmt"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// InvocationContext is handed to every around and lifecycle interceptor
// method. Calling Proceed runs the rest of the chain.
type InvocationContext struct {
	ctx    context.Context
	kind   metadata.InterceptionType
	target any
	method *metadata.Method
	params []any
	data   map[string]any

	chain        []*bean.InterceptorData
	pos          int
	interceptors func(*bean.Bean) (any, error)
	final        func(ctx context.Context, params []any) (any, error)
}

// Context returns the context the invocation runs under.
func (ic *InvocationContext) Context() context.Context { return ic.ctx }

// Kind is the interception type being run.
func (ic *InvocationContext) Kind() metadata.InterceptionType { return ic.kind }

// Target is the bean instance being intercepted.
func (ic *InvocationContext) Target() any { return ic.target }

// Method is the business method, nil for lifecycle callbacks.
func (ic *InvocationContext) Method() *metadata.Method { return ic.method }

// Parameters returns the arguments the target will receive.
func (ic *InvocationContext) Parameters() []any { return ic.params }

// SetParameters replaces the arguments. The count must match the method.
func (ic *InvocationContext) SetParameters(params []any) error {
	if ic.method == nil {
		return fmt.Errorf("interceptor: %s has no parameters", ic.kind)
	}
	if len(params) != len(ic.method.Params) {
		return fmt.Errorf("interceptor: %s takes %d parameters, got %d", ic.method.Name, len(ic.method.Params), len(params))
	}
	ic.params = params
	return nil
}

// ContextData is shared by every interceptor of one invocation.
func (ic *InvocationContext) ContextData() map[string]any {
	if ic.data == nil {
		ic.data = make(map[string]any)
	}
	return ic.data
}

// Proceed calls the next interceptor, or the target once the chain is
// exhausted. Plain callbacks declared without a parameter run and the
// chain continues on its own.
func (ic *InvocationContext) Proceed() (any, error) {
	if ic.pos >= len(ic.chain) {
		if ic.final == nil {
			return nil, nil
		}
		return ic.final(ic.ctx, ic.params)
	}
	d := ic.chain[ic.pos]
	ic.pos++

	instance := ic.target
	if !d.Self() {
		var err error
		if instance, err = ic.interceptors(d.Interceptor); err != nil {
			return nil, err
		}
	}
	if len(d.Method.Params) == 0 {
		if _, err := d.Method.Invoke(instance, nil); err != nil {
			return nil, err
		}
		return ic.Proceed()
	}
	return d.Method.Invoke(instance, []any{ic})
}
