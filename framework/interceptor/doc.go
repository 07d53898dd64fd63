// Package interceptor composes and runs interceptor chains.
//
// The Composer decides, once per bean, which methods run for each
// interception type and in what order. A Handler executes those chains
// against one instance: around-invoke and around-timeout chains end in
// the decorators and then the target method, lifecycle chains end after
// the bean's own callbacks.
//
// Client proxies are a port. The default Factory hands out *Proxy values
// or, for contract types with a registered Wrapper, a typed adapter.
package interceptor
