// Package metadata is the plain-data model a discovery pass produces:
// types with their scopes, qualifiers, interceptor bindings and
// stereotypes, the methods and constructors declared on them, and the
// scope table the runtime recognizes.
//
// Nothing in this package is reflective. A type's members carry
// precomputed Invoker functions, so later stages never need to inspect
// Go values to call into a bean.
package metadata
