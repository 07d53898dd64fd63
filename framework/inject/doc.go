// Package inject resolves injection requests.
//
// A request is a required type plus qualifiers. The Resolver keeps the
// enabled beans that expose the type and carry every requested qualifier,
// prefers enabled alternatives, then drops any bean replaced by a
// specializing one. Exactly one bean must remain; otherwise the result is
// an *UnsatisfiedError or an *AmbiguousError.
//
// Instance and Provider points are not resolved eagerly. They receive an
// *Instance that looks the bean up on Get.
package inject
