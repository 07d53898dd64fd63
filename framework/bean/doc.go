// Package bean builds and validates the runtime Bean records the rest of
// the container works with.
//
// A Builder checks a metadata.Type against the managed bean rules
// (concrete, a usable constructor, a recognized scope, well-formed
// lifecycle and around methods) and produces a Bean. Producer methods
// declared on a bean become beans of their own through BuildProducers.
// Defects are reported as *ConfigurationError and collected in an
// ErrorStack so a deployment can list every problem at once.
package bean
