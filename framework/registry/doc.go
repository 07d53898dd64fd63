// Package registry is the enablement record of a deployment: which
// interceptor and decorator classes are on and in what order they run,
// and which alternatives replace default beans.
package registry
