// Package validation checks flat string maps against pipe-separated rule
// strings. The descriptor package uses it to vet beans.yaml entries before
// they reach the registry.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "interceptors.0": "shop.Audited",
//	    "scopes.0.kind":  "TenantScoped",
//	}, validation.Rules{
//	    "interceptors.0": "required|qualified",
//	    "scopes.0.kind":  "required|identifier|not_in:Dependent,Singleton",
//	})
//
//	if err := v.Err(); err != nil {
//	    // err is *validation.Errors; v.Errors().Bag maps field → messages
//	}
//
// # Available Rules
//
//   - required      field must be present and non-empty
//   - sometimes     skip the remaining rules when the field is absent
//   - identifier    a Go-style identifier
//   - qualified     a dotted type name, at least one dot (pkg.Type, pkg.Outer$Inner)
//   - alpha_dash    letters, digits, dashes and underscores
//   - integer       parses as an int
//   - boolean       parses with strconv.ParseBool
//   - duration      a positive time.ParseDuration value
//   - max:n         at most n UTF-8 characters
//   - in:a,b,c      one of the listed values
//   - not_in:a,b,c  none of the listed values
//   - regex:pattern must match the pattern
//
// Fields are validated in sorted order and the first failing rule ends a
// field, so messages are deterministic. An unknown rule name is reported
// as a failure of its field.
package validation
