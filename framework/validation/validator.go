package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation messages per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failing fields in sorted order.
func (e *Errors) Fields() []string {
	out := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Error joins every message, field by field.
func (e *Errors) Error() string {
	var msgs []string
	for _, f := range e.Fields() {
		msgs = append(msgs, e.Bag[f]...)
	}
	return strings.Join(msgs, "; ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"interceptors.0": "required|qualified", "scopes.0.normal": "sometimes|boolean"}
type Rules map[string]string

// Validator validates a flat map of values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// Err returns the error bag as an error, or nil when validation passes.
func (v *Validator) Err() error {
	if v.Fails() {
		return v.errors
	}
	return nil
}

// ── Core validation loop ─────────────────────────────────────────────────────

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	qualifiedRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_$][A-Za-z0-9_$]*)+$`)
	alphaDashRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func (v *Validator) validate() {
	if v.ran {
		return
	}
	v.ran = true

	fields := make([]string, 0, len(v.rules))
	for field := range v.rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := v.data[field]
		for _, rule := range strings.Split(v.rules[field], "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")
			if !v.applyRule(field, value, name, param) {
				break // first failure ends the field
			}
		}
	}
}

// applyRule returns true if the rule passes.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			v.errors.add(field, fmt.Sprintf("%s is required", field))
			return false
		}

	case "sometimes":
		if value == "" {
			return false // absent: skip the remaining rules silently
		}

	case "identifier":
		if !identifierRe.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("%s must be an identifier, got %q", field, value))
			return false
		}

	case "qualified":
		if !qualifiedRe.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("%s must be a qualified type name such as pkg.Type, got %q", field, value))
			return false
		}

	case "alpha_dash":
		if !alphaDashRe.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("%s may only contain letters, numbers, dashes and underscores", field))
			return false
		}

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			v.errors.add(field, fmt.Sprintf("%s must be an integer", field))
			return false
		}

	case "boolean":
		if _, err := strconv.ParseBool(value); err != nil {
			v.errors.add(field, fmt.Sprintf("%s must be true or false", field))
			return false
		}

	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			v.errors.add(field, fmt.Sprintf("%s must be a positive duration such as 30m", field))
			return false
		}

	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			v.errors.add(field, fmt.Sprintf("%s may not be longer than %d characters", field, n))
			return false
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if strings.TrimSpace(a) == value {
				return true
			}
		}
		v.errors.add(field, fmt.Sprintf("%s must be one of %s, got %q", field, param, value))
		return false

	case "not_in":
		for _, d := range strings.Split(param, ",") {
			if strings.TrimSpace(d) == value {
				v.errors.add(field, fmt.Sprintf("%s may not be %q", field, value))
				return false
			}
		}

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			v.errors.add(field, fmt.Sprintf("%s format is invalid", field))
			return false
		}

	default:
		v.errors.add(field, fmt.Sprintf("%s: unknown rule %q", field, rule))
		return false
	}

	return true
}
