package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-webbeans/framework/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// pass asserts the validator passes for the given data/rules.
func pass(t *testing.T, label string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		assert.False(t, v.Fails(), "errors: %+v", v.Errors().Bag)
	})
}

// fail asserts the validator fails with an error on the given field.
func fail(t *testing.T, label, field string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		assert.True(t, v.Fails(), "expected failure on %q", field)
		assert.NotEmpty(t, v.Errors().First(field), "errors: %+v", v.Errors().Bag)
	})
}

func TestValidation_Required(t *testing.T) {
	r := validation.Rules{"class": "required"}
	pass(t, "present", map[string]string{"class": "shop.Cart"}, r)
	fail(t, "empty", "class", map[string]string{"class": ""}, r)
	fail(t, "blank", "class", map[string]string{"class": "   "}, r)
	fail(t, "missing", "class", map[string]string{}, r)
}

func TestValidation_Sometimes(t *testing.T) {
	r := validation.Rules{"normal": "sometimes|boolean"}
	pass(t, "absent", map[string]string{}, r)
	pass(t, "valid", map[string]string{"normal": "true"}, r)
	fail(t, "invalid", "normal", map[string]string{"normal": "maybe"}, r)
}

func TestValidation_Names(t *testing.T) {
	q := validation.Rules{"class": "qualified"}
	pass(t, "qualified", map[string]string{"class": "shop.Cart"}, q)
	pass(t, "nested", map[string]string{"class": "com.shop.Outer$Inner"}, q)
	fail(t, "no package", "class", map[string]string{"class": "Cart"}, q)
	fail(t, "trailing dot", "class", map[string]string{"class": "shop."}, q)
	fail(t, "space", "class", map[string]string{"class": "shop. Cart"}, q)

	id := validation.Rules{"kind": "identifier"}
	pass(t, "identifier", map[string]string{"kind": "TenantScoped"}, id)
	fail(t, "dotted identifier", "kind", map[string]string{"kind": "a.b"}, id)
	fail(t, "leading digit", "kind", map[string]string{"kind": "1st"}, id)

	ad := validation.Rules{"id": "alpha_dash"}
	pass(t, "alpha dash", map[string]string{"id": "cart-1_a"}, ad)
	fail(t, "alpha dash slash", "id", map[string]string{"id": "a/b"}, ad)
}

func TestValidation_Scalars(t *testing.T) {
	pass(t, "integer", map[string]string{"n": "42"}, validation.Rules{"n": "integer"})
	fail(t, "integer", "n", map[string]string{"n": "4.2"}, validation.Rules{"n": "integer"})

	pass(t, "duration", map[string]string{"d": "30m"}, validation.Rules{"d": "duration"})
	fail(t, "zero duration", "d", map[string]string{"d": "0s"}, validation.Rules{"d": "duration"})
	fail(t, "bad duration", "d", map[string]string{"d": "soon"}, validation.Rules{"d": "duration"})

	pass(t, "max", map[string]string{"s": "héllo"}, validation.Rules{"s": "max:5"})
	fail(t, "max", "s", map[string]string{"s": "héllo!"}, validation.Rules{"s": "max:5"})
}

func TestValidation_Sets(t *testing.T) {
	in := validation.Rules{"store": "in:memory,redis"}
	pass(t, "in", map[string]string{"store": "redis"}, in)
	fail(t, "not in", "store", map[string]string{"store": "disk"}, in)

	notIn := validation.Rules{"kind": "not_in:Dependent, Singleton"}
	pass(t, "not_in", map[string]string{"kind": "TenantScoped"}, notIn)
	fail(t, "not_in hit", "kind", map[string]string{"kind": "Singleton"}, notIn)

	re := validation.Rules{"kind": `regex:^[A-Z]`}
	pass(t, "regex", map[string]string{"kind": "Tenant"}, re)
	fail(t, "regex", "kind", map[string]string{"kind": "tenant"}, re)
}

func TestValidation_UnknownRule(t *testing.T) {
	fail(t, "unknown", "x", map[string]string{"x": "1"}, validation.Rules{"x": "email"})
}

func TestValidation_FirstFailureEndsField(t *testing.T) {
	t.Parallel()

	v := validation.Make(map[string]string{}, validation.Rules{"class": "required|qualified"})
	require.True(t, v.Fails())
	assert.Len(t, v.Errors().Bag["class"], 1)
}

func TestValidation_ErrIsDeterministic(t *testing.T) {
	t.Parallel()

	v := validation.Make(map[string]string{"b": "", "a": "x"}, validation.Rules{
		"b": "required",
		"a": "qualified",
	})
	err := v.Err()
	require.Error(t, err)

	var bag *validation.Errors
	require.ErrorAs(t, err, &bag)
	assert.Equal(t, []string{"a", "b"}, bag.Fields())
	assert.Equal(t, `a must be a qualified type name such as pkg.Type, got "x"; b is required`, err.Error())

	assert.NoError(t, validation.Make(map[string]string{"a": "p.T"}, validation.Rules{"a": "qualified"}).Err())
}
