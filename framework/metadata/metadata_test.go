package metadata_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-webbeans/framework/metadata"
)

func TestScopeTable_BuiltIns(t *testing.T) {
	t.Parallel()
	scopes := metadata.DefaultScopes()

	normal, err := scopes.IsNormal(metadata.Request)
	require.NoError(t, err)
	assert.True(t, normal)

	normal, err = scopes.IsNormal(metadata.Dependent)
	require.NoError(t, err)
	assert.False(t, normal)

	assert.True(t, scopes.IsPassivating(metadata.Session))
	assert.True(t, scopes.IsPassivating(metadata.Conversation))
	assert.False(t, scopes.IsPassivating(metadata.Application))
}

func TestScopeTable_External(t *testing.T) {
	t.Parallel()
	scopes, err := metadata.NewScopeTable(metadata.ScopeDef{Kind: "TransactionScoped", Normal: true})
	require.NoError(t, err)

	def, err := scopes.Lookup("TransactionScoped")
	require.NoError(t, err)
	assert.True(t, def.External)
	assert.True(t, def.Normal)

	_, err = scopes.Lookup("Nope")
	assert.True(t, errors.Is(err, metadata.ErrUnrecognizedScope))

	_, err = metadata.NewScopeTable(metadata.ScopeDef{Kind: metadata.Request})
	assert.Error(t, err, "redeclaring a built-in scope")
}

func TestQualifier_Matches(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		a, b metadata.Qualifier
		want bool
	}{
		{"same type no members", metadata.Default(), metadata.Default(), true},
		{"different type", metadata.Default(), metadata.Any(), false},
		{"same members", metadata.Q("Pay", "kind", "card"), metadata.Q("Pay", "kind", "card"), true},
		{"member differs", metadata.Q("Pay", "kind", "card"), metadata.Q("Pay", "kind", "cash"), false},
		{
			"non-binding member ignored",
			metadata.Qualifier{Type: "Pay", Members: map[string]string{"kind": "card", "note": "a"}, NonBinding: []string{"note"}},
			metadata.Qualifier{Type: "Pay", Members: map[string]string{"kind": "card", "note": "b"}},
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Matches(tc.b))
		})
	}
}

func TestContainsAll(t *testing.T) {
	t.Parallel()
	have := []metadata.Qualifier{metadata.Q("Pay", "kind", "card"), metadata.Any()}
	assert.True(t, metadata.ContainsAll(have, nil))
	assert.True(t, metadata.ContainsAll(have, []metadata.Qualifier{metadata.Q("Pay", "kind", "card")}))
	assert.False(t, metadata.ContainsAll(have, []metadata.Qualifier{metadata.Default()}))
}

func TestUniverse_Hierarchy(t *testing.T) {
	t.Parallel()
	u := metadata.NewUniverse()
	require.NoError(t, u.Add(
		metadata.Define("a.Base").Implements("a.Service").Type(),
		metadata.Define("a.Mid").Extends("a.Base").Type(),
		metadata.Define("a.Leaf").Extends("a.Mid").Method(metadata.Business("run", nil)).Type(),
	))

	var names []string
	for _, t := range u.ReverseHierarchy("a.Leaf") {
		names = append(names, t.Name)
	}
	assert.Equal(t, []string{"a.Base", "a.Mid", "a.Leaf"}, names)

	assert.True(t, u.IsAssignable("a.Service", "a.Leaf"))
	assert.True(t, u.IsAssignable("a.Base", "a.Mid"))
	assert.False(t, u.IsAssignable("a.Leaf", "a.Base"))
	assert.True(t, u.IsAssignable(metadata.ObjectType, "a.Base"))

	leaf, ok := u.Type("a.Leaf")
	require.True(t, ok)
	assert.Equal(t, "a.Leaf", leaf.Method("run").DeclaringType())
}

func TestUniverse_AddDuplicate(t *testing.T) {
	t.Parallel()
	u := metadata.NewUniverse()
	require.NoError(t, u.Add(metadata.Define("a.X").Type()))
	assert.Error(t, u.Add(metadata.Define("a.X").Type()))
}

func TestUniverse_Stereotypes(t *testing.T) {
	t.Parallel()
	u := metadata.NewUniverse()
	u.AddStereotype(&metadata.Stereotype{Name: "Model", Scope: metadata.Request, Named: true, Stereotypes: []string{"Mock"}})
	u.AddStereotype(&metadata.Stereotype{Name: "Mock", Alternative: true})

	got := u.Stereotypes([]string{"Model"})
	require.Len(t, got, 2)
	assert.Equal(t, "Model", got[0].Name)
	assert.Equal(t, "Mock", got[1].Name)
}

func TestDefaultNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "paymentService", metadata.DefaultBeanName("shop.PaymentService"))
	assert.Equal(t, "currentUser", metadata.ProducerDefaultName("getCurrentUser"))
	assert.Equal(t, "enabled", metadata.ProducerDefaultName("isEnabled"))
	assert.Equal(t, "random", metadata.ProducerDefaultName("random"))
}

func TestMethod_Signature(t *testing.T) {
	t.Parallel()
	m := metadata.Around(metadata.AroundInvoke, "log", nil)
	assert.Equal(t, "log(InvocationContext)", m.Signature())
	assert.True(t, m.Has(metadata.AnnAroundInvoke))
	assert.False(t, m.IsVoid())

	pc := metadata.Lifecycle(metadata.PostConstruct, "init", func(any) error { return nil })
	assert.True(t, pc.IsVoid())
	assert.Empty(t, pc.Params)
}
