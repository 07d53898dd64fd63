package descriptor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/descriptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

const sample = `
interceptors:
  - shop.AuditInterceptor
  - shop.TimingInterceptor
decorators:
  - shop.LoudCart
alternatives:
  classes: [pay.MockPayment]
  stereotypes: [pay.Mock]
stereotypes:
  - name: pay.Mock
    alternative: true
    bindings: [shop.Audited]
scopes:
  - kind: TenantScoped
    normal: true
    passivating: true
`

func TestParse(t *testing.T) {
	t.Parallel()

	d, err := descriptor.Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"shop.AuditInterceptor", "shop.TimingInterceptor"}, d.Interceptors)
	assert.Equal(t, []string{"shop.LoudCart"}, d.Decorators)
	assert.Equal(t, []string{"pay.MockPayment"}, d.Alternatives.Classes)
	assert.Equal(t, []string{"pay.Mock"}, d.Alternatives.Stereotypes)
	require.Len(t, d.Stereotypes, 1)
	assert.True(t, d.Stereotypes[0].Alternative)
	assert.Equal(t, []metadata.ScopeDef{
		{Kind: "TenantScoped", Normal: true, Passivating: true},
	}, d.ScopeDefs())
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	d, err := descriptor.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, d.Interceptors)
	assert.Empty(t, d.ScopeDefs())
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "interceptor:\n  - shop.A\n", "field interceptor not found"},
		{"unqualified interceptor", "interceptors: [Audit]\n", "interceptors.0"},
		{"empty decorator", "decorators: ['']\n", "decorators.0 is required"},
		{"builtin scope", "scopes:\n  - kind: RequestScoped\n", "scopes.0.kind"},
		{"scope without kind", "scopes:\n  - normal: true\n", "scopes.0.kind is required"},
		{"stereotype scope", "stereotypes:\n  - name: x.S\n    scope: not a scope\n", "stereotypes.0.scope"},
		{"wrong shape", "alternatives: [a.B]\n", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := descriptor.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "beans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	d, err := descriptor.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, d.Source)
	assert.Len(t, d.Interceptors, 2)

	missing, err := descriptor.Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing.Source)
	assert.Empty(t, missing.Interceptors)
}

func TestApply_ReportsEveryDuplicate(t *testing.T) {
	t.Parallel()

	d, err := descriptor.Parse([]byte("interceptors: [a.I, a.I]\ndecorators: [a.D, a.D]\n"))
	require.NoError(t, err)

	err = d.Apply(container.NewDeployment(container.DefaultConfig()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interceptor a.I is already enabled")
	assert.Contains(t, err.Error(), "decorator a.D is already enabled")
}

type payment struct{ kind string }

func TestApply_EnablesStereotypeAlternative(t *testing.T) {
	t.Parallel()

	d, err := descriptor.Parse([]byte(`
alternatives:
  stereotypes: [pay.Mock]
stereotypes:
  - name: pay.Mock
    alternative: true
scopes:
  - kind: TenantScoped
`))
	require.NoError(t, err)

	cfg := container.DefaultConfig()
	cfg.Scopes = d.ScopeDefs()
	dep := container.NewDeployment(cfg)
	require.NoError(t, d.Apply(dep))

	_, err = dep.Scopes().Lookup("TenantScoped")
	require.NoError(t, err)

	dep.Add(
		metadata.Define("pay.Payment").Interface().Type(),
		metadata.Define("pay.CardPayment").
			Implements("pay.Payment").
			Constructor(metadata.NoArgs(func() any { return &payment{kind: "card"} })).
			Type(),
		metadata.Define("pay.MockPayment").
			Implements("pay.Payment").
			Stereotyped("pay.Mock").
			Constructor(metadata.NoArgs(func() any { return &payment{kind: "mock"} })).
			Type(),
	)

	ctx, _ := contexts.WithUnit(context.Background())
	c, err := dep.Deploy(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })

	p, err := container.Resolve[*payment](ctx, c, "pay.Payment")
	require.NoError(t, err)
	assert.Equal(t, "mock", p.kind)
}
