package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-webbeans/framework/app"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "webbeans "+app.Version+"\n", out)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("scopes:\n  - kind: TenantScoped\n"), 0o644))
	out, err := run(t, "validate", "-f", good)
	require.NoError(t, err)
	assert.Contains(t, out, "descriptor: "+good)
	assert.Contains(t, out, "deployment is valid")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("interceptors: [shop.Ghost]\ndecorators: [shop.Phantom]\n"), 0o644))
	out, err = run(t, "validate", "-f", bad)
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "2 deployment error(s)")
	assert.Contains(t, out, "shop.Ghost")
	assert.Contains(t, out, "shop.Phantom")

	malformed := filepath.Join(dir, "malformed.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("interceptors: [Ghost]\n"), 0o644))
	_, err = run(t, "validate", "-f", malformed)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errInvalid)
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
