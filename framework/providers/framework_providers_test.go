package providers_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-webbeans/framework/config"
	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/descriptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/passivation"
	"github.com/km-arc/go-webbeans/framework/providers"
)

func deploy(t *testing.T, ps ...container.ServiceProvider) *container.Container {
	t.Helper()
	d := container.NewDeployment(container.DefaultConfig())
	d.Register(ps...)
	c, err := d.Deploy(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })
	return c
}

type greeter struct {
	cfg *config.Config
}

func TestConfigServiceProvider_Injects(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{App: config.AppConfig{Name: "Shop"}}
	d := container.NewDeployment(container.DefaultConfig())
	d.Register(&providers.ConfigServiceProvider{Config: cfg})
	d.Add(metadata.Define("web.Greeter").
		Constructor(metadata.NoArgs(func() any { return &greeter{} })).
		Field(metadata.Inject("cfg", providers.ConfigType, func(target, v any) {
			target.(*greeter).cfg = v.(*config.Config)
		})).Type())
	c, err := d.Deploy(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })

	g, err := container.Resolve[*greeter](context.Background(), c, "web.Greeter")
	require.NoError(t, err)
	assert.Same(t, cfg, g.cfg)
}

func TestConfigServiceProvider_RequiresConfig(t *testing.T) {
	t.Parallel()

	d := container.NewDeployment(container.DefaultConfig())
	d.Register(&providers.ConfigServiceProvider{})
	_, err := d.Deploy(context.Background())
	require.Error(t, err)
}

func TestDescriptorServiceProvider(t *testing.T) {
	t.Parallel()

	desc, err := descriptor.Parse([]byte("alternatives:\n  classes: [pay.Mock]\n"))
	require.NoError(t, err)

	c := deploy(t, &providers.DescriptorServiceProvider{Descriptor: desc})
	assert.True(t, c.Registry().IsAlternativeEnabled("pay.Mock"))

	deploy(t, &providers.DescriptorServiceProvider{})
}

func TestPassivationServiceProvider_Memory(t *testing.T) {
	t.Parallel()

	p := &providers.PassivationServiceProvider{Session: config.SessionConfig{Store: "memory"}}
	c := deploy(t, p)
	assert.False(t, c.Providers().IsBooted(p), "deferred until referenced")

	store, err := container.Resolve[passivation.Store](context.Background(), c, providers.PassivationStoreType)
	require.NoError(t, err)
	assert.IsType(t, &passivation.MemoryStore{}, store)
	assert.True(t, c.Providers().IsBooted(p))

	again, err := container.Resolve[passivation.Store](context.Background(), c, providers.PassivationStoreType)
	require.NoError(t, err)
	assert.Same(t, store, again)
}

func TestPassivationServiceProvider_Redis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	p := &providers.PassivationServiceProvider{Session: config.SessionConfig{Store: "redis", RedisAddr: mr.Addr()}}
	c := deploy(t, p)

	store, err := container.Resolve[passivation.Store](context.Background(), c, providers.PassivationStoreType)
	require.NoError(t, err)
	require.IsType(t, &passivation.RedisStore{}, store)

	snap := &passivation.Snapshot{SessionID: "s1", PassivatedAt: time.Now()}
	require.NoError(t, store.Save(context.Background(), snap, time.Minute))
	assert.True(t, mr.Exists(passivation.DefaultKeyPrefix+"s1"))
}

func TestPassivationServiceProvider_RedisUnreachable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	p := &providers.PassivationServiceProvider{
		Session:     config.SessionConfig{Store: "redis", RedisAddr: addr},
		PingTimeout: time.Second,
	}
	c := deploy(t, p)

	_, err := c.Reference(context.Background(), providers.PassivationStoreType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passivation store")
}

func TestPassivationServiceProvider_UnknownStore(t *testing.T) {
	t.Parallel()

	c := deploy(t, &providers.PassivationServiceProvider{Session: config.SessionConfig{Store: "disk"}})
	_, err := c.Reference(context.Background(), providers.PassivationStoreType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown session store "disk"`)
}
