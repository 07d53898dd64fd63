package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/km-arc/go-webbeans/framework/config"
	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/descriptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/passivation"
)

// Contract types contributed by the framework providers.
const (
	ConfigType           = "webbeans.Config"
	PassivationStoreType = "webbeans.PassivationStore"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider exposes the loaded configuration as a singleton
// bean, so beans can inject it.
//
// Beans:
//   - webbeans.Config → *config.Config
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(d *container.Deployment) error {
	if p.Config == nil {
		return fmt.Errorf("providers: config provider without a config")
	}
	cfg := p.Config
	d.Add(metadata.Define(ConfigType).
		Scoped(metadata.Singleton).
		Constructor(metadata.NoArgs(func() any { return cfg })).
		Type())
	return nil
}

func (p *ConfigServiceProvider) Provides() []string { return []string{ConfigType} }

// ── DescriptorServiceProvider ─────────────────────────────────────────────────

// DescriptorServiceProvider applies a beans.yaml descriptor: stereotypes,
// interceptor and decorator order, and alternatives. Its scopes must
// already be part of the deployment config.
type DescriptorServiceProvider struct {
	container.BaseProvider
	Descriptor *descriptor.Descriptor
}

func (p *DescriptorServiceProvider) Register(d *container.Deployment) error {
	if p.Descriptor == nil {
		return nil
	}
	return p.Descriptor.Apply(d)
}

// ── PassivationServiceProvider ────────────────────────────────────────────────

// PassivationServiceProvider contributes the session passivation store.
// It is deferred: a Redis connection is only opened and checked the first
// time the store is referenced.
//
// Beans:
//   - webbeans.PassivationStore → passivation.Store (memory or redis per
//     session.store)
type PassivationServiceProvider struct {
	container.BaseProvider
	Session config.SessionConfig
	// PingTimeout bounds the Redis check in Boot. Zero means 5s.
	PingTimeout time.Duration
}

func (p *PassivationServiceProvider) Register(d *container.Deployment) error {
	session := p.Session
	d.Add(metadata.Define(PassivationStoreType).
		Scoped(metadata.Singleton).
		Constructor(metadata.InjectConstructor(func([]any) (any, error) {
			return newStore(session)
		})).
		Method(metadata.Lifecycle(metadata.PreDestroy, "close", func(target any) error {
			if rs, ok := target.(*passivation.RedisStore); ok {
				return rs.Close()
			}
			return nil
		})).
		Type())
	return nil
}

// Boot checks the store is reachable.
func (p *PassivationServiceProvider) Boot(c *container.Container) error {
	timeout := p.PingTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := container.Resolve[passivation.Store](ctx, c, PassivationStoreType)
	if err != nil {
		return err
	}
	if rs, ok := store.(*passivation.RedisStore); ok {
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("providers: passivation store: %w", err)
		}
	}
	return nil
}

func (p *PassivationServiceProvider) Provides() []string { return []string{PassivationStoreType} }
func (p *PassivationServiceProvider) IsDeferred() bool   { return true }

func newStore(session config.SessionConfig) (passivation.Store, error) {
	switch session.Store {
	case "", "memory":
		return passivation.NewMemoryStore(), nil
	case "redis":
		return passivation.NewRedisStore(passivation.RedisConfig{Addr: session.RedisAddr}), nil
	}
	return nil, fmt.Errorf("providers: unknown session store %q", session.Store)
}
