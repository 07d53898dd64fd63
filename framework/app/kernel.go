package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/config"
	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/descriptor"
	"github.com/km-arc/go-webbeans/framework/events"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/passivation"
	"github.com/km-arc/go-webbeans/framework/providers"
	gohttp "github.com/km-arc/go-webbeans/http"
	"github.com/km-arc/go-webbeans/routing"
)

// Version is reported by the CLI.
const Version = "0.1.0"

// Application wires configuration, logging, the deployment and the HTTP
// router together.
//
//	a, err := app.New(cfg, log)
//	a.Add(shop.Types()...)
//	a.Routes(func(r *routing.Router) { r.Get("/cart", cartHandler) })
//	err = a.Run(ctx)
type Application struct {
	Config     *config.Config
	Log        *zap.Logger
	Bus        *events.SimpleBus
	Descriptor *descriptor.Descriptor
	Deployment *container.Deployment
	Router     *routing.Router

	// Set by Boot.
	Container *container.Container
	Store     passivation.Store

	routes []func(r *routing.Router)
}

// New reads the deployment descriptor and prepares a deployment with the
// framework providers registered. Nothing is deployed yet.
func New(cfg *config.Config, log *zap.Logger) (*Application, error) {
	if log == nil {
		log = zap.NewNop()
	}
	desc, err := descriptor.Load(cfg.Descriptor.Path)
	if err != nil {
		return nil, err
	}

	cc := cfg.ContainerSettings()
	cc.Scopes = desc.ScopeDefs()

	bus := events.NewSimpleBus()
	dep := container.NewDeployment(cc, container.WithLogger(log), container.WithBus(bus))

	// Framework core providers
	dep.Register(
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.DescriptorServiceProvider{Descriptor: desc},
		&providers.PassivationServiceProvider{Session: cfg.Session},
	)

	return &Application{
		Config:     cfg,
		Log:        log,
		Bus:        bus,
		Descriptor: desc,
		Deployment: dep,
		Router:     routing.New(log),
	}, nil
}

// Register adds service providers to the deployment.
func (a *Application) Register(ps ...container.ServiceProvider) {
	a.Deployment.Register(ps...)
}

// Add registers bean types with the deployment.
func (a *Application) Add(types ...*metadata.Type) {
	a.Deployment.Add(types...)
}

// Routes queues application routes. They are mounted by Boot behind the
// context middleware.
func (a *Application) Routes(fn func(r *routing.Router)) {
	a.routes = append(a.routes, fn)
}

// Booted reports whether Boot succeeded.
func (a *Application) Booted() bool { return a.Container != nil }

// Boot deploys the container and mounts the routes.
func (a *Application) Boot(ctx context.Context) error {
	if a.Booted() {
		return nil
	}
	c, err := a.Deployment.Deploy(ctx)
	if err != nil {
		return err
	}
	store, err := container.Resolve[passivation.Store](ctx, c, providers.PassivationStoreType)
	if err != nil {
		c.Shutdown(ctx)
		return fmt.Errorf("app: %w", err)
	}
	a.Container, a.Store = c, store

	if a.Config.InspectEnabled() {
		gohttp.NewInspector(c, store, a.Config.Session.TTL).Mount(a.Router)
	}
	a.Router.Group(func(r *routing.Router) {
		r.Middleware(gohttp.ContextMiddleware(c.Contexts(), gohttp.ContextOptions{
			CookieName: a.Config.Session.CookieName,
			Secure:     !a.Config.IsLocal(),
			Logger:     a.Log,
		}))
		for _, fn := range a.routes {
			fn(r)
		}
	})
	return nil
}

// Run boots the application if needed, sweeps timed-out conversations in
// the background and serves HTTP on app.port until ctx is done. The
// container is shut down on the way out.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Boot(ctx); err != nil {
		return err
	}
	defer a.Container.Shutdown(context.Background())

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	if every := a.Config.Conversation.SweepInterval; every > 0 {
		go a.Container.Contexts().Conversations().RunSweeper(sweepCtx, every)
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.App.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	a.Log.Info("listening",
		zap.String("app", a.Config.App.Name),
		zap.String("addr", srv.Addr),
		zap.String("env", a.Config.App.Env))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	a.Log.Info("server stopped")
	return nil
}
