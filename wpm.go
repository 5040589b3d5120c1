package wpm

import (
	"context"
	"log/slog"
	"os"

	"github.com/tnhu/wpm/internal/config"
	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/actions"
	"github.com/tnhu/wpm/pkg/bridge"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/history"
	"github.com/tnhu/wpm/pkg/i18n"
	"github.com/tnhu/wpm/pkg/manifest"
	"github.com/tnhu/wpm/pkg/observe"
	"github.com/tnhu/wpm/pkg/render"
	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/router"
	"github.com/tnhu/wpm/pkg/transition"
)

// Version is the wpm release.
const Version = "0.4.0"

// App is one navigation runtime: a registry of routes, the engine driving
// them, the dispatcher routing events to them and the document they render
// into.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	registry   *router.Registry
	templates  *render.Templates
	document   *dom.Document
	observer   *observe.Observer
	catalog    *i18n.Catalog
	history    history.History
	engine     *transition.Engine
	dispatcher *actions.Dispatcher

	cancel context.CancelFunc
}

var _ bridge.Runtime = (*App)(nil)

// New builds an App from cfg. Templates, messages and the route manifest
// are loaded from the configured paths when they exist.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	}
	if o.history == nil {
		o.history = history.NewMemory()
	}

	a := &App{
		cfg:       cfg,
		logger:    o.logger,
		registry:  router.NewRegistry(router.WithLogger(o.logger)),
		templates: render.New(),
		document:  dom.NewDocument(),
		observer:  observe.New(observe.WithLogger(o.logger)),
		history:   o.history,
	}

	if o.shell != "" {
		if err := a.document.SetBody(o.shell); err != nil {
			return nil, errors.New("W021").WithDetail("Invalid shell markup.").Wrap(err)
		}
	}
	root, err := a.root()
	if err != nil {
		return nil, err
	}

	if err := a.loadTemplates(); err != nil {
		return nil, err
	}
	if a.catalog, err = i18n.New(cfg.I18n.Language, i18n.WithLogger(o.logger)); err != nil {
		return nil, errors.New("W021").WithDetail("Invalid i18n.language.").Wrap(err)
	}
	if _, err := a.catalog.LoadDir(cfg.Resolve(cfg.I18n.Dir)); err != nil {
		return nil, errors.New("W021").WithPath(cfg.I18n.Dir).WithDetail("Cannot load messages.").Wrap(err)
	}

	engineOpts := []transition.Option{
		transition.WithLogger(o.logger),
		transition.WithHistory(a.history),
		transition.WithSurface(a.document),
		transition.WithRoot(root),
		transition.WithTemplates(a.templates),
		transition.WithObserver(a.observer),
		transition.WithBasePath(cfg.BasePath),
		transition.WithDestroyGrace(cfg.Routes.DestroyGrace),
		transition.WithMiddleware(o.middleware...),
		transition.WithI18n(a.catalog.Snapshot),
	}
	for _, fn := range o.onSettled {
		engineOpts = append(engineOpts, transition.OnSettled(fn))
	}
	a.engine = transition.New(a.registry, engineOpts...)

	a.dispatcher = actions.New(a.engine, a.registry,
		actions.WithLogger(o.logger),
		actions.WithDefaultEvent(cfg.Events.Default),
		actions.WithAlternativeEvent(cfg.Events.Alternative),
		actions.WithDedupeWindow(cfg.Events.DedupeWindow),
		actions.WithObserver(a.observer),
	)

	if err := a.loadManifest(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if cfg.Routes.ObserveInterval > 0 {
		go a.observer.Run(ctx, cfg.Routes.ObserveInterval)
	}
	return a, nil
}

// root returns the element routes without a parent outlet render into.
func (a *App) root() (dom.Element, error) {
	if a.cfg.AppRoot == "" {
		return a.document.Body(), nil
	}
	el, ok := a.document.Query("id", a.cfg.AppRoot)
	if !ok {
		return nil, errors.New("W021").
			WithDetail("app_root " + a.cfg.AppRoot + " is not in the shell.").
			WithSuggestion("Pass a shell containing the element with WithShell.")
	}
	return el, nil
}

func (a *App) loadTemplates() error {
	dir := a.cfg.Resolve(a.cfg.Paths.Templates)
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	n, err := a.templates.LoadDir(dir)
	if err != nil {
		return errors.New("W021").WithPath(dir).WithDetail("Cannot load templates.").Wrap(err)
	}
	a.logger.Debug("templates loaded", "dir", dir, "count", n)
	return nil
}

func (a *App) loadManifest() error {
	path := a.cfg.Resolve(a.cfg.Paths.Manifest)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	_, err = manifest.Install(a.registry, a.engine, m,
		manifest.WithLogger(a.logger),
		manifest.WithTemplates(a.templates),
	)
	return err
}

// Route registers a route.
func (a *App) Route(path string, newRoute func() route.Route, opts ...route.DefinitionOption) (*route.Definition, error) {
	return a.registry.RegisterPath(path, newRoute, opts...)
}

// Component registers a component.
func (a *App) Component(c *route.Component) {
	a.registry.RegisterComponent(c)
}

// Navigate pushes uri.
func (a *App) Navigate(uri string) {
	a.engine.NavigateTo(uri, nil)
}

// HandleEvent dispatches a document event.
func (a *App) HandleEvent(ev *dom.Event) bool {
	return a.dispatcher.HandleEvent(ev)
}

// SetLanguage switches the message language. Instances built afterwards
// see the new messages.
func (a *App) SetLanguage(lang string) error {
	return a.catalog.SetLanguage(lang)
}

// Wait blocks until no transition is in flight.
func (a *App) Wait(ctx context.Context) error {
	return a.engine.Wait(ctx)
}

// Reset clears routes, instances, components and parsed actions.
func (a *App) Reset() {
	a.engine.Reset()
	a.dispatcher.Reset()
}

// Close stops the observer ticker and cancels transitions in flight.
func (a *App) Close() {
	a.cancel()
	a.engine.Close()
}

func (a *App) Config() *config.Config { return a.cfg }
func (a *App) Logger() *slog.Logger { return a.logger }
func (a *App) Registry() *router.Registry { return a.registry }
func (a *App) Templates() *render.Templates { return a.templates }
func (a *App) Document() *dom.Document { return a.document }
func (a *App) Observer() *observe.Observer { return a.observer }
func (a *App) Catalog() *i18n.Catalog { return a.catalog }
func (a *App) History() history.History { return a.history }
func (a *App) Engine() *transition.Engine { return a.engine }
func (a *App) Dispatcher() *actions.Dispatcher { return a.dispatcher }
