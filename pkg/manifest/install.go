package manifest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/render"
	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/router"
	"github.com/tnhu/wpm/pkg/transition"
)

// Navigator starts the navigations of redirects and manifest actions.
type Navigator interface {
	NavigateTo(uri string, query map[string]any) *transition.Transition
}

// Option configures Install.
type Option func(*installer)

// WithLogger sets the logger of installed routes.
func WithLogger(l *slog.Logger) Option {
	return func(in *installer) { in.logger = l }
}

// WithTemplates registers inline markup into t.
func WithTemplates(t *render.Templates) Option {
	return func(in *installer) { in.templates = t }
}

type installer struct {
	logger    *slog.Logger
	templates *render.Templates
	nav       Navigator
}

// Install registers every route of m in reg and returns the definitions in
// manifest order. Guards, inline markup and action templates are compiled
// before anything is registered, so a bad manifest registers nothing.
func Install(reg *router.Registry, nav Navigator, m *Manifest, opts ...Option) ([]*route.Definition, error) {
	in := &installer{logger: slog.Default(), nav: nav}
	for _, opt := range opts {
		opt(in)
	}

	specs := make([]*declaredSpec, 0, len(m.Routes))
	for i := range m.Routes {
		s, err := in.compile(&m.Routes[i])
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}

	defs := make([]*route.Definition, 0, len(specs))
	for _, s := range specs {
		if s.route.Markup != "" {
			if err := in.templates.Register(s.template, s.route.Markup); err != nil {
				return defs, errors.New("W030").WithPath(s.route.Path).Wrap(err)
			}
		}
		def, err := reg.RegisterPath(s.route.Path, s.newRoute(in), s.options(in.nav)...)
		if err != nil {
			return defs, err
		}
		defs = append(defs, def)
	}
	in.logger.Info("route manifest installed", "routes", len(defs))
	return defs, nil
}

// declaredSpec is a manifest route with its expressions compiled.
type declaredSpec struct {
	route    *Route
	template string
	guard    *Guard
	actions  map[string]*raymond.Template
}

func (in *installer) compile(r *Route) (*declaredSpec, error) {
	s := &declaredSpec{route: r, template: r.Template}
	if r.Markup != "" {
		if in.templates == nil {
			return nil, errors.New("W030").WithPath(r.Path).
				WithDetail("Inline markup needs a template set.")
		}
		if s.template == "" {
			s.template = r.Path
		}
	}
	if r.Guard != "" {
		g, err := CompileGuard(r.Guard)
		if err != nil {
			return nil, errors.New("W031").WithPath(r.Path).Wrap(err)
		}
		s.guard = g
	}
	if len(r.Actions) > 0 {
		s.actions = make(map[string]*raymond.Template, len(r.Actions))
		for name, src := range r.Actions {
			tpl, err := raymond.Parse(src)
			if err != nil {
				return nil, errors.New("W030").WithPath(r.Path).
					WithDetail("Action " + name + " has an invalid URI template.").Wrap(err)
			}
			s.actions[name] = tpl
		}
	}
	return s, nil
}

func (s *declaredSpec) options(nav Navigator) []route.DefinitionOption {
	var opts []route.DefinitionOption
	if s.template != "" {
		opts = append(opts, route.WithTemplate(s.template))
	}
	if s.route.Title != "" {
		opts = append(opts, route.WithTitle(s.route.Title))
	}
	if len(s.actions) > 0 {
		opts = append(opts, route.WithActions(s.routeActions(nav)))
	}
	return opts
}

func (s *declaredSpec) newRoute(in *installer) func() route.Route {
	return func() route.Route {
		return &declared{spec: s, nav: in.nav}
	}
}

// routeActions turns the action templates into handlers that navigate to
// the rendered URI. The template sees the data bag and the action
// arguments as params.
func (s *declaredSpec) routeActions(nav Navigator) map[string]route.Action {
	out := make(map[string]route.Action, len(s.actions))
	for name, tpl := range s.actions {
		out[name] = func(inst *route.Instance, args []any, _ *dom.Event) bool {
			ctx := inst.Data().Map()
			ctx["params"] = args
			uri, err := tpl.Exec(ctx)
			if err != nil {
				inst.Logger().Error("manifest action failed", "action", name, "error", err)
				return false
			}
			uri = strings.TrimSpace(uri)
			inst.Logger().Debug("manifest action", "action", name, "uri", uri)
			if nav != nil {
				nav.NavigateTo(uri, nil)
			}
			return false
		}
	}
	return out
}

// declared is the route handler built for manifest routes.
type declared struct {
	route.Base
	spec *declaredSpec
	nav  Navigator
}

// Enter evaluates the guard. A rejected guard redirects when the route
// declares a redirect and fails the transition either way.
func (d *declared) Enter(_ context.Context, in *route.Instance) error {
	if d.spec.guard == nil {
		return nil
	}
	ok, err := d.spec.guard.Allow(in.Data())
	if err != nil {
		return errors.New("W031").WithPath(d.spec.route.Path).Wrap(err)
	}
	if ok {
		return nil
	}
	rejected := errors.New("W032").WithPath(d.spec.route.Path).
		WithDetail("Guard " + d.spec.guard.String() + " is false.")
	if target := d.spec.route.Redirect; target != "" && d.nav != nil {
		in.Logger().Info("route guard redirect", "uri", in.URI(), "redirect", target)
		d.nav.NavigateTo(target, nil)
	}
	return rejected
}

// Model returns a copy of the static model.
func (d *declared) Model(context.Context, *route.Instance) (any, error) {
	if d.spec.route.Model == nil {
		return nil, nil
	}
	return cloneValue(d.spec.route.Model), nil
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
