package transition

import (
	"context"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/routepath"
)

// activate brings in to READY as part of t. The leaf also carries the
// commit: hiding what t leaves behind, writing history and pausing or
// exiting the old chain.
func (e *Engine) activate(t *Transition, in, parent *route.Instance, leaf bool) error {
	if err := e.awaitEntry(t, in); err != nil {
		return err
	}
	in.Attach(t.URI, parent)

	var prepare []*Stage
	var show, ready *Stage
	switch s := in.State(); {
	case s == route.StateReady:
	case s.Resigned():
		prepare = []*Stage{e.resumeStage(t, in)}
		if s == route.StateHide {
			show = e.showStage(in)
		}
		ready = e.readyStage(in, false)
	case s == route.StatePause:
		prepare = append([]*Stage{e.resumeStage(t, in), e.renderToStage(in, parent)}, e.renderStages(in)...)
		show, ready = e.showStage(in), e.readyStage(in, true)
	case s == "":
		prepare = e.entryStages(t, in, parent)
		show, ready = e.showStage(in), e.readyStage(in, true)
	default:
		return errors.New("W008").WithPath(in.Definition().Path).
			WithDetail("Instance is in state " + s.String() + ".")
	}

	stages := prepare
	if leaf {
		stages = append(stages, e.commitStages(t)...)
	}
	if show != nil {
		stages = append(stages, show)
	}
	if leaf {
		stages = append(stages, e.deactivateStage(t))
	}
	if ready != nil {
		stages = append(stages, ready)
	}
	return e.runStages(t, stages)
}

// awaitEntry waits while another transition is entering in.
func (e *Engine) awaitEntry(t *Transition, in *route.Instance) error {
	for in.State().Entering() && !t.entering[in] {
		settled := in.Settled()
		if settled == nil {
			return nil
		}
		e.mu.Unlock()
		select {
		case <-settled:
		case <-t.ctx.Done():
		}
		e.mu.Lock()

		if err := t.ctx.Err(); err != nil {
			return err
		}
		if err := e.checkLive(t, &Stage{Name: StageEnter, Instance: in, reusable: true}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) stage(name string, in *route.Instance, run func(ctx context.Context, val any) (any, error)) *Stage {
	return &Stage{Name: name, Instance: in, reusable: true, run: run}
}

func (e *Engine) entryStages(t *Transition, in, parent *route.Instance) []*Stage {
	r := in.Route()
	stages := []*Stage{
		e.stage(StageEnter, in, func(ctx context.Context, _ any) (any, error) {
			t.entering[in] = true
			in.BeginEntry()
			in.SetState(route.StateEnter)
			return nil, e.hook(func() error { return r.Enter(ctx, in) })
		}),
		e.renderToStage(in, parent),
		e.stage(StagePreModel, in, func(ctx context.Context, _ any) (pm any, err error) {
			in.SetState(route.StatePreModel)
			err = e.hook(func() error {
				pm, err = r.PreModel(ctx, in)
				return err
			})
			return pm, err
		}),
	}
	if e.cfg.Surface != nil {
		stages = append(stages,
			e.stage(StagePrerender, in, func(ctx context.Context, pm any) (any, error) {
				if pm == nil {
					return nil, nil
				}
				markup, err := e.render(ctx, in, pm)
				if err != nil {
					return nil, err
				}
				return markup, nil
			}),
			e.stage(StagePremount, in, func(_ context.Context, markup any) (any, error) {
				if s, ok := markup.(string); ok {
					_, err := e.mount(in, s)
					return nil, err
				}
				return nil, nil
			}),
		)
	}
	stages = append(stages,
		e.stage(StageModel, in, func(ctx context.Context, _ any) (m any, err error) {
			in.SetState(route.StateModel)
			err = e.hook(func() error {
				m, err = r.Model(ctx, in)
				return err
			})
			return m, err
		}),
		e.stage(StagePostModel, in, func(ctx context.Context, m any) (pm any, err error) {
			in.SetState(route.StatePostModel)
			err = e.hook(func() error {
				pm, err = r.PostModel(ctx, in, m)
				return err
			})
			return pm, err
		}),
		e.stage(StageStore, in, func(_ context.Context, m any) (any, error) {
			if m != nil {
				in.Data().SetModel(m)
			}
			e.observe(in)
			return nil, nil
		}),
	)
	return append(stages, e.renderStages(in)...)
}

// renderStages render the instance model, mount it and reflect bindings,
// rendering once more when reflecting changed the model.
func (e *Engine) renderStages(in *route.Instance) []*Stage {
	if e.cfg.Surface == nil {
		return nil
	}
	return []*Stage{
		e.stage(StageRender, in, func(ctx context.Context, _ any) (any, error) {
			in.SetState(route.StateRender)
			return e.renderModel(ctx, in)
		}),
		e.stage(StageMount, in, func(_ context.Context, markup any) (any, error) {
			s, _ := markup.(string)
			return e.mount(in, s)
		}),
		e.stage(StageBindings, in, func(ctx context.Context, changed any) (any, error) {
			if c, _ := changed.(bool); !c {
				return nil, nil
			}
			markup, err := e.renderModel(ctx, in)
			if err != nil {
				return nil, err
			}
			return nil, e.update(in, markup)
		}),
	}
}

func (e *Engine) renderToStage(in, parent *route.Instance) *Stage {
	return e.stage(StageRenderTo, in, func(context.Context, any) (any, error) {
		var target dom.Element
		if parent != nil {
			target = parent.Outlet()
		}
		if target == nil {
			target = in.Definition().RenderTo
		}
		if target == nil {
			target = e.cfg.Root
		}
		if target == nil && e.cfg.Surface != nil {
			return nil, errors.New("W009").WithPath(in.Definition().Path)
		}
		in.SetRenderTo(target)
		return nil, nil
	})
}

func (e *Engine) resumeStage(t *Transition, in *route.Instance) *Stage {
	return e.stage(StageResume, in, func(ctx context.Context, _ any) (any, error) {
		t.entering[in] = true
		in.BeginEntry()
		in.SetState(route.StateResume)
		return nil, e.hook(func() error { return in.Route().Resume(ctx, in) })
	})
}

func (e *Engine) showStage(in *route.Instance) *Stage {
	return e.stage(StageShow, in, func(context.Context, any) (any, error) {
		in.SetState(route.StateShow)
		if sv := e.reg.SharedView(in.Definition()); sv != nil && sv.Owner == in {
			sv.View.Show()
		}
		return nil, nil
	})
}

// readyStage marks in READY and releases transitions waiting on it. The
// Ready hook runs after that, unless in was only restored.
func (e *Engine) readyStage(in *route.Instance, callHook bool) *Stage {
	return e.stage(StageReady, in, func(ctx context.Context, _ any) (any, error) {
		in.SetState(route.StateReady)
		in.EndEntry()
		if !callHook {
			return nil, nil
		}
		return nil, e.hook(func() error { return in.Route().Ready(ctx, in) })
	})
}

func (e *Engine) commitStages(t *Transition) []*Stage {
	leaf := t.chain[len(t.chain)-1]
	return []*Stage{
		{Name: StageHide, commit: true, run: func(context.Context, any) (any, error) {
			e.hideInactive(t)
			return nil, nil
		}},
		{Name: StageTitle, Instance: leaf, commit: true, run: func(context.Context, any) (any, error) {
			title := leaf.Definition().Title
			if tt, ok := leaf.Route().(route.Titler); ok {
				_ = e.hook(func() error {
					title = tt.Title(leaf)
					return nil
				})
			}
			return title, nil
		}},
		{Name: StageHistory, commit: true, run: func(_ context.Context, title any) (any, error) {
			s, _ := title.(string)
			e.commit(t, s)
			return nil, nil
		}},
	}
}

// commit makes t's chain the active one.
func (e *Engine) commit(t *Transition, title string) {
	if h := e.cfg.History; h != nil && t.Mode != ModePop {
		uri := routepath.WithBase(t.URI, e.cfg.BasePath)
		if t.Mode == ModeReplace {
			h.Replace(uri, title)
		} else {
			h.Push(uri, title)
		}
	}
	t.old = e.committed
	e.committed = chain{uri: t.URI, instances: t.chain}
	t.committed = true
	e.logger.Debug("transition committed", "uri", t.URI, "title", title)
}

func (e *Engine) render(ctx context.Context, in *route.Instance, model any) (markup string, err error) {
	err = e.hook(func() error {
		markup, err = e.renderMarkup(ctx, in, model)
		return err
	})
	return markup, err
}

func (e *Engine) renderMarkup(ctx context.Context, in *route.Instance, model any) (string, error) {
	if r, ok := in.Route().(route.Renderer); ok {
		return r.Render(ctx, in, model)
	}
	data := in.Data().Map()
	data[route.RootModel] = model
	return e.renderTemplate(in, data)
}

// renderModel renders the current model of in. A template renders under
// the data read lock so writes through Set never overlap it.
func (e *Engine) renderModel(ctx context.Context, in *route.Instance) (markup string, err error) {
	if _, ok := in.Route().(route.Renderer); ok {
		return e.render(ctx, in, in.Data().Model())
	}
	data := in.Data().Map()
	err = e.hook(func() error {
		in.Data().ReadModel(func(m any) {
			data[route.RootModel] = m
			markup, err = e.renderTemplate(in, data)
		})
		return err
	})
	return markup, err
}

func (e *Engine) renderTemplate(in *route.Instance, data map[string]any) (string, error) {
	def := in.Definition()
	if def.Template == "" || e.cfg.Templates == nil {
		return "", errors.New("W006").WithPath(def.Path)
	}
	out, err := e.cfg.Templates.Render(def.Template, data)
	if err != nil {
		return "", errors.New("W006").WithPath(def.Path).WithDetail(err.Error()).Wrap(err)
	}
	return out, nil
}

// mount puts markup into the instance's render target, reusing the
// definition's shared view when it already lives there, and reports
// whether reflecting bindings changed the model.
func (e *Engine) mount(in *route.Instance, markup string) (bool, error) {
	def := in.Definition()
	target := in.RenderTo()
	if target == nil {
		return false, errors.New("W009").WithPath(def.Path)
	}

	var v dom.View
	sv := e.reg.SharedView(def)
	if sv != nil && target.Contains(sv.View.Root()) {
		if err := sv.View.Update(markup); err != nil {
			return false, err
		}
		v = sv.View
	} else {
		var err error
		if v, err = e.cfg.Surface.Mount(target, markup); err != nil {
			return false, err
		}
		if sv != nil && sv.Owner.State().Terminal() {
			sv.View.Unmount()
		}
	}
	e.reg.SetSharedView(def, v, in)
	in.SetView(v)
	return e.reflectBindings(in), nil
}

// update re-renders the mounted view of in.
func (e *Engine) update(in *route.Instance, markup string) error {
	v := in.View()
	if v == nil {
		return nil
	}
	if err := v.Update(markup); err != nil {
		return err
	}
	in.SetView(v)
	return nil
}

// reflectBindings copies bound form control values into the model.
func (e *Engine) reflectBindings(in *route.Instance) bool {
	v := in.View()
	if v == nil {
		return false
	}
	in.PauseObserver(true)
	defer in.PauseObserver(false)

	changed := false
	for _, el := range v.Bindings() {
		path, _ := el.Attr("binding")
		var value any
		switch el.Type() {
		case "checkbox":
			value = el.Checked()
		case "radio":
			if !el.Checked() {
				continue
			}
			value = el.Value()
		default:
			value = el.Value()
		}
		if in.Data().Set(path, value) {
			changed = true
		}
	}
	return changed
}
