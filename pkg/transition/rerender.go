package transition

import (
	"slices"

	"github.com/tnhu/wpm/pkg/observe"
	"github.com/tnhu/wpm/pkg/route"
)

// observe starts watching the model of in. Changes seen at a checkpoint
// re-render in and its descendants.
func (e *Engine) observe(in *route.Instance) {
	o := e.cfg.Observer
	if o == nil {
		return
	}
	stop := o.ObserveLocked(
		func(visit func(any)) {
			in.Data().ReadModel(func(m any) { visit(map[string]any{route.RootModel: m}) })
		},
		func(observe.Change) {
			if in.State() == route.StateReady && !in.ObserverPaused() {
				e.DataChanged(in)
			}
		},
	)
	in.SetUnobserve(stop)
}

// DataChanged re-renders in and every READY instance below it in the
// active chain. It does nothing when in is not active.
func (e *Engine) DataChanged(in *route.Instance) {
	if e.cfg.Surface == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := slices.Index(e.committed.instances, in)
	if idx < 0 {
		e.logger.Debug("data changed on inactive route", "path", in.Definition().Path)
		return
	}
	uri := e.committed.uri
	for _, r := range slices.Clone(e.committed.instances[idx:]) {
		if e.committed.uri != uri {
			return
		}
		if r.State() != route.StateReady || r.View() == nil {
			continue
		}
		if err := e.rerender(r); err != nil {
			e.reportFailure(r, err, route.StateRender)
		}
	}
}

func (e *Engine) rerender(in *route.Instance) error {
	markup, err := e.renderModel(e.ctx, in)
	if err != nil {
		return err
	}
	if err := e.update(in, markup); err != nil {
		return err
	}
	if !e.reflectBindings(in) {
		return nil
	}
	if markup, err = e.renderModel(e.ctx, in); err != nil {
		return err
	}
	return e.update(in, markup)
}
