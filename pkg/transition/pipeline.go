package transition

import (
	"context"
	stderrors "errors"
	"slices"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/route"
)

// ErrSuperseded is reported to stages of a transition that a newer one
// replaced. Routes receive it in Fail with StateAbort.
var ErrSuperseded = stderrors.New("transition: superseded")

// ErrSkipped is reported to middleware when a commit stage was skipped
// because its transition is no longer the newest.
var ErrSkipped = stderrors.New("transition: stage skipped")

// Stage names.
const (
	StageResign    = "resign"
	StageEnter     = "enter"
	StageRenderTo  = "renderTo"
	StagePreModel  = "preModel"
	StagePrerender = "prerender"
	StagePremount  = "premount"
	StageModel     = "model"
	StagePostModel = "postModel"
	StageStore     = "store"
	StageRender    = "render"
	StageMount     = "mount"
	StageBindings  = "bindings"
	StageResume    = "resume"
	StageTitle     = "title"
	StageHide      = "hide"
	StageHistory   = "history"
	StageShow      = "show"
	StageDeactive  = "deactivate"
	StageReady     = "ready"
	StageExit      = "exit"
)

// Stage is one step of a transition. Stages run in order with the engine
// lock held; hooks inside a stage run with it released.
type Stage struct {
	Name       string
	Transition *Transition

	// Instance is the route instance the stage works on, nil for stages
	// that act on the whole chain.
	Instance *route.Instance

	// commit stages only run while their transition is the newest.
	commit bool

	// reusable stages keep running for a superseded transition when the
	// newest transition reuses the instance.
	reusable bool

	run func(ctx context.Context, val any) (any, error)
}

// Path returns the route path of the stage instance, or "".
func (s *Stage) Path() string {
	if s.Instance == nil {
		return ""
	}
	return s.Instance.Definition().Path
}

// Middleware wraps stage execution. Middleware runs with the engine lock
// held and must not call back into the engine.
type Middleware interface {
	Handle(ctx context.Context, st *Stage, next func() error) error
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, st *Stage, next func() error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(ctx context.Context, st *Stage, next func() error) error {
	return f(ctx, st, next)
}

// Settler is implemented by middleware that wants to see every settled
// transition.
type Settler interface {
	Settled(t *Transition)
}

// runStage runs st for t through the middleware chain. The supersession
// check is the innermost link, so middleware observes rejected stages too.
func (e *Engine) runStage(t *Transition, st *Stage, val any) (any, error) {
	st.Transition = t
	var out any
	h := func() error {
		if err := e.checkLive(t, st); err != nil {
			return err
		}
		v, err := st.run(t.ctx, val)
		out = v
		return err
	}
	for i := len(e.cfg.Middleware) - 1; i >= 0; i-- {
		mw, next := e.cfg.Middleware[i], h
		h = func() error { return mw.Handle(t.ctx, st, next) }
	}

	err := h()
	if stderrors.Is(err, ErrSkipped) {
		return val, nil
	}
	return out, err
}

func (e *Engine) runStages(t *Transition, stages []*Stage) error {
	var val any
	for _, st := range stages {
		var err error
		if val, err = e.runStage(t, st, val); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) checkLive(t *Transition, st *Stage) error {
	current := e.target == t
	if st.commit {
		if !current {
			return ErrSkipped
		}
		return nil
	}
	in := st.Instance
	if in == nil {
		if !current {
			return ErrSuperseded
		}
		return nil
	}
	if in.State().Terminal() {
		if current {
			return errors.New("W008").WithPath(in.Definition().Path)
		}
		return ErrSuperseded
	}
	if current {
		return nil
	}
	if st.reusable && e.target != nil && slices.Contains(e.target.chain, in) {
		return nil
	}
	return ErrSuperseded
}

// hook runs fn with the engine lock released.
func (e *Engine) hook(fn func() error) error {
	e.mu.Unlock()
	defer e.mu.Lock()
	return fn()
}
