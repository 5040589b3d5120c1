package transition

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/route"
)

type resignError struct {
	in  *route.Instance
	err error
}

func (e *resignError) Error() string { return e.err.Error() }
func (e *resignError) Unwrap() error { return e.err }

// resign asks the instances t leaves behind to resign, leaf first, up to
// the first instance t keeps. Instances already resigned by a transition t
// superseded are adopted as they are.
func (e *Engine) resign(t *Transition) error {
	old := e.committed.instances
	for i := len(old) - 1; i >= 0; i-- {
		in := old[i]
		if slices.Contains(t.chain, in) {
			break
		}
		if in.State() != route.StateReady {
			continue
		}
		st := &Stage{Name: StageResign, Instance: in, run: func(ctx context.Context, _ any) (any, error) {
			in.SetState(route.StateResign)
			return nil, e.hook(func() error { return in.Route().Resign(ctx, in) })
		}}
		if _, err := e.runStage(t, st, nil); err != nil {
			if stderrors.Is(err, ErrSuperseded) {
				return err
			}
			return &resignError{in: in, err: err}
		}
	}
	return nil
}

func (e *Engine) rejected(t *Transition, err error) (Outcome, error) {
	var re *resignError
	if !stderrors.As(err, &re) || e.target != t {
		return OutcomeSuperseded, nil
	}
	re.in.SetState(route.StateReady)
	e.restoreCommitted()
	e.resetTarget(t)
	return OutcomeRejected, errors.New("W007").WithPath(re.in.Definition().Path).Wrap(re.err)
}

// hideInactive hides the resigned instances of the active chain that t
// does not keep.
func (e *Engine) hideInactive(t *Transition) {
	for _, in := range slices.Backward(e.committed.instances) {
		if slices.Contains(t.chain, in) || in.State() != route.StateResign {
			continue
		}
		in.SetState(route.StateHide)
		e.hideView(in)
	}
}

// deactivateStage pauses the instances t left behind, or exits them when
// t replaced the history entry.
func (e *Engine) deactivateStage(t *Transition) *Stage {
	return &Stage{Name: StageDeactive, commit: true, run: func(ctx context.Context, _ any) (any, error) {
		for _, in := range slices.Backward(t.old.instances) {
			if slices.Contains(t.chain, in) || !in.State().Resigned() {
				continue
			}
			if t.Mode.pauses() {
				e.pause(ctx, in)
			} else {
				e.exit(ctx, in)
			}
		}
		return nil, nil
	}}
}

// exitPrevious exits the previous leaf after a navigate.
func (e *Engine) exitPrevious(t *Transition) error {
	prev := t.old.leaf()
	if prev == nil || slices.Contains(t.chain, prev) {
		return nil
	}
	st := &Stage{Name: StageExit, Instance: prev, commit: true, run: func(ctx context.Context, _ any) (any, error) {
		if prev.State() == route.StatePause {
			e.exit(ctx, prev)
		}
		return nil, nil
	}}
	_, err := e.runStage(t, st, nil)
	return err
}

func (e *Engine) pause(ctx context.Context, in *route.Instance) {
	in.SetState(route.StatePause)
	if err := e.hook(func() error { return in.Route().Pause(ctx, in) }); err != nil {
		e.reportFailure(in, err, route.StatePause)
	}
}

func (e *Engine) exit(ctx context.Context, in *route.Instance) {
	in.SetState(route.StateExit)
	e.hideView(in)
	if err := e.hook(func() error { return in.Route().Exit(ctx, in) }); err != nil {
		e.reportFailure(in, err, route.StateExit)
	}
	e.destroy(in)
}

// reportFailure hands a hook error that does not affect the chain to the
// route's Fail hook.
func (e *Engine) reportFailure(in *route.Instance, err error, state route.State) {
	_ = e.hook(func() error {
		in.Route().Fail(in, err, state)
		return nil
	})
}

// fail handles a stage of in failing. A failure before commit tears down
// what t entered and restores the active chain.
func (e *Engine) fail(t *Transition, in *route.Instance, err error) (Outcome, error) {
	if stderrors.Is(err, ErrSuperseded) {
		if t.entering[in] && !e.reusedByTarget(in) && in.State() != route.StateReady {
			e.reportFailure(in, ErrSuperseded, route.StateAbort)
		}
		e.discard(t, false)
		return OutcomeSuperseded, nil
	}

	state := in.State()
	e.reportFailure(in, err, state)
	werr := wrapHookError(in, err)

	if t.committed {
		return OutcomeFailed, werr
	}
	switch {
	case e.committed.contains(in):
		in.SetState(route.StateReady)
		in.EndEntry()
	case t.entering[in] && !in.State().Terminal():
		in.SetState(route.StateAbort)
		e.destroy(in)
	}
	if e.target != t {
		e.discard(t, false)
		return OutcomeFailed, werr
	}
	e.discard(t, true)
	e.restoreCommitted()
	e.resetTarget(t)
	return OutcomeFailed, werr
}

func (e *Engine) reusedByTarget(in *route.Instance) bool {
	return e.target != nil && slices.Contains(e.target.chain, in)
}

// discard tears down the instances t entered that neither the active
// chain nor the target keeps. Ready instances are exited when exitReady is
// set and aborted otherwise.
func (e *Engine) discard(t *Transition, exitReady bool) {
	for _, in := range slices.Backward(t.chain) {
		if !t.entering[in] || e.committed.contains(in) || e.reusedByTarget(in) {
			continue
		}
		switch s := in.State(); {
		case s.Terminal():
		case s == route.StateReady && exitReady:
			e.exit(t.ctx, in)
		default:
			e.hideView(in)
			in.SetState(route.StateAbort)
			e.destroy(in)
		}
	}
}

// abortStale aborts what prev was entering when next supersedes it,
// except instances next reuses.
func (e *Engine) abortStale(prev, next *Transition) {
	for _, in := range slices.Backward(prev.chain) {
		if !prev.entering[in] || slices.Contains(next.chain, in) || e.committed.contains(in) {
			continue
		}
		if s := in.State(); s.Entering() {
			in.SetState(route.StateAbort)
			e.destroy(in)
		}
	}
}

// restoreCommitted brings resigned and hidden instances of the active
// chain back to READY.
func (e *Engine) restoreCommitted() {
	for _, in := range e.committed.instances {
		s := in.State()
		if !s.Resigned() {
			continue
		}
		in.BeginEntry()
		in.SetState(route.StateResume)
		if err := e.hook(func() error { return in.Route().Resume(e.ctx, in) }); err != nil {
			e.reportFailure(in, err, route.StateResume)
		}
		if s == route.StateHide {
			if sv := e.reg.SharedView(in.Definition()); sv != nil && sv.Owner == in {
				sv.View.Show()
			}
		}
		in.SetState(route.StateReady)
		in.EndEntry()
	}
}

func (e *Engine) hideView(in *route.Instance) {
	if sv := e.reg.SharedView(in.Definition()); sv != nil && sv.Owner == in {
		sv.View.Hide()
	}
}

// destroy evicts in from the cache and stops observing it. Its view is
// removed and its Destroy hook called after the grace period.
func (e *Engine) destroy(in *route.Instance) {
	if in.State() == route.StateDestroy {
		return
	}
	e.reg.Evict(in)
	in.Unobserve()
	in.SetState(route.StateDestroy)
	in.EndEntry()

	release := func() {
		if v, ok := e.reg.ReleaseSharedView(in.Definition(), in); ok {
			v.Unmount()
		}
		if d, ok := in.Route().(route.Destroyer); ok {
			d.Destroy(in)
		}
		in.Release()
	}
	if e.cfg.DestroyGrace <= 0 {
		release()
		return
	}
	time.AfterFunc(e.cfg.DestroyGrace, release)
}
