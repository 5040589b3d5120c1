package transition

import (
	"context"
	"time"

	"github.com/tnhu/wpm/pkg/route"
)

// Mode is how a transition treats history and the chain it leaves.
type Mode int

const (
	// ModePush adds a history entry and pauses the instances left behind.
	ModePush Mode = iota

	// ModeNavigate is ModePush that also exits the previous leaf once
	// the transition completes.
	ModeNavigate

	// ModeReplace overwrites the history entry and exits the instances
	// left behind.
	ModeReplace

	// ModePop follows a history move and does not write history.
	ModePop
)

func (m Mode) String() string {
	switch m {
	case ModePush:
		return "push"
	case ModeNavigate:
		return "navigate"
	case ModeReplace:
		return "replace"
	case ModePop:
		return "pop"
	}
	return "unknown"
}

// pauses reports whether instances left behind are paused rather than
// exited.
func (m Mode) pauses() bool { return m != ModeReplace }

// Outcome is how a transition settled.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeNoOp
	OutcomeSuperseded
	OutcomeFailed
	OutcomeRejected
	OutcomeUnresolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCompleted:
		return "completed"
	case OutcomeNoOp:
		return "noop"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeFailed:
		return "failed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnresolved:
		return "unresolved"
	}
	return "unknown"
}

// Transition is a handle on one navigation.
type Transition struct {
	// URI is the requested URI without base path, query appended.
	URI  string
	Mode Mode

	ctx    context.Context
	cancel context.CancelFunc
	start  time.Time

	// Fields below are guarded by the engine lock.
	chain     []*route.Instance
	entering  map[*route.Instance]bool
	old       chain
	committed bool

	done    chan struct{}
	outcome Outcome
	err     error
}

func newTransition(parent context.Context, uri string, mode Mode) *Transition {
	ctx, cancel := context.WithCancel(parent)
	return &Transition{
		URI:      uri,
		Mode:     mode,
		ctx:      ctx,
		cancel:   cancel,
		start:    time.Now(),
		entering: make(map[*route.Instance]bool),
		done:     make(chan struct{}),
	}
}

func (t *Transition) finish(o Outcome, err error) {
	t.outcome, t.err = o, err
	t.cancel()
	close(t.done)
}

// Done is closed once the transition settles.
func (t *Transition) Done() <-chan struct{} { return t.done }

// Wait blocks until the transition settles or ctx is done.
func (t *Transition) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, t.err
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// Outcome returns how the transition settled, or OutcomePending.
func (t *Transition) Outcome() Outcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return OutcomePending
	}
}

// Err returns the failure of a failed, rejected or unresolved transition.
func (t *Transition) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Duration returns the time since the transition started.
func (t *Transition) Duration() time.Duration { return time.Since(t.start) }
