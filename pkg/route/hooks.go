package route

import (
	"context"
)

// Route is implemented by route handlers. Every hook receives the instance
// being driven. A hook returning an error aborts the transition.
//
// Hooks run without any engine lock held and may start new transitions.
// The context is cancelled once the transition settles.
type Route interface {
	Enter(ctx context.Context, in *Instance) error

	// PreModel may return a provisional model. When it is non-nil the
	// instance is rendered with it before Model runs.
	PreModel(ctx context.Context, in *Instance) (any, error)

	Model(ctx context.Context, in *Instance) (any, error)

	// PostModel receives the result of Model; a non-nil result becomes
	// the instance model.
	PostModel(ctx context.Context, in *Instance, model any) (any, error)

	Ready(ctx context.Context, in *Instance) error

	// Resign is called when the instance is about to leave the active
	// chain. Returning an error keeps the current chain.
	Resign(ctx context.Context, in *Instance) error

	Pause(ctx context.Context, in *Instance) error
	Resume(ctx context.Context, in *Instance) error
	Exit(ctx context.Context, in *Instance) error

	// Fail is called when a hook of this instance failed in state.
	Fail(in *Instance, err error, state State)
}

// Renderer is implemented by routes that produce their own markup instead
// of rendering the definition's template.
type Renderer interface {
	Render(ctx context.Context, in *Instance, model any) (string, error)
}

// Titler is implemented by routes that set the document title.
type Titler interface {
	Title(in *Instance) string
}

// Destroyer is implemented by routes that release resources when their
// instance is destroyed.
type Destroyer interface {
	Destroy(in *Instance)
}

// Base provides no-op implementations of every Route hook. Embed it and
// override what the route needs.
type Base struct{}

var _ Route = Base{}

func (Base) Enter(context.Context, *Instance) error             { return nil }
func (Base) PreModel(context.Context, *Instance) (any, error)   { return nil, nil }
func (Base) Model(context.Context, *Instance) (any, error)      { return nil, nil }
func (Base) Ready(context.Context, *Instance) error             { return nil }
func (Base) Resign(context.Context, *Instance) error            { return nil }
func (Base) Pause(context.Context, *Instance) error             { return nil }
func (Base) Resume(context.Context, *Instance) error            { return nil }
func (Base) Exit(context.Context, *Instance) error              { return nil }

// PostModel returns model unchanged.
func (Base) PostModel(_ context.Context, _ *Instance, model any) (any, error) {
	return model, nil
}

// Fail logs the failure. Aborts caused by supersession are routine and
// logged at debug level.
func (Base) Fail(in *Instance, err error, state State) {
	if state == StateAbort {
		in.Logger().Debug("route aborted", "state", state.String(), "error", err)
		return
	}
	in.Logger().Error("route failed", "state", state.String(), "error", err)
}
