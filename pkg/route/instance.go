package route

import (
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/tnhu/wpm/pkg/dom"
)

// Instance is a live route: one definition bound to one set of path and
// query parameters. Instances are cached and shared between every URI that
// resolves to the same key.
//
// Only the transition engine drives an instance. The mutating methods are
// exported for it and are not meant to be called by route code.
type Instance struct {
	id     string
	def    *Definition
	route  Route
	data   *Data
	logger *slog.Logger

	state          *atomic.String
	observerPaused *atomic.Bool

	mu        sync.Mutex
	uri       string
	parent    *Instance
	renderTo  dom.Element
	view      dom.View
	outlet    dom.Element
	settled   chan struct{}
	unobserve func()
}

// NewInstance builds an instance of def identified by key.
func NewInstance(def *Definition, key string, data *Data, logger *slog.Logger) *Instance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instance{
		id:             key,
		def:            def,
		route:          def.NewRoute(),
		data:           data,
		logger:         logger.With("path", def.Path, "id", key),
		state:          atomic.NewString(""),
		observerPaused: atomic.NewBool(false),
	}
}

// ID returns the instance key.
func (in *Instance) ID() string { return in.id }

// Definition returns the definition the instance was built from.
func (in *Instance) Definition() *Definition { return in.def }

// Route returns the handler.
func (in *Instance) Route() Route { return in.route }

// Data returns the data bag.
func (in *Instance) Data() *Data { return in.data }

// Logger returns a logger annotated with the route path and instance id.
func (in *Instance) Logger() *slog.Logger { return in.logger }

// State returns the lifecycle state.
func (in *Instance) State() State { return State(in.state.Load()) }

// SetState sets the lifecycle state.
func (in *Instance) SetState(s State) { in.state.Store(string(s)) }

// URI returns the URI the instance was last activated for.
func (in *Instance) URI() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.uri
}

// Parent returns the parent instance in the chain it was last activated in.
func (in *Instance) Parent() *Instance {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.parent
}

// Attach records the URI and parent of an activation.
func (in *Instance) Attach(uri string, parent *Instance) {
	in.mu.Lock()
	in.uri, in.parent = uri, parent
	in.mu.Unlock()
}

// RenderTo returns the element the instance mounts into.
func (in *Instance) RenderTo() dom.Element {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.renderTo
}

// SetRenderTo sets the element the instance mounts into.
func (in *Instance) SetRenderTo(el dom.Element) {
	in.mu.Lock()
	in.renderTo = el
	in.mu.Unlock()
}

// View returns the mounted view, or nil.
func (in *Instance) View() dom.View {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.view
}

// Outlet returns the element child routes mount into, or nil.
func (in *Instance) Outlet() dom.Element {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.outlet
}

// SetView records the mounted view and its outlet.
func (in *Instance) SetView(v dom.View) {
	var outlet dom.Element
	if v != nil {
		outlet = v.Outlet()
	}
	in.mu.Lock()
	in.view, in.outlet = v, outlet
	in.mu.Unlock()
}

// BeginEntry marks the instance as being entered. Settled returns a channel
// that stays open until EndEntry.
func (in *Instance) BeginEntry() {
	in.mu.Lock()
	if in.settled == nil {
		in.settled = make(chan struct{})
	}
	in.mu.Unlock()
}

// EndEntry releases everyone waiting on Settled.
func (in *Instance) EndEntry() {
	in.mu.Lock()
	if in.settled != nil {
		close(in.settled)
		in.settled = nil
	}
	in.mu.Unlock()
}

// Settled returns a channel closed once the entry in progress ends, or nil
// when no entry is in progress.
func (in *Instance) Settled() <-chan struct{} {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.settled
}

// SetUnobserve records the function that stops observing the data bag.
func (in *Instance) SetUnobserve(fn func()) {
	in.mu.Lock()
	prev := in.unobserve
	in.unobserve = fn
	in.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Unobserve stops observing the data bag.
func (in *Instance) Unobserve() {
	in.SetUnobserve(nil)
}

// PauseObserver suspends change notifications while the engine itself
// writes to the data bag.
func (in *Instance) PauseObserver(paused bool) { in.observerPaused.Store(paused) }

// ObserverPaused reports whether change notifications are suspended.
func (in *Instance) ObserverPaused() bool { return in.observerPaused.Load() }

// Release drops references to the view and chain once the instance is
// destroyed.
func (in *Instance) Release() {
	in.mu.Lock()
	in.parent, in.renderTo, in.view, in.outlet = nil, nil, nil, nil
	in.mu.Unlock()
}
