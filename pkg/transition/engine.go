package transition

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/router"
	"github.com/tnhu/wpm/pkg/routepath"
)

// chain is a URI with the instances it resolved to, root first.
type chain struct {
	uri       string
	instances []*route.Instance
}

func (c chain) leaf() *route.Instance {
	if len(c.instances) == 0 {
		return nil
	}
	return c.instances[len(c.instances)-1]
}

func (c chain) contains(in *route.Instance) bool {
	return slices.Contains(c.instances, in)
}

// Engine drives transitions between route chains.
//
// Any number of transitions may be in flight. Only the newest one, the
// target, commits: it writes history, becomes the active chain and hides,
// pauses or exits what it leaves behind. Older transitions stop at their
// next stage unless the target reuses the instance they are entering.
type Engine struct {
	cfg    *Config
	logger *slog.Logger
	reg    *router.Registry

	ctx   context.Context
	close context.CancelFunc

	mu        sync.Mutex
	target    *Transition
	targetURI string
	committed chain

	inflight sync.WaitGroup
}

// New creates an engine over reg.
func New(reg *router.Registry, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "transition"),
		reg:    reg,
		ctx:    ctx,
		close:  cancel,
	}
	if p, ok := cfg.History.(interface{ OnPop(func(string)) }); ok {
		p.OnPop(func(uri string) { e.Pop(uri) })
	}
	return e
}

// Registry returns the registry the engine resolves against.
func (e *Engine) Registry() *router.Registry { return e.reg }

// TransitionTo pushes a transition to uri with query appended.
func (e *Engine) TransitionTo(uri string, query map[string]any) *Transition {
	return e.start(uri, query, ModePush)
}

// NavigateTo is TransitionTo that also exits the previous leaf.
func (e *Engine) NavigateTo(uri string, query map[string]any) *Transition {
	return e.start(uri, query, ModeNavigate)
}

// ReplaceWith transitions to uri, replacing the history entry.
func (e *Engine) ReplaceWith(uri string, query map[string]any) *Transition {
	return e.start(uri, query, ModeReplace)
}

// Pop transitions to uri after a history move.
func (e *Engine) Pop(uri string) *Transition {
	return e.start(uri, nil, ModePop)
}

// Back moves history back one entry.
func (e *Engine) Back() {
	if e.cfg.History != nil {
		e.cfg.History.Back()
	}
}

// Forward moves history forward one entry.
func (e *Engine) Forward() {
	if e.cfg.History != nil {
		e.cfg.History.Forward()
	}
}

// Resolves reports whether uri, without the base path, resolves to a
// complete route chain.
func (e *Engine) Resolves(uri string) bool {
	return e.reg.Resolves(routepath.StripBase(uri, e.cfg.BasePath))
}

// RouteLink navigates to href when it is a local link to a registered
// route and reports whether it did.
func (e *Engine) RouteLink(href string) bool {
	if !routepath.IsLocal(href) || !e.Resolves(href) {
		return false
	}
	e.NavigateTo(href, nil)
	return true
}

// ActiveURI returns the URI of the committed chain.
func (e *Engine) ActiveURI() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed.uri
}

// TargetURI returns the URI of the newest transition, or the active URI.
func (e *Engine) TargetURI() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targetURI
}

// ActiveChain returns the committed chain, root first.
func (e *Engine) ActiveChain() []*route.Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.committed.instances)
}

// Wait blocks until no transition is in flight or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset forgets the active chain and clears the registry.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.target = nil
	e.targetURI = ""
	e.committed = chain{}
	e.mu.Unlock()
	e.reg.Reset()
}

// Close cancels the context of every transition in flight.
func (e *Engine) Close() {
	e.close()
}

func (e *Engine) start(uri string, query map[string]any, mode Mode) *Transition {
	uri = routepath.AppendQuery(routepath.StripBase(uri, e.cfg.BasePath), query)
	t := newTransition(e.ctx, uri, mode)

	e.mu.Lock()
	if uri == e.targetURI {
		e.mu.Unlock()
		t.finish(OutcomeNoOp, nil)
		return t
	}

	instances, err := e.lookup(uri)
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("transition unresolved", "uri", uri, "error", err)
		t.finish(OutcomeUnresolved, err)
		e.notify(t)
		return t
	}

	prev := e.target
	t.chain = instances
	e.target, e.targetURI = t, uri
	if prev != nil {
		e.abortStale(prev, t)
	}
	e.inflight.Add(1)
	e.mu.Unlock()

	e.logger.Debug("transition started", "uri", uri, "mode", mode.String())
	go e.run(t)
	return t
}

// lookup resolves uri to its instance chain, building the instances that
// are not cached.
func (e *Engine) lookup(uri string) ([]*route.Instance, error) {
	res, err := e.reg.Resolve(uri)
	if err != nil {
		return nil, err
	}
	m := res.Match
	key := route.InstanceKey(m.Params, m.Query)

	var i18n map[string]string
	if e.cfg.I18n != nil {
		i18n = e.cfg.I18n()
	}

	instances := make([]*route.Instance, 0, len(res.Chain))
	for _, def := range res.Chain {
		in := e.reg.Instance(def, key, func() *route.Instance {
			data := route.NewData(m.Params, m.Query, m.Hash, i18n)
			return route.NewInstance(def, key, data, e.cfg.Logger)
		})
		instances = append(instances, in)
	}
	return instances, nil
}

func (e *Engine) run(t *Transition) {
	defer e.inflight.Done()

	e.mu.Lock()
	outcome, err := e.drive(t)
	e.mu.Unlock()

	t.finish(outcome, err)
	e.notify(t)
}

func (e *Engine) drive(t *Transition) (Outcome, error) {
	if err := e.resign(t); err != nil {
		return e.rejected(t, err)
	}
	for i, in := range t.chain {
		var parent *route.Instance
		if i > 0 {
			parent = t.chain[i-1]
		}
		if err := e.activate(t, in, parent, i == len(t.chain)-1); err != nil {
			return e.fail(t, in, err)
		}
	}
	if t.Mode == ModeNavigate {
		if err := e.exitPrevious(t); err != nil {
			return OutcomeFailed, err
		}
	}
	if !t.committed {
		return OutcomeSuperseded, nil
	}
	return OutcomeCompleted, nil
}

// notify runs settle callbacks without the engine lock held.
func (e *Engine) notify(t *Transition) {
	log := e.logger.With("uri", t.URI, "mode", t.Mode.String(), "outcome", t.outcome.String(), "duration", t.Duration())
	switch t.outcome {
	case OutcomeFailed, OutcomeRejected:
		log.Warn("transition settled", "error", t.err)
	case OutcomeUnresolved:
	default:
		log.Debug("transition settled")
	}

	for _, mw := range e.cfg.Middleware {
		if s, ok := mw.(Settler); ok {
			s.Settled(t)
		}
	}
	for _, fn := range e.cfg.OnSettled {
		fn(t)
	}
}

// resetTarget drops t as target after it gave up, so the active URI can be
// requested again.
func (e *Engine) resetTarget(t *Transition) {
	if e.target == t {
		e.target = nil
		e.targetURI = e.committed.uri
	}
}

func wrapHookError(in *route.Instance, err error) error {
	if we, ok := err.(*errors.WpmError); ok {
		return we
	}
	return errors.New("W005").
		WithPath(in.Definition().Path).
		WithDetail("Hook failed in state " + in.State().String() + ".").
		Wrap(err)
}
