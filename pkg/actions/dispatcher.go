package actions

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/middleware"
	"github.com/tnhu/wpm/pkg/observe"
	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/router"
)

// Event defaults.
const (
	DefaultEvent            = "click"
	DefaultAlternativeEvent = "touchstart"
	DefaultDedupeWindow     = 500 * time.Millisecond
)

// Attributes read from the document.
const (
	ActionAttr  = "action"
	BindingAttr = "binding"
	HrefAttr    = "href"
)

// Events lists the event types the dispatcher handles besides the default
// event and its alternative.
var Events = []string{
	"mousedown", "mouseup",
	"touchstart", "touchend", "touchmove", "touchcancel",
	"keydown", "keyup",
	"click", "input", "change",
}

var (
	bindingTags   = []string{"input", "select", "textarea"}
	bindingEvents = []string{"input", "change", "keypress"}
)

// Navigator is the part of the transition engine the dispatcher drives.
type Navigator interface {
	// ActiveChain returns the active instances, root first.
	ActiveChain() []*route.Instance

	// RouteLink navigates to a local registered href.
	RouteLink(href string) bool

	// DataChanged re-renders an instance after its model changed.
	DataChanged(in *route.Instance)
}

// Config configures a Dispatcher.
type Config struct {
	Logger *slog.Logger

	// DefaultEvent is the event type of actions declared without one.
	DefaultEvent string

	// AlternativeEvent also triggers default-event actions. When both fire
	// for the same element within DedupeWindow only the first counts.
	AlternativeEvent string
	DedupeWindow     time.Duration

	// Observer is checkpointed after every dispatch. Without one, binding
	// changes re-render through the navigator directly.
	Observer *observe.Observer
}

// Option configures a Dispatcher.
type Option func(*Config)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithDefaultEvent sets the default event type.
func WithDefaultEvent(typ string) Option {
	return func(c *Config) { c.DefaultEvent = typ }
}

// WithAlternativeEvent sets the alternative default event type.
func WithAlternativeEvent(typ string) Option {
	return func(c *Config) { c.AlternativeEvent = typ }
}

// WithDedupeWindow sets how long a default event suppresses its
// alternative on the same element, and the other way around.
func WithDedupeWindow(d time.Duration) Option {
	return func(c *Config) { c.DedupeWindow = d }
}

// WithObserver sets the observer checkpointed after each dispatch.
func WithObserver(o *observe.Observer) Option {
	return func(c *Config) { c.Observer = o }
}

func defaultConfig() *Config {
	return &Config{
		Logger:           slog.Default(),
		DefaultEvent:     DefaultEvent,
		AlternativeEvent: DefaultAlternativeEvent,
		DedupeWindow:     DefaultDedupeWindow,
	}
}

type lastDefault struct {
	typ string
	at  time.Time
}

// Dispatcher routes document events to component and route action
// handlers. A Dispatcher is safe for concurrent use.
type Dispatcher struct {
	cfg    *Config
	logger *slog.Logger
	nav    Navigator
	reg    *router.Registry
	now    func() time.Time

	cache sync.Map // raw attribute value -> Actions

	mu   sync.Mutex
	last map[string]lastDefault
}

// New creates a dispatcher for the routes driven by nav and the components
// registered in reg.
func New(nav Navigator, reg *router.Registry, opts ...Option) *Dispatcher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Dispatcher{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "actions"),
		nav:    nav,
		reg:    reg,
		now:    time.Now,
		last:   make(map[string]lastDefault),
	}
}

// Actions returns the parsed value of an action attribute.
func (d *Dispatcher) Actions(spec string) Actions {
	if v, ok := d.cache.Load(spec); ok {
		return v.(Actions)
	}
	parsed := Parse(spec, d.cfg.DefaultEvent)
	v, _ := d.cache.LoadOrStore(spec, parsed)
	return v.(Actions)
}

// Handles reports whether events of typ are dispatched.
func (d *Dispatcher) Handles(typ string) bool {
	return typ == d.cfg.DefaultEvent || typ == d.cfg.AlternativeEvent || slices.Contains(Events, typ)
}

// HandleEvent dispatches ev and reports whether a handler took it. The
// alternative event is renamed to the default event before dispatch.
func (d *Dispatcher) HandleEvent(ev *dom.Event) bool {
	if ev == nil || ev.Target == nil || !d.Handles(ev.Type) {
		return false
	}
	raw := ev.Type
	if raw == d.cfg.AlternativeEvent {
		ev.Type = d.cfg.DefaultEvent
	}
	if ev.Type == d.cfg.DefaultEvent && d.duplicate(ev.Target, raw) {
		d.logger.Debug("duplicate default event dropped", "type", raw, "element", ev.Target.ID())
		return false
	}

	d.syncBinding(ev, raw)

	handled := false
	if el, spec, ok := dom.Closest(ev.Target, ActionAttr); ok {
		ev.Current = el
		if a, ok := d.Actions(spec)[ev.Type]; ok {
			handled = d.dispatch(a, ev)
			middleware.RecordAction(handled)
		}
	} else if ev.Type == d.cfg.DefaultEvent {
		handled = d.followLink(ev)
	}

	d.broadcast(ev)
	if d.cfg.Observer != nil {
		d.cfg.Observer.Checkpoint()
	}
	return handled
}

// duplicate reports whether a default event for el follows its
// counterpart within the dedupe window.
func (d *Dispatcher) duplicate(el dom.Element, raw string) bool {
	if d.cfg.AlternativeEvent == "" || d.cfg.DedupeWindow <= 0 {
		return false
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, l := range d.last {
		if now.Sub(l.at) >= d.cfg.DedupeWindow {
			delete(d.last, id)
		}
	}
	prev, ok := d.last[el.ID()]
	if ok && prev.typ != raw {
		delete(d.last, el.ID())
		return true
	}
	d.last[el.ID()] = lastDefault{typ: raw, at: now}
	return false
}

// syncBinding writes the value of a bound form control into the model of
// the innermost active instance whose view contains it.
func (d *Dispatcher) syncBinding(ev *dom.Event, raw string) {
	el := ev.Target
	path, ok := el.Attr(BindingAttr)
	if !ok || path == "" {
		return
	}
	checkable := el.Tag() == "input" && (el.Type() == "checkbox" || el.Type() == "radio")
	if !checkable && !(slices.Contains(bindingTags, el.Tag()) && slices.Contains(bindingEvents, raw)) {
		return
	}

	var value any = el.Value()
	if el.Type() == "checkbox" {
		value = el.Checked()
	}

	for _, in := range slices.Backward(d.nav.ActiveChain()) {
		v := in.View()
		if v == nil || !v.Root().Contains(el) {
			continue
		}
		changed := in.Data().Set(path, value)
		d.logger.Debug("binding synced", "path", path, "route", in.Definition().Path, "changed", changed)
		if changed && d.cfg.Observer == nil {
			d.nav.DataChanged(in)
		}
		return
	}
}

// dispatch runs a component handler and then the route handlers from leaf
// to root. Component arguments resolve against the component data. Route
// arguments resolve once, against the data of the first route handling the
// action.
func (d *Dispatcher) dispatch(a Action, ev *dom.Event) bool {
	handled := false

	if c := d.component(ev.Target); c != nil {
		fn, name := c.Actions[a.Name], a.Name
		noSuch := fn == nil && c.NoSuchAction != nil
		if noSuch {
			fn = c.NoSuchAction
		}
		if fn != nil {
			args := ResolveArgs(a.Args, func(p string) (any, bool) { return route.Lookup(c.Data, p) })
			if noSuch {
				args = append([]any{name}, args...)
			}
			handled = true
			d.logger.Debug("component action", "component", c.Name, "action", a.Name, "type", ev.Type)
			if !fn(c, args, ev) {
				return true
			}
		}
	}

	var args []any
	for _, in := range slices.Backward(d.nav.ActiveChain()) {
		fn, ok := in.Definition().Action(a.Name)
		if !ok {
			continue
		}
		if args == nil {
			args = ResolveArgs(a.Args, in.Data().Get)
		}
		handled = true
		d.logger.Debug("route action", "route", in.Definition().Path, "action", a.Name, "type", ev.Type)
		if !fn(in, args, ev) {
			return true
		}
	}

	if !handled {
		d.logger.Debug("action not handled", "action", a.Name, "type", ev.Type)
	}
	return handled
}

// component returns the last registered component whose container holds
// el.
func (d *Dispatcher) component(el dom.Element) *route.Component {
	for _, c := range slices.Backward(d.reg.Components()) {
		if c.Container != nil && c.Container.Contains(el) {
			return c
		}
	}
	return nil
}

func (d *Dispatcher) followLink(ev *dom.Event) bool {
	_, href, ok := dom.Closest(ev.Target, HrefAttr)
	if !ok || href == "" {
		return false
	}
	if !d.nav.RouteLink(href) {
		return false
	}
	ev.PreventDefault()
	ev.StopPropagation()
	d.logger.Debug("link routed", "href", href)
	return true
}

func (d *Dispatcher) broadcast(ev *dom.Event) {
	for _, c := range d.reg.Components() {
		if c.OnEvent != nil {
			c.OnEvent(c, ev)
		}
	}
}

// Reset drops the parsed action cache and the dedupe state.
func (d *Dispatcher) Reset() {
	d.cache.Range(func(k, _ any) bool {
		d.cache.Delete(k)
		return true
	})
	d.mu.Lock()
	clear(d.last)
	d.mu.Unlock()
}
