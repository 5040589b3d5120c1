package actions

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/render"
	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/router"
	"github.com/tnhu/wpm/pkg/transition"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type page struct {
	route.Base
	model func() any
}

func (p page) Model(context.Context, *route.Instance) (any, error) {
	if p.model == nil {
		return nil, nil
	}
	return p.model(), nil
}

type call struct {
	who  string
	args []any
}

type fixture struct {
	t   *testing.T
	reg *router.Registry
	doc *dom.Document
	eng *transition.Engine
	d   *Dispatcher

	mu     sync.Mutex
	calls  []call
	bubble bool
}

func (f *fixture) record(who string, args []any) {
	f.mu.Lock()
	f.calls = append(f.calls, call{who, args})
	f.mu.Unlock()
}

func (f *fixture) take() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:   t,
		reg: router.NewRegistry(router.WithLogger(discardLogger())),
		doc: dom.NewDocument(),
	}

	tmpl := render.New()
	tmpl.MustRegister("list", `<section class="list">`+
		`<button class="pick" action="pick(args.id, 'a, b', 3, true, missing)"><i class="icon">+</i></button>`+
		`<span class="keys" action="keyup:typed">keys</span>`+
		`<a href="/other"><b class="go">go</b></a>`+
		`<a href="https://example.com/x"><u class="out">out</u></a>`+
		`<div outlet></div></section>`)
	tmpl.MustRegister("item", `<p class="item">`+
		`<input class="name" binding="model.name" value="{{model.name}}">`+
		`<input class="agree" type="checkbox" binding="model.agree" {{#if model.agree}}checked{{/if}}>`+
		`<span class="inner" action="pick(model.name)">inner</span></p>`)
	tmpl.MustRegister("other", `<p class="other">other</p>`)

	listActions := map[string]route.Action{
		"pick": func(in *route.Instance, args []any, ev *dom.Event) bool {
			f.record("list.pick", args)
			return false
		},
	}
	itemActions := map[string]route.Action{
		"pick": func(in *route.Instance, args []any, ev *dom.Event) bool {
			f.record("item.pick", args)
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.bubble
		},
	}
	defs := []*route.Definition{
		route.MustDefinition("/list", func() route.Route { return page{} },
			route.WithTemplate("list"), route.WithActions(listActions)),
		route.MustDefinition("/list|/:id", func() route.Route {
			return page{model: func() any { return map[string]any{"name": "x", "agree": false} }}
		}, route.WithTemplate("item"), route.WithActions(itemActions)),
		route.MustDefinition("/other", func() route.Route { return page{} }, route.WithTemplate("other")),
	}
	for _, def := range defs {
		if err := f.reg.Register(def); err != nil {
			t.Fatalf("Register(%q) error: %v", def.Path, err)
		}
	}

	f.eng = transition.New(f.reg,
		transition.WithLogger(discardLogger()),
		transition.WithSurface(f.doc),
		transition.WithRoot(f.doc.Body()),
		transition.WithTemplates(tmpl),
		transition.WithDestroyGrace(0),
	)
	t.Cleanup(f.eng.Close)

	f.d = New(f.eng, f.reg, append([]Option{WithLogger(discardLogger())}, opts...)...)
	return f
}

func (f *fixture) visit(uri string) {
	f.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o, err := f.eng.TransitionTo(uri, nil).Wait(ctx)
	if o != transition.OutcomeCompleted {
		f.t.Fatalf("TransitionTo(%q) = %v, %v", uri, o, err)
	}
}

func (f *fixture) el(class string) *dom.Node {
	f.t.Helper()
	n, ok := f.doc.Query("class", class)
	if !ok {
		f.t.Fatalf("no element with class %q in %s", class, f.doc.HTML())
	}
	return n
}

func (f *fixture) fire(typ, class string) bool {
	f.t.Helper()
	return f.d.HandleEvent(&dom.Event{Type: typ, Target: f.el(class)})
}

func TestRouteActionArguments(t *testing.T) {
	f := newFixture(t)
	f.visit("/list/7")

	if !f.fire("click", "icon") {
		t.Fatal("click on action child was not handled")
	}
	want := []call{{"item.pick", []any{7, "a, b", 3, true, nil}}}
	if got := f.take(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %#v, want %#v", got, want)
	}

	if f.fire("mousedown", "icon") {
		t.Error("mousedown matched a click action")
	}
	if got := f.take(); len(got) != 0 {
		t.Errorf("calls = %#v, want none", got)
	}
}

func TestActionBubbling(t *testing.T) {
	f := newFixture(t)
	f.visit("/list/7")

	f.fire("click", "inner")
	want := []call{{"item.pick", []any{"x"}}}
	if got := f.take(); !reflect.DeepEqual(got, want) {
		t.Errorf("without bubbling calls = %#v, want %#v", got, want)
	}

	f.bubble = true
	f.fire("click", "inner")
	want = []call{{"item.pick", []any{"x"}}, {"list.pick", []any{"x"}}}
	if got := f.take(); !reflect.DeepEqual(got, want) {
		t.Errorf("with bubbling calls = %#v, want %#v", got, want)
	}
}

func TestTypedAction(t *testing.T) {
	f := newFixture(t)
	f.visit("/list")

	if f.fire("click", "keys") {
		t.Error("click handled by a keyup action")
	}
	if f.fire("keyup", "keys") {
		t.Error("keyup:typed handled without any handler")
	}
}

func TestComponentActions(t *testing.T) {
	f := newFixture(t)
	f.visit("/list/7")

	var got []any
	f.reg.RegisterComponent(&route.Component{
		Name:      "picker",
		Container: f.el("pick"),
		Data:      map[string]any{"args": map[string]any{"id": "c1"}},
		NoSuchAction: func(c *route.Component, args []any, ev *dom.Event) bool {
			got = args
			return false
		},
	})

	if !f.fire("click", "icon") {
		t.Fatal("component action was not handled")
	}
	want := []any{"pick", "c1", "a, b", 3, true, nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NoSuchAction args = %#v, want %#v", got, want)
	}
	if calls := f.take(); len(calls) != 0 {
		t.Errorf("route handlers ran after the component stopped the action: %#v", calls)
	}

	// A component that lets the action through hands it to the routes, which
	// resolve the arguments against their own data.
	f.reg.RegisterComponent(&route.Component{
		Name:      "inner",
		Container: f.el("pick"),
		Data:      map[string]any{"args": map[string]any{"id": "c2"}},
		Actions: map[string]route.ComponentAction{
			"pick": func(*route.Component, []any, *dom.Event) bool { return true },
		},
	})
	f.fire("click", "icon")
	wantCalls := []call{{"item.pick", []any{7, "a, b", 3, true, nil}}}
	if calls := f.take(); !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("calls = %#v, want %#v", calls, wantCalls)
	}
}

func TestComponentBroadcast(t *testing.T) {
	f := newFixture(t)
	f.visit("/list")

	var types []string
	f.reg.RegisterComponent(&route.Component{
		Name:    "menu",
		OnEvent: func(_ *route.Component, ev *dom.Event) { types = append(types, ev.Type) },
	})
	f.fire("mousedown", "out")
	f.fire("touchstart", "icon")
	f.fire("scroll", "icon")

	if want := []string{"mousedown", "click"}; !reflect.DeepEqual(types, want) {
		t.Errorf("broadcast types = %v, want %v", types, want)
	}
}

func TestLinks(t *testing.T) {
	f := newFixture(t)
	f.visit("/list")

	if f.fire("click", "out") {
		t.Error("external link was routed")
	}

	ev := &dom.Event{Type: "click", Target: f.el("go")}
	if !f.d.HandleEvent(ev) {
		t.Fatal("local link was not routed")
	}
	if !ev.DefaultPrevented() || !ev.PropagationStopped() {
		t.Error("routed link event should be cancelled")
	}
	if err := f.eng.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.eng.ActiveURI(); got != "/other" {
		t.Errorf("ActiveURI() = %q, want /other", got)
	}
}

func TestDefaultEventDedupe(t *testing.T) {
	f := newFixture(t, WithDedupeWindow(300*time.Millisecond))
	f.visit("/list/7")

	now := time.Unix(1000, 0)
	f.d.now = func() time.Time { return now }

	if !f.fire("touchstart", "icon") {
		t.Fatal("touchstart was not handled")
	}
	now = now.Add(100 * time.Millisecond)
	if f.fire("click", "icon") {
		t.Error("click following touchstart was not dropped")
	}
	now = now.Add(time.Second)
	if !f.fire("click", "icon") {
		t.Error("click after the window was dropped")
	}
	now = now.Add(10 * time.Millisecond)
	if !f.fire("click", "icon") {
		t.Error("second click was dropped")
	}
	if got := len(f.take()); got != 3 {
		t.Errorf("handled %d actions, want 3", got)
	}
}

func TestBindingSync(t *testing.T) {
	f := newFixture(t)
	f.visit("/list/7")
	item := f.eng.ActiveChain()[1]

	f.el("name").SetValue("bob")
	f.fire("input", "name")
	if got, _ := item.Data().Get("model.name"); got != "bob" {
		t.Errorf("model.name = %v, want bob", got)
	}
	if v := f.el("name").Value(); v != "bob" {
		t.Errorf("re-rendered input value = %q, want bob", v)
	}

	f.el("name").SetValue("ignored")
	f.fire("mousedown", "name")
	if got, _ := item.Data().Get("model.name"); got != "bob" {
		t.Errorf("mousedown synced the binding: model.name = %v", got)
	}

	f.el("agree").SetChecked(true)
	f.fire("click", "agree")
	if got, _ := item.Data().Get("model.agree"); got != true {
		t.Errorf("model.agree = %v, want true", got)
	}
}

func TestActionsCache(t *testing.T) {
	f := newFixture(t)
	a := f.d.Actions("go(1)")
	b := f.d.Actions("go(1)")
	if reflect.ValueOf(a).Pointer() != reflect.ValueOf(b).Pointer() {
		t.Error("Actions() parsed the same value twice")
	}
	f.d.Reset()
	if c := f.d.Actions("go(1)"); reflect.ValueOf(a).Pointer() == reflect.ValueOf(c).Pointer() {
		t.Error("Reset() kept the parsed cache")
	}
}
