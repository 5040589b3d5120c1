package manifest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/render"
	"github.com/tnhu/wpm/pkg/route"
	"github.com/tnhu/wpm/pkg/router"
	"github.com/tnhu/wpm/pkg/transition"
)

const tomlManifest = `
[[routes]]
path = "/login"
markup = "<form class=\"login\"></form>"
title = "Sign in"

[[routes]]
path = "/mail/:id"
markup = "<article class=\"mail\">{{model.subject}}</article>"
guard = 'args.id != "0"'
redirect = "/login"
[routes.model]
subject = "Hello"
[routes.actions]
reply = "/mail/{{args.id}}/reply"
`

const yamlManifest = `
routes:
  - path: /login
    markup: <form class="login"></form>
    title: Sign in
  - path: /mail/:id
    markup: <article class="mail">{{model.subject}}</article>
    guard: args.id != "0"
    redirect: /login
    model:
      subject: Hello
    actions:
      reply: /mail/{{args.id}}/reply
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseFormats(t *testing.T) {
	fromTOML, err := Parse([]byte(tomlManifest), FormatTOML)
	if err != nil {
		t.Fatalf("Parse(toml) error: %v", err)
	}
	fromYAML, err := Parse([]byte(yamlManifest), FormatYAML)
	if err != nil {
		t.Fatalf("Parse(yaml) error: %v", err)
	}
	if !reflect.DeepEqual(fromTOML, fromYAML) {
		t.Errorf("toml and yaml manifests differ:\n%#v\n%#v", fromTOML, fromYAML)
	}
	if got := len(fromTOML.Routes); got != 2 {
		t.Fatalf("len(Routes) = %d, want 2", got)
	}
	mail := fromTOML.Routes[1]
	if mail.Guard != `args.id != "0"` || mail.Redirect != "/login" {
		t.Errorf("mail route = %+v", mail)
	}
	if got := mail.Actions["reply"]; got != "/mail/{{args.id}}/reply" {
		t.Errorf("reply action = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"missing path", "[[routes]]\ntitle = \"x\"\n", FormatTOML},
		{"unknown yaml field", "routes:\n  - path: /a\n    colour: red\n", FormatYAML},
		{"bad toml", "[[routes]\n", FormatTOML},
		{"unknown format", "", Format("json")},
	}
	for _, tt := range tests {
		if _, err := Parse([]byte(tt.data), tt.format); err == nil {
			t.Errorf("%s: Parse() error = nil", tt.name)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	for _, p := range []string{write("routes.toml", tomlManifest), write("routes.yml", yamlManifest)} {
		m, err := Load(p)
		if err != nil {
			t.Errorf("Load(%s) error: %v", filepath.Base(p), err)
			continue
		}
		if len(m.Routes) != 2 {
			t.Errorf("Load(%s) routes = %d, want 2", filepath.Base(p), len(m.Routes))
		}
	}

	if _, err := Load(write("routes.json", "{}")); !errors.Is(err, "W030") {
		t.Errorf("Load(json) error = %v, want W030", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, "W030") {
		t.Errorf("Load(missing) error = %v, want W030", err)
	}
}

func TestGuard(t *testing.T) {
	g, err := CompileGuard(`args.id != "0" && (!has(query.draft) || query.draft == true) && hash == ""`)
	if err != nil {
		t.Fatalf("CompileGuard() error: %v", err)
	}
	tests := []struct {
		args  map[string]string
		query map[string]any
		hash  string
		want  bool
	}{
		{map[string]string{"id": "7"}, nil, "", true},
		{map[string]string{"id": "0"}, nil, "", false},
		{map[string]string{"id": "7"}, map[string]any{"draft": true}, "", true},
		{map[string]string{"id": "7"}, map[string]any{"draft": false}, "", false},
		{map[string]string{"id": "7"}, nil, "top", false},
	}
	for _, tt := range tests {
		got, err := g.Allow(route.NewData(tt.args, tt.query, tt.hash, nil))
		if err != nil {
			t.Errorf("Allow(%v, %v, %q) error: %v", tt.args, tt.query, tt.hash, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Allow(%v, %v, %q) = %v, want %v", tt.args, tt.query, tt.hash, got, tt.want)
		}
	}

	for _, expr := range []string{`args.id`, `args.id ==`, `model.x == 1`} {
		if _, err := CompileGuard(expr); err == nil {
			t.Errorf("CompileGuard(%q) error = nil", expr)
		}
	}
}

type fixture struct {
	t    *testing.T
	reg  *router.Registry
	doc  *dom.Document
	tmpl *render.Templates
	eng  *transition.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:    t,
		reg:  router.NewRegistry(router.WithLogger(discardLogger())),
		doc:  dom.NewDocument(),
		tmpl: render.New(),
	}
	f.eng = transition.New(f.reg,
		transition.WithLogger(discardLogger()),
		transition.WithSurface(f.doc),
		transition.WithRoot(f.doc.Body()),
		transition.WithTemplates(f.tmpl),
		transition.WithDestroyGrace(0),
	)
	t.Cleanup(f.eng.Close)
	return f
}

func (f *fixture) settle() {
	f.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.eng.Wait(ctx); err != nil {
		f.t.Fatal(err)
	}
}

func TestInstall(t *testing.T) {
	f := newFixture(t)
	m, err := Parse([]byte(tomlManifest), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	defs, err := Install(f.reg, f.eng, m, WithLogger(discardLogger()), WithTemplates(f.tmpl))
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if len(defs) != 2 || defs[0].Title != "Sign in" || defs[1].Template != "/mail/:id" {
		t.Fatalf("Install() defs = %+v", defs)
	}

	f.eng.TransitionTo("/mail/7", nil)
	f.settle()
	if got := f.eng.ActiveURI(); got != "/mail/7" {
		t.Fatalf("ActiveURI() = %q, want /mail/7", got)
	}
	if n, ok := f.doc.Query("class", "mail"); !ok || n.Text() != "Hello" {
		t.Errorf("document = %s, want a mail article reading Hello", f.doc.HTML())
	}

	// The static model is copied per instance.
	leaf := f.eng.ActiveChain()[0]
	leaf.Data().Set("model.subject", "changed")
	if got := m.Routes[1].Model["subject"]; got != "Hello" {
		t.Errorf("manifest model mutated: %v", got)
	}
}

func TestGuardRedirect(t *testing.T) {
	f := newFixture(t)
	m, err := Parse([]byte(yamlManifest), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Install(f.reg, f.eng, m, WithLogger(discardLogger()), WithTemplates(f.tmpl)); err != nil {
		t.Fatal(err)
	}

	tr := f.eng.TransitionTo("/mail/0", nil)
	f.settle()
	if o := tr.Outcome(); o == transition.OutcomeCompleted {
		t.Errorf("guarded transition outcome = %v", o)
	}
	if got := f.eng.ActiveURI(); got != "/login" {
		t.Errorf("ActiveURI() = %q, want /login", got)
	}
}

func TestManifestAction(t *testing.T) {
	f := newFixture(t)
	m := &Manifest{Routes: []Route{
		{Path: "/mail/:id", Markup: "<p>mail</p>", Actions: map[string]string{"reply": "/mail/{{args.id}}/reply/{{#each params}}{{this}}{{/each}}"}},
		{Path: "/mail/:id/reply/:to", Markup: "<p>reply</p>"},
	}}
	defs, err := Install(f.reg, f.eng, m, WithLogger(discardLogger()), WithTemplates(f.tmpl))
	if err != nil {
		t.Fatal(err)
	}
	f.eng.TransitionTo("/mail/3", nil)
	f.settle()

	reply, ok := defs[0].Action("reply")
	if !ok {
		t.Fatal("reply action not registered")
	}
	if reply(f.eng.ActiveChain()[0], []any{"bob"}, nil) {
		t.Error("manifest action should not bubble")
	}
	f.settle()
	if got := f.eng.ActiveURI(); got != "/mail/3/reply/bob" {
		t.Errorf("ActiveURI() = %q, want /mail/3/reply/bob", got)
	}
}

func TestInstallErrors(t *testing.T) {
	tests := []struct {
		name  string
		route Route
		code  string
	}{
		{"guard", Route{Path: "/a", Guard: "args.id"}, "W031"},
		{"action template", Route{Path: "/a", Actions: map[string]string{"go": "{{#if}}"}}, "W030"},
		{"bad path", Route{Path: "/a|/b|/c"}, "W003"},
	}
	for _, tt := range tests {
		f := newFixture(t)
		_, err := Install(f.reg, f.eng, &Manifest{Routes: []Route{tt.route}}, WithLogger(discardLogger()), WithTemplates(f.tmpl))
		if !errors.Is(err, tt.code) {
			t.Errorf("%s: Install() error = %v, want %s", tt.name, err, tt.code)
		}
	}

	f := newFixture(t)
	_, err := Install(f.reg, f.eng, &Manifest{Routes: []Route{{Path: "/a", Markup: "<p></p>"}}})
	if !errors.Is(err, "W030") {
		t.Errorf("markup without templates: error = %v, want W030", err)
	}
	if f.reg.Registered("/a") {
		t.Error("failed install registered a route")
	}
}
