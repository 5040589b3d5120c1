package router

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	wpmerrors "github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/route"
)

func newTestRegistry() *Registry {
	return NewRegistry(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestRegistryResolve(t *testing.T) {
	reg := newTestRegistry()
	for _, p := range []string{"/inbox|/:id", "/inbox", "/inbox|"} {
		if _, err := reg.RegisterPath(p, nil); err != nil {
			t.Fatalf("RegisterPath(%q) error = %v", p, err)
		}
	}

	res, err := reg.Resolve("/inbox/42?sort=asc#top")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Path != "/inbox/:id" {
		t.Errorf("Path = %q", res.Path)
	}
	if got := chainPaths(res.Chain); !reflect.DeepEqual(got, []string{"/inbox", "/inbox|/:id"}) {
		t.Errorf("Chain = %v", got)
	}
	if res.Match.Params["id"] != "42" || res.Match.Query["sort"] != "asc" || res.Match.Hash != "top" {
		t.Errorf("Match = %+v", res.Match)
	}

	res, err = reg.Resolve("/inbox")
	if err != nil {
		t.Fatalf("Resolve(/inbox) error = %v", err)
	}
	if got := chainPaths(res.Chain); !reflect.DeepEqual(got, []string{"/inbox", "/inbox|"}) {
		t.Errorf("Chain = %v", got)
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := newTestRegistry()
	if _, err := reg.RegisterPath("/a", nil); err != nil {
		t.Fatal(err)
	}

	_, err := reg.RegisterPath("/a", nil)
	if !errors.Is(err, ErrDuplicateRoute) || !wpmerrors.Is(err, "W002") {
		t.Errorf("duplicate error = %v", err)
	}

	_, err = reg.RegisterPath("/a|/b|/c", nil)
	if !errors.Is(err, ErrInvalidNestedPath) || !wpmerrors.Is(err, "W003") {
		t.Errorf("invalid nested error = %v", err)
	}

	if _, err := reg.Resolve("/missing"); !wpmerrors.Is(err, "W001") {
		t.Errorf("unregistered error = %v", err)
	}

	_, _ = reg.RegisterPath("/b|/c", nil)
	if _, err := reg.Resolve("/b/c"); !wpmerrors.Is(err, "W004") || !errors.Is(err, ErrUnresolved) {
		t.Errorf("unresolved error = %v", err)
	}
	if reg.Resolves("/b/c") {
		t.Error("Resolves(/b/c) = true before the parent is registered")
	}
	_, _ = reg.RegisterPath("/b", nil)
	if !reg.Resolves("/b/c") {
		t.Error("Resolves(/b/c) = false after the parent is registered")
	}
}

func TestRegistryInstances(t *testing.T) {
	reg := newTestRegistry()
	def, _ := reg.RegisterPath("/a/:id", nil)

	builds := 0
	build := func() *route.Instance {
		builds++
		return route.NewInstance(def, "?id=1", route.NewData(nil, nil, "", nil), nil)
	}

	a := reg.Instance(def, "?id=1", build)
	b := reg.Instance(def, "?id=1", build)
	if a != b || builds != 1 {
		t.Errorf("Instance() should reuse the cached instance, builds = %d", builds)
	}
	if !reg.Cached(a) {
		t.Error("Cached() = false")
	}

	reg.Evict(a)
	if reg.Cached(a) {
		t.Error("Cached() = true after Evict")
	}
	if c := reg.Instance(def, "?id=1", build); c == a {
		t.Error("Instance() after Evict should build a new instance")
	}
}

func TestRegistrySharedView(t *testing.T) {
	reg := newTestRegistry()
	def, _ := reg.RegisterPath("/a", nil)
	doc := dom.NewDocument()
	v, _ := doc.Mount(doc.Body(), "<p></p>")
	owner := route.NewInstance(def, "", route.NewData(nil, nil, "", nil), nil)
	other := route.NewInstance(def, "?x", route.NewData(nil, nil, "", nil), nil)

	reg.SetSharedView(def, v, owner)
	if sv := reg.SharedView(def); sv == nil || sv.Owner != owner {
		t.Fatalf("SharedView() = %+v", sv)
	}
	if _, ok := reg.ReleaseSharedView(def, other); ok {
		t.Error("ReleaseSharedView() by a non-owner should fail")
	}
	if got, ok := reg.ReleaseSharedView(def, owner); !ok || got != v {
		t.Error("ReleaseSharedView() by the owner should succeed")
	}
}

func TestRegistryComponentsAndReset(t *testing.T) {
	reg := newTestRegistry()
	def, _ := reg.RegisterPath("/a", nil)
	in := reg.Instance(def, "", func() *route.Instance {
		return route.NewInstance(def, "", route.NewData(nil, nil, "", nil), nil)
	})
	unobserved := false
	in.SetUnobserve(func() { unobserved = true })

	c1, c2 := &route.Component{Name: "one"}, &route.Component{Name: "two"}
	reg.RegisterComponent(c1)
	reg.RegisterComponent(c2)
	reg.UnregisterComponent(c1)
	if got := reg.Components(); len(got) != 1 || got[0] != c2 {
		t.Errorf("Components() = %v", got)
	}

	reg.Reset()
	if !unobserved {
		t.Error("Reset() should stop observing cached instances")
	}
	if reg.Registered("/a") || reg.Resolves("/a") || len(reg.Components()) != 0 || len(reg.Paths()) != 0 {
		t.Error("Reset() should clear every table")
	}
}
