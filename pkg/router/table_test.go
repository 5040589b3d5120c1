package router

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tnhu/wpm/pkg/route"
)

func defs(t *testing.T, paths ...string) map[string]*route.Definition {
	t.Helper()
	out := make(map[string]*route.Definition, len(paths))
	for _, p := range paths {
		out[p] = route.MustDefinition(p, nil)
	}
	return out
}

func chainPaths(chain []*route.Definition) []string {
	out := make([]string, len(chain))
	for i, d := range chain {
		out[i] = d.Path
	}
	return out
}

func TestTableOrderIndependent(t *testing.T) {
	paths := []string{"/", "/|inbox", "/inbox|/:id", "/inbox/:id|/reply"}

	orders := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
		{1, 3, 0, 2},
	}
	want := map[string][]string{
		"/inbox":           {"/", "/|inbox"},
		"/inbox/:id":       {"/", "/|inbox", "/inbox|/:id"},
		"/inbox/:id/reply": {"/", "/|inbox", "/inbox|/:id", "/inbox/:id|/reply"},
	}

	for _, order := range orders {
		d := defs(t, paths...)
		tbl := NewTable()
		for _, i := range order {
			tbl.Add(d[paths[i]])
		}
		for full, wantChain := range want {
			chain, err := tbl.Entry(full)
			if err != nil {
				t.Fatalf("order %v: Entry(%q) error = %v", order, full, err)
			}
			if got := chainPaths(chain); !reflect.DeepEqual(got, wantChain) {
				t.Errorf("order %v: Entry(%q) = %v, want %v", order, full, got, wantChain)
			}
		}
		if p := tbl.Pending(); len(p) != 0 {
			t.Errorf("order %v: Pending() = %v, want empty", order, p)
		}
	}
}

func TestTableDefaultChild(t *testing.T) {
	tests := []struct {
		name  string
		order []string
	}{
		{"parent first", []string{"/inbox", "/inbox|", "/inbox|/new"}},
		{"default first", []string{"/inbox|", "/inbox", "/inbox|/new"}},
		{"specific before default", []string{"/inbox|/new", "/inbox|", "/inbox"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := defs(t, tt.order...)
			tbl := NewTable()
			for _, p := range tt.order {
				if !tbl.Add(d[p]) {
					t.Fatalf("Add(%q) = false", p)
				}
			}

			chain, err := tbl.Entry("/inbox")
			if err != nil {
				t.Fatalf("Entry(/inbox) error = %v", err)
			}
			if got := chainPaths(chain); !reflect.DeepEqual(got, []string{"/inbox", "/inbox|"}) {
				t.Errorf("Entry(/inbox) = %v", got)
			}

			chain, err = tbl.Entry("/inbox/new")
			if err != nil {
				t.Fatalf("Entry(/inbox/new) error = %v", err)
			}
			if got := chainPaths(chain); !reflect.DeepEqual(got, []string{"/inbox", "/inbox|/new"}) {
				t.Errorf("Entry(/inbox/new) = %v, want the default child replaced", got)
			}
		})
	}
}

func TestTableUnresolved(t *testing.T) {
	d := defs(t, "/inbox|/new", "/settings|")
	tbl := NewTable()
	tbl.Add(d["/inbox|/new"])
	tbl.Add(d["/settings|"])

	if _, err := tbl.Entry("/inbox/new"); !errors.Is(err, ErrUnresolved) {
		t.Errorf("Entry(/inbox/new) error = %v, want ErrUnresolved", err)
	}
	if p, ok := tbl.Missing("/inbox/new"); !ok || p != "/inbox" {
		t.Errorf("Missing(/inbox/new) = %q, %v", p, ok)
	}
	if _, err := tbl.Entry("/settings"); !errors.Is(err, ErrUnresolved) {
		t.Errorf("Entry(/settings) error = %v, want ErrUnresolved", err)
	}
	if _, err := tbl.Entry("/nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Entry(/nowhere) error = %v, want ErrNotFound", err)
	}
	if got := tbl.Pending(); !reflect.DeepEqual(got, map[string][]string{"/inbox": {"/inbox/new"}}) {
		t.Errorf("Pending() = %v", got)
	}
	if got := tbl.Paths(); !reflect.DeepEqual(got, []string{"/inbox/new", "/settings"}) {
		t.Errorf("Paths() = %v", got)
	}
}

func TestTableDuplicate(t *testing.T) {
	tbl := NewTable()
	if !tbl.Add(route.MustDefinition("/x", nil)) {
		t.Fatal("first Add() = false")
	}
	if tbl.Add(route.MustDefinition("/|x", nil)) {
		t.Error("Add() of a second definition for /x should report false")
	}
	chain, _ := tbl.Entry("/x")
	if chain[0].Path != "/x" {
		t.Errorf("Entry(/x) = %v, want the first definition kept", chainPaths(chain))
	}
}
