package router

import (
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/tnhu/wpm/pkg/route"
)

// Table errors.
var (
	ErrNotFound   = errors.New("router: no table entry")
	ErrUnresolved = errors.New("router: parent route not registered")
)

// link is one element of a chain: a concrete definition, or a placeholder
// naming a parent path that has not been registered yet. A placeholder can
// only appear at the root of a chain.
type link struct {
	def         *route.Definition
	placeholder string
}

// pendingLink records a chain waiting for a parent path.
type pendingLink struct {
	path string
	def  *route.Definition
}

// Table maps full paths to the root-to-leaf chain of definitions that make
// up the page. Definitions may be registered in any order.
type Table struct {
	mu sync.RWMutex

	// own holds, per full path, the chain ending in that path's definition.
	own map[string][]link

	// defaults holds the default child of a parent path.
	defaults map[string]*route.Definition

	// pending holds chains rooted in a placeholder, keyed by that placeholder.
	pending map[string][]pendingLink
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		own:      make(map[string][]link),
		defaults: make(map[string]*route.Definition),
		pending:  make(map[string][]pendingLink),
	}
}

// Add links def into the table and backfills chains that were waiting for
// it. It reports false when the full path already has a definition.
func (t *Table) Add(def *route.Definition) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if def.Default() {
		if _, ok := t.defaults[def.ParentPath]; ok {
			return false
		}
		t.defaults[def.ParentPath] = def
		return true
	}

	path := def.FullPath
	if _, ok := t.own[path]; ok {
		return false
	}

	if !def.Nested() {
		t.own[path] = []link{{def: def}}
	} else {
		parent, ok := t.own[def.ParentPath]
		var chain []link
		if ok {
			chain = append(slices.Clone(parent), link{def: def})
		} else {
			chain = []link{{placeholder: def.ParentPath}, {def: def}}
		}
		t.own[path] = chain
		if p := chain[0].placeholder; p != "" {
			t.pending[p] = append(t.pending[p], pendingLink{path: path, def: def})
		}
	}

	t.backfill(path)
	return true
}

// backfill replaces the placeholder for path in every chain waiting on it.
// A chain whose new root is itself a placeholder is re-queued under that
// placeholder, so resolution is transitive.
func (t *Table) backfill(path string) {
	deps := t.pending[path]
	if len(deps) == 0 {
		return
	}
	delete(t.pending, path)

	concrete := t.own[path]
	for _, dep := range deps {
		chain := t.own[dep.path]
		if len(chain) == 0 || chain[0].placeholder != path {
			continue
		}
		next := append(slices.Clone(concrete), chain[1:]...)
		t.own[dep.path] = next
		if p := next[0].placeholder; p != "" {
			t.pending[p] = append(t.pending[p], dep)
		}
	}
}

// Entry returns the chain for a full path: the definitions from the root
// to the leaf, followed by the leaf's default child when it has one.
func (t *Table) Entry(path string) ([]*route.Definition, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chain, ok := t.own[path]
	def, hasDefault := t.defaults[path]
	if !ok {
		if hasDefault {
			return nil, ErrUnresolved
		}
		return nil, ErrNotFound
	}
	if chain[0].placeholder != "" {
		return nil, ErrUnresolved
	}

	out := make([]*route.Definition, 0, len(chain)+1)
	for _, l := range chain {
		out = append(out, l.def)
	}
	if hasDefault {
		out = append(out, def)
	}
	return out, nil
}

// Missing returns the parent path an unresolved entry is waiting for.
func (t *Table) Missing(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if chain, ok := t.own[path]; ok {
		if p := chain[0].placeholder; p != "" {
			return p, true
		}
		return "", false
	}
	if _, ok := t.defaults[path]; ok {
		return path, true
	}
	return "", false
}

// Paths returns every full path with an entry, sorted.
func (t *Table) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]bool, len(t.own)+len(t.defaults))
	for p := range t.own {
		seen[p] = true
	}
	for p := range t.defaults {
		seen[p] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Pending returns, per missing parent path, the full paths waiting for it.
func (t *Table) Pending() map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string][]string, len(t.pending))
	for p, deps := range t.pending {
		for _, d := range deps {
			out[p] = append(out[p], d.path)
		}
	}
	return out
}
