package route

import (
	"maps"
	"strings"
	"sync"
)

// Data roots addressable through Data.Get and Data.Set.
const (
	RootArgs        = "args"
	RootQueryParams = "queryParams"
	RootHash        = "hash"
	RootModel       = "model"
	RootI18n        = "i18n"
)

// Data is the per-instance data bag. Args, query parameters, hash and the
// i18n snapshot are fixed at construction; only the model may change.
type Data struct {
	args  map[string]string
	query map[string]any
	hash  string
	i18n  map[string]string

	mu    sync.RWMutex
	model any
}

// NewData creates a data bag. The maps are copied.
func NewData(args map[string]string, query map[string]any, hash string, i18n map[string]string) *Data {
	return &Data{
		args:  cloneOrEmpty(args),
		query: cloneOrEmpty(query),
		hash:  hash,
		i18n:  cloneOrEmpty(i18n),
	}
}

func cloneOrEmpty[M ~map[string]V, V any](m M) M {
	if m == nil {
		return M{}
	}
	return maps.Clone(m)
}

// Args returns a copy of the path parameters.
func (d *Data) Args() map[string]string { return maps.Clone(d.args) }

// Arg returns a single path parameter.
func (d *Data) Arg(name string) string { return d.args[name] }

// QueryParams returns a copy of the query parameters.
func (d *Data) QueryParams() map[string]any { return maps.Clone(d.query) }

// Hash returns the URI fragment.
func (d *Data) Hash() string { return d.hash }

// I18n returns a copy of the localized messages snapshot.
func (d *Data) I18n() map[string]string { return maps.Clone(d.i18n) }

// Model returns the current model.
func (d *Data) Model() any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.model
}

// ReadModel calls fn with the model while holding the read lock. Writes
// through Set wait until fn returns. fn must not call Set or SetModel.
func (d *Data) ReadModel(fn func(model any)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.model)
}

// SetModel replaces the model.
func (d *Data) SetModel(m any) {
	d.mu.Lock()
	d.model = m
	d.mu.Unlock()
}

// Get resolves a dotted path such as "model.items[1].name" or "args.id".
func (d *Data) Get(path string) (any, bool) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return nil, false
	}
	var root any
	switch parts[0] {
	case RootArgs:
		root = d.args
	case RootQueryParams:
		root = d.query
	case RootHash:
		if len(parts) > 1 {
			return nil, false
		}
		return d.hash, true
	case RootI18n:
		root = d.i18n
	case RootModel:
		d.mu.RLock()
		defer d.mu.RUnlock()
		root = d.model
	default:
		return nil, false
	}
	if len(parts) == 1 {
		return root, root != nil
	}
	return lookupParts(root, parts[1:])
}

// Set writes value at a path under model and reports whether the model
// changed. Paths under the other roots are read-only: Set leaves them
// untouched and reports false.
func (d *Data) Set(path string, value any) bool {
	parts := SplitPath(path)
	if len(parts) == 0 || parts[0] != RootModel {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(parts) == 1 {
		d.model = value
		return true
	}
	if cur, ok := lookupParts(d.model, parts[1:]); ok && equalScalar(cur, value) {
		return false
	}
	return Assign(d.model, strings.Join(parts[1:], "."), value) == nil
}

func equalScalar(a, b any) bool {
	switch a.(type) {
	case string, bool, int, int64, float64:
		return a == b
	}
	return false
}

// Map returns the template context: args, queryParams, hash, model, i18n.
func (d *Data) Map() map[string]any {
	return map[string]any{
		RootArgs:        d.Args(),
		RootQueryParams: d.QueryParams(),
		RootHash:        d.hash,
		RootModel:       d.Model(),
		RootI18n:        d.I18n(),
	}
}
