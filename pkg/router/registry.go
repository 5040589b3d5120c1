package router

import (
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/tnhu/wpm/internal/errors"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/route"
)

// Registry errors.
var (
	ErrDuplicateRoute    = stderrors.New("router: route already registered")
	ErrInvalidNestedPath = stderrors.New("router: invalid nested path")
)

// Resolution is a URI resolved to its chain of definitions.
type Resolution struct {
	// Path is the full path of the leaf definition.
	Path string

	// Chain lists the definitions from root to leaf.
	Chain []*route.Definition

	// Match carries the parameters parsed from the URI.
	Match *Match[string]
}

// SharedView is the view every instance of a definition mounts into. Only
// the owner may hide or remove it.
type SharedView struct {
	View  dom.View
	Owner *route.Instance
}

// Registry is the process-scoped routing context: the resolver, the route
// table, the instance caches and the registered components. It is passed
// explicitly to the transition engine and the action dispatcher.
type Registry struct {
	logger *slog.Logger

	resolver *Resolver[string]
	table    *Table

	mu         sync.Mutex
	defs       map[string]*route.Definition
	instances  map[*route.Definition]map[string]*route.Instance
	views      map[*route.Definition]*SharedView
	components []*route.Component
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.clear()
	return r
}

func (r *Registry) clear() {
	r.resolver = NewResolver[string]()
	r.table = NewTable()
	r.defs = make(map[string]*route.Definition)
	r.instances = make(map[*route.Definition]map[string]*route.Instance)
	r.views = make(map[*route.Definition]*SharedView)
	r.components = nil
}

// Register adds a definition. A path registered twice is logged and
// ignored; the error reports it to the caller.
func (r *Registry) Register(def *route.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[def.Path]; ok {
		r.logger.Error("route already registered", "path", def.Path)
		return errors.New("W002").WithPath(def.Path).Wrap(ErrDuplicateRoute)
	}

	if err := r.resolver.Register(def.FullPath, def.FullPath); err != nil && !stderrors.Is(err, ErrPatternExists) {
		return errors.New("W003").WithPath(def.Path).Wrap(err)
	}
	if !r.table.Add(def) {
		r.logger.Warn("route path shadowed by an earlier registration", "path", def.Path, "full_path", def.FullPath)
	}
	r.defs[def.Path] = def

	if def.Nested() {
		r.logger.Debug("nested route registered", "path", def.Path, "full_path", def.FullPath)
	} else {
		r.logger.Debug("route registered", "path", def.Path)
	}
	return nil
}

// RegisterPath parses path and registers the resulting definition.
func (r *Registry) RegisterPath(path string, newRoute func() route.Route, opts ...route.DefinitionOption) (*route.Definition, error) {
	def, err := route.NewDefinition(path, newRoute, opts...)
	if err != nil {
		r.logger.Error("invalid route path", "path", path)
		return nil, errors.New("W003").WithPath(path).Wrap(ErrInvalidNestedPath)
	}
	if err := r.Register(def); err != nil {
		return nil, err
	}
	return def, nil
}

// Registered reports whether a definition with path was registered.
func (r *Registry) Registered(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.defs[path]
	return ok
}

// Resolve resolves uri to its chain of definitions.
func (r *Registry) Resolve(uri string) (*Resolution, error) {
	m, ok := r.resolver.Resolve(uri)
	if !ok {
		return nil, errors.New("W001").WithPath(uri)
	}
	chain, err := r.table.Entry(m.Handler)
	if err != nil {
		if missing, ok := r.table.Missing(m.Handler); ok {
			return nil, errors.New("W004").WithPath(m.Handler).
				WithDetail("Waiting for parent route " + missing + ".").
				Wrap(err)
		}
		return nil, errors.New("W001").WithPath(uri).Wrap(err)
	}
	return &Resolution{Path: m.Handler, Chain: chain, Match: m}, nil
}

// Resolves reports whether uri resolves to a complete chain.
func (r *Registry) Resolves(uri string) bool {
	_, err := r.Resolve(uri)
	return err == nil
}

// Paths returns every full path in the route table, sorted.
func (r *Registry) Paths() []string {
	return r.table.Paths()
}

// Pending returns the unresolved parent paths and who waits for them.
func (r *Registry) Pending() map[string][]string {
	return r.table.Pending()
}

// Instance returns the cached instance of def for key, building and caching
// one with build when there is none.
func (r *Registry) Instance(def *route.Definition, key string, build func() *route.Instance) *route.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	cache := r.instances[def]
	if cache == nil {
		cache = make(map[string]*route.Instance)
		r.instances[def] = cache
	}
	if in, ok := cache[key]; ok {
		return in
	}
	in := build()
	cache[key] = in
	return in
}

// Cached reports whether in is the cached instance for its key.
func (r *Registry) Cached(in *route.Instance) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[in.Definition()][in.ID()] == in
}

// Evict removes in from its definition's cache.
func (r *Registry) Evict(in *route.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cache := r.instances[in.Definition()]
	if cache[in.ID()] == in {
		delete(cache, in.ID())
	}
}

// SharedView returns the view shared by instances of def, or nil.
func (r *Registry) SharedView(def *route.Definition) *SharedView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[def]
}

// SetSharedView records the view of def and its owner.
func (r *Registry) SetSharedView(def *route.Definition, v dom.View, owner *route.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[def] = &SharedView{View: v, Owner: owner}
}

// ReleaseSharedView removes the view of def when owner still owns it and
// returns the removed view.
func (r *Registry) ReleaseSharedView(def *route.Definition, owner *route.Instance) (dom.View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sv := r.views[def]
	if sv == nil || sv.Owner != owner {
		return nil, false
	}
	delete(r.views, def)
	return sv.View, true
}

// RegisterComponent adds a component. Components registered later take
// precedence when containers nest.
func (r *Registry) RegisterComponent(c *route.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components = append(r.components, c)
}

// UnregisterComponent removes a component.
func (r *Registry) UnregisterComponent(c *route.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.components {
		if x == c {
			r.components = append(r.components[:i], r.components[i+1:]...)
			return
		}
	}
}

// Components returns the registered components in registration order.
func (r *Registry) Components() []*route.Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*route.Component(nil), r.components...)
}

// Reset clears every table and cache. Cached instances stop observing
// their data bags.
func (r *Registry) Reset() {
	r.mu.Lock()
	var all []*route.Instance
	for _, cache := range r.instances {
		for _, in := range cache {
			all = append(all, in)
		}
	}
	r.clear()
	r.mu.Unlock()

	for _, in := range all {
		in.Unobserve()
	}
	r.logger.Debug("registry reset", "instances", len(all))
}
