package router

import (
	"errors"
	"sync"

	"github.com/tnhu/wpm/pkg/routepath"
)

// ErrPatternExists is returned when a pattern is registered twice.
var ErrPatternExists = errors.New("router: pattern already registered")

// Match is the result of resolving a URI.
type Match[H any] struct {
	// Handler is the value registered with the matching pattern.
	Handler H

	// Pattern is the template that matched.
	Pattern string

	// Params are the path parameters, unescaped.
	Params map[string]string

	// Query are the query parameters. Keys without "=" map to true.
	Query map[string]any

	// Hash is the fragment, opaque.
	Hash string

	// HasHash reports whether the URI carried a "#".
	HasHash bool
}

type entry[H any] struct {
	pattern *Pattern
	handler H
}

// Resolver matches URIs against patterns in registration order. The first
// matching pattern wins. A Resolver is safe for concurrent use.
type Resolver[H any] struct {
	mu      sync.RWMutex
	entries []entry[H]
}

// NewResolver creates an empty resolver.
func NewResolver[H any]() *Resolver[H] {
	return &Resolver[H]{}
}

// Register compiles pattern and appends it with handler. Registering a
// pattern again leaves the resolver unchanged and returns ErrPatternExists.
func (r *Resolver[H]) Register(pattern string, handler H) error {
	p, err := Compile(pattern)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.pattern.source == pattern {
			return ErrPatternExists
		}
	}
	r.entries = append(r.entries, entry[H]{pattern: p, handler: handler})
	return nil
}

// Unregister removes the first entry registered with pattern and reports
// whether one was found.
func (r *Resolver[H]) Unregister(pattern string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.pattern.source == pattern {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Resolve matches uri. The fragment is split off first, then the query
// string; the remaining path is matched. No match is reported with false.
func (r *Resolver[H]) Resolve(uri string) (*Match[H], bool) {
	parts := routepath.Split(uri)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		raw, ok := e.pattern.Match(parts.Path)
		if !ok {
			continue
		}
		params := make(map[string]string, len(raw))
		for k, v := range raw {
			if d, err := routepath.DecodeSegment(v); err == nil {
				v = d
			}
			params[k] = v
		}
		return &Match[H]{
			Handler: e.handler,
			Pattern: e.pattern.source,
			Params:  params,
			Query:   routepath.ParseQuery(parts.Query),
			Hash:    parts.Hash,
			HasHash: parts.HasHash,
		}, true
	}
	return nil, false
}

// Patterns returns the registered templates in registration order.
func (r *Resolver[H]) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.pattern.source
	}
	return out
}

// Len returns the number of registered patterns.
func (r *Resolver[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset removes every pattern.
func (r *Resolver[H]) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
