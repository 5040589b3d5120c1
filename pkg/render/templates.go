package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
)

// ErrUnknownTemplate is returned when rendering an id that was never registered.
var ErrUnknownTemplate = errors.New("render: unknown template")

// Extensions recognized by LoadDir.
var Extensions = []string{".hbs", ".handlebars", ".html"}

// Templates is a registry of compiled Handlebars templates keyed by id.
// It is safe for concurrent use.
type Templates struct {
	mu        sync.RWMutex
	templates map[string]*raymond.Template
	helpers   map[string]any
}

// Option configures Templates.
type Option func(*Templates)

// WithHelper registers a helper on every template compiled afterwards.
func WithHelper(name string, fn any) Option {
	return func(t *Templates) { t.helpers[name] = fn }
}

// New creates an empty registry with the built-in helpers.
func New(opts ...Option) *Templates {
	t := &Templates{
		templates: make(map[string]*raymond.Template),
		helpers:   builtinHelpers(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register compiles source and stores it under id, replacing any template
// already registered with that id.
func (t *Templates) Register(id, source string) error {
	tmpl, err := raymond.Parse(source)
	if err != nil {
		return fmt.Errorf("render: parse %s: %w", id, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	tmpl.RegisterHelpers(t.helpers)
	t.templates[id] = tmpl
	return nil
}

// MustRegister is Register that panics on a parse error.
func (t *Templates) MustRegister(id, source string) {
	if err := t.Register(id, source); err != nil {
		panic(err)
	}
}

// LoadDir registers every template file under dir. The id is the path
// relative to dir without extension, slash-separated: "inbox/message".
func (t *Templates) LoadDir(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasTemplateExt(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		if err := t.Register(id, string(data)); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func hasTemplateExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Has reports whether id is registered.
func (t *Templates) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.templates[id]
	return ok
}

// IDs returns the registered template ids.
func (t *Templates) IDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.templates))
	for id := range t.templates {
		out = append(out, id)
	}
	return out
}

// Render executes the template registered under id with data.
func (t *Templates) Render(id string, data any) (string, error) {
	t.mu.RLock()
	tmpl, ok := t.templates[id]
	t.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	out, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("render: exec %s: %w", id, err)
	}
	return out, nil
}

func builtinHelpers() map[string]any {
	return map[string]any{
		"uppercase": func(s string) string { return strings.ToUpper(s) },
		"lowercase": func(s string) string { return strings.ToLower(s) },
		"default": func(value, fallback any) any {
			if value == nil || value == "" {
				return fallback
			}
			return value
		},
		"eq": func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
	}
}
