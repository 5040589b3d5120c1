package route

import (
	"errors"
	"maps"
	"strings"

	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/routepath"
)

// Action handles a named action for a route instance. Returning true lets
// the action bubble to the parent instance.
type Action func(in *Instance, args []any, ev *dom.Event) bool

// ErrInvalidPath is returned for nested paths with more than one pipe and
// for empty paths.
var ErrInvalidPath = errors.New("route: invalid path")

// Definition is a registered route: its path and how to build instances.
type Definition struct {
	// Path is the path as registered, e.g. "/inbox|/new".
	Path string

	// FullPath is the matchable path, e.g. "/inbox/new".
	FullPath string

	// ParentPath is the parent's path for nested definitions.
	ParentPath string

	// Suffix is the part after the pipe for nested definitions.
	Suffix string

	// Template is the id of the template rendered for instances.
	Template string

	// Title is the document title set when this definition is the leaf.
	Title string

	// RenderTo is mounted into when there is no parent outlet.
	RenderTo dom.Element

	newRoute  func() Route
	inherited []map[string]Action
	own       map[string]Action
	actions   map[string]Action
}

// DefinitionOption configures a Definition.
type DefinitionOption func(*Definition)

// WithTemplate sets the template id.
func WithTemplate(id string) DefinitionOption {
	return func(d *Definition) { d.Template = id }
}

// WithTitle sets the document title.
func WithTitle(title string) DefinitionOption {
	return func(d *Definition) { d.Title = title }
}

// WithRenderTo sets the element instances mount into without a parent outlet.
func WithRenderTo(el dom.Element) DefinitionOption {
	return func(d *Definition) { d.RenderTo = el }
}

// WithActions sets the definition's own actions. They override every
// inherited action with the same name.
func WithActions(actions map[string]Action) DefinitionOption {
	return func(d *Definition) {
		if d.own == nil {
			d.own = make(map[string]Action)
		}
		maps.Copy(d.own, actions)
	}
}

// Inherit adds actions from a parent. Later parents override earlier ones.
func Inherit(actions map[string]Action) DefinitionOption {
	return func(d *Definition) { d.inherited = append(d.inherited, actions) }
}

// NewDefinition parses path and creates a definition. newRoute builds the
// handler for every instance; nil means Base.
func NewDefinition(path string, newRoute func() Route, opts ...DefinitionOption) (*Definition, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	d := &Definition{Path: path, FullPath: path, newRoute: newRoute}
	if strings.Contains(path, "|") {
		tokens := strings.Split(path, "|")
		if len(tokens) != 2 || tokens[0] == "" {
			return nil, ErrInvalidPath
		}
		d.ParentPath, d.Suffix = tokens[0], tokens[1]
		d.FullPath = routepath.JoinNested(tokens[0], tokens[1])
	}
	if d.newRoute == nil {
		d.newRoute = func() Route { return Base{} }
	}
	for _, opt := range opts {
		opt(d)
	}

	d.actions = make(map[string]Action)
	for _, a := range d.inherited {
		maps.Copy(d.actions, a)
	}
	maps.Copy(d.actions, d.own)
	d.inherited, d.own = nil, nil
	return d, nil
}

// MustDefinition is NewDefinition that panics on an invalid path.
func MustDefinition(path string, newRoute func() Route, opts ...DefinitionOption) *Definition {
	d, err := NewDefinition(path, newRoute, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Nested reports whether the definition was registered as parent|suffix.
func (d *Definition) Nested() bool { return d.ParentPath != "" }

// Default reports whether the definition is its parent's default child.
func (d *Definition) Default() bool { return d.Nested() && d.Suffix == "" }

// Action returns the merged action registered under name.
func (d *Definition) Action(name string) (Action, bool) {
	a, ok := d.actions[name]
	return a, ok
}

// Actions returns a copy of the merged actions.
func (d *Definition) Actions() map[string]Action {
	return maps.Clone(d.actions)
}

// NewRoute builds a new handler.
func (d *Definition) NewRoute() Route {
	return d.newRoute()
}
