package route

import "github.com/tnhu/wpm/pkg/dom"

// ComponentAction handles a named action for a component.
type ComponentAction func(c *Component, args []any, ev *dom.Event) bool

// Component is a UI widget outside the route hierarchy that handles actions
// raised inside its container before routes see them.
type Component struct {
	Name      string
	Container dom.Element

	// Data is resolved against when building action arguments.
	Data map[string]any

	Actions map[string]ComponentAction

	// NoSuchAction receives actions missing from Actions, with the action
	// name prepended to the arguments.
	NoSuchAction ComponentAction

	// OnEvent receives every dispatched event.
	OnEvent func(c *Component, ev *dom.Event)
}
