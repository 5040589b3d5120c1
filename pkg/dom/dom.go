package dom

// Element is a node of the document that events, outlets and bindings
// refer to.
type Element interface {
	// ID returns the stable node id assigned when the element was mounted.
	ID() string

	// Tag returns the lowercased tag name.
	Tag() string

	// Attr returns the value of an attribute and whether it is present.
	Attr(name string) (string, bool)

	// Parent returns the parent element, or nil at the document root.
	Parent() Element

	// Contains reports whether other is this element or one of its descendants.
	Contains(other Element) bool

	// Value returns the current value of a form control.
	Value() string

	// Checked reports whether a checkbox or radio input is checked.
	Checked() bool

	// Type returns the lowercased type attribute of an input.
	Type() string
}

// View is markup mounted into a target element.
type View interface {
	// Root returns the element wrapping the mounted markup.
	Root() Element

	// Outlet returns the first descendant carrying an outlet attribute, or nil.
	Outlet() Element

	// Bindings returns descendants carrying a binding attribute, excluding
	// those inside nested views.
	Bindings() []Element

	// Update replaces the mounted markup in place.
	Update(markup string) error

	Hide()
	Show()
	Hidden() bool

	// Unmount removes the view from the document.
	Unmount()
}

// Surface mounts markup into the document.
type Surface interface {
	Mount(target Element, markup string) (View, error)
}

// Event is a user-interface event delivered to the action dispatcher.
type Event struct {
	// Type is the DOM event type, e.g. "click".
	Type string

	// Target is the element the event originated from.
	Target Element

	// Current is the element carrying the action being dispatched.
	Current Element

	// Key is the key of keyboard events.
	Key string

	prevented bool
	stopped   bool
}

// PreventDefault marks the event's default behavior as cancelled.
func (e *Event) PreventDefault() { e.prevented = true }

// StopPropagation marks the event as handled.
func (e *Event) StopPropagation() { e.stopped = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// Closest returns the nearest ancestor of el (el included) carrying attr,
// with the attribute value.
func Closest(el Element, attr string) (Element, string, bool) {
	for cur := el; cur != nil; cur = cur.Parent() {
		if v, ok := cur.Attr(attr); ok {
			return cur, v, true
		}
	}
	return nil, "", false
}
