package dom

import (
	"golang.org/x/net/html"
)

type view struct {
	doc       *Document
	container *html.Node
	hidden    bool
}

func (v *view) Root() Element {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()
	return v.doc.wrap(v.container)
}

func (v *view) Outlet() Element {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()
	for c := v.container.FirstChild; c != nil; c = c.NextSibling {
		if n := find(c, func(n *html.Node) bool { _, ok := lookupAttr(n, "outlet"); return ok }); n != nil {
			return v.doc.wrap(n)
		}
	}
	return nil
}

func (v *view) Bindings() []Element {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()
	var out []Element
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if _, nested := lookupAttr(c, viewAttr); nested {
				continue
			}
			if _, ok := lookupAttr(c, "binding"); ok {
				out = append(out, v.doc.wrap(c))
			}
			visit(c)
		}
	}
	visit(v.container)
	return out
}

// Update re-renders the view content. Nested views mounted into an outlet
// of the previous content are carried over to the new outlet.
func (v *view) Update(markup string) error {
	nodes, err := parseFragment(markup)
	if err != nil {
		return err
	}
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()

	var nested []*html.Node
	if old := v.outletNode(); old != nil {
		for c := old.FirstChild; c != nil; {
			next := c.NextSibling
			if _, ok := lookupAttr(c, viewAttr); ok {
				old.RemoveChild(c)
				nested = append(nested, c)
			}
			c = next
		}
	}

	for c := v.container.FirstChild; c != nil; {
		next := c.NextSibling
		v.container.RemoveChild(c)
		v.doc.forget(c)
		c = next
	}
	for _, n := range nodes {
		v.container.AppendChild(n)
	}
	v.doc.assignIDs(v.container)

	if outlet := v.outletNode(); outlet != nil {
		for _, n := range nested {
			outlet.AppendChild(n)
		}
	}
	return nil
}

func (v *view) outletNode() *html.Node {
	for c := v.container.FirstChild; c != nil; c = c.NextSibling {
		if n := find(c, func(n *html.Node) bool { _, ok := lookupAttr(n, "outlet"); return ok }); n != nil {
			return n
		}
	}
	return nil
}

func (v *view) Hide() {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()
	v.hidden = true
	setAttr(v.container, "hidden", "")
}

func (v *view) Show() {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()
	v.hidden = false
	removeAttr(v.container, "hidden")
}

func (v *view) Hidden() bool {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()
	return v.hidden
}

func (v *view) Unmount() {
	v.doc.mu.Lock()
	defer v.doc.mu.Unlock()
	if v.container.Parent != nil {
		v.container.Parent.RemoveChild(v.container)
	}
	v.doc.forget(v.container)
}
