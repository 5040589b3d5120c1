package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is an element of a Document. It implements Element.
type Node struct {
	doc  *Document
	node *html.Node
}

var _ Element = (*Node)(nil)

// ID implements Element.
func (n *Node) ID() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return attr(n.node, IDAttr)
}

// Tag implements Element.
func (n *Node) Tag() string {
	return strings.ToLower(n.node.Data)
}

// Attr implements Element.
func (n *Node) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return lookupAttr(n.node, name)
}

// Parent implements Element.
func (n *Node) Parent() Element {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	p := n.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return n.doc.wrap(p)
}

// Contains implements Element.
func (n *Node) Contains(other Element) bool {
	o, ok := other.(*Node)
	if !ok || o == nil || o.doc != n.doc {
		return false
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for cur := o.node; cur != nil; cur = cur.Parent {
		if cur == n.node {
			return true
		}
	}
	return false
}

// Value implements Element. Textareas hold their value as text content;
// selects report their selected option.
func (n *Node) Value() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	switch n.Tag() {
	case "textarea":
		return text(n.node)
	case "select":
		var first *html.Node
		sel := find(n.node, func(c *html.Node) bool {
			if c.Data != "option" {
				return false
			}
			if first == nil {
				first = c
			}
			_, ok := lookupAttr(c, "selected")
			return ok
		})
		if sel == nil {
			sel = first
		}
		if sel == nil {
			return ""
		}
		if v, ok := lookupAttr(sel, "value"); ok {
			return v
		}
		return text(sel)
	}
	return attr(n.node, "value")
}

// Checked implements Element.
func (n *Node) Checked() bool {
	_, ok := n.Attr("checked")
	return ok
}

// Type implements Element.
func (n *Node) Type() string {
	v, _ := n.Attr("type")
	return strings.ToLower(v)
}

// SetValue sets the value of a form control, as a user typing would.
func (n *Node) SetValue(v string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.Tag() == "textarea" {
		for c := n.node.FirstChild; c != nil; {
			next := c.NextSibling
			n.node.RemoveChild(c)
			c = next
		}
		n.node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		return
	}
	setAttr(n.node, "value", v)
}

// SetChecked checks or unchecks a checkbox or radio input.
func (n *Node) SetChecked(checked bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if checked {
		setAttr(n.node, "checked", "")
		return
	}
	removeAttr(n.node, "checked")
}

// Text returns the text content of the element.
func (n *Node) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return text(n.node)
}

// Child returns the first descendant with the given tag.
func (n *Node) Child(tag string) (*Node, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, func(x *html.Node) bool { return x.Data == tag }); f != nil {
			return n.doc.wrap(f), true
		}
	}
	return nil, false
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}
