package dom

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IDAttr is the attribute carrying stable node ids.
const IDAttr = "data-wpm-id"

const viewAttr = "data-wpm-view"

// ErrForeignElement is returned when an element belongs to another document.
var ErrForeignElement = errors.New("dom: element does not belong to this document")

// Document is a headless HTML document. It implements Surface.
// A Document is safe for concurrent use.
type Document struct {
	mu    sync.Mutex
	root  *html.Node
	body  *html.Node
	nodes map[*html.Node]*Node
	next  int
	views int
}

// NewDocument creates an empty document with a body.
func NewDocument() *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	root.AppendChild(htmlEl)
	htmlEl.AppendChild(body)

	d := &Document{root: root, body: body, nodes: make(map[*html.Node]*Node)}
	d.assignIDs(body)
	return d
}

// Body returns the body element.
func (d *Document) Body() *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(d.body)
}

// SetBody replaces the body content with markup. Used to seed the shell
// page that routes render into.
func (d *Document) SetBody(markup string) error {
	nodes, err := parseFragment(markup)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := d.body.FirstChild; c != nil; {
		next := c.NextSibling
		d.body.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		d.body.AppendChild(n)
		d.assignIDs(n)
	}
	return nil
}

// Mount implements Surface. The markup is wrapped in a container element
// appended to target, so sibling views can share an outlet.
func (d *Document) Mount(target Element, markup string) (View, error) {
	t, ok := target.(*Node)
	if !ok || t.doc != d {
		return nil, ErrForeignElement
	}
	nodes, err := parseFragment(markup)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.views++
	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: viewAttr, Val: strconv.Itoa(d.views)}},
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	t.node.AppendChild(container)
	d.assignIDs(container)

	return &view{doc: d, container: container}, nil
}

// ElementByID returns the attached element with the given node id.
func (d *Document) ElementByID(id string) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := find(d.root, func(n *html.Node) bool { return attr(n, IDAttr) == id })
	if n == nil {
		return nil, false
	}
	return d.wrap(n), true
}

// Query returns the first attached element with attribute name set to value.
// An empty value matches any element carrying the attribute.
func (d *Document) Query(name, value string) (*Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := find(d.root, func(n *html.Node) bool {
		v, ok := lookupAttr(n, name)
		return ok && (value == "" || v == value)
	})
	if n == nil {
		return nil, false
	}
	return d.wrap(n), true
}

// HTML renders the whole document.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	_ = html.Render(&b, d.root)
	return b.String()
}

func (d *Document) wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	if w, ok := d.nodes[n]; ok {
		return w
	}
	w := &Node{doc: d, node: n}
	d.nodes[n] = w
	return w
}

func (d *Document) assignIDs(n *html.Node) {
	walk(n, func(c *html.Node) {
		if c.Type != html.ElementNode {
			return
		}
		if _, ok := lookupAttr(c, IDAttr); ok {
			return
		}
		d.next++
		c.Attr = append(c.Attr, html.Attribute{Key: IDAttr, Val: strconv.Itoa(d.next)})
	})
}

func (d *Document) forget(n *html.Node) {
	walk(n, func(c *html.Node) { delete(d.nodes, c) })
}

func parseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, pred); f != nil {
			return f
		}
	}
	return nil
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
