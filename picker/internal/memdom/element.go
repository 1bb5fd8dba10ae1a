package memdom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/dompick/picker/dom"
)

// Element wraps one element node. There is exactly one Element per node.
type Element struct {
	doc       *Document
	n         *html.Node
	styles    map[string]string
	listeners listenerSet
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.n }

// TagName upper-cases HTML elements the way browsers report them.
func (e *Element) TagName() string {
	if e.n.Namespace == "" {
		return strings.ToUpper(e.n.Data)
	}
	return e.n.Data
}

func (e *Element) Attribute(name string) string { return attr(e.n, name) }

// SetAttribute sets or replaces an attribute.
func (e *Element) SetAttribute(name, value string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}

func (e *Element) TextContent() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.n)
	return sb.String()
}

func (e *Element) ParentElement() dom.Element {
	if p := e.n.Parent; p != nil && p.Type == html.ElementNode {
		return e.doc.Wrap(p)
	}
	return nil
}

func (e *Element) PreviousElementSibling() dom.Element {
	for s := e.n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return e.doc.Wrap(s)
		}
	}
	return nil
}

func (e *Element) OwnerDocument() dom.Document { return e.doc }

func (e *Element) IsConnected() bool {
	n := e.n
	for n.Parent != nil {
		n = n.Parent
	}
	return n == e.doc.root
}

func (e *Element) BoundingClientRect() dom.Rect {
	if !e.IsConnected() {
		return dom.Rect{}
	}
	r := e.doc.rects[e.n]
	r.Left -= e.doc.win.scrollX
	r.Top -= e.doc.win.scrollY
	return r
}

func (e *Element) SetStyles(styles map[string]string) error {
	for k, v := range styles {
		e.styles[k] = v
	}
	return nil
}

// Style returns an inline style property set through SetStyles.
func (e *Element) Style(prop string) string { return e.styles[prop] }

func (e *Element) Remove() error {
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
	return nil
}

// AddEventListener registers a listener on this element, the way page
// scripts install their own handlers.
func (e *Element) AddEventListener(typ string, fn dom.Listener, opts dom.ListenerOptions) func() {
	return e.listeners.add(typ, fn, opts)
}
