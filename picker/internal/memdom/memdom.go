// Package memdom implements the dom interfaces over golang.org/x/net/html
// trees. There is no layout engine: element boxes are assigned with SetRect
// and scrolling shifts them. Events are dispatched synchronously through a
// capture, target and bubble path from the document to the target.
package memdom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/dompick/picker/dom"
)

// ErrWindowClosed is returned by PostMessage once the window is closed.
var ErrWindowClosed = errors.New("memdom: window closed")

// Document is a parsed, mutable HTML document with its window.
type Document struct {
	root      *html.Node
	elems     map[*html.Node]*Element
	rects     map[*html.Node]dom.Rect
	listeners listenerSet
	win       *Window
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}
	d := &Document{
		root:  root,
		elems: make(map[*html.Node]*Element),
		rects: make(map[*html.Node]dom.Rect),
	}
	d.win = &Window{doc: d, width: 1280, height: 720}
	return d, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Window returns the document's window.
func (d *Document) Window() *Window { return d.win }

// Frame returns a loaded frame exposing this document.
func (d *Document) Frame() dom.Frame { return &Frame{doc: d, loaded: true} }

// UnloadedFrame returns a frame whose content is not available yet.
func (d *Document) UnloadedFrame() dom.Frame { return &Frame{doc: d} }

// Wrap returns the Element for an element node of this document.
func (d *Document) Wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elems[n]; ok {
		return el
	}
	el := &Element{doc: d, n: n, styles: make(map[string]string)}
	d.elems[n] = el
	return el
}

// SetRect assigns a document-space box to el.
func (d *Document) SetRect(el *Element, r dom.Rect) {
	d.rects[el.n] = r
}

// Body returns <body>, or nil.
func (d *Document) Body() dom.Element {
	if el := d.find(func(n *html.Node) bool { return n.DataAtom == atom.Body }); el != nil {
		return el
	}
	return nil
}

// DocumentElement returns <html>, or nil.
func (d *Document) DocumentElement() dom.Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.Wrap(c)
		}
	}
	return nil
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) (dom.Element, error) {
	tag = strings.ToLower(tag)
	if tag == "" {
		return nil, errors.New("memdom: empty tag name")
	}
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	return d.Wrap(n), nil
}

// AppendToBody moves el to the end of <body>.
func (d *Document) AppendToBody(el dom.Element) error {
	e, ok := el.(*Element)
	if !ok || e.doc != d {
		return fmt.Errorf("memdom: element %T does not belong to this document", el)
	}
	body := d.Body()
	if body == nil {
		return errors.New("memdom: document has no body")
	}
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
	body.(*Element).n.AppendChild(e.n)
	return nil
}

// AddEventListener registers a document-level listener.
func (d *Document) AddEventListener(typ string, fn dom.Listener, opts dom.ListenerOptions) func() {
	return d.listeners.add(typ, fn, opts)
}

// Find returns the first element matching a minimal selector: "#id",
// "tag", ".class" or "tag.class". It returns nil when nothing matches.
func (d *Document) Find(sel string) *Element {
	var tag, id, class string
	switch {
	case strings.HasPrefix(sel, "#"):
		id = sel[1:]
	case strings.Contains(sel, "."):
		tag, class, _ = strings.Cut(sel, ".")
	default:
		tag = sel
	}
	return d.find(func(n *html.Node) bool {
		if tag != "" && n.Data != tag {
			return false
		}
		if id != "" && attr(n, "id") != id {
			return false
		}
		if class != "" {
			for _, c := range strings.Fields(attr(n, "class")) {
				if c == class {
					return true
				}
			}
			return false
		}
		return true
	})
}

func (d *Document) find(match func(*html.Node) bool) *Element {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	if found == nil {
		return nil
	}
	return d.Wrap(found)
}

// MouseMove dispatches a mousemove event at el.
func (d *Document) MouseMove(el *Element) {
	d.dispatch(dom.EventMouseMove, el)
}

// Click dispatches a click at el and reports whether its default action
// was prevented.
func (d *Document) Click(el *Element) bool {
	return d.dispatch(dom.EventClick, el)
}

// Render serialises the current tree.
func (d *Document) Render() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, d.root)
	return buf.String()
}

// dispatch runs the capture, target and bubble phases for an element event.
func (d *Document) dispatch(typ string, target *Element) bool {
	ev := &event{typ: typ, target: target}

	var path []*Element
	for n := target.n.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			path = append(path, d.Wrap(n))
		}
	}

	if d.listeners.fire(ev, phaseCapture) {
		return ev.prevented
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].listeners.fire(ev, phaseCapture) {
			return ev.prevented
		}
	}
	if target.listeners.fire(ev, phaseTarget) {
		return ev.prevented
	}
	for _, el := range path {
		if el.listeners.fire(ev, phaseBubble) {
			return ev.prevented
		}
	}
	d.listeners.fire(ev, phaseBubble)
	return ev.prevented
}

// Frame is a handle on a document as seen from a host.
type Frame struct {
	doc    *Document
	loaded bool
}

func (f *Frame) ContentWindow() dom.Window {
	if !f.loaded {
		return nil
	}
	return f.doc.win
}

func (f *Frame) ContentDocument() dom.Document {
	if !f.loaded {
		return nil
	}
	return f.doc
}

// Window is the document's window: scroll offset, viewport size and the
// message channel.
type Window struct {
	doc       *Document
	listeners listenerSet
	scrollX   float64
	scrollY   float64
	width     float64
	height    float64
	messages  [][]byte
	closed    bool
}

func (w *Window) AddEventListener(typ string, fn dom.Listener, opts dom.ListenerOptions) func() {
	return w.listeners.add(typ, fn, opts)
}

// PostMessage records the JSON payload and delivers it to message
// listeners before returning.
func (w *Window) PostMessage(data any, _ string) error {
	if w.closed {
		return ErrWindowClosed
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("memdom: marshal message: %w", err)
	}
	w.messages = append(w.messages, payload)
	w.listeners.fire(&event{typ: dom.EventMessage, data: payload}, phaseTarget)
	return nil
}

// Messages returns every payload posted so far.
func (w *Window) Messages() [][]byte { return w.messages }

// Close makes further posts fail.
func (w *Window) Close() { w.closed = true }

// ScrollTo sets the scroll offset and fires scroll.
func (w *Window) ScrollTo(x, y float64) {
	w.scrollX, w.scrollY = x, y
	w.listeners.fire(&event{typ: dom.EventScroll}, phaseTarget)
}

// Resize sets the viewport size and fires resize.
func (w *Window) Resize(width, height float64) {
	w.width, w.height = width, height
	w.listeners.fire(&event{typ: dom.EventResize}, phaseTarget)
}

// Size returns the viewport size.
func (w *Window) Size() (float64, float64) { return w.width, w.height }

type event struct {
	typ       string
	target    *Element
	data      []byte
	prevented bool
	stopped   bool
}

func (e *event) Type() string { return e.typ }

func (e *event) Target() dom.Element {
	if e.target == nil {
		return nil
	}
	return e.target
}

func (e *event) Data() []byte { return e.data }

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}

// ListenerCount returns the number of listeners registered on the document
// and its window.
func (d *Document) ListenerCount() int {
	return d.listeners.Len() + d.win.listeners.Len()
}
