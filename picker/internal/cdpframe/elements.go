package cdpframe

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hazyhaar/dompick/picker/dom"
)

type document struct {
	f *Frame
}

func (d *document) Body() dom.Element {
	return d.f.evalID(`() => window.__dompick.reg(document.body)`)
}

func (d *document) DocumentElement() dom.Element {
	return d.f.evalID(`() => window.__dompick.reg(document.documentElement)`)
}

func (d *document) CreateElement(tag string) (dom.Element, error) {
	res, err := d.f.eval(`(tag) => window.__dompick.reg(document.createElement(tag))`, tag)
	if err != nil {
		return nil, fmt.Errorf("cdpframe: create %s: %w", tag, err)
	}
	el := d.f.element(res.Value.Int())
	if el == nil {
		return nil, fmt.Errorf("cdpframe: create %s: no handle", tag)
	}
	return el, nil
}

func (d *document) AppendToBody(el dom.Element) error {
	e, ok := el.(*element)
	if !ok || e.f != d.f {
		return fmt.Errorf("cdpframe: element %T does not belong to this frame", el)
	}
	res, err := d.f.eval(`(id) => {
		const el = window.__dompick.get(id);
		if (!el || !document.body) return false;
		document.body.appendChild(el);
		return true;
	}`, e.id)
	if err != nil {
		return fmt.Errorf("cdpframe: append: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("cdpframe: append: element or body gone")
	}
	return nil
}

func (d *document) AddEventListener(typ string, fn dom.Listener, opts dom.ListenerOptions) func() {
	return d.f.addListener("document", typ, fn, opts)
}

type window struct {
	f *Frame
}

func (w *window) AddEventListener(typ string, fn dom.Listener, opts dom.ListenerOptions) func() {
	return w.f.addListener("window", typ, fn, opts)
}

// PostMessage posts from the host page into the iframe's window, so the
// message crosses the document boundary the way a host script's would.
func (w *window) PostMessage(data any, targetOrigin string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cdpframe: marshal message: %w", err)
	}
	res, err := w.f.host.Context(w.f.ctx).Timeout(w.f.timeout).Eval(`(sel, payload, origin) => {
		const frame = document.querySelector(sel);
		if (!frame || !frame.contentWindow) return false;
		frame.contentWindow.postMessage(JSON.parse(payload), origin);
		return true;
	}`, w.f.selector, string(payload), targetOrigin)
	if err != nil {
		return fmt.Errorf("cdpframe: post message: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("cdpframe: post message: frame window gone")
	}
	return nil
}

// element is a registry handle. The tag name never changes for a node, so
// it is fetched once.
type element struct {
	f  *Frame
	id int

	tagOnce sync.Once
	tag     string
}

func (e *element) TagName() string {
	e.tagOnce.Do(func() {
		e.tag = e.str(`(id) => { const el = window.__dompick.get(id); return el ? el.tagName : ""; }`)
	})
	return e.tag
}

func (e *element) Attribute(name string) string {
	res, err := e.f.eval(`(id, name) => {
		const el = window.__dompick.get(id);
		if (!el) return "";
		if (name === "class") return window.__dompick.className(el);
		return el.getAttribute(name) || "";
	}`, e.id, name)
	if err != nil {
		e.f.logger.Debug("cdpframe: attribute", "name", name, "error", err)
		return ""
	}
	return res.Value.Str()
}

func (e *element) TextContent() string {
	return e.str(`(id) => { const el = window.__dompick.get(id); return el ? (el.textContent || "") : ""; }`)
}

func (e *element) ParentElement() dom.Element {
	return e.f.evalID(`(id) => {
		const el = window.__dompick.get(id);
		return el ? window.__dompick.reg(el.parentElement) : 0;
	}`, e.id)
}

func (e *element) PreviousElementSibling() dom.Element {
	return e.f.evalID(`(id) => {
		const el = window.__dompick.get(id);
		return el ? window.__dompick.reg(el.previousElementSibling) : 0;
	}`, e.id)
}

func (e *element) OwnerDocument() dom.Document { return e.f.doc }

func (e *element) IsConnected() bool {
	res, err := e.f.eval(`(id) => { const el = window.__dompick.get(id); return !!(el && el.isConnected); }`, e.id)
	if err != nil {
		e.f.logger.Debug("cdpframe: isConnected", "error", err)
		return false
	}
	return res.Value.Bool()
}

func (e *element) BoundingClientRect() dom.Rect {
	raw := e.str(`(id) => {
		const el = window.__dompick.get(id);
		if (!el || !el.isConnected) return "{}";
		const r = el.getBoundingClientRect();
		return JSON.stringify({left: r.left, top: r.top, width: r.width, height: r.height});
	}`)
	var r dom.Rect
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		e.f.logger.Debug("cdpframe: parse rect", "error", err)
		return dom.Rect{}
	}
	return r
}

func (e *element) SetStyles(styles map[string]string) error {
	res, err := e.f.eval(`(id, styles) => {
		const el = window.__dompick.get(id);
		if (!el) return false;
		for (const [k, v] of Object.entries(styles)) el.style.setProperty(k, v);
		return true;
	}`, e.id, styles)
	if err != nil {
		return fmt.Errorf("cdpframe: set styles: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("cdpframe: set styles: element gone")
	}
	return nil
}

func (e *element) Remove() error {
	if _, err := e.f.eval(`(id) => { const el = window.__dompick.get(id); if (el) el.remove(); }`, e.id); err != nil {
		return fmt.Errorf("cdpframe: remove: %w", err)
	}
	return nil
}

func (e *element) str(js string) string {
	res, err := e.f.eval(js, e.id)
	if err != nil {
		e.f.logger.Debug("cdpframe: eval", "error", err)
		return ""
	}
	return res.Value.Str()
}
