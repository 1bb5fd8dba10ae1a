package memdom

import (
	"errors"
	"strings"
	"testing"

	"github.com/hazyhaar/dompick/picker/dom"
)

func testDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(`<html><body><div id="outer"><button class="go">Go</button></div></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestWrap_Identity(t *testing.T) {
	doc := testDoc(t)
	a := doc.Find("button")
	b := doc.Find(".go")
	if a == nil || a != b {
		t.Fatalf("Find returned different wrappers: %p %p", a, b)
	}
	if a.ParentElement() != dom.Element(doc.Find("#outer")) {
		t.Fatal("ParentElement: wrapper identity lost")
	}
}

func TestElement_TagName(t *testing.T) {
	doc := testDoc(t)
	if got := doc.Find("button").TagName(); got != "BUTTON" {
		t.Fatalf("got %q, want %q", got, "BUTTON")
	}
}

func TestFind_Miss(t *testing.T) {
	doc := testDoc(t)
	for _, sel := range []string{"#nope", "span", "button.stop", ".none"} {
		if el := doc.Find(sel); el != nil {
			t.Errorf("Find(%q): got %v, want nil", sel, el.TagName())
		}
	}
}

func TestDispatch_Order(t *testing.T) {
	doc := testDoc(t)
	btn := doc.Find("button")
	outer := doc.Find("#outer")

	var order []string
	record := func(name string) dom.Listener {
		return func(dom.Event) { order = append(order, name) }
	}
	doc.AddEventListener(dom.EventClick, record("doc-capture"), dom.ListenerOptions{Capture: true})
	doc.AddEventListener(dom.EventClick, record("doc-bubble"), dom.ListenerOptions{})
	outer.AddEventListener(dom.EventClick, record("outer-capture"), dom.ListenerOptions{Capture: true})
	outer.AddEventListener(dom.EventClick, record("outer-bubble"), dom.ListenerOptions{})
	btn.AddEventListener(dom.EventClick, record("target"), dom.ListenerOptions{})

	if doc.Click(btn) {
		t.Fatal("default prevented without an intercepting listener")
	}
	want := "doc-capture,outer-capture,target,outer-bubble,doc-bubble"
	if got := strings.Join(order, ","); got != want {
		t.Fatalf("order: got %s, want %s", got, want)
	}
}

func TestDispatch_Intercept(t *testing.T) {
	doc := testDoc(t)
	btn := doc.Find("button")

	var pageSaw, interceptorSaw bool
	btn.AddEventListener(dom.EventClick, func(dom.Event) { pageSaw = true }, dom.ListenerOptions{})
	doc.AddEventListener(dom.EventClick, func(ev dom.Event) {
		interceptorSaw = ev.Target() == dom.Element(btn)
	}, dom.ListenerOptions{Capture: true, Intercept: true})

	if !doc.Click(btn) {
		t.Fatal("expected default prevented")
	}
	if !interceptorSaw {
		t.Fatal("interceptor did not see the target")
	}
	if pageSaw {
		t.Fatal("page handler ran after interception")
	}
}

func TestListener_Remove(t *testing.T) {
	doc := testDoc(t)
	calls := 0
	remove := doc.AddEventListener(dom.EventMouseMove, func(dom.Event) { calls++ }, dom.ListenerOptions{})
	doc.MouseMove(doc.Find("button"))
	remove()
	remove()
	doc.MouseMove(doc.Find("button"))

	if calls != 1 {
		t.Fatalf("calls: got %d, want 1", calls)
	}
	if n := doc.ListenerCount(); n != 0 {
		t.Fatalf("ListenerCount: got %d, want 0", n)
	}
}

func TestListener_RemovedDuringDispatch(t *testing.T) {
	doc := testDoc(t)
	var second func()
	secondCalls := 0
	doc.AddEventListener(dom.EventClick, func(dom.Event) { second() }, dom.ListenerOptions{})
	second = doc.AddEventListener(dom.EventClick, func(dom.Event) { secondCalls++ }, dom.ListenerOptions{})

	doc.Click(doc.Find("button"))
	if secondCalls != 0 {
		t.Fatalf("removed listener ran %d times", secondCalls)
	}
}

func TestRect_ScrollAndDetach(t *testing.T) {
	doc := testDoc(t)
	btn := doc.Find("button")
	doc.SetRect(btn, dom.Rect{Left: 10, Top: 200, Width: 50, Height: 20})

	doc.Window().ScrollTo(0, 150)
	if got := btn.BoundingClientRect(); got != (dom.Rect{Left: 10, Top: 50, Width: 50, Height: 20}) {
		t.Fatalf("scrolled rect: got %+v", got)
	}

	if err := btn.Remove(); err != nil {
		t.Fatal(err)
	}
	if btn.IsConnected() {
		t.Fatal("removed element still connected")
	}
	if got := btn.BoundingClientRect(); got != (dom.Rect{}) {
		t.Fatalf("detached rect: got %+v, want zero", got)
	}
}

func TestCreateAndAppend(t *testing.T) {
	doc := testDoc(t)
	el, err := doc.CreateElement("DIV")
	if err != nil {
		t.Fatal(err)
	}
	if el.IsConnected() {
		t.Fatal("created element should be detached")
	}
	if err := doc.AppendToBody(el); err != nil {
		t.Fatal(err)
	}
	if !el.IsConnected() || el.ParentElement() != doc.Body() {
		t.Fatal("element not appended to body")
	}
	if err := el.SetStyles(map[string]string{"position": "fixed"}); err != nil {
		t.Fatal(err)
	}
	if got := el.(*Element).Style("position"); got != "fixed" {
		t.Fatalf("Style: got %q", got)
	}

	other, _ := ParseString(`<body></body>`)
	foreign, _ := other.CreateElement("div")
	if err := doc.AppendToBody(foreign); err == nil {
		t.Fatal("expected error appending a foreign element")
	}
	if _, err := doc.CreateElement(""); err == nil {
		t.Fatal("expected error for empty tag")
	}
}

func TestWindow_PostMessage(t *testing.T) {
	doc := testDoc(t)
	win := doc.Window()

	var got []byte
	win.AddEventListener(dom.EventMessage, func(ev dom.Event) {
		got = ev.Data()
		if ev.Target() != nil {
			t.Error("message target should be nil")
		}
	}, dom.ListenerOptions{})

	if err := win.PostMessage(map[string]string{"type": "PING"}, "*"); err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"type":"PING"}` {
		t.Fatalf("listener data: got %s", got)
	}
	if len(win.Messages()) != 1 {
		t.Fatalf("Messages: got %d", len(win.Messages()))
	}

	win.Close()
	if err := win.PostMessage("x", "*"); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("closed window: got %v, want ErrWindowClosed", err)
	}
}

func TestFrame_Unloaded(t *testing.T) {
	doc := testDoc(t)
	f := doc.UnloadedFrame()
	if f.ContentWindow() != nil || f.ContentDocument() != nil {
		t.Fatal("unloaded frame should expose nil content")
	}
	loaded := doc.Frame()
	if loaded.ContentDocument() != dom.Document(doc) {
		t.Fatal("loaded frame document mismatch")
	}
}
