package overlay_test

import (
	"strings"
	"testing"

	"github.com/hazyhaar/dompick/picker/dom"
	"github.com/hazyhaar/dompick/picker/internal/memdom"
	"github.com/hazyhaar/dompick/picker/overlay"
)

func TestCreate_Styles(t *testing.T) {
	doc, _ := memdom.ParseString(`<body><p>x</p></body>`)
	o, err := overlay.Create(doc, overlay.HoverStyle)
	if err != nil {
		t.Fatal(err)
	}
	el := o.Element().(*memdom.Element)

	if el.ParentElement() != doc.Body() {
		t.Fatal("overlay not appended to body")
	}
	want := map[string]string{
		"position":       "fixed",
		"pointer-events": "none",
		"border":         "2px solid #1890ff",
		"z-index":        "999998",
		"box-sizing":     "border-box",
	}
	for prop, v := range want {
		if got := el.Style(prop); got != v {
			t.Errorf("%s: got %q, want %q", prop, got, v)
		}
	}
}

func TestSelectionAboveHover(t *testing.T) {
	if overlay.SelectionStyle.ZIndex <= overlay.HoverStyle.ZIndex {
		t.Fatalf("selection z-index %d not above hover %d", overlay.SelectionStyle.ZIndex, overlay.HoverStyle.ZIndex)
	}
	if overlay.SelectionStyle.Color == overlay.HoverStyle.Color {
		t.Fatal("hover and selection share a color")
	}
}

func TestUpdate_Geometry(t *testing.T) {
	doc, _ := memdom.ParseString(`<body><p>x</p></body>`)
	p := doc.Find("p")
	doc.SetRect(p, dom.Rect{Left: 12.5, Top: 300, Width: 100, Height: 18})
	doc.Window().ScrollTo(0, 100)

	o, err := overlay.Create(doc, overlay.SelectionStyle)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Update(p); err != nil {
		t.Fatal(err)
	}
	el := o.Element().(*memdom.Element)
	for prop, v := range map[string]string{"left": "12.5px", "top": "200px", "width": "100px", "height": "18px"} {
		if got := el.Style(prop); got != v {
			t.Errorf("%s: got %q, want %q", prop, got, v)
		}
	}
}

func TestUpdate_DetachedTarget(t *testing.T) {
	doc, _ := memdom.ParseString(`<body><p>x</p></body>`)
	p := doc.Find("p")
	doc.SetRect(p, dom.Rect{Left: 1, Top: 2, Width: 3, Height: 4})
	o, _ := overlay.Create(doc, overlay.HoverStyle)
	_ = p.Remove()

	if err := o.Update(p); err != nil {
		t.Fatal(err)
	}
	el := o.Element().(*memdom.Element)
	if el.Style("width") != "0px" || el.Style("height") != "0px" {
		t.Fatalf("detached target: got %sx%s, want 0px", el.Style("width"), el.Style("height"))
	}
}

func TestRemove_Idempotent(t *testing.T) {
	doc, _ := memdom.ParseString(`<body></body>`)
	o, _ := overlay.Create(doc, overlay.HoverStyle)
	for i := 0; i < 2; i++ {
		if err := o.Remove(); err != nil {
			t.Fatalf("Remove #%d: %v", i+1, err)
		}
	}
	if strings.Contains(doc.Render(), "<div") {
		t.Fatalf("overlay still rendered: %s", doc.Render())
	}
	if err := o.Update(doc.Body()); err != nil {
		t.Fatalf("Update after Remove: %v", err)
	}
}
