package editmode_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/dompick/picker/dom"
	"github.com/hazyhaar/dompick/picker/editmode"
	"github.com/hazyhaar/dompick/picker/internal/memdom"
)

func TestEnable_PostsOneMessage(t *testing.T) {
	doc, _ := memdom.ParseString(`<body></body>`)
	editmode.Enable(doc.Frame(), slog.Default())

	msgs := doc.Window().Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages: got %d, want 1", len(msgs))
	}
	if string(msgs[0]) != `{"type":"ENABLE_EDIT_MODE"}` {
		t.Fatalf("payload: got %s", msgs[0])
	}
}

func TestDisable_PostsOneMessage(t *testing.T) {
	doc, _ := memdom.ParseString(`<body></body>`)
	editmode.Disable(doc.Frame(), nil)

	msgs := doc.Window().Messages()
	if len(msgs) != 1 || string(msgs[0]) != `{"type":"DISABLE_EDIT_MODE"}` {
		t.Fatalf("messages: got %q", msgs)
	}
}

func TestEnable_UnloadedFrame(t *testing.T) {
	doc, _ := memdom.ParseString(`<body></body>`)
	editmode.Enable(doc.UnloadedFrame(), nil)
	editmode.Enable(nil, nil)

	if n := len(doc.Window().Messages()); n != 0 {
		t.Fatalf("messages: got %d, want 0", n)
	}
}

func TestEnable_ClosedWindowLogged(t *testing.T) {
	doc, _ := memdom.ParseString(`<body></body>`)
	doc.Window().Close()

	var buf bytes.Buffer
	editmode.Enable(doc.Frame(), slog.New(slog.NewTextHandler(&buf, nil)))

	if !strings.Contains(buf.String(), "editmode: post message failed") {
		t.Fatalf("expected error log, got %q", buf.String())
	}
}

type panicFrame struct{}

func (panicFrame) ContentWindow() dom.Window     { return panicWindow{} }
func (panicFrame) ContentDocument() dom.Document { return nil }

type panicWindow struct{}

func (panicWindow) AddEventListener(string, dom.Listener, dom.ListenerOptions) func() {
	return func() {}
}
func (panicWindow) PostMessage(any, string) error { panic("context destroyed") }

func TestEnable_RecoversAdapterPanic(t *testing.T) {
	var buf bytes.Buffer
	editmode.Enable(panicFrame{}, slog.New(slog.NewTextHandler(&buf, nil)))
	if !strings.Contains(buf.String(), "panicked") {
		t.Fatalf("expected panic log, got %q", buf.String())
	}
}

func TestDecode(t *testing.T) {
	m, err := editmode.Decode([]byte(`{"type":"ENABLE_EDIT_MODE"}`))
	if err != nil || m.Type != editmode.TypeEnable {
		t.Fatalf("enable: got %+v, %v", m, err)
	}
	m, err = editmode.Decode([]byte(`{"type":"DISABLE_EDIT_MODE","extra":1}`))
	if err != nil || m.Type != editmode.TypeDisable {
		t.Fatalf("disable: got %+v, %v", m, err)
	}

	if _, err := editmode.Decode([]byte(`{"type":"RELOAD"}`)); !errors.Is(err, editmode.ErrUnknownType) {
		t.Fatalf("unknown type: got %v, want ErrUnknownType", err)
	}
	if _, err := editmode.Decode([]byte(`"ENABLE_EDIT_MODE"`)); err == nil {
		t.Fatal("expected error for a bare string")
	}
	if _, err := editmode.Decode(nil); err == nil {
		t.Fatal("expected error for empty data")
	}
}
