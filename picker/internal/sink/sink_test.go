package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hazyhaar/dompick/picker/descriptor"
	"github.com/hazyhaar/dompick/picker/selection"
)

func testEvent(pageID string) selection.Event {
	return selection.New("0190a000-0000-7000-8000-000000000001", pageID, "https://example.com/", &descriptor.Descriptor{
		TagName:  "a",
		XPath:    "/nav[1]/a[1]",
		Selector: "a.item",
	})
}

func TestStdout_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	ctx := context.Background()
	if err := s.SendSelection(ctx, testEvent("home")); err != nil {
		t.Fatal(err)
	}
	if err := s.SendSelection(ctx, selection.New("id2", "home", "https://example.com/", nil)); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2", len(lines))
	}
	var env struct {
		Type string          `json:"type"`
		Data selection.Event `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "selection" || env.Data.Descriptor.Selector != "a.item" {
		t.Fatalf("first line: got %+v", env)
	}
	if !strings.Contains(lines[1], `"cleared":true`) || strings.Contains(lines[1], `"descriptor"`) {
		t.Fatalf("cleared line: got %s", lines[1])
	}
}

func TestWebhook_Retry(t *testing.T) {
	var calls atomic.Int32
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, _ = io.ReadAll(r.Body)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: got %q", ct)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithWebhookBackoff(time.Millisecond), WithWebhookClient(srv.Client()))
	if err := wh.SendSelection(context.Background(), testEvent("home")); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls: got %d, want 3", calls.Load())
	}
	if !bytes.Contains(body, []byte(`"page_id":"home"`)) {
		t.Fatalf("body: got %s", body)
	}
}

func TestWebhook_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithWebhookRetries(1), WithWebhookBackoff(time.Millisecond))
	err := wh.SendSelection(context.Background(), testEvent("home"))
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("error: got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls: got %d, want 2", calls.Load())
	}
}

func TestWebhook_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	wh := NewWebhook(srv.URL, WithWebhookBackoff(time.Hour), WithWebhookLogger(nil))
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := wh.SendSelection(ctx, testEvent("home")); !errors.Is(err, context.Canceled) {
		t.Fatalf("error: got %v, want context.Canceled", err)
	}
}

type failing struct{ closed bool }

func (f *failing) SendSelection(context.Context, selection.Event) error { return errors.New("down") }
func (f *failing) Close() error                                         { f.closed = true; return nil }

func TestRouter_FanOut(t *testing.T) {
	var got []string
	ok := NewCallback(func(_ context.Context, ev selection.Event) error {
		got = append(got, ev.PageID)
		return nil
	})
	bad := &failing{}
	r := NewRouter(nil, bad, ok)

	err := r.SendSelection(context.Background(), testEvent("home"))
	if err == nil || err.Error() != "down" {
		t.Fatalf("error: got %v, want the failing sink's", err)
	}
	if len(got) != 1 || got[0] != "home" {
		t.Fatalf("healthy sink: got %v", got)
	}

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !bad.closed {
		t.Fatal("sink not closed")
	}
}

func TestCallback_Nil(t *testing.T) {
	if err := NewCallback(nil).SendSelection(context.Background(), testEvent("x")); err != nil {
		t.Fatal(err)
	}
}

func TestStream_PageFilter(t *testing.T) {
	s := NewStream(nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.Serve(w, r, r.URL.Query().Get("page"))
	}))
	defer srv.Close()

	dial := func(page string) *websocket.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?page=" + page
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	home := dial("home")
	docs := dial("docs")
	all := dial("")

	deadline := time.Now().Add(2 * time.Second)
	for s.Subscribers() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers: got %d, want 3", s.Subscribers())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.SendSelection(context.Background(), testEvent("home")); err != nil {
		t.Fatal(err)
	}

	for name, conn := range map[string]*websocket.Conn{"home": home, "all": all} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("%s: read: %v", name, err)
		}
		if !bytes.Contains(data, []byte(`"page_id":"home"`)) {
			t.Fatalf("%s: got %s", name, data)
		}
	}

	docs.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, data, err := docs.ReadMessage(); err == nil {
		t.Fatalf("docs subscriber received %s", data)
	}
}

func TestStream_Closed(t *testing.T) {
	s := NewStream(nil, nil)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := s.Serve(rec, req, ""); err == nil {
		t.Fatal("expected error serving a closed stream")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestQueue_DeliversInOrderOffCaller(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var got []string
	slow := NewCallback(func(_ context.Context, ev selection.Event) error {
		<-release
		mu.Lock()
		got = append(got, ev.PageID)
		mu.Unlock()
		return nil
	})

	q := NewQueue(slow, 4, nil)
	start := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		if err := q.SendSelection(context.Background(), testEvent(id)); err != nil {
			t.Fatalf("send %s: %v", id, err)
		}
	}
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Fatalf("SendSelection blocked for %v", d)
	}

	close(release)
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("order: got %v", got)
	}
	if err := q.SendSelection(context.Background(), testEvent("d")); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close: got %v, want ErrClosed", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestQueue_Full(t *testing.T) {
	release := make(chan struct{})
	blocked := NewCallback(func(context.Context, selection.Event) error {
		<-release
		return nil
	})
	q := NewQueue(blocked, 1, nil)
	defer func() {
		close(release)
		q.Close()
	}()

	// One event is held by the drain goroutine, one fills the buffer.
	var full error
	for i := 0; i < 3 && full == nil; i++ {
		full = q.SendSelection(context.Background(), testEvent("p"))
	}
	if !errors.Is(full, ErrQueueFull) {
		t.Fatalf("got %v, want ErrQueueFull", full)
	}
}
