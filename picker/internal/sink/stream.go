package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hazyhaar/dompick/picker/selection"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 5 * time.Second
)

// Stream pushes events to websocket subscribers, typically a host UI that
// mirrors the current selection live. Slow subscribers drop events rather
// than stall the picker.
type Stream struct {
	mu       sync.Mutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	closed   bool
}

type subscriber struct {
	conn   *websocket.Conn
	pageID string // empty = every page
	send   chan []byte
}

// NewStream creates a Stream sink. checkOrigin may be nil to accept any
// origin.
func NewStream(logger *slog.Logger, checkOrigin func(*http.Request) bool) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Stream{
		subs:     make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:   logger,
	}
}

// Serve upgrades the request and streams events for pageID (all pages when
// empty) until the client disconnects or the sink is closed.
func (s *Stream) Serve(w http.ResponseWriter, r *http.Request, pageID string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		http.Error(w, "stream closed", http.StatusServiceUnavailable)
		return fmt.Errorf("stream: closed")
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("stream: upgrade: %w", err)
	}
	sub := &subscriber{conn: conn, pageID: pageID, send: make(chan []byte, streamBuffer)}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("stream: subscriber joined", "page_id", pageID, "remote", r.RemoteAddr)

	go s.writeLoop(sub)

	// Clients only read; the read loop detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.subs, sub)
	close(sub.send)
	s.mu.Unlock()
	s.logger.Debug("stream: subscriber left", "page_id", pageID)
	return nil
}

func (s *Stream) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for msg := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.logger.Debug("stream: write failed", "error", err)
			return
		}
	}
}

// Subscribers returns the number of connected clients.
func (s *Stream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Stream) SendSelection(_ context.Context, ev selection.Event) error {
	msg, err := json.Marshal(envelope{Type: envelopeSelection, Data: ev})
	if err != nil {
		return fmt.Errorf("stream: marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if sub.pageID != "" && sub.pageID != ev.PageID {
			continue
		}
		select {
		case sub.send <- msg:
		default:
			s.logger.Warn("stream: subscriber too slow, dropping event", "page_id", ev.PageID)
		}
	}
	return nil
}

// Close disconnects every subscriber and refuses new ones.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for sub := range s.subs {
		sub.conn.Close()
	}
	return nil
}
