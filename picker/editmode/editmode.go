// Package editmode is the one-way signal channel the host uses to toggle
// picking inside an embedded context. Messages carry a type tag and nothing
// else; no acknowledgement is defined.
package editmode

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/dompick/picker/dom"
)

// Type is the message type tag.
type Type string

const (
	TypeEnable  Type = "ENABLE_EDIT_MODE"
	TypeDisable Type = "DISABLE_EDIT_MODE"
)

// AnyOrigin is the target origin used for every post. Callers crossing a
// trust boundary must check origins on the receiving side.
const AnyOrigin = "*"

// ErrUnknownType is returned by Decode for messages this channel does not
// define.
var ErrUnknownType = errors.New("editmode: unknown message type")

// Message is the wire form: {"type":"ENABLE_EDIT_MODE"}.
type Message struct {
	Type Type `json:"type"`
}

// Enable asks the frame's context to start picking.
func Enable(frame dom.Frame, logger *slog.Logger) {
	send(frame, TypeEnable, logger)
}

// Disable asks the frame's context to stop picking.
func Disable(frame dom.Frame, logger *slog.Logger) {
	send(frame, TypeDisable, logger)
}

// send posts one message. An unreachable window is skipped and a failed
// post is logged; neither is reported to the caller.
func send(frame dom.Frame, typ Type, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if frame == nil {
		return
	}
	win := frame.ContentWindow()
	if win == nil {
		return
	}
	// A context torn down mid-post may panic inside the adapter.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("editmode: post message panicked", "type", typ, "panic", r)
		}
	}()
	if err := win.PostMessage(Message{Type: typ}, AnyOrigin); err != nil {
		logger.Error("editmode: post message failed", "type", typ, "error", err)
	}
}

// Decode parses a received payload.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("editmode: decode: %w", err)
	}
	switch m.Type {
	case TypeEnable, TypeDisable:
		return m, nil
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
}
