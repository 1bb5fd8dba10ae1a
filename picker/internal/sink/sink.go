// Package sink delivers selection events to their consumers.
package sink

import (
	"context"
	"errors"

	"github.com/hazyhaar/dompick/picker/selection"
)

var (
	// ErrClosed is returned when sending to a closed Queue.
	ErrClosed = errors.New("sink: closed")
	// ErrQueueFull is returned when a Queue drops an event.
	ErrQueueFull = errors.New("sink: queue full")
)

// Sink receives selection events. Implementations must be safe for
// concurrent use; one picker feeds them from every page it hosts.
type Sink interface {
	SendSelection(ctx context.Context, ev selection.Event) error
	Close() error
}

// envelope is the JSON wrapper shared by the stdout, webhook and stream sinks.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const envelopeSelection = "selection"
