package sink

import (
	"context"

	"github.com/hazyhaar/dompick/picker/selection"
)

// SelectionFunc is called for each selection event.
type SelectionFunc func(ctx context.Context, ev selection.Event) error

// Callback delivers events as in-process function calls, with no
// serialisation.
type Callback struct {
	fn SelectionFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn SelectionFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) SendSelection(ctx context.Context, ev selection.Event) error {
	if c.fn != nil {
		return c.fn(ctx, ev)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
