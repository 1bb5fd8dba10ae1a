package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/dompick/picker/selection"
)

// Router fans events out to every sink. One failing sink does not block the
// others: errors are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) SendSelection(ctx context.Context, ev selection.Event) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.SendSelection(ctx, ev); err != nil {
			r.logger.Warn("sink: send selection failed", "page_id", ev.PageID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
