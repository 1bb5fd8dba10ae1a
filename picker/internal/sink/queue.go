package sink

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/dompick/picker/selection"
)

// DefaultQueueSize is the number of events a Queue buffers before dropping.
const DefaultQueueSize = 256

type queued struct {
	ctx context.Context
	ev  selection.Event
}

// Queue hands events to next on its own goroutine so a slow or failing sink
// never stalls the caller. Events are delivered in order. When the buffer
// is full the event is dropped and ErrQueueFull returned.
type Queue struct {
	next   Sink
	logger *slog.Logger

	mu     sync.Mutex
	ch     chan queued
	closed bool
	done   chan struct{}
}

// NewQueue starts a Queue in front of next. size <= 0 uses DefaultQueueSize.
func NewQueue(next Sink, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		next:   next,
		logger: logger,
		ch:     make(chan queued, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// SendSelection enqueues ev and returns immediately. Delivery errors are
// logged by the drain goroutine, not returned here.
func (q *Queue) SendSelection(ctx context.Context, ev selection.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- queued{ctx: ctx, ev: ev}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, delivers what is buffered, then closes next.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	<-q.done
	return q.next.Close()
}

func (q *Queue) run() {
	defer close(q.done)
	for item := range q.ch {
		if err := q.next.SendSelection(item.ctx, item.ev); err != nil {
			q.logger.Error("sink: deliver selection", "page_id", item.ev.PageID, "id", item.ev.ID, "error", err)
		}
	}
}
