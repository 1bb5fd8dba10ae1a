package picker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/dompick/picker/internal/sink"
	"github.com/hazyhaar/dompick/picker/selection"
)

// Sink is the output interface for selection events.
type Sink = sink.Sink

// StreamSink pushes selection events to websocket subscribers.
type StreamSink = sink.Stream

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewCallbackSink creates an in-process callback sink.
func NewCallbackSink(fn func(ctx context.Context, ev selection.Event) error) Sink {
	return sink.NewCallback(fn)
}

// NewStreamSink creates a websocket fan-out sink. checkOrigin may be nil to
// accept any origin.
func NewStreamSink(logger *slog.Logger, checkOrigin func(*http.Request) bool) *StreamSink {
	return sink.NewStream(logger, checkOrigin)
}

// BuildSinks creates the sinks a configuration names. The stream sink, when
// configured, is also returned on its own so the HTTP API can serve it.
func BuildSinks(cfgs []SinkConfig, logger *slog.Logger) ([]Sink, *StreamSink, error) {
	var (
		sinks  []Sink
		stream *StreamSink
	)
	for _, sc := range cfgs {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, NewStdoutSink(nil))
		case "webhook":
			sinks = append(sinks, NewWebhookSink(sc.URL, logger))
		case "stream":
			if stream == nil {
				stream = NewStreamSink(logger, nil)
				sinks = append(sinks, stream)
			}
		default:
			return nil, nil, fmt.Errorf("picker: unknown sink type %q", sc.Type)
		}
	}
	return sinks, stream, nil
}
