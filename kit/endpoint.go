// Package kit adapts transport-agnostic endpoints to the control surfaces
// of the picker daemon. One Endpoint serves both the HTTP API and MCP.
package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint handles one decoded request.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(next Endpoint) Endpoint

// Chain composes middlewares left-to-right: the first one is the outermost
// wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs every call of the named endpoint with its duration,
// transport and request ID.
func Logging(logger *slog.Logger, name string) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"endpoint", name,
				"transport", GetTransport(ctx),
				"request_id", GetRequestID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.WarnContext(ctx, "kit: call failed", append(attrs, "error", err)...)
			} else {
				logger.DebugContext(ctx, "kit: call ok", attrs...)
			}
			return resp, err
		}
	}
}
