package picker

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/dompick/kit"
	"github.com/hazyhaar/dompick/shield"
)

const maxRequestBody = 64 << 10

// Handler returns the HTTP control API. stream may be nil, in which case
// the stream route answers 404. When mcpSrv is set its tools are also
// served over streamable HTTP at /mcp.
//
//	GET  /healthz
//	GET  /pages
//	POST /pages/{id}/edit-mode   {"enabled": true}
//	GET  /pages/{id}/selection
//	GET  /pages/{id}/stream      websocket
func (p *Picker) Handler(stream *StreamSink, mcpSrv *mcp.Server) http.Handler {
	listPages := p.endpoint("dompick_list_pages", p.listPagesEndpoint())
	editMode := p.endpoint("dompick_edit_mode", p.editModeEndpoint())
	sel := p.endpoint("dompick_selection", p.selectionEndpoint())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(shield.SecurityHeaders(shield.APIHeaders()))
	r.Use(shield.MaxBody(maxRequestBody))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := kit.WithTransport(r.Context(), "http")
			ctx = kit.WithRequestID(ctx, middleware.GetReqID(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/pages", func(w http.ResponseWriter, r *http.Request) {
		resp, err := listPages(r.Context(), nil)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	if mcpSrv != nil {
		r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil))
	}

	r.Route("/pages/{id}", func(r chi.Router) {
		r.Post("/edit-mode", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Enabled *bool `json:"enabled"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
				writeError(w, http.StatusBadRequest, errors.New(`body must be {"enabled": bool}`))
				return
			}
			resp, err := editMode(r.Context(), &editModeRequest{PageID: chi.URLParam(r, "id"), Enabled: *body.Enabled})
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/selection", func(w http.ResponseWriter, r *http.Request) {
			resp, err := sel(r.Context(), &selectionRequest{PageID: chi.URLParam(r, "id")})
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/stream", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if stream == nil {
				writeError(w, http.StatusNotFound, errors.New("stream sink not configured"))
				return
			}
			if !p.hosts(id) {
				writeError(w, http.StatusNotFound, ErrUnknownPage)
				return
			}
			if err := stream.Serve(w, r, id); err != nil {
				p.logger.Debug("picker: stream ended", "page_id", id, "error", err)
			}
		})
	})

	return r
}

func (p *Picker) hosts(pageID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pages[pageID]
	return ok
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownPage):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAttached):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
