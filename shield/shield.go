// Package shield provides the HTTP hardening middleware of the control API:
// security headers for a JSON-only surface and a request body cap.
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.APIHeaders()))
//	r.Use(shield.MaxBody(64 * 1024))
package shield

import "net/http"

// HeaderConfig defines the security headers applied to every response.
type HeaderConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CacheControl        string
}

// APIHeaders is the configuration for endpoints that only ever return JSON:
// nothing may load, frame or cache a response.
func APIHeaders() HeaderConfig {
	return HeaderConfig{
		CSP:                 "default-src 'none'; frame-ancestors 'none'",
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
		CacheControl:        "no-store",
	}
}

// SecurityHeaders returns middleware that sets the configured headers on
// every response. Empty fields are skipped.
func SecurityHeaders(cfg HeaderConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			set := func(k, v string) {
				if v != "" {
					h.Set(k, v)
				}
			}
			set("Content-Security-Policy", cfg.CSP)
			set("X-Frame-Options", cfg.XFrameOptions)
			set("X-Content-Type-Options", cfg.XContentTypeOptions)
			set("Referrer-Policy", cfg.ReferrerPolicy)
			set("Cache-Control", cfg.CacheControl)
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBody caps request bodies at maxBytes. Reads past the cap fail, which
// the JSON decoder reports as a bad request.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
