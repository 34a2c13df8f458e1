package server

import (
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const requestIDHeader = "X-Request-Id"

// withRequestID tags every request with an identifier for log correlation,
// keeping a caller-supplied one when present.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID, _ = gonanoid.New()
		}
		w.Header().Set(requestIDHeader, requestID)

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request received")

		next.ServeHTTP(w, r)
	})
}

// withCORS answers preflight requests and sets permissive CORS headers on
// everything else.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Payment, X-Request-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveRequestURL reconstructs the absolute URL of a request as the
// client addressed it. Behind a reverse proxy the connection is typically
// plain HTTP while the client spoke HTTPS, so the forwarded protocol
// header wins over the literal connection protocol.
func resolveRequestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		scheme = strings.TrimSpace(forwarded)
	}
	return scheme + "://" + r.Host + r.URL.Path
}
