package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RealIP replaces RemoteAddr with the client address reported by the reverse
// proxy (True-Client-IP, X-Real-IP, X-Forwarded-For). Only enable it when a
// proxy in front overwrites those headers, otherwise clients pick their own
// address and the per-IP rate limit means nothing.
func RealIP(trustProxyHeaders bool) func(next http.Handler) http.Handler {
	if !trustProxyHeaders {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return chimiddleware.RealIP
}
