package middleware

import (
	"io"
	"net/http"
)

// entry bodies are tiny, anything past this is not worth reading to keep a
// keep-alive connection
const maxDrainBytes = 64 << 10

// DrainAndCloseRequest reads what the handler left of the request body, up to
// maxDrainBytes, then closes it. Larger leftovers make net/http drop the
// connection instead of reusing it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			_, _ = io.CopyN(io.Discard, r.Body, maxDrainBytes)
			_ = r.Body.Close()
		})
	}
}
