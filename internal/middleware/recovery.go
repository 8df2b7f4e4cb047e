package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/2beens/guestbook/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicRecovery answers 500 when a guestbook handler panics and records the
// panic on the request span. http.ErrAbortHandler is re-raised so net/http
// aborts the response without logging it.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				trace.SpanFromContext(r.Context()).SetStatus(codes.Error, fmt.Sprint(rec))
				log.WithFields(log.Fields{
					"method": r.Method,
					"route":  routeName(r),
				}).Errorf("guestbook handler panic: %v\n%s", rec, debug.Stack())

				http.Error(w, "internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
