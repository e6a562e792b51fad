package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/embedware/vectord/internal/log"
)

// maxCorrelationIDLength bounds how much of an inbound ID is kept and
// echoed back.
const maxCorrelationIDLength = 256

// Correlation returns a middleware that assigns every request a correlation
// ID. The incoming header value is reused when present so callers can trace
// a request across services; otherwise a fresh UUID is generated. The ID is
// echoed on the response and stored in the request context for logging.
func Correlation(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = "X-Request-ID"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(header)
			if len(id) > maxCorrelationIDLength {
				id = id[:maxCorrelationIDLength]
			}
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(header, id)

			ctx := log.WithCorrelationID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
