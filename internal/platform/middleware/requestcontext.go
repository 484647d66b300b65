package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"provena/pkg/requestcontext"
)

// RequestContext stamps each request with a correlation ID and a pinned
// request time, so every timestamp and audit entry produced while serving the
// request agrees on "now".
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
