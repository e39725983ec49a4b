// Package requesttime pins one UTC timestamp per request. Every row of a
// batch, its certificate IDs and the archive name read this value.
package requesttime

import (
	"net/http"
	"time"

	"certgen/pkg/requestcontext"
)

// Middleware stores the arrival time in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), now)))
	})
}
