// Package requestid assigns each request a unique ID, echoed in the
// X-Request-ID response header and attached to every log line downstream.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"takaful/pkg/requestcontext"
)

const Header = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID when present (trusted proxies set
// it) and generates one otherwise.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
