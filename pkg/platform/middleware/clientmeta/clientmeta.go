// Package clientmeta captures the caller's IP and user agent for the audit
// trail and the login throttles. Mounted globally so the public OTP and login
// routes see it too.
package clientmeta

import (
	"net/http"
	"strings"

	"takaful/pkg/requestcontext"
)

// Middleware stores the client IP and user agent in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP resolves the caller's address, honoring the first hop of
// X-Forwarded-For when a proxy sets it.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}
