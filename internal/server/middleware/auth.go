package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireKey returns middleware that guards a route with a static key. The
// key is accepted as a Bearer token, an X-Schedule-Key header, or a "key"
// query parameter (the form external schedulers typically use). When key is
// empty the route is disabled entirely and responds 404.
func RequireKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				http.NotFound(w, r)
				return
			}

			token := extractKey(r)
			if token == "" {
				writeUnauthorized(w, "missing schedule key")
				return
			}

			// Constant-time comparison to prevent timing attacks.
			if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				writeUnauthorized(w, "invalid schedule key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractKey looks for a key in the Authorization header (Bearer scheme),
// the X-Schedule-Key header, or the "key" query parameter.
func extractKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if key := r.Header.Get("X-Schedule-Key"); key != "" {
		return strings.TrimSpace(key)
	}

	return strings.TrimSpace(r.URL.Query().Get("key"))
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
