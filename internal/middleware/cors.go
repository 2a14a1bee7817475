// Package middleware provides HTTP middleware for the AetherDebug API.
package middleware

import (
	"net/http"
	"slices"
)

// CORS returns middleware that handles CORS headers.
// Credentials are only allowed for explicitly listed origins; a "*" entry
// echoes the origin without them, since credentials on a wildcard match
// would enable CSRF.
func CORS(allowedOrigins []string, extraHeaders ...string) func(http.Handler) http.Handler {
	allowHeaders := "Content-Type"
	for _, h := range extraHeaders {
		allowHeaders += ", " + h
	}
	wildcard := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			explicit := origin != "" && slices.Contains(allowedOrigins, origin)

			if explicit || (wildcard && origin != "") {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				w.Header().Add("Vary", "Origin")
				if explicit {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
