package auth

import "net/http"

// UserHeader carries the opaque user identifier asserted by the identity
// provider in front of this service.
const UserHeader = "X-User-ID"

// Middleware extracts the request identity and attaches it to the context.
// It never rejects: handlers decide whether a route requires identity.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(UserHeader); userID != "" {
			r = r.WithContext(WithIdentity(r.Context(), &Identity{UserID: userID}))
		}
		next.ServeHTTP(w, r)
	})
}
