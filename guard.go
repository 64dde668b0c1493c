package bearerauth

import (
	"net/http"

	"github.com/authgate/go-bearer-middleware/core"
)

// RequireAuthenticated wraps a handler and rejects requests whose identity
// context reports authenticated == false with 401. This is the downstream
// authorization stage the middleware defers rejection to: the middleware
// itself lets every request through, and protection is declared per
// endpoint.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !core.IsAuthenticated(r.Context()) {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles wraps a handler and rejects requests whose identity lacks all
// of the given tagged roles. Anonymous requests get 401, authenticated
// requests without a matching role get 403.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := core.FromContext(r.Context())
			if !identity.Authenticated {
				unauthorized(w)
				return
			}
			if !identity.HasAnyRole(roles...) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Authentication required."}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"message":"Insufficient privileges."}`))
}
