package bearerauth

import (
	"net/http"

	"github.com/authgate/go-bearer-middleware/core"
)

// Sentinel errors re-exported from core for convenience.
var (
	// ErrTokenInvalid matches any token validation failure.
	ErrTokenInvalid = core.ErrTokenInvalid

	// ErrValidatorUnavailable marks a validator infrastructure outage.
	ErrValidatorUnavailable = core.ErrValidatorUnavailable
)

// OutageHandler is called when the token validator itself is unavailable and
// the middleware is configured to fail closed. This is the only situation in
// which the middleware writes a response and does not advance the chain:
// a validator outage is a dependency failure, not a bad credential.
//
// It is never called for missing or invalid tokens; those always proceed
// unauthenticated.
type OutageHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultOutageHandler responds with 503 Service Unavailable.
func DefaultOutageHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"message":"Authentication is temporarily unavailable."}`))
}
