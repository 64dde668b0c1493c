// Package echoauth adapts the bearer authentication middleware to the Echo
// framework.
package echoauth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bearerauth "github.com/authgate/go-bearer-middleware"
	"github.com/authgate/go-bearer-middleware/core"
)

// DefaultIdentityKey is the Echo context key the resolved identity is stored
// under. Override with WithIdentityKey.
var DefaultIdentityKey = "identity"

type echoConfig struct {
	identityKey string
}

// Middleware wraps a configured bearerauth.Middleware as an Echo
// middleware. The pass-through contract is preserved: the chain always
// advances, authenticated or not. On success the identity is available both
// through the request context (core.FromContext) and through the Echo
// context under the configured key.
func Middleware(m *bearerauth.Middleware, opts ...Option) echo.MiddlewareFunc {
	config := &echoConfig{
		identityKey: DefaultIdentityKey,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr error
			advanced := false

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				advanced = true
				c.SetRequest(r)

				identity := core.FromContext(r.Context())
				if identity.Authenticated {
					c.Set(config.identityKey, identity)
				}

				nextErr = next(c)
			})

			m.Handler(handler).ServeHTTP(c.Response(), c.Request())

			if !advanced {
				// The fail-closed outage handler already wrote the
				// response; nothing left for Echo to do.
				return nil
			}
			return nextErr
		}
	}
}

// IdentityFromContext reads the identity stored by Middleware from the Echo
// context. The second return value reports whether an authenticated
// identity was present.
func IdentityFromContext(c echo.Context, identityKey string) (core.Identity, bool) {
	value := c.Get(identityKey)
	if value == nil {
		return core.Anonymous(), false
	}
	identity, ok := value.(core.Identity)
	if !ok {
		return core.Anonymous(), false
	}
	return identity, identity.Authenticated
}
