// Package ginauth adapts the bearer authentication middleware to the Gin
// framework.
package ginauth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	bearerauth "github.com/authgate/go-bearer-middleware"
	"github.com/authgate/go-bearer-middleware/core"
)

// DefaultIdentityKey is the Gin context key the resolved identity is stored
// under. Override with WithIdentityKey.
var DefaultIdentityKey = "identity"

type ginConfig struct {
	identityKey string
}

// Middleware wraps a configured bearerauth.Middleware as a Gin handler. The
// pass-through contract is preserved: the chain always advances,
// authenticated or not. On success the identity is available both through
// the request context (core.FromContext) and through the Gin context under
// the configured key.
func Middleware(m *bearerauth.Middleware, opts ...Option) gin.HandlerFunc {
	config := &ginConfig{
		identityKey: DefaultIdentityKey,
	}
	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		advanced := false

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			advanced = true
			c.Request = r

			identity := core.FromContext(r.Context())
			if identity.Authenticated {
				c.Set(config.identityKey, identity)
			}

			c.Next()
		})

		m.Handler(handler).ServeHTTP(c.Writer, c.Request)

		if !advanced {
			// The fail-closed outage handler already wrote the response.
			c.Abort()
		}
	}
}

// IdentityFromContext reads the identity stored by Middleware from the Gin
// context. The second return value reports whether an authenticated
// identity was present.
func IdentityFromContext(c *gin.Context, identityKey string) (core.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return core.Anonymous(), false
	}
	identity, ok := value.(core.Identity)
	if !ok {
		return core.Anonymous(), false
	}
	return identity, identity.Authenticated
}
