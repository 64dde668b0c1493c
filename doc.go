// Package bearerauth provides a request-scoped bearer-token authentication
// middleware for HTTP servers, together with the interceptor chain it plugs
// into.
//
// The middleware extracts a bearer token from the request, validates it
// through a pluggable TokenValidator, and on success attaches an
// authenticated Identity to the request context. It always advances the
// chain: an invalid or missing credential never terminates the request here.
// Rejection is the responsibility of a later authorization stage (see
// RequireAuthenticated and RequireRoles), which decouples "is this request
// authenticated" from "is this endpoint protected" and lets public endpoints
// pass through with no credential at all.
//
// Basic usage:
//
//	v, err := validator.New(
//	    validator.WithKeyFunc(keyFunc),
//	    validator.WithAlgorithm(validator.RS256),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mw, err := bearerauth.New(bearerauth.WithValidator(v))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	chain := bearerauth.NewChain().Use(mw)
//	http.ListenAndServe(":8080", chain.Then(mux))
//
// Downstream handlers read the identity from the request context:
//
//	identity := core.FromContext(r.Context())
//	if !identity.Authenticated {
//	    // anonymous request
//	}
package bearerauth
