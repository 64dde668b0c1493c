package bearerauth

import (
	"errors"
	"net/http"
	"strings"
)

// Defaults for the header extractor.
const (
	DefaultHeaderName   = "Authorization"
	DefaultSchemePrefix = "Bearer "
)

// TokenExtractor is a function that takes a request as input and returns a
// candidate credential string. Absence of a credential is not an error: the
// extractor returns an empty string and the request proceeds anonymous. An
// error should only be returned by custom extractors that genuinely fail
// while reading the request.
//
// Extractors are pure functions of the request metadata: extracting twice
// from the same request yields the same credential.
type TokenExtractor func(r *http.Request) (string, error)

// HeaderTokenExtractor builds a TokenExtractor that reads the given header
// and recognizes only values carrying the literal schemePrefix. The prefix
// match is case-sensitive and includes the separating space: "bearer x" and
// "Bearer  x" are not credentials, they are treated the same as an absent
// header.
func HeaderTokenExtractor(headerName, schemePrefix string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		value := r.Header.Get(headerName)
		if value == "" {
			return "", nil // No header, no credential.
		}

		if !strings.HasPrefix(value, schemePrefix) {
			return "", nil // Unrecognized scheme, no credential.
		}

		return value[len(schemePrefix):], nil
	}
}

// BearerTokenExtractor is the default TokenExtractor: the "Authorization"
// header with the "Bearer " scheme.
var BearerTokenExtractor = HeaderTokenExtractor(DefaultHeaderName, DefaultSchemePrefix)

// CookieTokenExtractor builds a TokenExtractor that reads the named cookie.
// An absent cookie is an absent credential, not an error.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				return "", nil
			}
			return "", err
		}

		return cookie.Value, nil
	}
}

// ParameterTokenExtractor builds a TokenExtractor that reads the named query
// string parameter. An absent or empty parameter is an absent credential.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor runs the given extractors in order and returns the
// first token found. An extractor error stops the scan; exhausting every
// extractor without a token means no credential.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, extractor := range extractors {
			token, err := extractor(r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
