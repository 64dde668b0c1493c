// Package jwks provides verification keys for the validator package by
// fetching and caching a JSON Web Key Set from a remote endpoint.
package jwks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/authgate/go-bearer-middleware/core"
)

// DefaultCacheTTL is how long a fetched key set is served before the
// provider refreshes it.
const DefaultCacheTTL = 5 * time.Minute

// Provider fetches a JWKS from a fixed URI and caches it for a configurable
// TTL. Its KeyFunc method satisfies validator.KeyFunc, so a provider plugs
// straight into validator.WithKeyFunc.
//
// Fetch failures surface as core.ErrValidatorUnavailable so the middleware
// treats them as an outage rather than an invalid credential. While the
// endpoint is down a previously fetched key set keeps being served, even
// past its TTL.
type Provider struct {
	jwksURI  *url.URL
	client   *http.Client
	cacheTTL time.Duration

	mu        sync.Mutex
	cached    jwk.Set
	expiresAt time.Time
}

// ProviderOption configures a Provider created by NewProvider.
type ProviderOption func(*Provider)

// NewProvider builds a Provider for the given JWKS endpoint.
func NewProvider(jwksURI string, opts ...ProviderOption) (*Provider, error) {
	if jwksURI == "" {
		return nil, errors.New("a JWKS URI is required")
	}
	parsed, err := url.Parse(jwksURI)
	if err != nil {
		return nil, fmt.Errorf("could not parse JWKS URI: %w", err)
	}

	p := &Provider{
		jwksURI:  parsed,
		client:   &http.Client{},
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// WithHTTPClient overrides the HTTP client used to fetch the key set.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.client = client
	}
}

// WithCacheTTL overrides how long a fetched key set is served before being
// refreshed. A zero TTL disables caching and fetches on every call.
func WithCacheTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.cacheTTL = ttl
	}
}

// KeyFunc returns the current key set, fetching it from the JWKS endpoint
// when the cache is empty or stale. It is safe for concurrent use; at most
// one fetch is in flight at a time.
func (p *Provider) KeyFunc(ctx context.Context) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && time.Now().Before(p.expiresAt) {
		return p.cached, nil
	}

	set, err := jwk.Fetch(ctx, p.jwksURI.String(), jwk.WithHTTPClient(p.client))
	if err != nil {
		if p.cached != nil {
			return p.cached, nil
		}
		return nil, fmt.Errorf("%w: fetching JWKS from %q: %v",
			core.ErrValidatorUnavailable, p.jwksURI.String(), err)
	}

	p.cached = set
	p.expiresAt = time.Now().Add(p.cacheTTL)
	return set, nil
}
