package validator

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

// KeyFunc supplies the key material used to verify token signatures. It may
// return a raw key ([]byte, *rsa.PublicKey, *ecdsa.PublicKey), a jwk.Key, or
// a jwk.Set. Returning an error marks the validator as unavailable for the
// current request; it does not invalidate the credential.
type KeyFunc func(ctx context.Context) (interface{}, error)

// Supported signature algorithms.
const (
	HS256 = jwa.HS256
	HS384 = jwa.HS384
	HS512 = jwa.HS512
	RS256 = jwa.RS256
	RS384 = jwa.RS384
	RS512 = jwa.RS512
	ES256 = jwa.ES256
	ES384 = jwa.ES384
	ES512 = jwa.ES512
	PS256 = jwa.PS256
	PS384 = jwa.PS384
	PS512 = jwa.PS512
	EdDSA = jwa.EdDSA
)

var allowedSigningAlgorithms = map[jwa.SignatureAlgorithm]bool{
	HS256: true, HS384: true, HS512: true,
	RS256: true, RS384: true, RS512: true,
	ES256: true, ES384: true, ES512: true,
	PS256: true, PS384: true, PS512: true,
	EdDSA: true,
}

// DefaultRoleClaim is the claim the validator reads roles from unless
// WithRoleClaim overrides it.
const DefaultRoleClaim = "roles"

// Validator verifies JWT bearer tokens against a configured algorithm and
// key source and maps their claims into core.Claims.
type Validator struct {
	keyFunc   KeyFunc
	algorithm jwa.SignatureAlgorithm
	issuer    string
	audience  []string
	roleClaim string
	clockSkew time.Duration
}

// Option configures a Validator created by New.
type Option func(*Validator) error

// New constructs a Validator. A key source and a signature algorithm are
// required; everything else is optional.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		roleClaim: DefaultRoleClaim,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if v.keyFunc == nil {
		return nil, errors.New("a key func is required")
	}
	if v.algorithm == "" {
		return nil, errors.New("a signature algorithm is required")
	}

	return v, nil
}

// WithKeyFunc sets the source of verification keys. Required unless
// WithStaticKey is used.
func WithKeyFunc(keyFunc KeyFunc) Option {
	return func(v *Validator) error {
		if keyFunc == nil {
			return errors.New("key func cannot be nil")
		}
		v.keyFunc = keyFunc
		return nil
	}
}

// WithStaticKey wraps a fixed key in a KeyFunc. Useful for HMAC secrets and
// tests.
func WithStaticKey(key interface{}) Option {
	return func(v *Validator) error {
		if key == nil {
			return errors.New("static key cannot be nil")
		}
		v.keyFunc = func(context.Context) (interface{}, error) {
			return key, nil
		}
		return nil
	}
}

// WithAlgorithm sets the required signature algorithm. Tokens signed with
// any other algorithm are rejected before verification. Required.
func WithAlgorithm(alg jwa.SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if !allowedSigningAlgorithms[alg] {
			return errors.New("unsupported signature algorithm")
		}
		v.algorithm = alg
		return nil
	}
}

// WithIssuer requires the token's iss claim to match exactly.
func WithIssuer(issuer string) Option {
	return func(v *Validator) error {
		v.issuer = issuer
		return nil
	}
}

// WithAudience requires every listed audience to be present in the token's
// aud claim.
func WithAudience(audience ...string) Option {
	return func(v *Validator) error {
		v.audience = append(v.audience, audience...)
		return nil
	}
}

// WithRoleClaim changes the claim roles are read from.
func WithRoleClaim(claim string) Option {
	return func(v *Validator) error {
		if claim == "" {
			return errors.New("role claim cannot be empty")
		}
		v.roleClaim = claim
		return nil
	}
}

// WithClockSkew tolerates clock drift between the token issuer and this
// service when checking exp and nbf.
func WithClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.clockSkew = skew
		return nil
	}
}
