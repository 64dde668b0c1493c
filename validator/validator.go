package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/authgate/go-bearer-middleware/core"
)

// Validate verifies the token string and extracts its claims.
// It implements core.TokenValidator. The validator holds only read-only
// configuration, so one instance is safe for every in-flight request.
func (v *Validator) Validate(ctx context.Context, tokenString string) (core.Claims, error) {
	payload := []byte(tokenString)

	msg, err := jws.Parse(payload)
	if err != nil {
		return core.Claims{}, core.NewValidationError(
			core.ErrorCodeTokenMalformed, "could not parse the token", err)
	}

	if err := v.checkAlgorithm(msg); err != nil {
		return core.Claims{}, err
	}

	key, err := v.keyFunc(ctx)
	if err != nil {
		return core.Claims{}, core.NewValidationError(
			core.ErrorCodeKeyUnavailable,
			"could not obtain verification keys",
			fmt.Errorf("%w: %v", core.ErrValidatorUnavailable, err))
	}

	token, err := jwt.Parse(payload, v.keyOption(key))
	if err != nil {
		return core.Claims{}, core.NewValidationError(
			core.ErrorCodeInvalidSignature, "signature verification failed", err)
	}

	if err := jwt.Validate(token, v.validateOptions()...); err != nil {
		return core.Claims{}, classifyValidation(err)
	}

	roles, err := v.extractRoles(token)
	if err != nil {
		return core.Claims{}, err
	}

	return core.Claims{
		Subject: token.Subject(),
		Roles:   roles,
		Expiry:  token.Expiration(),
	}, nil
}

// checkAlgorithm enforces the configured signature algorithm before any
// cryptographic work happens.
func (v *Validator) checkAlgorithm(msg *jws.Message) error {
	signatures := msg.Signatures()
	if len(signatures) == 0 {
		return core.NewValidationError(
			core.ErrorCodeTokenMalformed, "token carries no signature", nil)
	}

	alg := signatures[0].ProtectedHeaders().Algorithm()
	if alg != v.algorithm {
		return core.NewValidationError(
			core.ErrorCodeUnsupportedAlg,
			fmt.Sprintf("expected %q signing algorithm but token specified %q", v.algorithm, alg),
			nil)
	}
	return nil
}

// keyOption picks the right jwt parse option for the material returned by
// the key func: a full JWKS or a single raw/jwk key.
func (v *Validator) keyOption(key interface{}) jwt.ParseOption {
	if set, ok := key.(jwk.Set); ok {
		return jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true))
	}
	return jwt.WithKey(v.algorithm, key)
}

func (v *Validator) validateOptions() []jwt.ValidateOption {
	opts := []jwt.ValidateOption{
		jwt.WithAcceptableSkew(v.clockSkew),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	for _, aud := range v.audience {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return opts
}

func classifyValidation(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		return core.NewValidationError(core.ErrorCodeTokenExpired, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenNotYetValid()):
		return core.NewValidationError(core.ErrorCodeTokenNotYetValid, "token is not valid yet", err)
	default:
		return core.NewValidationError(core.ErrorCodeInvalidClaims, "expected claims not validated", err)
	}
}

// extractRoles reads the configured role claim. The claim may carry a single
// role string or a list; both normalize to a set. A missing claim is not an
// error, the token simply grants no roles.
func (v *Validator) extractRoles(token jwt.Token) ([]string, error) {
	raw, ok := token.Get(v.roleClaim)
	if !ok {
		return nil, nil
	}

	switch value := raw.(type) {
	case string:
		if value == "" {
			return nil, nil
		}
		return []string{value}, nil
	case []string:
		return value, nil
	case []interface{}:
		roles := make([]string, 0, len(value))
		for _, item := range value {
			role, ok := item.(string)
			if !ok {
				return nil, core.NewValidationError(
					core.ErrorCodeInvalidClaims,
					fmt.Sprintf("role claim %q contains a non-string entry", v.roleClaim),
					nil)
			}
			roles = append(roles, role)
		}
		return roles, nil
	default:
		return nil, core.NewValidationError(
			core.ErrorCodeInvalidClaims,
			fmt.Sprintf("role claim %q has unsupported type %T", v.roleClaim, raw),
			nil)
	}
}

var _ core.TokenValidator = (*Validator)(nil)
