package core

import (
	"context"
	"errors"
	"time"
)

// Claims is the decoded payload of a validated token. It is produced by a
// TokenValidator, immutable once produced, and discarded at the end of the
// request.
type Claims struct {
	// Subject identifies the account the token was issued to.
	Subject string

	// Roles are the untagged role names carried by the token. The model
	// is a set even though some token formats carry a single role.
	Roles []string

	// Expiry is the token expiration time.
	Expiry time.Time
}

// TokenValidator verifies a raw token string and yields its claims.
//
// Implementations must be safe for concurrent use: any internal state such
// as cryptographic keys has to be read-only or otherwise synchronized, since
// one validator instance serves every in-flight request.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (Claims, error)
}

// Logger defines an optional logging interface for the engine.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Authenticator is the framework-agnostic authentication engine. It turns a
// candidate credential into an Identity and classifies failures, leaving the
// chain-continuation decision to the transport layer wrapping it.
type Authenticator struct {
	validator     TokenValidator
	roleTagPrefix string
	logger        Logger
}

// Authenticate resolves the given token into an Identity.
//
//   - An empty token yields the anonymous Identity with no error: absence of
//     a credential is a no-op path, not a failure.
//   - A valid token yields an authenticated Identity whose roles are tagged
//     with the configured role prefix.
//   - An invalid token yields the anonymous Identity together with the
//     validation error so the caller can report the reason. The caller is
//     expected to proceed regardless.
//   - A validator outage (ErrValidatorUnavailable) also yields the anonymous
//     Identity; the caller decides whether to escalate.
//
// Validation is a single synchronous attempt; failures are never retried
// within the same request. If ctx is cancelled before validation completes
// the cancellation error is returned and no identity is produced.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		a.debugf("no credential presented, continuing anonymous")
		return Anonymous(), nil
	}

	start := time.Now()
	claims, err := a.validator.Validate(ctx, token)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			a.debugf("request cancelled during validation: %v", ctxErr)
			return Anonymous(), ctxErr
		}
		if errors.Is(err, ErrValidatorUnavailable) {
			a.errorf("token validator unavailable: %v", err)
		} else {
			a.warnf("token validation failed (%s), continuing anonymous", FailureReason(err))
		}
		return Anonymous(), err
	}

	// A cancelled request must not produce an identity write.
	if ctxErr := ctx.Err(); ctxErr != nil {
		a.debugf("request cancelled after validation: %v", ctxErr)
		return Anonymous(), ctxErr
	}

	identity := NewIdentity(claims.Subject, a.tagRoles(claims.Roles))
	a.debugf("token validated for subject %q in %s", claims.Subject, duration)

	return identity, nil
}

// RoleTagPrefix returns the prefix applied to role names at this boundary.
func (a *Authenticator) RoleTagPrefix() string {
	return a.roleTagPrefix
}

// tagRoles applies the downstream authorization naming convention to the raw
// role names from the token.
func (a *Authenticator) tagRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	tagged := make([]string, len(roles))
	for i, role := range roles {
		tagged[i] = a.roleTagPrefix + role
	}
	return tagged
}

func (a *Authenticator) debugf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debugf(format, args...)
	}
}

func (a *Authenticator) warnf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Warnf(format, args...)
	}
}

func (a *Authenticator) errorf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Errorf(format, args...)
	}
}
