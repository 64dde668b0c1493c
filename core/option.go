package core

import "errors"

// DefaultRoleTagPrefix is the role naming convention expected by the
// downstream authorization layer.
const DefaultRoleTagPrefix = "ROLE_"

// Option configures the Authenticator. Options return errors so invalid
// configuration is caught at construction time.
type Option func(*Authenticator) error

// New creates an Authenticator with the provided options.
// WithValidator is required; everything else has a sensible default.
func New(opts ...Option) (*Authenticator, error) {
	a := &Authenticator{
		roleTagPrefix: DefaultRoleTagPrefix,
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.validator == nil {
		return nil, errors.New("validator is required but not set (use WithValidator)")
	}

	return a, nil
}

// WithValidator sets the token validator. Required.
func WithValidator(v TokenValidator) Option {
	return func(a *Authenticator) error {
		if v == nil {
			return errors.New("validator cannot be nil")
		}
		a.validator = v
		return nil
	}
}

// WithRoleTagPrefix sets the prefix applied to role names when building an
// Identity. An empty prefix is allowed and disables tagging.
//
// Default: "ROLE_"
func WithRoleTagPrefix(prefix string) Option {
	return func(a *Authenticator) error {
		a.roleTagPrefix = prefix
		return nil
	}
}

// WithLogger sets an optional logger for the engine.
func WithLogger(logger Logger) Option {
	return func(a *Authenticator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = logger
		return nil
	}
}
