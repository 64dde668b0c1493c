package grpcauth

import (
	"errors"

	bearerauth "github.com/authgate/go-bearer-middleware"
	"github.com/authgate/go-bearer-middleware/core"
)

// Option configures an Interceptor created by New.
type Option func(*Interceptor) error

// WithValidator sets the token validator. Required.
func WithValidator(validator core.TokenValidator) Option {
	return func(i *Interceptor) error {
		if validator == nil {
			return errors.New("validator cannot be nil")
		}
		i.validator = validator
		return nil
	}
}

// WithTokenExtractor overrides how tokens are read from call metadata.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.extractor = extractor
		return nil
	}
}

// WithRoleTagPrefix overrides the prefix prepended to each role.
func WithRoleTagPrefix(prefix string) Option {
	return func(i *Interceptor) error {
		i.roleTagPrefix = prefix
		return nil
	}
}

// WithOutagePolicy decides what happens when the validator is unavailable.
func WithOutagePolicy(policy bearerauth.OutagePolicy) Option {
	return func(i *Interceptor) error {
		i.outagePolicy = policy
		return nil
	}
}

// WithExcludedMethods skips authentication for the given full method names,
// e.g. "/grpc.health.v1.Health/Check".
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		if i.excludedMethods == nil {
			i.excludedMethods = make(map[string]struct{}, len(methods))
		}
		for _, method := range methods {
			i.excludedMethods[method] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger bearerauth.Logger) Option {
	return func(i *Interceptor) error {
		i.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics bearerauth.Metrics) Option {
	return func(i *Interceptor) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		i.metrics = metrics
		return nil
	}
}
