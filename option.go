package bearerauth

import (
	"errors"

	"github.com/authgate/go-bearer-middleware/core"
)

// Option configures the Middleware. Options return errors so invalid
// configuration fails at startup rather than at request time.
type Option func(*Middleware) error

// Sentinel errors for configuration validation.
var (
	ErrValidatorNil      = errors.New("validator cannot be nil (use WithValidator)")
	ErrTokenExtractorNil = errors.New("token extractor cannot be nil")
	ErrOutageHandlerNil  = errors.New("outage handler cannot be nil")
	ErrLoggerNil         = errors.New("logger cannot be nil")
	ErrMetricsNil        = errors.New("metrics cannot be nil")
	ErrTracerNil         = errors.New("tracer cannot be nil")
	ErrExcludedPathsNil  = errors.New("excluded paths list cannot be empty")
)

// WithValidator sets the token validator (REQUIRED). The validator must be
// safe for concurrent use; one instance serves every in-flight request.
func WithValidator(v core.TokenValidator) Option {
	return func(m *Middleware) error {
		if v == nil {
			return ErrValidatorNil
		}
		m.validator = v
		return nil
	}
}

// WithTokenExtractor replaces the default bearer-header extractor.
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.extractor = e
		return nil
	}
}

// WithHeaderName configures the header the default extractor reads.
// Ignored when WithTokenExtractor is also supplied.
//
// Default: "Authorization"
func WithHeaderName(name string) Option {
	return func(m *Middleware) error {
		if name == "" {
			return errors.New("header name cannot be empty")
		}
		m.extractor = HeaderTokenExtractor(name, DefaultSchemePrefix)
		return nil
	}
}

// WithHeaderScheme configures both the header name and the scheme prefix of
// the default extractor. The prefix is matched literally, including the
// trailing space.
func WithHeaderScheme(headerName, schemePrefix string) Option {
	return func(m *Middleware) error {
		if headerName == "" {
			return errors.New("header name cannot be empty")
		}
		if schemePrefix == "" {
			return errors.New("scheme prefix cannot be empty")
		}
		m.extractor = HeaderTokenExtractor(headerName, schemePrefix)
		return nil
	}
}

// WithRoleTagPrefix sets the tag applied to role names when building the
// Identity, matching the downstream authorization naming convention.
//
// Default: "ROLE_"
func WithRoleTagPrefix(prefix string) Option {
	return func(m *Middleware) error {
		m.roleTagPrefix = prefix
		return nil
	}
}

// WithPriority sets the chain position reported by Priority. Lower values
// run earlier. The middleware must run before any stage that reads the
// identity context.
//
// Default: 0
func WithPriority(priority int) Option {
	return func(m *Middleware) error {
		m.priority = priority
		return nil
	}
}

// WithOutagePolicy selects the behavior when the validator itself is
// unavailable.
//
// Default: OutageFailClosed
func WithOutagePolicy(policy OutagePolicy) Option {
	return func(m *Middleware) error {
		m.outagePolicy = policy
		return nil
	}
}

// WithOutageHandler replaces the handler invoked for validator outages under
// the fail-closed policy.
//
// Default: DefaultOutageHandler (503)
func WithOutageHandler(h OutageHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrOutageHandlerNil
		}
		m.outageHandler = h
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are authenticated.
//
// Default: true
func WithValidateOnOptions(value bool) Option {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithExcludedPaths configures request paths that skip authentication
// entirely.
func WithExcludedPaths(paths []string) Option {
	return func(m *Middleware) error {
		if len(paths) == 0 {
			return ErrExcludedPathsNil
		}
		m.excludedPaths = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			m.excludedPaths[p] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets an optional logger, used by both the middleware and the
// core engine.
func WithLogger(logger Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink for authentication outcomes.
//
// Default: NoopMetrics
func WithMetrics(metrics Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer used to record one span per authentication
// attempt.
//
// Default: NoopTracer
func WithTracer(tracer Tracer) Option {
	return func(m *Middleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}
