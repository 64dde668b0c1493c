package bearerauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/authgate/go-bearer-middleware/core"
)

// Middleware authenticates requests carrying a bearer token and attaches the
// resolved Identity to the request context.
//
// The control-flow contract is explicit and unconditional: every request
// advances to the next stage of the chain, whether or not it carried a
// credential and whether or not that credential validated. The middleware
// never writes an error response for an authentication failure; failures are
// reported through the logger, metrics, and tracer only. The single
// exception is a validator infrastructure outage under the fail-closed
// policy, which is handled by the OutageHandler.
type Middleware struct {
	authenticator *core.Authenticator
	extractor     TokenExtractor
	outageHandler OutageHandler
	outagePolicy  OutagePolicy

	validateOnOptions bool
	excludedPaths     map[string]struct{}
	priority          int

	logger  Logger
	metrics Metrics
	tracer  Tracer

	// Construction-time fields consumed by New.
	validator     core.TokenValidator
	roleTagPrefix string
}

// OutagePolicy decides what happens when the token validator itself is
// unavailable (for example a key-store outage).
type OutagePolicy int

const (
	// OutageFailClosed hands the request to the OutageHandler (503 by
	// default) without advancing the chain. This is the default: treating
	// an outage like a bad credential would silently downgrade protected
	// traffic to anonymous.
	OutageFailClosed OutagePolicy = iota

	// OutageFailOpen proceeds unauthenticated, like any other validation
	// failure.
	OutageFailOpen
)

// New constructs a Middleware. WithValidator is required; all other options
// have defaults.
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		outagePolicy:      OutageFailClosed,
		validateOnOptions: true,
		roleTagPrefix:     core.DefaultRoleTagPrefix,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.extractor == nil {
		m.extractor = BearerTokenExtractor
	}
	if m.outageHandler == nil {
		m.outageHandler = DefaultOutageHandler
	}
	if m.metrics == nil {
		m.metrics = &NoopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = &NoopTracer{}
	}

	coreOpts := []core.Option{
		core.WithValidator(m.validator),
		core.WithRoleTagPrefix(m.roleTagPrefix),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}

	authenticator, err := core.New(coreOpts...)
	if err != nil {
		return nil, err
	}
	m.authenticator = authenticator

	return m, nil
}

// Priority returns the configured chain position. Chain.Use consults it.
func (m *Middleware) Priority() int {
	return m.priority
}

// Process implements the Interceptor interface, making the middleware a
// chain link.
func (m *Middleware) Process(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	m.serve(w, r, next)
}

// HandlerWithNext is a negroni-style entry point.
func (m *Middleware) HandlerWithNext(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	m.serve(w, r, next)
}

// Handler wraps a plain http.Handler with the middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.serve(w, r, next.ServeHTTP)
	})
}

// serve runs the per-request state machine: extract, validate, set context,
// proceed. Every branch below ends in next(w, r) except the fail-closed
// outage branch.
func (m *Middleware) serve(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if m.skip(r) {
		m.count(OutcomeSkipped)
		next(w, r)
		return
	}

	ctx, span := m.tracer.StartSpan(r.Context(), "bearerauth.authenticate")
	defer span.Finish()
	r = r.WithContext(ctx)

	// A conflicting earlier stage already resolved an identity for this
	// request. Leave it untouched: the identity slot is written at most
	// once per request.
	if core.HasIdentity(r.Context()) {
		m.warnf("identity already present in request context, skipping authentication")
		span.SetTag("outcome", OutcomeConflict)
		m.count(OutcomeConflict)
		next(w, r)
		return
	}

	token, err := m.extractor(r)
	if err != nil {
		// A custom extractor failed reading the request. The default
		// extractors never do this; treat it like a missing credential
		// so the chain contract holds.
		m.warnf("token extraction failed, continuing anonymous: %v", err)
		span.SetTag("outcome", OutcomeNoCredential)
		m.count(OutcomeNoCredential)
		next(w, r)
		return
	}

	if token == "" {
		span.SetTag("outcome", OutcomeNoCredential)
		m.count(OutcomeNoCredential)
		next(w, r)
		return
	}

	start := time.Now()
	identity, err := m.authenticator.Authenticate(r.Context(), token)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		span.SetTag("outcome", OutcomeSuccess)
		span.SetTag("subject", identity.Subject)
		m.count(OutcomeSuccess)
		m.observe(OutcomeSuccess, elapsed)
		r = r.WithContext(core.WithIdentity(r.Context(), identity))
		next(w, r)

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// The request was cancelled mid-validation. No identity was
		// produced; advancing the chain propagates the cancelled
		// context downstream.
		span.SetTag("outcome", OutcomeCancelled)
		m.count(OutcomeCancelled)
		next(w, r)

	case errors.Is(err, core.ErrValidatorUnavailable):
		span.SetTag("outcome", OutcomeOutage)
		m.count(OutcomeOutage)
		m.observe(OutcomeOutage, elapsed)
		if m.outagePolicy == OutageFailOpen {
			m.warnf("validator unavailable, failing open: %v", err)
			next(w, r)
			return
		}
		m.outageHandler(w, r, err)

	default:
		// Malformed, expired, bad signature, unsupported: all normalized
		// to "proceed unauthenticated". The reason goes to diagnostics
		// only.
		reason := core.FailureReason(err)
		span.SetTag("outcome", OutcomeInvalid)
		span.SetTag("reason", reason)
		m.count(OutcomeInvalid)
		m.observe(OutcomeInvalid, elapsed)
		next(w, r)
	}
}

func (m *Middleware) skip(r *http.Request) bool {
	if !m.validateOnOptions && r.Method == http.MethodOptions {
		return true
	}
	if len(m.excludedPaths) > 0 {
		if _, ok := m.excludedPaths[r.URL.Path]; ok {
			return true
		}
	}
	return false
}

func (m *Middleware) count(outcome string) {
	m.metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": outcome})
}

func (m *Middleware) observe(outcome string, elapsed time.Duration) {
	m.metrics.ObserveHistogram(MetricValidationDuration, elapsed.Seconds(), map[string]string{"outcome": outcome})
}

func (m *Middleware) warnf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Warnf(format, args...)
	}
}
