// Package grpcauth adapts the bearer authentication middleware to gRPC
// unary and stream server interceptors.
//
// The HTTP middleware's pass-through contract carries over: every call is
// handed to its handler whether or not it authenticated, with the resolved
// identity (or none) in the call context. The single exception is a
// validator outage under the fail-closed policy, which aborts the call with
// codes.Unavailable.
package grpcauth

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	bearerauth "github.com/authgate/go-bearer-middleware"
	"github.com/authgate/go-bearer-middleware/core"
)

// Interceptor authenticates incoming gRPC calls carrying a bearer token in
// their metadata and attaches the resolved identity to the call context.
type Interceptor struct {
	authenticator *core.Authenticator
	extractor     TokenExtractor
	outagePolicy  bearerauth.OutagePolicy

	excludedMethods map[string]struct{}

	logger  bearerauth.Logger
	metrics bearerauth.Metrics

	// Construction-time fields consumed by New.
	validator     core.TokenValidator
	roleTagPrefix string
}

// New constructs an Interceptor. WithValidator is required.
func New(opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		extractor:     BearerMetadataExtractor,
		outagePolicy:  bearerauth.OutageFailClosed,
		roleTagPrefix: core.DefaultRoleTagPrefix,
		metrics:       &bearerauth.NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	coreOpts := []core.Option{
		core.WithValidator(i.validator),
		core.WithRoleTagPrefix(i.roleTagPrefix),
	}
	if i.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(i.logger))
	}

	authenticator, err := core.New(coreOpts...)
	if err != nil {
		return nil, err
	}
	i.authenticator = authenticator

	return i, nil
}

// authenticate resolves the call's identity. It returns the context the
// handler should run with, or a non-nil status error only for the
// fail-closed outage case.
func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if _, excluded := i.excludedMethods[method]; excluded {
		i.count(bearerauth.OutcomeSkipped)
		return ctx, nil
	}

	if core.HasIdentity(ctx) {
		i.warnf("identity already present in call context, skipping authentication")
		i.count(bearerauth.OutcomeConflict)
		return ctx, nil
	}

	token, err := i.extractor(ctx)
	if err != nil {
		i.warnf("token extraction failed for %s, continuing anonymous: %v", method, err)
		i.count(bearerauth.OutcomeNoCredential)
		return ctx, nil
	}
	if token == "" {
		i.count(bearerauth.OutcomeNoCredential)
		return ctx, nil
	}

	start := time.Now()
	identity, err := i.authenticator.Authenticate(ctx, token)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		i.count(bearerauth.OutcomeSuccess)
		i.observe(bearerauth.OutcomeSuccess, elapsed)
		return core.WithIdentity(ctx, identity), nil

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		i.count(bearerauth.OutcomeCancelled)
		return ctx, nil

	case errors.Is(err, core.ErrValidatorUnavailable):
		i.count(bearerauth.OutcomeOutage)
		i.observe(bearerauth.OutcomeOutage, elapsed)
		if i.outagePolicy == bearerauth.OutageFailOpen {
			i.warnf("validator unavailable for %s, failing open: %v", method, err)
			return ctx, nil
		}
		return nil, status.Error(codes.Unavailable, "authentication is temporarily unavailable")

	default:
		i.count(bearerauth.OutcomeInvalid)
		i.observe(bearerauth.OutcomeInvalid, elapsed)
		i.warnf("token validation failed for %s (%s), continuing anonymous",
			method, core.FailureReason(err))
		return ctx, nil
	}
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that
// authenticates each call before invoking the handler.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		newCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that
// authenticates each stream before invoking the handler.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		newCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &identityServerStream{ServerStream: ss, ctx: newCtx})
	}
}

// identityServerStream overrides the stream context so the handler sees the
// identity written by the interceptor.
type identityServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityServerStream) Context() context.Context {
	return s.ctx
}

func (i *Interceptor) count(outcome string) {
	i.metrics.IncCounter(bearerauth.MetricRequestsTotal, map[string]string{"outcome": outcome})
}

func (i *Interceptor) observe(outcome string, elapsed time.Duration) {
	i.metrics.ObserveHistogram(bearerauth.MetricValidationDuration, elapsed.Seconds(), map[string]string{"outcome": outcome})
}

func (i *Interceptor) warnf(format string, args ...interface{}) {
	if i.logger != nil {
		i.logger.Warnf(format, args...)
	}
}
