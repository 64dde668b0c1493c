package core

import "errors"

// Sentinel errors for token validation.
var (
	// ErrTokenInvalid is returned when a presented token fails validation
	// for any reason other than a validator outage. It is typically
	// wrapped by a ValidationError carrying the specific code.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrValidatorUnavailable is returned when the token validator itself
	// fails, e.g. the key store cannot be reached. It represents an
	// infrastructure outage rather than a bad credential and is the one
	// condition that may escalate to a hard request failure.
	ErrValidatorUnavailable = errors.New("token validator unavailable")
)

// Common validation error codes.
const (
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeTokenNotYetValid = "token_not_yet_valid"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeUnsupportedAlg   = "unsupported_algorithm"
	ErrorCodeInvalidClaims    = "invalid_claims"
	ErrorCodeKeyUnavailable   = "key_unavailable"
)

// ValidationError wraps a token validation failure with a machine-readable
// code. The middleware reports the code through its diagnostic channel
// (logs, metrics) but never alters control flow per code: every code is
// normalized to "request proceeds unauthenticated".
type ValidationError struct {
	// Code is a machine-readable reason, e.g. "token_expired".
	Code string

	// Message is a human-readable description.
	Message string

	// Details contains the underlying error, if any.
	Details error
}

// NewValidationError creates a ValidationError with the given code and
// message, wrapping details.
func NewValidationError(code, message string, details error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with ErrTokenInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrTokenInvalid
}

// FailureReason returns the machine-readable code of a validation failure
// for diagnostic reporting. Errors without a code map to "invalid_claims",
// and validator outages map to "validator_unavailable".
func FailureReason(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Code
	}
	if errors.Is(err, ErrValidatorUnavailable) {
		return "validator_unavailable"
	}
	return ErrorCodeInvalidClaims
}
