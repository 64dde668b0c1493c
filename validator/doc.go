// Package validator implements the core.TokenValidator interface for JWTs
// using the lestrrat-go/jwx library.
//
// The validator separates the failure phases so the middleware can report
// precise diagnostics: a token that does not parse is malformed, a token
// whose signature does not verify is invalid, and a parsed-and-verified
// token can still be rejected for expiry or not-yet-valid claims. A failure
// to obtain verification keys is classified as a validator outage
// (core.ErrValidatorUnavailable) rather than a bad credential.
package validator
