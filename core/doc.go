// Package core provides the framework-agnostic authentication engine shared
// by the HTTP middleware and the transport adapters (echo, gin, gRPC).
//
// The Authenticator type turns a raw bearer token into an Identity using a
// pluggable TokenValidator, and the context helpers give every later stage of
// a request read access to that Identity without exposing a mutable slot.
package core
