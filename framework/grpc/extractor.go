package grpcauth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// DefaultMetadataKey is the incoming metadata key bearer tokens are read
// from.
const DefaultMetadataKey = "authorization"

// TokenExtractor pulls a raw token out of the incoming call context. An
// empty string with a nil error means the call carried no credential.
type TokenExtractor func(ctx context.Context) (string, error)

// BearerMetadataExtractor reads the "authorization" metadata value and
// strips the exact "Bearer " prefix. The match is case sensitive and
// requires the single space verbatim; anything else counts as no
// credential.
func BearerMetadataExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get(DefaultMetadataKey)
	if len(values) == 0 {
		return "", nil
	}

	value := values[0]
	if !strings.HasPrefix(value, "Bearer ") {
		return "", nil
	}
	return value[len("Bearer "):], nil
}

// MetadataFieldExtractor reads a raw token from an arbitrary metadata field,
// with no scheme prefix.
func MetadataFieldExtractor(field string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil
		}

		values := md.Get(field)
		if len(values) == 0 {
			return "", nil
		}
		return values[0], nil
	}
}

// MultiExtractor runs the given extractors in order and returns the first
// token found.
func MultiExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		for _, extractor := range extractors {
			token, err := extractor(ctx)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
