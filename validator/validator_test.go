package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/go-bearer-middleware/core"
)

var (
	testKey  = []byte("0123456789abcdef0123456789abcdef")
	wrongKey = []byte("ffffffffffffffffffffffffffffffff")
)

func newTestValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()

	opts = append([]Option{
		WithStaticKey(testKey),
		WithAlgorithm(HS256),
	}, opts...)

	v, err := New(opts...)
	require.NoError(t, err)
	return v
}

func signToken(t *testing.T, key []byte, alg jwa.SignatureAlgorithm, mutate func(*jwt.Builder)) string {
	t.Helper()

	builder := jwt.NewBuilder().
		Subject("alice@example.com").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Claim("roles", []string{"USER", "ADMIN"})
	if mutate != nil {
		mutate(builder)
	}

	token, err := builder.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(alg, key))
	require.NoError(t, err)
	return string(signed)
}

func validationCode(t *testing.T, err error) string {
	t.Helper()

	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	return vErr.Code
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name          string
		options       []Option
		expectedError string
	}{
		{
			name:          "missing key func",
			options:       []Option{WithAlgorithm(HS256)},
			expectedError: "a key func is required",
		},
		{
			name:          "missing algorithm",
			options:       []Option{WithStaticKey(testKey)},
			expectedError: "a signature algorithm is required",
		},
		{
			name: "unsupported algorithm",
			options: []Option{
				WithStaticKey(testKey),
				WithAlgorithm(jwa.SignatureAlgorithm("none")),
			},
			expectedError: "unsupported signature algorithm",
		},
		{
			name: "nil key func",
			options: []Option{
				WithKeyFunc(nil),
				WithAlgorithm(HS256),
			},
			expectedError: "key func cannot be nil",
		},
		{
			name: "negative clock skew",
			options: []Option{
				WithStaticKey(testKey),
				WithAlgorithm(HS256),
				WithClockSkew(-time.Second),
			},
			expectedError: "clock skew cannot be negative",
		},
		{
			name: "empty role claim",
			options: []Option{
				WithStaticKey(testKey),
				WithAlgorithm(HS256),
				WithRoleClaim(""),
			},
			expectedError: "role claim cannot be empty",
		},
		{
			name: "valid configuration",
			options: []Option{
				WithStaticKey(testKey),
				WithAlgorithm(HS256),
				WithIssuer("https://issuer.example.com/"),
				WithAudience("https://api.example.com/"),
				WithClockSkew(time.Minute),
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			v, err := New(testCase.options...)
			if testCase.expectedError != "" {
				assert.EqualError(t, err, testCase.expectedError)
				assert.Nil(t, v)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, v)
			}
		})
	}
}

func TestValidate_ValidToken(t *testing.T) {
	v := newTestValidator(t)
	tokenString := signToken(t, testKey, jwa.HS256, nil)

	claims, err := v.Validate(context.Background(), tokenString)

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, []string{"USER", "ADMIN"}, claims.Roles)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry, time.Minute)
}

func TestValidate_RoleClaimVariants(t *testing.T) {
	t.Run("single string role", func(t *testing.T) {
		v := newTestValidator(t)
		tokenString := signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
			b.Claim("roles", "USER")
		})

		claims, err := v.Validate(context.Background(), tokenString)

		require.NoError(t, err)
		assert.Equal(t, []string{"USER"}, claims.Roles)
	})

	t.Run("missing role claim", func(t *testing.T) {
		v := newTestValidator(t, WithRoleClaim("authorities"))
		tokenString := signToken(t, testKey, jwa.HS256, nil)

		claims, err := v.Validate(context.Background(), tokenString)

		require.NoError(t, err)
		assert.Nil(t, claims.Roles)
	})

	t.Run("custom role claim", func(t *testing.T) {
		v := newTestValidator(t, WithRoleClaim("authorities"))
		tokenString := signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
			b.Claim("authorities", []string{"AUDITOR"})
		})

		claims, err := v.Validate(context.Background(), tokenString)

		require.NoError(t, err)
		assert.Equal(t, []string{"AUDITOR"}, claims.Roles)
	})

	t.Run("non-string role entry", func(t *testing.T) {
		v := newTestValidator(t)
		tokenString := signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
			b.Claim("roles", []interface{}{"USER", 42})
		})

		_, err := v.Validate(context.Background(), tokenString)

		assert.Equal(t, core.ErrorCodeInvalidClaims, validationCode(t, err))
	})
}

func TestValidate_FailureClassification(t *testing.T) {
	testCases := []struct {
		name         string
		token        func(t *testing.T) string
		expectedCode string
	}{
		{
			name: "malformed token",
			token: func(t *testing.T) string {
				return "this is not a token"
			},
			expectedCode: core.ErrorCodeTokenMalformed,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				return signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
					b.Expiration(time.Now().Add(-time.Hour))
				})
			},
			expectedCode: core.ErrorCodeTokenExpired,
		},
		{
			name: "token not yet valid",
			token: func(t *testing.T) string {
				return signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
					b.NotBefore(time.Now().Add(time.Hour))
				})
			},
			expectedCode: core.ErrorCodeTokenNotYetValid,
		},
		{
			name: "wrong signing key",
			token: func(t *testing.T) string {
				return signToken(t, wrongKey, jwa.HS256, nil)
			},
			expectedCode: core.ErrorCodeInvalidSignature,
		},
		{
			name: "unexpected algorithm",
			token: func(t *testing.T) string {
				return signToken(t, testKey, jwa.HS384, nil)
			},
			expectedCode: core.ErrorCodeUnsupportedAlg,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			v := newTestValidator(t)

			_, err := v.Validate(context.Background(), testCase.token(t))

			require.Error(t, err)
			assert.Equal(t, testCase.expectedCode, validationCode(t, err))
			assert.ErrorIs(t, err, core.ErrTokenInvalid)
		})
	}
}

func TestValidate_ClockSkew(t *testing.T) {
	v := newTestValidator(t, WithClockSkew(time.Minute))
	tokenString := signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
		b.Expiration(time.Now().Add(-10 * time.Second))
	})

	_, err := v.Validate(context.Background(), tokenString)

	assert.NoError(t, err)
}

func TestValidate_IssuerAndAudience(t *testing.T) {
	t.Run("matching issuer and audience", func(t *testing.T) {
		v := newTestValidator(t,
			WithIssuer("https://issuer.example.com/"),
			WithAudience("https://api.example.com/"),
		)
		tokenString := signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
			b.Issuer("https://issuer.example.com/")
			b.Audience([]string{"https://api.example.com/"})
		})

		_, err := v.Validate(context.Background(), tokenString)

		assert.NoError(t, err)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		v := newTestValidator(t, WithIssuer("https://issuer.example.com/"))
		tokenString := signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
			b.Issuer("https://rogue.example.com/")
		})

		_, err := v.Validate(context.Background(), tokenString)

		assert.Equal(t, core.ErrorCodeInvalidClaims, validationCode(t, err))
	})

	t.Run("audience mismatch", func(t *testing.T) {
		v := newTestValidator(t, WithAudience("https://api.example.com/"))
		tokenString := signToken(t, testKey, jwa.HS256, func(b *jwt.Builder) {
			b.Audience([]string{"https://other.example.com/"})
		})

		_, err := v.Validate(context.Background(), tokenString)

		assert.Equal(t, core.ErrorCodeInvalidClaims, validationCode(t, err))
	})
}

func TestValidate_KeyFuncFailure(t *testing.T) {
	v, err := New(
		WithKeyFunc(func(context.Context) (interface{}, error) {
			return nil, errors.New("key store unreachable")
		}),
		WithAlgorithm(HS256),
	)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), signToken(t, testKey, jwa.HS256, nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidatorUnavailable)
	assert.Equal(t, core.ErrorCodeKeyUnavailable, validationCode(t, err))
}

func TestValidate_KeySet(t *testing.T) {
	signingKey, err := jwk.FromRaw(testKey)
	require.NoError(t, err)
	require.NoError(t, signingKey.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, signingKey.Set(jwk.AlgorithmKey, jwa.HS256))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(signingKey))

	v, err := New(
		WithKeyFunc(func(context.Context) (interface{}, error) {
			return set, nil
		}),
		WithAlgorithm(HS256),
	)
	require.NoError(t, err)

	token, err := jwt.NewBuilder().
		Subject("alice@example.com").
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, signingKey))
	require.NoError(t, err)

	claims, err := v.Validate(context.Background(), string(signed))

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
}
