package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bearerauth "github.com/authgate/go-bearer-middleware"
	"github.com/authgate/go-bearer-middleware/core"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bearerauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "Authorization", cfg.HeaderName)
	assert.Equal(t, "Bearer ", cfg.SchemePrefix)
	assert.Equal(t, "ROLE_", cfg.RoleTagPrefix)
	assert.Equal(t, 0, cfg.Priority)
	assert.Equal(t, PolicyFailClosed, cfg.OutagePolicy)
	assert.True(t, cfg.ValidateOnOptions)
	assert.Empty(t, cfg.ExcludedPaths)
	assert.Equal(t, "roles", cfg.RoleClaim)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
header_name: X-Auth-Token
scheme_prefix: "Token "
role_tag_prefix: AUTHORITY_
priority: -10
outage_policy: fail_open
validate_on_options: false
excluded_paths:
  - /healthz
  - /metrics
issuer: https://issuer.example.com/
audience:
  - https://api.example.com/
jwks_uri: https://issuer.example.com/.well-known/jwks.json
role_claim: authorities
clock_skew_sec: 30
cache_ttl_sec: 60
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "X-Auth-Token", cfg.HeaderName)
	assert.Equal(t, "Token ", cfg.SchemePrefix)
	assert.Equal(t, "AUTHORITY_", cfg.RoleTagPrefix)
	assert.Equal(t, -10, cfg.Priority)
	assert.Equal(t, PolicyFailOpen, cfg.OutagePolicy)
	assert.False(t, cfg.ValidateOnOptions)
	assert.Equal(t, []string{"/healthz", "/metrics"}, cfg.ExcludedPaths)
	assert.Equal(t, "https://issuer.example.com/", cfg.Issuer)
	assert.Equal(t, []string{"https://api.example.com/"}, cfg.Audience)
	assert.Equal(t, "authorities", cfg.RoleClaim)
	assert.Equal(t, 30*time.Second, cfg.ClockSkew())
	assert.Equal(t, time.Minute, cfg.CacheTTL())
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("BEARERAUTH_HEADER_NAME", "X-Forwarded-Auth")
	t.Setenv("BEARERAUTH_OUTAGE_POLICY", "fail_open")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "X-Forwarded-Auth", cfg.HeaderName)
	assert.Equal(t, PolicyFailOpen, cfg.OutagePolicy)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("unknown outage policy", func(t *testing.T) {
		path := writeConfigFile(t, "outage_policy: explode\n")
		cfg, err := Load(path)
		assert.EqualError(t, err, `unknown outage policy "explode"`)
		assert.Nil(t, cfg)
	})
}

type acceptAllValidator struct{}

func (acceptAllValidator) Validate(ctx context.Context, token string) (core.Claims, error) {
	return core.Claims{Subject: "alice@example.com"}, nil
}

func TestMiddlewareOptions(t *testing.T) {
	path := writeConfigFile(t, `
priority: 42
excluded_paths:
  - /healthz
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	opts := append(cfg.MiddlewareOptions(), bearerauth.WithValidator(acceptAllValidator{}))
	m, err := bearerauth.New(opts...)

	require.NoError(t, err)
	assert.Equal(t, 42, m.Priority())
}

func TestMiddlewareOptions_CustomHeaderScheme(t *testing.T) {
	path := writeConfigFile(t, `
header_name: X-Auth-Token
scheme_prefix: "Token "
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	opts := append(cfg.MiddlewareOptions(), bearerauth.WithValidator(acceptAllValidator{}))
	m, err := bearerauth.New(opts...)
	require.NoError(t, err)

	seen := core.Anonymous()
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = core.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Auth-Token", "Token some-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, seen.Authenticated)
	assert.Equal(t, "alice@example.com", seen.Subject)

	// The default Authorization header is no longer consulted.
	seen = core.Anonymous()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, seen.Authenticated)
}
