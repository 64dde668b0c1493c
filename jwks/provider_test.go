package jwks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/go-bearer-middleware/core"
)

func testKeySetJSON(t *testing.T) []byte {
	t.Helper()

	key, err := jwk.FromRaw([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, "test-key"))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(key))

	payload, err := json.Marshal(set)
	require.NoError(t, err)
	return payload
}

func newJWKSServer(t *testing.T, requests *int32, failing *atomic.Bool) *httptest.Server {
	t.Helper()

	payload := testKeySetJSON(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		if failing != nil && failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewProvider(t *testing.T) {
	t.Run("requires a URI", func(t *testing.T) {
		provider, err := NewProvider("")
		assert.EqualError(t, err, "a JWKS URI is required")
		assert.Nil(t, provider)
	})

	t.Run("valid configuration", func(t *testing.T) {
		provider, err := NewProvider("https://issuer.example.com/.well-known/jwks.json")
		assert.NoError(t, err)
		assert.NotNil(t, provider)
	})
}

func TestKeyFunc_FetchesKeySet(t *testing.T) {
	var requests int32
	server := newJWKSServer(t, &requests, nil)

	provider, err := NewProvider(server.URL)
	require.NoError(t, err)

	key, err := provider.KeyFunc(context.Background())

	require.NoError(t, err)
	set, ok := key.(jwk.Set)
	require.True(t, ok)
	_, found := set.LookupKeyID("test-key")
	assert.True(t, found)
}

func TestKeyFunc_CachesWithinTTL(t *testing.T) {
	var requests int32
	server := newJWKSServer(t, &requests, nil)

	provider, err := NewProvider(server.URL, WithCacheTTL(time.Minute))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := provider.KeyFunc(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestKeyFunc_ZeroTTLRefetches(t *testing.T) {
	var requests int32
	server := newJWKSServer(t, &requests, nil)

	provider, err := NewProvider(server.URL, WithCacheTTL(0))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := provider.KeyFunc(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestKeyFunc_FetchFailure(t *testing.T) {
	var requests int32
	var failing atomic.Bool
	failing.Store(true)
	server := newJWKSServer(t, &requests, &failing)

	provider, err := NewProvider(server.URL)
	require.NoError(t, err)

	_, err = provider.KeyFunc(context.Background())

	assert.ErrorIs(t, err, core.ErrValidatorUnavailable)
}

func TestKeyFunc_ServesStaleCacheDuringOutage(t *testing.T) {
	var requests int32
	var failing atomic.Bool
	server := newJWKSServer(t, &requests, &failing)

	provider, err := NewProvider(server.URL, WithCacheTTL(0))
	require.NoError(t, err)

	_, err = provider.KeyFunc(context.Background())
	require.NoError(t, err)

	failing.Store(true)

	key, err := provider.KeyFunc(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, key)
}
