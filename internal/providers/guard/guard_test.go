package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestPolicyValidateDeniedTargets(t *testing.T) {
	ctx := context.Background()
	policy := DefaultPolicy()

	denied := []string{
		"http://127.0.0.1/feed",
		"http://localhost:8080/feed",
		"http://[::1]/feed",
		"http://10.0.0.5/internal",
		"http://192.168.1.1/router",
		"http://172.16.0.1/feed",
		"http://169.254.169.254/latest/meta-data/",
		"http://0.0.0.0/feed",
		"ftp://example.com/feed",
		"file:///etc/passwd",
	}
	for _, raw := range denied {
		err := policy.Validate(ctx, mustParse(t, raw))
		assert.ErrorIs(t, err, domain.ErrURLDenied, "expected %s to be denied", raw)
	}
}

func TestPolicyValidateAllowPrivate(t *testing.T) {
	ctx := context.Background()
	policy := Policy{AllowPrivate: true}

	assert.NoError(t, policy.Validate(ctx, mustParse(t, "http://127.0.0.1:9999/feed")))
	assert.ErrorIs(t, policy.Validate(ctx, mustParse(t, "gopher://example.com")), domain.ErrURLDenied)
}

func TestClientBlocksLoopback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("should never be reached"))
	}))
	defer server.Close()

	client := NewClient(DefaultPolicy())
	//nolint:noctx // URL validation is what is under test
	_, err := client.Get(server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrURLDenied)
}

func TestClientCapsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	client := NewClient(Policy{AllowPrivate: true, MaxBodyBytes: 1024})
	resp, err := client.Get(server.URL)
	require.NoError(t, err)

	_, err = ReadBody(resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResponseTooLarge)
}

func TestClientReadsWithinCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("small payload"))
	}))
	defer server.Close()

	client := NewClient(Policy{AllowPrivate: true})
	resp, err := client.Get(server.URL)
	require.NoError(t, err)

	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Equal(t, "small payload", string(body))
}
