package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

const listingFixture = `{
  "kind": "Listing",
  "data": {
    "children": [
      {"kind": "t3", "data": {
        "id": "abc123",
        "title": "Interesting Result",
        "selftext": "Some discussion text.",
        "url": "https://example.com/paper",
        "permalink": "/r/golang/comments/abc123/interesting_result/",
        "author": "gopher",
        "subreddit": "golang",
        "score": 99,
        "num_comments": 14,
        "created_utc": 1767225600.0
      }},
      {"kind": "t3", "data": {
        "id": "pin001",
        "title": "Weekly Thread",
        "stickied": true,
        "permalink": "/r/golang/comments/pin001/weekly/"
      }}
    ]
  }
}`

func TestFetchPublicListing(t *testing.T) {
	var gotPath, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(listingFixture))
	}))
	defer server.Close()

	p, err := New(context.Background(), Config{
		Subreddit: "golang",
		BaseURL:   server.URL,
	}, server.Client())
	require.NoError(t, err)

	raws, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "/r/golang/hot.json", gotPath)
	assert.Equal(t, userAgent, gotAgent)

	doc, err := p.Normalize(raws[0])
	require.NoError(t, err)
	assert.Equal(t, "abc123", doc.ExternalID)
	assert.Equal(t, "Interesting Result", doc.Title)
	assert.Equal(t, "https://example.com/paper", doc.URL)
	assert.Equal(t, "Some discussion text.", doc.Content)
	assert.Equal(t, "gopher", doc.Metadata["author"])
	assert.Equal(t, 99, doc.Metadata["score"])
	require.NotNil(t, doc.PublishedAt)

	// Pinned announcements are not content.
	_, err = p.Normalize(raws[1])
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetchAuthenticatedListing(t *testing.T) {
	var gotAuthHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/r/golang/new.json", func(w http.ResponseWriter, r *http.Request) {
		gotAuthHeader = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(listingFixture))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p, err := New(context.Background(), Config{
		Subreddit:    "r/golang",
		Listing:      "new",
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/api/v1/access_token",
	}, server.Client())
	require.NoError(t, err)

	raws, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "Bearer token-123", gotAuthHeader)
}

func TestNormalizeSelfPostURL(t *testing.T) {
	p, err := New(context.Background(), Config{Subreddit: "golang"}, nil)
	require.NoError(t, err)

	doc, err := p.Normalize([]byte(`{
		"id": "self1",
		"title": "Question",
		"selftext": "How do I...",
		"permalink": "/r/golang/comments/self1/question/"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/self1/question/", doc.URL)
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(ctx, Config{Subreddit: "golang", Listing: "controversial"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	p, err := New(context.Background(), Config{Subreddit: "golang", BaseURL: server.URL}, server.Client())
	require.NoError(t, err)

	_, err = p.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestKind(t *testing.T) {
	p, err := New(context.Background(), Config{Subreddit: "golang"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderSubreddit, p.Kind())
}
