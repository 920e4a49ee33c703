package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

func newAPIServer(t *testing.T, listing string, items map[int64]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listing))
	})
	for id, body := range items {
		itemBody := body
		mux.HandleFunc(fmt.Sprintf("/item/%d.json", id), func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(itemBody))
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchStories(t *testing.T) {
	server := newAPIServer(t, `[101, 102, 103]`, map[int64]string{
		101: `{"id":101,"type":"story","title":"A Story","url":"https://example.com/a","by":"alice","score":250,"descendants":120,"time":1767225600}`,
		102: `{"id":102,"type":"story","title":"Ask HN: Anything?","text":"Question body","by":"bob","score":40,"descendants":12,"time":1767225700}`,
	})

	p, err := New(Config{BaseURL: server.URL, MaxItems: 2}, server.Client())
	require.NoError(t, err)

	raws, err := p.Fetch(context.Background())
	require.NoError(t, err)
	// MaxItems trims the listing to two; 103 is never requested.
	require.Len(t, raws, 2)

	first, err := p.Normalize(raws[0])
	require.NoError(t, err)
	assert.Equal(t, "101", first.ExternalID)
	assert.Equal(t, "A Story", first.Title)
	assert.Equal(t, "https://example.com/a", first.URL)
	assert.Equal(t, "alice", first.Metadata["author"])
	assert.Equal(t, 250, first.Metadata["score"])
	require.NotNil(t, first.PublishedAt)

	// A text post points at its discussion page.
	second, err := p.Normalize(raws[1])
	require.NoError(t, err)
	assert.Equal(t, "https://news.ycombinator.com/item?id=102", second.URL)
	assert.Equal(t, "Question body", second.Content)
}

func TestFetchSkipsFailedItems(t *testing.T) {
	server := newAPIServer(t, `[201, 202]`, map[int64]string{
		202: `{"id":202,"type":"story","title":"Survivor","url":"https://example.com/s","time":1767225600}`,
	})

	p, err := New(Config{BaseURL: server.URL}, server.Client())
	require.NoError(t, err)

	// Item 201 404s; the fetch carries on with the rest.
	raws, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 1)
}

func TestFetchListingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p, err := New(Config{BaseURL: server.URL}, server.Client())
	require.NoError(t, err)

	_, err = p.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch listing")
}

func TestNormalizeRemovedStory(t *testing.T) {
	p, err := New(Config{}, nil)
	require.NoError(t, err)

	_, err = p.Normalize([]byte(`{"id":5,"deleted":true}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = p.Normalize([]byte(`{"id":6,"dead":true}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewRejectsUnknownListing(t *testing.T) {
	_, err := New(Config{Listing: "weirdstories"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKind(t *testing.T) {
	p, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderHackerNews, p.Kind())
}
