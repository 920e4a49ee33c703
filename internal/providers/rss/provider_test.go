package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Engineering Blog</title>
    <item>
      <guid>post-1</guid>
      <title>Profiling Go Services</title>
      <link>https://example.com/profiling</link>
      <description>A short teaser.</description>
      <content:encoded>The full article body with details.</content:encoded>
      <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
      <dc:creator>Pat</dc:creator>
    </item>
    <item>
      <title>No GUID Post</title>
      <link>https://example.com/no-guid</link>
      <description>Body</description>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Release Notes</title>
  <entry>
    <id>tag:example.com,2026:release-42</id>
    <title>Version 42</title>
    <link rel="alternate" href="https://example.com/v42"/>
    <link rel="self" href="https://example.com/v42.atom"/>
    <summary>Bug fixes.</summary>
    <published>2026-03-15T10:00:00Z</published>
    <author><name>Sam</name></author>
  </entry>
</feed>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func fetchAll(t *testing.T, p *Provider) []domain.NormalizedDoc {
	t.Helper()
	raws, err := p.Fetch(context.Background())
	require.NoError(t, err)
	docs := make([]domain.NormalizedDoc, 0, len(raws))
	for _, raw := range raws {
		doc, err := p.Normalize(raw)
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	return docs
}

func TestFetchRSS(t *testing.T) {
	server := serveFeed(t, rssFixture)
	p := New(server.URL, server.Client())

	docs := fetchAll(t, p)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "post-1", first.ExternalID)
	assert.Equal(t, "Profiling Go Services", first.Title)
	assert.Equal(t, "https://example.com/profiling", first.URL)
	// content:encoded wins over the description teaser.
	assert.Equal(t, "The full article body with details.", first.Content)
	assert.Equal(t, "Pat", first.Metadata["author"])
	assert.Equal(t, "Engineering Blog", first.Metadata["feed_title"])
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, 2006, first.PublishedAt.Year())

	// Missing GUID falls back to the link.
	second := docs[1]
	assert.Equal(t, "https://example.com/no-guid", second.ExternalID)
	assert.Nil(t, second.PublishedAt)
}

func TestFetchAtom(t *testing.T) {
	server := serveFeed(t, atomFixture)
	p := New(server.URL, server.Client())

	docs := fetchAll(t, p)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "tag:example.com,2026:release-42", doc.ExternalID)
	assert.Equal(t, "Version 42", doc.Title)
	// The alternate link wins over the self link.
	assert.Equal(t, "https://example.com/v42", doc.URL)
	assert.Equal(t, "Bug fixes.", doc.Content)
	assert.Equal(t, "Sam", doc.Metadata["author"])
	require.NotNil(t, doc.PublishedAt)
	assert.Equal(t, time.March, doc.PublishedAt.Month())
}

func TestFetchEmptyFeedURL(t *testing.T) {
	p := New("", nil)
	raws, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	p := New(server.URL, server.Client())
	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 410")
}

func TestFetchMalformedFeed(t *testing.T) {
	server := serveFeed(t, `{"not": "xml"}`)
	p := New(server.URL, server.Client())

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
}

func TestKind(t *testing.T) {
	assert.Equal(t, domain.ProviderRSS, New("", nil).Kind())
}
