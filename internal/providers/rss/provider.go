// Package rss ingests RSS 2.0 and Atom feeds.
package rss

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Provider fetches and normalises feed entries.
type Provider struct {
	feedURL string
	client  *http.Client
}

// New creates an RSS/Atom provider for one feed URL.
func New(feedURL string, client *http.Client) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{feedURL: feedURL, client: client}
}

// Kind returns the provider kind.
func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderRSS
}

// item is the provider-native payload carried between Fetch and Normalize.
type item struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Published   string `json:"published"`
	Author      string `json:"author"`
	FeedTitle   string `json:"feed_title"`
}

// Fetch downloads the feed and returns one payload per entry.
// A source without a configured feed URL yields nothing rather than an
// error, so the source stays healthy until a URL is set.
func (p *Provider) Fetch(ctx context.Context) ([]driven.RawPayload, error) {
	if strings.TrimSpace(p.feedURL) == "" {
		logger.Warn("RSS provider has no feed URL configured")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: HTTP %d from %s", resp.StatusCode, p.feedURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	items, err := parseFeed(data)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", p.feedURL, err)
	}

	payloads := make([]driven.RawPayload, 0, len(items))
	for i := range items {
		encoded, err := json.Marshal(items[i])
		if err != nil {
			return nil, fmt.Errorf("encode item: %w", err)
		}
		payloads = append(payloads, encoded)
	}
	return payloads, nil
}

// Normalize converts one feed entry payload to the canonical document form.
func (p *Provider) Normalize(raw driven.RawPayload) (domain.NormalizedDoc, error) {
	var entry item
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.NormalizedDoc{}, fmt.Errorf("decode item: %w", err)
	}

	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	externalID := entry.GUID
	if externalID == "" {
		externalID = entry.Link
	}

	doc := domain.NormalizedDoc{
		ExternalID: externalID,
		Title:      strings.TrimSpace(entry.Title),
		URL:        entry.Link,
		Content:    strings.TrimSpace(content),
		Metadata: map[string]any{
			"feed_url": p.feedURL,
		},
	}
	if entry.FeedTitle != "" {
		doc.Metadata["feed_title"] = entry.FeedTitle
	}
	if entry.Author != "" {
		doc.Metadata["author"] = entry.Author
	}
	if ts, ok := parseTime(entry.Published); ok {
		doc.PublishedAt = &ts
	}
	return doc, nil
}

// rssFeed covers RSS 2.0 documents.
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Encoded     string `xml:"encoded"`
	PubDate     string `xml:"pubDate"`
	Creator     string `xml:"creator"`
	Author      string `xml:"author"`
}

// atomFeed covers Atom documents.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	Author    atomAuthor `xml:"author"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// parseFeed detects the feed dialect from the root element.
func parseFeed(data []byte) ([]item, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, err
	}
	switch root {
	case "rss":
		var feed rssFeed
		if err := xml.Unmarshal(data, &feed); err != nil {
			return nil, err
		}
		return fromRSS(feed), nil
	case "feed":
		var feed atomFeed
		if err := xml.Unmarshal(data, &feed); err != nil {
			return nil, err
		}
		return fromAtom(feed), nil
	default:
		return nil, fmt.Errorf("unsupported feed root element %q", root)
	}
}

func rootElement(data []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", fmt.Errorf("no root element: %w", err)
		}
		if start, ok := token.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func fromRSS(feed rssFeed) []item {
	items := make([]item, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		author := it.Creator
		if author == "" {
			author = it.Author
		}
		items = append(items, item{
			GUID:        strings.TrimSpace(it.GUID),
			Title:       it.Title,
			Link:        strings.TrimSpace(it.Link),
			Description: it.Description,
			Content:     it.Encoded,
			Published:   it.PubDate,
			Author:      author,
			FeedTitle:   feed.Channel.Title,
		})
	}
	return items
}

func fromAtom(feed atomFeed) []item {
	items := make([]item, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		items = append(items, item{
			GUID:        strings.TrimSpace(entry.ID),
			Title:       entry.Title,
			Link:        pickAtomLink(entry.Links),
			Description: entry.Summary,
			Content:     entry.Content,
			Published:   published,
			Author:      entry.Author.Name,
			FeedTitle:   feed.Title,
		})
	}
	return items
}

// pickAtomLink prefers the alternate link, falling back to the first.
func pickAtomLink(links []atomLink) string {
	for _, link := range links {
		if link.Rel == "alternate" || link.Rel == "" {
			return strings.TrimSpace(link.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}

// feedTimeLayouts are the publication date formats seen in the wild.
var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range feedTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
