// Package hackernews ingests stories from the Hacker News Firebase API.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

const (
	// DefaultBaseURL is the public Firebase API endpoint.
	DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

	// DefaultListing is fetched when the source does not name one.
	DefaultListing = "topstories"

	// DefaultMaxItems bounds how many stories one fetch pulls.
	DefaultMaxItems = 30

	// requestsPerSecond throttles the per-item requests. The API has no
	// published limit; this keeps a full fetch to a polite trickle.
	requestsPerSecond = 4
)

// validListings is the closed set of supported listing endpoints.
var validListings = map[string]bool{
	"topstories":  true,
	"newstories":  true,
	"beststories": true,
}

// Config carries provider settings from the source config.
type Config struct {
	// BaseURL overrides the API endpoint. Tests point it at a local server.
	BaseURL string

	// Listing is the story listing to fetch (topstories, newstories,
	// beststories).
	Listing string

	// MaxItems bounds how many stories are fetched per run.
	MaxItems int
}

// Provider fetches stories from a Hacker News listing.
type Provider struct {
	baseURL  string
	listing  string
	maxItems int
	client   *http.Client
	limiter  *rate.Limiter
}

// New creates a Hacker News provider.
func New(cfg Config, client *http.Client) (*Provider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	listing := cfg.Listing
	if listing == "" {
		listing = DefaultListing
	}
	if !validListings[listing] {
		return nil, fmt.Errorf("%w: listing %q", domain.ErrInvalidInput, listing)
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Provider{
		baseURL:  baseURL,
		listing:  listing,
		maxItems: maxItems,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

// Kind returns the provider kind.
func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderHackerNews
}

// Fetch pulls the listing and then each story item, returning the raw
// item JSON as payloads. Individual item failures are skipped; the
// listing fetch itself must succeed.
func (p *Provider) Fetch(ctx context.Context) ([]driven.RawPayload, error) {
	ids, err := p.fetchListing(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > p.maxItems {
		ids = ids[:p.maxItems]
	}

	payloads := make([]driven.RawPayload, 0, len(ids))
	for _, id := range ids {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		raw, err := p.fetchItem(ctx, id)
		if err != nil {
			logger.Warn("Skipping HN item %d: %v", id, err)
			continue
		}
		payloads = append(payloads, raw)
	}
	return payloads, nil
}

func (p *Provider) fetchListing(ctx context.Context) ([]int64, error) {
	url := fmt.Sprintf("%s/%s.json", p.baseURL, p.listing)
	body, err := p.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return ids, nil
}

func (p *Provider) fetchItem(ctx context.Context, id int64) ([]byte, error) {
	url := fmt.Sprintf("%s/item/%d.json", p.baseURL, id)
	return p.get(ctx, url)
}

func (p *Provider) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// storyItem is the Firebase item schema, narrowed to story fields.
type storyItem struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	By          string `json:"by"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// Normalize converts one story payload to the canonical document form.
// Text posts ("Ask HN") have no outbound URL; the discussion page is the
// canonical location then.
func (p *Provider) Normalize(raw driven.RawPayload) (domain.NormalizedDoc, error) {
	var story storyItem
	if err := json.Unmarshal(raw, &story); err != nil {
		return domain.NormalizedDoc{}, fmt.Errorf("decode story: %w", err)
	}
	if story.Deleted || story.Dead {
		return domain.NormalizedDoc{}, fmt.Errorf("%w: story %d is removed", domain.ErrInvalidInput, story.ID)
	}

	url := story.URL
	if url == "" {
		url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
	}

	doc := domain.NormalizedDoc{
		ExternalID: fmt.Sprintf("%d", story.ID),
		Title:      strings.TrimSpace(story.Title),
		URL:        url,
		Content:    strings.TrimSpace(story.Text),
		Metadata: map[string]any{
			"score":    story.Score,
			"comments": story.Descendants,
		},
	}
	if story.By != "" {
		doc.Metadata["author"] = story.By
	}
	if story.Time > 0 {
		ts := time.Unix(story.Time, 0).UTC()
		doc.PublishedAt = &ts
	}
	return doc, nil
}
