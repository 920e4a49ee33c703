// Package reddit ingests posts from a subreddit listing.
//
// With script-app credentials configured, requests authenticate via the
// OAuth2 client-credentials flow against oauth.reddit.com. Without them,
// the public JSON listing on www.reddit.com is used, which Reddit rate
// limits far more aggressively.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

const (
	// DefaultPublicBaseURL serves unauthenticated listing requests.
	DefaultPublicBaseURL = "https://www.reddit.com"

	// DefaultOAuthBaseURL serves authenticated listing requests.
	DefaultOAuthBaseURL = "https://oauth.reddit.com"

	// DefaultTokenURL is the OAuth2 token endpoint.
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// DefaultListing is the subreddit listing fetched by default.
	DefaultListing = "hot"

	// DefaultLimit is how many posts one fetch requests.
	DefaultLimit = 50

	// userAgent identifies the client per Reddit's API rules.
	userAgent = "canopy-ingest/1.0"

	// requestsPerMinute stays inside the authenticated quota.
	requestsPerMinute = 60
)

// validListings is the closed set of supported listing sorts.
var validListings = map[string]bool{
	"hot": true,
	"new": true,
	"top": true,
}

// Config carries provider settings from the source config.
type Config struct {
	// Subreddit is the community name without the r/ prefix. Required.
	Subreddit string

	// Listing is the sort order (hot, new, top).
	Listing string

	// Limit bounds how many posts are requested per fetch.
	Limit int

	// ClientID and ClientSecret are Reddit script-app credentials.
	// Both empty selects the public unauthenticated endpoint.
	ClientID     string
	ClientSecret string

	// BaseURL and TokenURL override the endpoints. Tests point them at a
	// local server.
	BaseURL  string
	TokenURL string
}

// Provider fetches posts from one subreddit.
type Provider struct {
	subreddit string
	listing   string
	limit     int
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
}

// New creates a subreddit provider.
func New(ctx context.Context, cfg Config, client *http.Client) (*Provider, error) {
	subreddit := strings.TrimPrefix(strings.TrimSpace(cfg.Subreddit), "r/")
	if subreddit == "" {
		return nil, fmt.Errorf("%w: subreddit is required", domain.ErrInvalidInput)
	}
	listing := cfg.Listing
	if listing == "" {
		listing = DefaultListing
	}
	if !validListings[listing] {
		return nil, fmt.Errorf("%w: listing %q", domain.ErrInvalidInput, listing)
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if client == nil {
		client = http.DefaultClient
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	authenticated := cfg.ClientID != "" && cfg.ClientSecret != ""
	if authenticated {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = DefaultTokenURL
		}
		oauthCfg := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		}
		// Token requests reuse the guarded client.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		client = oauthCfg.Client(ctx)
		if baseURL == "" {
			baseURL = DefaultOAuthBaseURL
		}
	} else if baseURL == "" {
		baseURL = DefaultPublicBaseURL
	}

	return &Provider{
		subreddit: subreddit,
		listing:   listing,
		limit:     limit,
		baseURL:   baseURL,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerMinute)/60, 1),
	}, nil
}

// listingResponse is the subreddit listing schema, narrowed to the
// fields ingestion consumes.
type listingResponse struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Kind returns the provider kind.
func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderSubreddit
}

// Fetch pulls one page of the subreddit listing and returns the raw post
// JSON as payloads.
func (p *Provider) Fetch(ctx context.Context) ([]driven.RawPayload, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1", p.baseURL, p.subreddit, p.listing, p.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing: HTTP %d from r/%s", resp.StatusCode, p.subreddit)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	payloads := make([]driven.RawPayload, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		payloads = append(payloads, driven.RawPayload(child.Data))
	}
	return payloads, nil
}

// post is the post schema, narrowed to the fields ingestion consumes.
type post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

// Normalize converts one post payload to the canonical document form.
// Stickied posts are pinned announcements, not content; they are flagged
// invalid so ingestion skips them.
func (p *Provider) Normalize(raw driven.RawPayload) (domain.NormalizedDoc, error) {
	var item post
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.NormalizedDoc{}, fmt.Errorf("decode post: %w", err)
	}
	if item.Stickied {
		return domain.NormalizedDoc{}, fmt.Errorf("%w: post %s is stickied", domain.ErrInvalidInput, item.ID)
	}

	url := item.URL
	if url == "" && item.Permalink != "" {
		url = DefaultPublicBaseURL + item.Permalink
	}

	doc := domain.NormalizedDoc{
		ExternalID: item.ID,
		Title:      strings.TrimSpace(item.Title),
		URL:        url,
		Content:    strings.TrimSpace(item.SelfText),
		Metadata: map[string]any{
			"subreddit": item.Subreddit,
			"score":     item.Score,
			"comments":  item.NumComments,
		},
	}
	if item.Author != "" {
		doc.Metadata["author"] = item.Author
	}
	if item.Permalink != "" {
		doc.Metadata["permalink"] = DefaultPublicBaseURL + item.Permalink
	}
	if item.CreatedUTC > 0 {
		ts := time.Unix(int64(item.CreatedUTC), 0).UTC()
		doc.PublishedAt = &ts
	}
	return doc, nil
}
