package services

import (
	"fmt"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

// ProviderRegistry describes the closed set of supported providers.
// Unknown kinds are rejected rather than silently falling back.
type ProviderRegistry struct {
	providers map[domain.ProviderKind]domain.ProviderType
}

// NewProviderRegistry creates a registry with the built-in providers.
func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[domain.ProviderKind]domain.ProviderType)}
	r.registerBuiltinProviders()
	return r
}

func (r *ProviderRegistry) registerBuiltinProviders() {
	r.providers[domain.ProviderRSS] = domain.ProviderType{
		Kind:        domain.ProviderRSS,
		Name:        "RSS / Atom Feed",
		Description: "Ingest entries from an RSS or Atom feed",
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "feed_url",
				Label:       "Feed URL",
				Description: "URL of the RSS or Atom feed",
				Required:    true,
			},
		},
	}
	r.providers[domain.ProviderHackerNews] = domain.ProviderType{
		Kind:        domain.ProviderHackerNews,
		Name:        "Hacker News",
		Description: "Ingest top stories from the Hacker News API",
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "listing",
				Label:       "Listing",
				Description: "Which listing to fetch (topstories, newstories, beststories)",
			},
			{
				Key:         "max_items",
				Label:       "Max Items",
				Description: "Maximum number of stories per fetch",
			},
		},
	}
	r.providers[domain.ProviderSubreddit] = domain.ProviderType{
		Kind:        domain.ProviderSubreddit,
		Name:        "Subreddit",
		Description: "Ingest posts from a subreddit listing",
		ConfigKeys: []domain.ConfigKey{
			{
				Key:         "subreddit",
				Label:       "Subreddit",
				Description: "Subreddit name without the r/ prefix",
				Required:    true,
			},
			{
				Key:         "client_id",
				Label:       "Client ID",
				Description: "Reddit script app client ID",
			},
			{
				Key:         "client_secret",
				Label:       "Client Secret",
				Description: "Reddit script app client secret",
			},
		},
	}
}

// Get returns the descriptor for a provider kind.
// Returns domain.ErrUnsupportedType for unknown kinds.
func (r *ProviderRegistry) Get(kind domain.ProviderKind) (domain.ProviderType, error) {
	pt, ok := r.providers[kind]
	if !ok {
		return domain.ProviderType{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, kind)
	}
	return pt, nil
}

// List returns every registered provider descriptor.
func (r *ProviderRegistry) List() []domain.ProviderType {
	result := make([]domain.ProviderType, 0, len(r.providers))
	for _, kind := range domain.ProviderKinds() {
		if pt, ok := r.providers[kind]; ok {
			result = append(result, pt)
		}
	}
	return result
}
