// Package providers builds the concrete feed providers from source
// configuration.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/providers/guard"
	"github.com/canopy-labs/canopy/internal/providers/hackernews"
	"github.com/canopy-labs/canopy/internal/providers/reddit"
	"github.com/canopy-labs/canopy/internal/providers/rss"
)

// Ensure Factory implements the interface.
var _ driven.ProviderFactory = (*Factory)(nil)

// Factory creates providers with a shared guarded HTTP client.
type Factory struct {
	client *http.Client
}

// NewFactory creates a factory using the default outbound policy.
func NewFactory() *Factory {
	return NewFactoryWithClient(guard.NewClient(guard.DefaultPolicy()))
}

// NewFactoryWithClient creates a factory with a caller-supplied client.
// Tests use this to reach local servers the default policy denies.
func NewFactoryWithClient(client *http.Client) *Factory {
	return &Factory{client: client}
}

// Create builds the provider for a source from its kind and config.
func (f *Factory) Create(ctx context.Context, source domain.Source) (driven.Provider, error) {
	switch source.Provider {
	case domain.ProviderRSS:
		// A missing feed_url is not fatal: the provider's fetch yields
		// nothing, so the source stays healthy instead of degrading.
		return rss.New(source.Config["feed_url"], f.client), nil

	case domain.ProviderHackerNews:
		return hackernews.New(hackernews.Config{
			Listing:  source.Config["listing"],
			MaxItems: configInt(source.Config, "max_items"),
		}, f.client)

	case domain.ProviderSubreddit:
		return reddit.New(ctx, reddit.Config{
			Subreddit:    source.Config["subreddit"],
			Listing:      source.Config["listing"],
			Limit:        configInt(source.Config, "limit"),
			ClientID:     source.Config["client_id"],
			ClientSecret: source.Config["client_secret"],
		}, f.client)

	default:
		return nil, fmt.Errorf("%w: provider %q", domain.ErrUnsupportedType, source.Provider)
	}
}

// configInt reads an optional integer config value, 0 when absent or
// malformed so provider defaults apply.
func configInt(config map[string]string, key string) int {
	value, ok := config[key]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
