package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

func TestFactoryCreate(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory()

	t.Run("rss", func(t *testing.T) {
		p, err := factory.Create(ctx, domain.Source{
			ID:       "s1",
			Provider: domain.ProviderRSS,
			Config:   map[string]string{"feed_url": "https://example.com/feed.xml"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderRSS, p.Kind())
	})

	t.Run("rss without feed url fetches nothing", func(t *testing.T) {
		p, err := factory.Create(ctx, domain.Source{
			ID:       "s2",
			Provider: domain.ProviderRSS,
		})
		require.NoError(t, err)

		raws, err := p.Fetch(ctx)
		require.NoError(t, err)
		assert.Empty(t, raws)
	})

	t.Run("hackernews with defaults", func(t *testing.T) {
		p, err := factory.Create(ctx, domain.Source{
			ID:       "s3",
			Provider: domain.ProviderHackerNews,
			Config:   map[string]string{"max_items": "10"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderHackerNews, p.Kind())
	})

	t.Run("subreddit", func(t *testing.T) {
		p, err := factory.Create(ctx, domain.Source{
			ID:       "s4",
			Provider: domain.ProviderSubreddit,
			Config:   map[string]string{"subreddit": "golang"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderSubreddit, p.Kind())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := factory.Create(ctx, domain.Source{
			ID:       "s5",
			Provider: domain.ProviderKind("telegraph"),
		})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestConfigInt(t *testing.T) {
	config := map[string]string{"max_items": "25", "bad": "many"}
	assert.Equal(t, 25, configInt(config, "max_items"))
	assert.Zero(t, configInt(config, "bad"))
	assert.Zero(t, configInt(config, "missing"))
}
