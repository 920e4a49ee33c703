package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

func TestProviderRegistryGet(t *testing.T) {
	registry := NewProviderRegistry()

	for _, kind := range domain.ProviderKinds() {
		pt, err := registry.Get(kind)
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, kind, pt.Kind)
		assert.NotEmpty(t, pt.Name)
	}
}

func TestProviderRegistryGetUnknown(t *testing.T) {
	registry := NewProviderRegistry()

	_, err := registry.Get(domain.ProviderKind("carrier-pigeon"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestProviderRegistryRequiredKeys(t *testing.T) {
	registry := NewProviderRegistry()

	rss, err := registry.Get(domain.ProviderRSS)
	require.NoError(t, err)
	require.Len(t, rss.ConfigKeys, 1)
	assert.Equal(t, "feed_url", rss.ConfigKeys[0].Key)
	assert.True(t, rss.ConfigKeys[0].Required)

	reddit, err := registry.Get(domain.ProviderSubreddit)
	require.NoError(t, err)
	keys := make(map[string]bool)
	for _, k := range reddit.ConfigKeys {
		keys[k.Key] = k.Required
	}
	assert.True(t, keys["subreddit"])
}

func TestProviderRegistryList(t *testing.T) {
	registry := NewProviderRegistry()
	assert.Len(t, registry.List(), len(domain.ProviderKinds()))
}
