package driven

import (
	"context"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

// RawPayload is one provider item before normalisation.
// The encoding is provider-specific; a payload produced by one provider's
// Fetch is only meaningful to that provider's Normalize.
type RawPayload []byte

// Provider fetches raw items from a content feed and normalises them to
// the canonical document schema. Providers do not persist anything; the
// ingestion pipeline owns validation, hashing, deduplication and storage.
//
// Fetch must reject destinations resolving to loopback, private or
// link-local addresses before any network call, carry a bounded timeout,
// and cap the bytes read from the response. Missing configuration yields
// an empty result, not an error. Network and parse failures propagate to
// the caller unswallowed.
type Provider interface {
	// Kind returns the provider kind this instance implements.
	Kind() domain.ProviderKind

	// Fetch retrieves the current raw items from the feed.
	Fetch(ctx context.Context) ([]RawPayload, error)

	// Normalize converts one raw item to the canonical schema.
	Normalize(raw RawPayload) (domain.NormalizedDoc, error)
}

// ProviderFactory creates providers from source configurations.
type ProviderFactory interface {
	// Create builds a provider for the source's kind.
	// Returns domain.ErrUnsupportedType for unknown kinds.
	Create(ctx context.Context, source domain.Source) (Provider, error)
}
