package domain

import "time"

// Document represents a normalised, deduplicated content item scoped to a
// workspace. Documents are deduplicated by ContentHash within a workspace,
// so the same item discovered via multiple feeds stays a single record
// linked to each source through DocumentSource.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// WorkspaceID links to the owning Workspace.
	WorkspaceID string

	// ExternalID is the provider-specific identifier (feed GUID, HN item id).
	ExternalID string

	// Title is the human-readable title.
	Title string

	// URL is the original location of the content.
	URL string

	// Content is the text content after normalisation and extraction.
	Content string

	// ContentHash is the deterministic dedup digest over the normalised
	// title, URL and content prefix. Empty means the document predates
	// hashing and is exempt from the uniqueness constraint.
	ContentHash string

	// Metadata contains provider-specific key-value pairs (author, tags, score).
	Metadata map[string]any

	// Embedding is the vector representation. Nil until embedded.
	Embedding []float32

	// Alignment is the cosine similarity to the workspace core centroid.
	// Nil until scored.
	Alignment *float64

	// Velocity is the recency-decay score. Nil until scored.
	Velocity *float64

	// Novelty is the inverse similarity to the nearest other cluster.
	// Nil until scored.
	Novelty *float64

	// Relevance is the combined ranking score. Nil until scored.
	Relevance *float64

	// ScoredAt is when the scores were last refreshed.
	ScoredAt *time.Time

	// PublishedAt is the provider-reported publication time, if any.
	PublishedAt *time.Time

	// IngestedAt is when the document entered the store.
	IngestedAt time.Time

	// CreatedAt is when the document record was created.
	CreatedAt time.Time

	// UpdatedAt is when the document record was last updated.
	UpdatedAt time.Time
}

// HasEmbedding reports whether the document has a usable embedding vector.
func (d *Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// RecencyTimestamp returns the timestamp velocity decays from:
// PublishedAt when present, otherwise IngestedAt.
// The second return is false when neither is set.
func (d *Document) RecencyTimestamp() (time.Time, bool) {
	if d.PublishedAt != nil && !d.PublishedAt.IsZero() {
		return *d.PublishedAt, true
	}
	if !d.IngestedAt.IsZero() {
		return d.IngestedAt, true
	}
	return time.Time{}, false
}

// DocumentSource records that a document was discovered via a source.
// Unique per (document, source) pair.
type DocumentSource struct {
	// DocumentID links to the Document.
	DocumentID string

	// SourceID links to the Source that surfaced the document.
	SourceID string

	// DiscoveredAt is when this document was first found from this source.
	DiscoveredAt time.Time
}

// NormalizedDoc is the canonical payload every provider must produce.
// The ingestion pipeline owns validation, hashing, deduplication and
// persistence; providers only fetch and normalise.
type NormalizedDoc struct {
	// ExternalID is the provider-specific identifier.
	ExternalID string

	// Title is the item title.
	Title string

	// URL is the item location. Required: ingestion rejects empty URLs.
	URL string

	// Content is the item text or snippet.
	Content string

	// PublishedAt is the provider-reported publication time, if known.
	PublishedAt *time.Time

	// Metadata carries provider-specific extras.
	Metadata map[string]any
}
