package domain

import "time"

// SourceStatus tracks the health of a content source.
type SourceStatus string

const (
	// SourceHealthy means the source is active and fetchable.
	SourceHealthy SourceStatus = "healthy"
	// SourceError means the last fetch failed but the source is still retried.
	SourceError SourceStatus = "error"
	// SourcePaused means repeated failures hit the auto-pause threshold.
	// A paused source requires explicit operator reactivation.
	SourcePaused SourceStatus = "paused"
)

// DefaultAutoPauseThreshold is the consecutive-failure count at which a
// source is paused instead of retried.
const DefaultAutoPauseThreshold = 5

// Source represents a configured content feed.
// Each source produces documents via a provider and belongs to a workspace.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// WorkspaceID links to the owning Workspace.
	WorkspaceID string

	// Name is the human-readable name for this source.
	Name string

	// Provider identifies the provider kind (e.g., "rss", "hackernews").
	Provider ProviderKind

	// Config contains provider-specific configuration.
	Config map[string]string

	// Status is the current health state.
	Status SourceStatus

	// Weight tunes this source's contribution to the relevance bias term.
	// Defaults to 1.0.
	Weight float64

	// ConsecutiveFailures counts fetch failures since the last success.
	ConsecutiveFailures int

	// AutoPauseThreshold is the failure count that flips Status to paused.
	AutoPauseThreshold int

	// LastError is the text of the most recent fetch error.
	LastError string

	// LastFetched is when a fetch was last attempted.
	LastFetched time.Time

	// LastSuccessfulFetch is when a fetch last completed without error.
	LastSuccessfulFetch time.Time

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// EffectiveWeight returns the source weight, defaulting to 1.0 when unset.
func (s *Source) EffectiveWeight() float64 {
	if s.Weight == 0 {
		return 1.0
	}
	return s.Weight
}

// PauseThreshold returns the auto-pause threshold, defaulting when unset.
func (s *Source) PauseThreshold() int {
	if s.AutoPauseThreshold <= 0 {
		return DefaultAutoPauseThreshold
	}
	return s.AutoPauseThreshold
}
