package domain

import "time"

// SeedSource records how a seed document was selected.
type SeedSource string

const (
	// SeedAuto marks seeds selected by similarity to the workspace query.
	SeedAuto SeedSource = "auto"
	// SeedManual marks seeds chosen explicitly by a user.
	SeedManual SeedSource = "manual"
)

// CoreSeed marks a document as a seed contributor to the core centroid.
type CoreSeed struct {
	// WorkspaceID links to the Workspace being seeded.
	WorkspaceID string

	// DocumentID links to the seed Document.
	DocumentID string

	// Source records seed provenance (auto vs manual).
	Source SeedSource

	// CreatedAt is when the seed was recorded.
	CreatedAt time.Time
}

// Vote is a user's judgement of a document's fit to the workspace core.
type Vote string

const (
	// VoteUp marks a document as core-relevant.
	VoteUp Vote = "up"
	// VoteDown marks a document as off-core.
	VoteDown Vote = "down"
)

// Valid reports whether v is a recognised vote value.
func (v Vote) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Centroid weights per vote. Downvotes pull with negative weight rather
// than simply being ignored, so sign cancellation is possible.
const (
	UpvoteWeight   = 1.0
	DownvoteWeight = -0.5
	SeedWeight     = 1.0
)

// CoreFeedback is one vote on a document's relevance to the workspace core.
// The log is append-only; when computing centroid weight, the most recent
// vote per document wins, so users can change their mind.
type CoreFeedback struct {
	// ID is the unique identifier for the feedback event.
	ID string

	// WorkspaceID links to the Workspace.
	WorkspaceID string

	// DocumentID links to the voted Document.
	DocumentID string

	// Vote is "up" or "down".
	Vote Vote

	// UserID identifies the voter, if known.
	UserID string

	// CreatedAt is when the vote was cast.
	CreatedAt time.Time
}
