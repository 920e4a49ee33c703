package driving

import (
	"context"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

// CoreService manages the workspace core centroid.
type CoreService interface {
	// Seed selects the top-N embedded documents most similar to the
	// workspace name+description query embedding and records them as
	// seeds. No-op when the workspace has no query text or no embedded
	// documents.
	Seed(ctx context.Context, workspaceID string, numSeeds int) ([]domain.Document, error)

	// UpdateCentroid recomputes the core centroid from the feedback log
	// and seeds, persists it on the workspace, and returns the vector.
	// Returns nil when no valid weighted embeddings exist.
	UpdateCentroid(ctx context.Context, workspaceID string) ([]float32, error)

	// AddFeedback appends a vote on a document. The document must have an
	// embedding. Centroid recomputation is the caller's responsibility so
	// batched feedback doesn't trigger redundant rebuilds.
	AddFeedback(ctx context.Context, workspaceID, documentID string, vote domain.Vote, userID string) (*domain.CoreFeedback, error)
}
