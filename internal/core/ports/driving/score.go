package driving

import "context"

// ScoreService computes and persists document scores.
//
// Scoring order matters: alignment and velocity must be persisted before
// relevance, which returns 0 until both exist.
type ScoreService interface {
	// ScoreDocument computes and persists alignment, velocity, novelty
	// and relevance for one document, in dependency order.
	ScoreDocument(ctx context.Context, documentID string) error

	// RescoreWorkspace re-scores every embedded document in a workspace.
	// Triggered after core centroid updates, since alignment depends on
	// the core.
	RescoreWorkspace(ctx context.Context, workspaceID string) error

	// RecomputeNovelty refreshes novelty for every embedded document.
	// Triggered after cluster reassignment, since novelty depends on
	// cluster topology. Relevance is recomputed afterwards as well.
	RecomputeNovelty(ctx context.Context, workspaceID string) error
}
