package driving

import (
	"context"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

// ClusterMetrics is the refreshed metric set for one cluster.
type ClusterMetrics struct {
	// Alignment is the cosine similarity against the workspace core.
	Alignment float64

	// Velocity is the fraction of memberships assigned within the window.
	Velocity float64

	// DriftDistance is 1 - cos(current, previous centroid).
	// Nil when either centroid is absent.
	DriftDistance *float64
}

// RecomputeStats summarises a full re-clustering pass.
type RecomputeStats struct {
	// DocumentsAssigned counts documents that received a cluster.
	DocumentsAssigned int

	// ClustersCreated counts clusters created during the pass.
	ClustersCreated int

	// ClustersDeleted counts empty clusters removed by reconciliation.
	ClustersDeleted int
}

// ClusterService manages similarity clusters within workspaces.
type ClusterService interface {
	// AssignDocument places a document in the nearest cluster at or above
	// the threshold, or creates a new cluster seeded with its embedding.
	// Returns nil (no error) for documents without embeddings.
	// Threshold <= 0 uses the configured default.
	AssignDocument(ctx context.Context, documentID string, threshold float64) (*domain.Cluster, error)

	// ReconcileCentroids recomputes every cluster centroid from members
	// and deletes clusters with no members left.
	ReconcileCentroids(ctx context.Context, workspaceID string) error

	// ComputeMetrics refreshes a cluster's centroid (archiving the prior
	// value for drift) and recomputes its cached metrics.
	ComputeMetrics(ctx context.Context, clusterID string) (*ClusterMetrics, error)

	// RecomputeAssignments drops all memberships in the workspace and
	// reassigns every embedded document, then reconciles centroids.
	RecomputeAssignments(ctx context.Context, workspaceID string, threshold float64) (RecomputeStats, error)
}
