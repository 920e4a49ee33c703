package domain

import "time"

// Cluster is a similarity group of documents within a workspace.
// A cluster is created when no existing centroid is within the similarity
// threshold of a new document's embedding, and deleted by reconciliation
// once its last member is removed.
type Cluster struct {
	// ID is the unique identifier for the cluster.
	ID string

	// WorkspaceID links to the owning Workspace.
	WorkspaceID string

	// Centroid is the mean of member embeddings.
	Centroid []float32

	// PreviousCentroid is the centroid archived by the last metrics pass,
	// used to measure drift. Nil before the second pass.
	PreviousCentroid []float32

	// Size is the current membership count.
	Size int

	// Alignment is the cosine similarity between Centroid and the
	// workspace core centroid. Nil until a metrics pass runs.
	Alignment *float64

	// Velocity is the fraction of memberships assigned within the
	// trailing window. Nil until a metrics pass runs.
	Velocity *float64

	// DriftDistance is 1 - cos(Centroid, PreviousCentroid).
	// Nil until both centroids exist.
	DriftDistance *float64

	// MetricsUpdatedAt is when cached metrics were last refreshed.
	MetricsUpdatedAt *time.Time

	// CreatedAt is when the cluster was created.
	CreatedAt time.Time

	// UpdatedAt is when the cluster was last updated.
	UpdatedAt time.Time
}

// HasCentroid reports whether the cluster has a usable centroid.
func (c *Cluster) HasCentroid() bool {
	return len(c.Centroid) > 0
}

// ClusterMembership links a document to a cluster it belongs to.
// Unique per (document, cluster) pair.
type ClusterMembership struct {
	// DocumentID links to the member Document.
	DocumentID string

	// ClusterID links to the Cluster.
	ClusterID string

	// AssignedAt is when the membership was created.
	AssignedAt time.Time
}
