package domain

import "time"

// Workspace represents a named research domain.
// It owns sources, documents and clusters, and carries the core centroid
// that scoring measures documents against.
type Workspace struct {
	// ID is the unique identifier for the workspace.
	ID string

	// Name is the human-readable workspace name.
	Name string

	// Description explains what the workspace is about.
	// Together with Name it forms the query text for core seeding.
	Description string

	// OwnerID identifies the user who created the workspace.
	OwnerID string

	// CoreCentroid is the feedback- and seed-weighted reference vector.
	// Nil until the first successful core centroid update.
	CoreCentroid *CoreCentroid

	// CreatedAt is when the workspace was created.
	CreatedAt time.Time

	// UpdatedAt is when the workspace was last updated.
	UpdatedAt time.Time
}

// CoreCentroid is the workspace's reference vector with its update timestamp.
type CoreCentroid struct {
	// Vector is the weighted mean of seed and feedback document embeddings.
	Vector []float32

	// UpdatedAt is when the centroid was last recomputed.
	UpdatedAt time.Time
}

// HasCore reports whether the workspace has a usable core centroid.
func (w *Workspace) HasCore() bool {
	return w.CoreCentroid != nil && len(w.CoreCentroid.Vector) > 0
}
