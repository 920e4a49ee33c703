package driven

import (
	"context"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

// WorkspaceStore persists workspaces, including the core centroid.
type WorkspaceStore interface {
	// Save stores or updates a workspace.
	Save(ctx context.Context, ws *domain.Workspace) error

	// Get retrieves a workspace by ID.
	Get(ctx context.Context, id string) (*domain.Workspace, error)

	// List returns all workspaces.
	List(ctx context.Context) ([]domain.Workspace, error)
}

// SourceStore persists source configurations and health state.
type SourceStore interface {
	// Save stores or updates a source.
	Save(ctx context.Context, source *domain.Source) error

	// Get retrieves a source by ID.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// Delete removes a source.
	Delete(ctx context.Context, id string) error

	// ListByWorkspace returns all sources for a workspace.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Source, error)
}

// DocumentStore persists documents and their source links.
type DocumentStore interface {
	// Save stores or updates a document.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByHash retrieves the document with the given content hash in a
	// workspace. Returns domain.ErrNotFound when no match exists.
	// This lookup is the deduplication gate.
	GetByHash(ctx context.Context, workspaceID, contentHash string) (*domain.Document, error)

	// GetBatch retrieves documents by ID in one call.
	// Missing IDs are silently omitted from the result.
	GetBatch(ctx context.Context, ids []string) ([]domain.Document, error)

	// ListByWorkspace returns all documents in a workspace.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Document, error)

	// ListEmbedded returns the workspace documents that have embeddings.
	ListEmbedded(ctx context.Context, workspaceID string) ([]domain.Document, error)

	// LinkSource records that a document was discovered via a source.
	// Idempotent: linking the same pair twice is not an error.
	LinkSource(ctx context.Context, link domain.DocumentSource) error

	// ListSourceLinks returns the source links for a document.
	ListSourceLinks(ctx context.Context, documentID string) ([]domain.DocumentSource, error)

	// DeletePublishedBefore removes workspace documents published before
	// the cutoff, returning how many were deleted.
	DeletePublishedBefore(ctx context.Context, workspaceID string, cutoff time.Time) (int, error)
}

// ClusterStore persists clusters and memberships.
type ClusterStore interface {
	// Save stores or updates a cluster.
	Save(ctx context.Context, cluster *domain.Cluster) error

	// Get retrieves a cluster by ID.
	Get(ctx context.Context, id string) (*domain.Cluster, error)

	// Delete removes a cluster and its memberships.
	Delete(ctx context.Context, id string) error

	// ListByWorkspace returns all clusters in a workspace.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Cluster, error)

	// AddMembership links a document to a cluster.
	// Idempotent: adding the same pair twice is not an error.
	AddMembership(ctx context.Context, m domain.ClusterMembership) error

	// ListMemberships returns all memberships of a cluster.
	ListMemberships(ctx context.Context, clusterID string) ([]domain.ClusterMembership, error)

	// CountMemberships returns the live membership count of a cluster.
	CountMemberships(ctx context.Context, clusterID string) (int, error)

	// CountMembershipsSince returns how many memberships were assigned at
	// or after the given time.
	CountMembershipsSince(ctx context.Context, clusterID string, since time.Time) (int, error)

	// MembershipForDocument returns the document's current membership.
	// Returns domain.ErrNotFound for unclustered documents.
	MembershipForDocument(ctx context.Context, documentID string) (*domain.ClusterMembership, error)

	// DeleteMembershipsByWorkspace drops every membership in a workspace.
	// Used by full re-clustering passes.
	DeleteMembershipsByWorkspace(ctx context.Context, workspaceID string) error
}

// CoreStore persists workspace core seeds and the feedback log.
type CoreStore interface {
	// SaveSeed records a seed document.
	// Idempotent: re-seeding the same pair keeps the original record.
	SaveSeed(ctx context.Context, seed domain.CoreSeed) error

	// ListSeeds returns all seeds for a workspace.
	ListSeeds(ctx context.Context, workspaceID string) ([]domain.CoreSeed, error)

	// AddFeedback appends a feedback event. The log is append-only.
	AddFeedback(ctx context.Context, fb *domain.CoreFeedback) error

	// ListFeedback returns workspace feedback in chronological order.
	ListFeedback(ctx context.Context, workspaceID string) ([]domain.CoreFeedback, error)

	// LatestFeedbackForDocument returns the most recent vote on a document.
	// Returns domain.ErrNotFound when the document has never been voted on.
	LatestFeedbackForDocument(ctx context.Context, workspaceID, documentID string) (*domain.CoreFeedback, error)
}

// IngestionLogStore persists the ingestion audit trail.
type IngestionLogStore interface {
	// Save stores or updates a log entry. Updates only touch the entry's
	// own run; history is never rewritten.
	Save(ctx context.Context, log *domain.IngestionLog) error

	// ListBySource returns log entries for a source, newest first.
	ListBySource(ctx context.Context, sourceID string) ([]domain.IngestionLog, error)
}
