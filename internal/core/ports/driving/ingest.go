package driving

import (
	"context"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

// IngestOrchestrator coordinates document ingestion from sources.
type IngestOrchestrator interface {
	// IngestSource runs one ingestion pass for a source, returning how
	// many items the provider produced and how many new documents were
	// created after deduplication. Failures degrade the source's health
	// and are returned to the caller.
	IngestSource(ctx context.Context, sourceID string) (found, created int, err error)

	// IngestWorkspace ingests every healthy source in a workspace.
	// A single source's failure is counted, never aborts the batch.
	IngestWorkspace(ctx context.Context, workspaceID string) (domain.IngestStats, error)

	// ResumeSource reactivates a paused or errored source.
	ResumeSource(ctx context.Context, sourceID string) error

	// CleanupDocuments removes workspace documents published before the
	// retention cutoff, returning how many were deleted.
	CleanupDocuments(ctx context.Context, workspaceID string, retentionDays int) (int, error)
}
