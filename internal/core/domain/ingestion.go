package domain

import "time"

// IngestionStatus is the outcome of an ingestion run.
type IngestionStatus string

const (
	// IngestionSuccess means the run completed without an unhandled error.
	IngestionSuccess IngestionStatus = "success"
	// IngestionError means the run aborted with an error.
	IngestionError IngestionStatus = "error"
)

// IngestionLog is the immutable audit record of one ingestion run of a source.
type IngestionLog struct {
	// ID is the unique identifier for the log entry.
	ID string

	// SourceID links to the ingested Source.
	SourceID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended. Nil while in flight.
	FinishedAt *time.Time

	// DocumentsFound is how many raw items the provider returned.
	DocumentsFound int

	// DocumentsCreated is how many new documents survived deduplication.
	DocumentsCreated int

	// Status is the run outcome.
	Status IngestionStatus

	// ErrorMessage holds the full error text of a failed run.
	ErrorMessage string
}

// IngestStats accumulates results across a workspace-level ingestion batch.
type IngestStats struct {
	// SourcesProcessed counts sources that completed without error.
	SourcesProcessed int

	// DocumentsFetched counts raw items across all sources.
	DocumentsFetched int

	// DocumentsSaved counts newly created documents after deduplication.
	DocumentsSaved int

	// Errors counts sources whose ingestion failed.
	Errors int
}
