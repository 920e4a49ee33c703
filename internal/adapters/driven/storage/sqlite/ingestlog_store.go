package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// ingestionLogStore implements driven.IngestionLogStore.
type ingestionLogStore struct {
	store *Store
}

var _ driven.IngestionLogStore = (*ingestionLogStore)(nil)

// Save stores or updates a log entry.
func (s *ingestionLogStore) Save(ctx context.Context, log *domain.IngestionLog) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_logs (id, source_id, started_at, finished_at,
			documents_found, documents_created, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			documents_found = excluded.documents_found,
			documents_created = excluded.documents_created,
			status = excluded.status,
			error_message = excluded.error_message
	`, log.ID, log.SourceID, log.StartedAt, nullTime(log.FinishedAt),
		log.DocumentsFound, log.DocumentsCreated, string(log.Status), log.ErrorMessage)
	if err != nil {
		return fmt.Errorf("saving ingestion log: %w", err)
	}
	return nil
}

// ListBySource returns log entries for a source, newest first.
func (s *ingestionLogStore) ListBySource(ctx context.Context, sourceID string) ([]domain.IngestionLog, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_id, started_at, finished_at,
			documents_found, documents_created, status, error_message
		FROM ingestion_logs WHERE source_id = ? ORDER BY started_at DESC
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying ingestion logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.IngestionLog //nolint:prealloc // size unknown from query
	for rows.Next() {
		var log domain.IngestionLog
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&log.ID, &log.SourceID, &log.StartedAt, &finished,
			&log.DocumentsFound, &log.DocumentsCreated, &status, &log.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning ingestion log: %w", err)
		}
		log.FinishedAt = timePtr(finished)
		log.Status = domain.IngestionStatus(status)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
