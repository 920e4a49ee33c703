package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save stores or updates a source.
func (s *sourceStore) Save(ctx context.Context, source *domain.Source) error {
	configJSON, err := json.Marshal(source.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	if source.UpdatedAt.IsZero() {
		source.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sources (id, workspace_id, name, provider, config, status, weight,
			consecutive_failures, auto_pause_threshold, last_error,
			last_fetched, last_successful_fetch, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			provider = excluded.provider,
			config = excluded.config,
			status = excluded.status,
			weight = excluded.weight,
			consecutive_failures = excluded.consecutive_failures,
			auto_pause_threshold = excluded.auto_pause_threshold,
			last_error = excluded.last_error,
			last_fetched = excluded.last_fetched,
			last_successful_fetch = excluded.last_successful_fetch,
			updated_at = excluded.updated_at
	`, source.ID, source.WorkspaceID, source.Name, string(source.Provider), string(configJSON),
		string(source.Status), source.EffectiveWeight(),
		source.ConsecutiveFailures, source.PauseThreshold(), source.LastError,
		nullTime(&source.LastFetched), nullTime(&source.LastSuccessfulFetch),
		source.CreatedAt, source.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by ID.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, name, provider, config, status, weight,
			consecutive_failures, auto_pause_threshold, last_error,
			last_fetched, last_successful_fetch, created_at, updated_at
		FROM sources WHERE id = ?
	`, id)

	source, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return source, nil
}

// Delete removes a source.
func (s *sourceStore) Delete(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all sources for a workspace ordered by name.
func (s *sourceStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, workspace_id, name, provider, config, status, weight,
			consecutive_failures, auto_pause_threshold, last_error,
			last_fetched, last_successful_fetch, created_at, updated_at
		FROM sources WHERE workspace_id = ? ORDER BY name
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, *source)
	}
	return sources, rows.Err()
}

func scanSource(row rowScanner) (*domain.Source, error) {
	var source domain.Source
	var provider, status, configJSON string
	var lastFetched, lastSuccessful sql.NullTime
	if err := row.Scan(&source.ID, &source.WorkspaceID, &source.Name, &provider, &configJSON,
		&status, &source.Weight, &source.ConsecutiveFailures, &source.AutoPauseThreshold,
		&source.LastError, &lastFetched, &lastSuccessful,
		&source.CreatedAt, &source.UpdatedAt); err != nil {
		return nil, err
	}
	source.Provider = domain.ProviderKind(provider)
	source.Status = domain.SourceStatus(status)
	if err := json.Unmarshal([]byte(configJSON), &source.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if lastFetched.Valid {
		source.LastFetched = lastFetched.Time
	}
	if lastSuccessful.Valid {
		source.LastSuccessfulFetch = lastSuccessful.Time
	}
	return &source, nil
}
