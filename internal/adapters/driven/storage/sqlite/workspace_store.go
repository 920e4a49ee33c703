package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// workspaceStore implements driven.WorkspaceStore.
type workspaceStore struct {
	store *Store
}

var _ driven.WorkspaceStore = (*workspaceStore)(nil)

// Save stores or updates a workspace.
func (s *workspaceStore) Save(ctx context.Context, ws *domain.Workspace) error {
	now := time.Now().UTC()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	if ws.UpdatedAt.IsZero() {
		ws.UpdatedAt = now
	}

	var centroid []byte
	var centroidUpdated sql.NullTime
	if ws.CoreCentroid != nil {
		centroid = vectorToBlob(ws.CoreCentroid.Vector)
		centroidUpdated = sql.NullTime{Time: ws.CoreCentroid.UpdatedAt, Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, description, owner_id, core_centroid, core_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			owner_id = excluded.owner_id,
			core_centroid = excluded.core_centroid,
			core_updated_at = excluded.core_updated_at,
			updated_at = excluded.updated_at
	`, ws.ID, ws.Name, ws.Description, ws.OwnerID, centroid, centroidUpdated,
		ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving workspace: %w", err)
	}
	return nil
}

// Get retrieves a workspace by ID.
func (s *workspaceStore) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, core_centroid, core_updated_at, created_at, updated_at
		FROM workspaces WHERE id = ?
	`, id)

	ws, err := scanWorkspace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}
	return ws, nil
}

// List returns all workspaces ordered by name.
func (s *workspaceStore) List(ctx context.Context) ([]domain.Workspace, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, description, owner_id, core_centroid, core_updated_at, created_at, updated_at
		FROM workspaces ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []domain.Workspace //nolint:prealloc // size unknown from query
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workspace: %w", err)
		}
		workspaces = append(workspaces, *ws)
	}
	return workspaces, rows.Err()
}

// rowScanner abstracts over sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row rowScanner) (*domain.Workspace, error) {
	var ws domain.Workspace
	var centroid []byte
	var centroidUpdated sql.NullTime
	if err := row.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.OwnerID,
		&centroid, &centroidUpdated, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	if vector := blobToVector(centroid); vector != nil {
		ws.CoreCentroid = &domain.CoreCentroid{Vector: vector}
		if centroidUpdated.Valid {
			ws.CoreCentroid.UpdatedAt = centroidUpdated.Time
		}
	}
	return &ws, nil
}
