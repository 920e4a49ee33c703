package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// coreStore implements driven.CoreStore.
type coreStore struct {
	store *Store
}

var _ driven.CoreStore = (*coreStore)(nil)

// SaveSeed records a seed document. Re-seeding keeps the original record.
func (s *coreStore) SaveSeed(ctx context.Context, seed domain.CoreSeed) error {
	created := seed.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	source := seed.Source
	if source == "" {
		source = domain.SeedAuto
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO core_seeds (workspace_id, document_id, source, created_at)
		VALUES (?, ?, ?, ?)
	`, seed.WorkspaceID, seed.DocumentID, string(source), created)
	if err != nil {
		return fmt.Errorf("saving seed: %w", err)
	}
	return nil
}

// ListSeeds returns all seeds for a workspace.
func (s *coreStore) ListSeeds(ctx context.Context, workspaceID string) ([]domain.CoreSeed, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT workspace_id, document_id, source, created_at
		FROM core_seeds WHERE workspace_id = ? ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("querying seeds: %w", err)
	}
	defer rows.Close()

	var seeds []domain.CoreSeed //nolint:prealloc // size unknown from query
	for rows.Next() {
		var seed domain.CoreSeed
		var source string
		if err := rows.Scan(&seed.WorkspaceID, &seed.DocumentID, &source, &seed.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning seed: %w", err)
		}
		seed.Source = domain.SeedSource(source)
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

// AddFeedback appends a feedback event.
func (s *coreStore) AddFeedback(ctx context.Context, fb *domain.CoreFeedback) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO core_feedback (id, workspace_id, document_id, vote, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fb.ID, fb.WorkspaceID, fb.DocumentID, string(fb.Vote), fb.UserID, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("adding feedback: %w", err)
	}
	return nil
}

// ListFeedback returns workspace feedback in chronological order.
func (s *coreStore) ListFeedback(ctx context.Context, workspaceID string) ([]domain.CoreFeedback, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, workspace_id, document_id, vote, user_id, created_at
		FROM core_feedback WHERE workspace_id = ? ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var feedback []domain.CoreFeedback //nolint:prealloc // size unknown from query
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		feedback = append(feedback, *fb)
	}
	return feedback, rows.Err()
}

// LatestFeedbackForDocument returns the most recent vote on a document.
func (s *coreStore) LatestFeedbackForDocument(ctx context.Context, workspaceID, documentID string) (*domain.CoreFeedback, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, document_id, vote, user_id, created_at
		FROM core_feedback WHERE workspace_id = ? AND document_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, workspaceID, documentID)

	fb, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning feedback: %w", err)
	}
	return fb, nil
}

func scanFeedback(row rowScanner) (*domain.CoreFeedback, error) {
	var fb domain.CoreFeedback
	var vote string
	if err := row.Scan(&fb.ID, &fb.WorkspaceID, &fb.DocumentID, &vote,
		&fb.UserID, &fb.CreatedAt); err != nil {
		return nil, err
	}
	fb.Vote = domain.Vote(vote)
	return &fb, nil
}
