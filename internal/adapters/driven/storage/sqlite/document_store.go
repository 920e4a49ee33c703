package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, workspace_id, external_id, title, url, content, content_hash,
	metadata, embedding, alignment, velocity, novelty, relevance,
	scored_at, published_at, ingested_at, created_at, updated_at`

// Save stores or updates a document.
func (s *documentStore) Save(ctx context.Context, doc *domain.Document) error {
	metadataJSON := jsonNull
	if doc.Metadata != nil {
		data, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		metadataJSON = string(data)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			external_id = excluded.external_id,
			title = excluded.title,
			url = excluded.url,
			content = excluded.content,
			content_hash = excluded.content_hash,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			alignment = excluded.alignment,
			velocity = excluded.velocity,
			novelty = excluded.novelty,
			relevance = excluded.relevance,
			scored_at = excluded.scored_at,
			published_at = excluded.published_at,
			ingested_at = excluded.ingested_at,
			updated_at = excluded.updated_at
	`, doc.ID, doc.WorkspaceID, doc.ExternalID, doc.Title, doc.URL, doc.Content,
		doc.ContentHash, metadataJSON, vectorToBlob(doc.Embedding),
		nullFloat(doc.Alignment), nullFloat(doc.Velocity),
		nullFloat(doc.Novelty), nullFloat(doc.Relevance),
		nullTime(doc.ScoredAt), nullTime(doc.PublishedAt),
		doc.IngestedAt, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return s.scanOne(row)
}

// GetByHash retrieves the document with the given content hash in a workspace.
func (s *documentStore) GetByHash(ctx context.Context, workspaceID, contentHash string) (*domain.Document, error) {
	// Empty hashes are exempt from uniqueness and never match.
	if contentHash == "" {
		return nil, domain.ErrNotFound
	}
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE workspace_id = ? AND content_hash = ?",
		workspaceID, contentHash)
	return s.scanOne(row)
}

// GetBatch retrieves documents by ID in one call. Missing IDs are omitted.
func (s *documentStore) GetBatch(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "SELECT " + documentColumns + " FROM documents WHERE id IN (" +
		strings.Join(placeholders, ", ") + ")"
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// ListByWorkspace returns all documents in a workspace, newest first.
func (s *documentStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE workspace_id = ? ORDER BY ingested_at DESC",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// ListEmbedded returns the workspace documents that have embeddings.
func (s *documentStore) ListEmbedded(ctx context.Context, workspaceID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE workspace_id = ? AND embedding IS NOT NULL ORDER BY ingested_at DESC",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("querying embedded documents: %w", err)
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// LinkSource records that a document was discovered via a source.
func (s *documentStore) LinkSource(ctx context.Context, link domain.DocumentSource) error {
	discovered := link.DiscoveredAt
	if discovered.IsZero() {
		discovered = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO document_sources (document_id, source_id, discovered_at)
		VALUES (?, ?, ?)
	`, link.DocumentID, link.SourceID, discovered)
	if err != nil {
		return fmt.Errorf("linking document source: %w", err)
	}
	return nil
}

// ListSourceLinks returns the source links for a document.
func (s *documentStore) ListSourceLinks(ctx context.Context, documentID string) ([]domain.DocumentSource, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, source_id, discovered_at
		FROM document_sources WHERE document_id = ? ORDER BY discovered_at
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying document sources: %w", err)
	}
	defer rows.Close()

	var links []domain.DocumentSource //nolint:prealloc // size unknown from query
	for rows.Next() {
		var link domain.DocumentSource
		if err := rows.Scan(&link.DocumentID, &link.SourceID, &link.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scanning document source: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// DeletePublishedBefore removes workspace documents published before the cutoff.
func (s *documentStore) DeletePublishedBefore(ctx context.Context, workspaceID string, cutoff time.Time) (int, error) {
	result, err := s.store.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE workspace_id = ? AND published_at IS NOT NULL AND published_at < ?
	`, workspaceID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting documents: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting documents: %w", err)
	}
	return int(affected), nil
}

func (s *documentStore) scanOne(row rowScanner) (*domain.Document, error) {
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

func (s *documentStore) scanAll(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON string
	var embedding []byte
	var alignment, velocity, novelty, relevance sql.NullFloat64
	var scoredAt, publishedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.WorkspaceID, &doc.ExternalID, &doc.Title,
		&doc.URL, &doc.Content, &doc.ContentHash, &metadataJSON, &embedding,
		&alignment, &velocity, &novelty, &relevance,
		&scoredAt, &publishedAt, &doc.IngestedAt,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	doc.Embedding = blobToVector(embedding)
	doc.Alignment = floatPtr(alignment)
	doc.Velocity = floatPtr(velocity)
	doc.Novelty = floatPtr(novelty)
	doc.Relevance = floatPtr(relevance)
	doc.ScoredAt = timePtr(scoredAt)
	doc.PublishedAt = timePtr(publishedAt)
	return &doc, nil
}
