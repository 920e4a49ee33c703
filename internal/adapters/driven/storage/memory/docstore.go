package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

type linkKey struct {
	documentID string
	sourceID   string
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	links     map[linkKey]domain.DocumentSource
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		links:     make(map[linkKey]domain.DocumentSource),
	}
}

// Save stores or updates a document.
func (s *DocumentStore) Save(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetByHash retrieves the document with the given content hash in a
// workspace.
func (s *DocumentStore) GetByHash(_ context.Context, workspaceID, contentHash string) (*domain.Document, error) {
	if contentHash == "" {
		return nil, domain.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents {
		if doc.WorkspaceID == workspaceID && doc.ContentHash == contentHash {
			d := doc
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetBatch retrieves documents by ID, omitting missing ones.
func (s *DocumentStore) GetBatch(_ context.Context, ids []string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			result = append(result, doc)
		}
	}
	return result, nil
}

// ListByWorkspace returns all documents in a workspace, newest first.
func (s *DocumentStore) ListByWorkspace(_ context.Context, workspaceID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for _, doc := range s.documents {
		if doc.WorkspaceID == workspaceID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].IngestedAt.After(result[j].IngestedAt)
	})
	return result, nil
}

// ListEmbedded returns the workspace documents that have embeddings.
func (s *DocumentStore) ListEmbedded(ctx context.Context, workspaceID string) ([]domain.Document, error) {
	docs, err := s.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	result := docs[:0]
	for _, doc := range docs {
		if doc.HasEmbedding() {
			result = append(result, doc)
		}
	}
	return result, nil
}

// LinkSource records a document-source link, idempotently.
func (s *DocumentStore) LinkSource(_ context.Context, link domain.DocumentSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := linkKey{documentID: link.DocumentID, sourceID: link.SourceID}
	if _, exists := s.links[key]; exists {
		return nil
	}
	s.links[key] = link
	return nil
}

// ListSourceLinks returns the source links for a document.
func (s *DocumentStore) ListSourceLinks(_ context.Context, documentID string) ([]domain.DocumentSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.DocumentSource
	for key, link := range s.links {
		if key.documentID == documentID {
			result = append(result, link)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SourceID < result[j].SourceID })
	return result, nil
}

// DeletePublishedBefore removes workspace documents published before the
// cutoff.
func (s *DocumentStore) DeletePublishedBefore(_ context.Context, workspaceID string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, doc := range s.documents {
		if doc.WorkspaceID != workspaceID || doc.PublishedAt == nil {
			continue
		}
		if doc.PublishedAt.Before(cutoff) {
			delete(s.documents, id)
			for key := range s.links {
				if key.documentID == id {
					delete(s.links, key)
				}
			}
			deleted++
		}
	}
	return deleted, nil
}
