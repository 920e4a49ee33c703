package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// Ensure CoreStore implements the interface.
var _ driven.CoreStore = (*CoreStore)(nil)

type seedKey struct {
	workspaceID string
	documentID  string
}

// CoreStore is an in-memory implementation of driven.CoreStore.
type CoreStore struct {
	mu       sync.RWMutex
	seeds    map[seedKey]domain.CoreSeed
	feedback []domain.CoreFeedback
}

// NewCoreStore creates a new in-memory core store.
func NewCoreStore() *CoreStore {
	return &CoreStore{seeds: make(map[seedKey]domain.CoreSeed)}
}

// SaveSeed records a seed document, keeping the original on re-seed.
func (s *CoreStore) SaveSeed(_ context.Context, seed domain.CoreSeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seedKey{workspaceID: seed.WorkspaceID, documentID: seed.DocumentID}
	if _, exists := s.seeds[key]; exists {
		return nil
	}
	s.seeds[key] = seed
	return nil
}

// ListSeeds returns all seeds for a workspace.
func (s *CoreStore) ListSeeds(_ context.Context, workspaceID string) ([]domain.CoreSeed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.CoreSeed
	for key, seed := range s.seeds {
		if key.workspaceID == workspaceID {
			result = append(result, seed)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DocumentID < result[j].DocumentID })
	return result, nil
}

// AddFeedback appends a feedback event.
func (s *CoreStore) AddFeedback(_ context.Context, fb *domain.CoreFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, *fb)
	return nil
}

// ListFeedback returns workspace feedback in chronological order.
func (s *CoreStore) ListFeedback(_ context.Context, workspaceID string) ([]domain.CoreFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.CoreFeedback
	for _, fb := range s.feedback {
		if fb.WorkspaceID == workspaceID {
			result = append(result, fb)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// LatestFeedbackForDocument returns the most recent vote on a document.
func (s *CoreStore) LatestFeedbackForDocument(_ context.Context, workspaceID, documentID string) (*domain.CoreFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.CoreFeedback
	for i := range s.feedback {
		fb := s.feedback[i]
		if fb.WorkspaceID != workspaceID || fb.DocumentID != documentID {
			continue
		}
		if latest == nil || !fb.CreatedAt.Before(latest.CreatedAt) {
			latest = &s.feedback[i]
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	result := *latest
	return &result, nil
}
