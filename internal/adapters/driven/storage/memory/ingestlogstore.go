package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// Ensure IngestionLogStore implements the interface.
var _ driven.IngestionLogStore = (*IngestionLogStore)(nil)

// IngestionLogStore is an in-memory implementation of
// driven.IngestionLogStore.
type IngestionLogStore struct {
	mu   sync.RWMutex
	logs map[string]domain.IngestionLog
}

// NewIngestionLogStore creates a new in-memory ingestion log store.
func NewIngestionLogStore() *IngestionLogStore {
	return &IngestionLogStore{logs: make(map[string]domain.IngestionLog)}
}

// Save stores or updates a log entry.
func (s *IngestionLogStore) Save(_ context.Context, log *domain.IngestionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ID] = *log
	return nil
}

// ListBySource returns log entries for a source, newest first.
func (s *IngestionLogStore) ListBySource(_ context.Context, sourceID string) ([]domain.IngestionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.IngestionLog
	for _, log := range s.logs {
		if log.SourceID == sourceID {
			result = append(result, log)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}
