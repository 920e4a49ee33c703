package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
	"github.com/canopy-labs/canopy/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestOrchestrator = (*IngestService)(nil)

// hashContentPrefix bounds how much content feeds the dedup hash.
// The truncation groups near-identical republications while staying
// stable against footer/byline differences beyond the prefix.
const hashContentPrefix = 500

// defaultRetentionDays is how long documents are kept by cleanup.
const defaultRetentionDays = 90

// IngestService coordinates fetching, deduplication and persistence.
type IngestService struct {
	workspaceStore driven.WorkspaceStore
	sourceStore    driven.SourceStore
	docStore       driven.DocumentStore
	logStore       driven.IngestionLogStore
	factory        driven.ProviderFactory
}

// NewIngestService creates a new ingestion orchestrator.
func NewIngestService(
	workspaceStore driven.WorkspaceStore,
	sourceStore driven.SourceStore,
	docStore driven.DocumentStore,
	logStore driven.IngestionLogStore,
	factory driven.ProviderFactory,
) *IngestService {
	return &IngestService{
		workspaceStore: workspaceStore,
		sourceStore:    sourceStore,
		docStore:       docStore,
		logStore:       logStore,
		factory:        factory,
	}
}

// ComputeHash returns the deterministic dedup digest for a normalised
// document: sha256 over the trimmed, lowercased title, the URL, and the
// first 500 characters of content.
func ComputeHash(doc domain.NormalizedDoc) string {
	title := strings.ToLower(strings.TrimSpace(doc.Title))
	content := doc.Content
	if runes := []rune(content); len(runes) > hashContentPrefix {
		content = string(runes[:hashContentPrefix])
	}
	sum := sha256.Sum256([]byte(title + doc.URL + content))
	return hex.EncodeToString(sum[:])
}

// PersistDocument stores a normalised document, deduplicating by content
// hash within the workspace. Returns true if a new document was created,
// false if an existing one was reused. Either way the source is linked.
// This is the single dedup gate; all ingestion routes through it.
func (s *IngestService) PersistDocument(ctx context.Context, workspaceID string, source *domain.Source, doc domain.NormalizedDoc) (bool, error) {
	if strings.TrimSpace(doc.URL) == "" {
		return false, fmt.Errorf("%w: document from source %s (external id %q) has no url",
			domain.ErrInvalidInput, source.ID, doc.ExternalID)
	}

	contentHash := ComputeHash(doc)
	now := time.Now()

	existing, err := s.docStore.GetByHash(ctx, workspaceID, contentHash)
	if err == nil {
		link := domain.DocumentSource{
			DocumentID:   existing.ID,
			SourceID:     source.ID,
			DiscoveredAt: now,
		}
		if err := s.docStore.LinkSource(ctx, link); err != nil {
			return false, fmt.Errorf("link source: %w", err)
		}
		return false, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}

	created := &domain.Document{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		ExternalID:  doc.ExternalID,
		Title:       doc.Title,
		URL:         doc.URL,
		Content:     doc.Content,
		ContentHash: contentHash,
		Metadata:    doc.Metadata,
		PublishedAt: doc.PublishedAt,
		IngestedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if created.PublishedAt == nil {
		created.PublishedAt = &now
	}
	if err := s.docStore.Save(ctx, created); err != nil {
		// A concurrent ingestion may have inserted the same hash between
		// the lookup and the insert. Reuse the winner so the gate stays
		// idempotent under at-least-once delivery.
		if winner, lookupErr := s.docStore.GetByHash(ctx, workspaceID, contentHash); lookupErr == nil {
			link := domain.DocumentSource{
				DocumentID:   winner.ID,
				SourceID:     source.ID,
				DiscoveredAt: now,
			}
			if err := s.docStore.LinkSource(ctx, link); err != nil {
				return false, fmt.Errorf("link source: %w", err)
			}
			return false, nil
		}
		return false, fmt.Errorf("save document: %w", err)
	}
	link := domain.DocumentSource{
		DocumentID:   created.ID,
		SourceID:     source.ID,
		DiscoveredAt: now,
	}
	if err := s.docStore.LinkSource(ctx, link); err != nil {
		return false, fmt.Errorf("link source: %w", err)
	}
	return true, nil
}

// MarkSourceError records a fetch failure on the source. The source is
// paused once consecutive failures reach the auto-pause threshold,
// otherwise it moves to the error state. This is the sole state
// transition path for source health on failure.
func (s *IngestService) MarkSourceError(ctx context.Context, source *domain.Source, fetchErr error) error {
	source.LastError = fetchErr.Error()
	source.ConsecutiveFailures++
	if source.ConsecutiveFailures >= source.PauseThreshold() {
		source.Status = domain.SourcePaused
	} else {
		source.Status = domain.SourceError
	}
	source.UpdatedAt = time.Now()
	return s.sourceStore.Save(ctx, source)
}

// IngestSource runs one ingestion pass for a source.
func (s *IngestService) IngestSource(ctx context.Context, sourceID string) (int, int, error) {
	source, err := s.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return 0, 0, fmt.Errorf("get source: %w", err)
	}

	runLog := &domain.IngestionLog{
		ID:        uuid.NewString(),
		SourceID:  source.ID,
		StartedAt: time.Now(),
		Status:    domain.IngestionSuccess,
	}
	if err := s.logStore.Save(ctx, runLog); err != nil {
		return 0, 0, fmt.Errorf("open ingestion log: %w", err)
	}

	found, created, runErr := s.runIngestion(ctx, source, runLog)
	finished := time.Now()
	runLog.FinishedAt = &finished

	if runErr != nil {
		runLog.Status = domain.IngestionError
		runLog.ErrorMessage = runErr.Error()
		if err := s.logStore.Save(ctx, runLog); err != nil {
			logger.Warn("Failed to record ingestion error for source %s: %v", source.ID, err)
		}
		if err := s.MarkSourceError(ctx, source, runErr); err != nil {
			logger.Warn("Failed to degrade source %s health: %v", source.ID, err)
		}
		return found, created, runErr
	}

	if err := s.logStore.Save(ctx, runLog); err != nil {
		logger.Warn("Failed to finalise ingestion log for source %s: %v", source.ID, err)
	}

	// Any successful ingestion restores full health.
	now := time.Now()
	source.LastFetched = now
	source.LastSuccessfulFetch = now
	source.ConsecutiveFailures = 0
	source.LastError = ""
	source.Status = domain.SourceHealthy
	source.UpdatedAt = now
	if err := s.sourceStore.Save(ctx, source); err != nil {
		return found, created, fmt.Errorf("update source health: %w", err)
	}

	logger.Info("Ingested source %s: found=%d created=%d", source.Name, found, created)
	return found, created, nil
}

// runIngestion fetches, normalises and persists; the caller owns log and
// health bookkeeping.
func (s *IngestService) runIngestion(ctx context.Context, source *domain.Source, runLog *domain.IngestionLog) (int, int, error) {
	provider, err := s.factory.Create(ctx, *source)
	if err != nil {
		return 0, 0, fmt.Errorf("create provider: %w", err)
	}

	raws, err := provider.Fetch(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch: %w", err)
	}

	runLog.DocumentsFound = len(raws)
	if err := s.logStore.Save(ctx, runLog); err != nil {
		logger.Warn("Failed to update ingestion log for source %s: %v", source.ID, err)
	}

	created := 0
	for _, raw := range raws {
		normalized, err := provider.Normalize(raw)
		if err != nil {
			// Items a provider flags as invalid (removed posts, dead
			// stories) are skipped; structural failures abort the run.
			if isInvalid(err) {
				logger.Warn("Skipping item from source %s: %v", source.ID, err)
				continue
			}
			return len(raws), created, fmt.Errorf("normalize: %w", err)
		}
		wasCreated, err := s.PersistDocument(ctx, source.WorkspaceID, source, normalized)
		if err != nil {
			// Per-document validation failures skip the document,
			// not the run.
			if isInvalid(err) {
				logger.Warn("Skipping invalid document from source %s: %v", source.ID, err)
				continue
			}
			return len(raws), created, err
		}
		if wasCreated {
			created++
		}
	}

	runLog.DocumentsCreated = created
	return len(raws), created, nil
}

// IngestWorkspace ingests every healthy source in a workspace.
func (s *IngestService) IngestWorkspace(ctx context.Context, workspaceID string) (domain.IngestStats, error) {
	var stats domain.IngestStats

	if _, err := s.workspaceStore.Get(ctx, workspaceID); err != nil {
		return stats, fmt.Errorf("get workspace: %w", err)
	}
	sources, err := s.sourceStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return stats, fmt.Errorf("list sources: %w", err)
	}

	for i := range sources {
		if sources[i].Status != domain.SourceHealthy {
			continue
		}
		found, created, err := s.IngestSource(ctx, sources[i].ID)
		if err != nil {
			logger.Warn("Source %s failed during workspace ingestion: %v", sources[i].ID, err)
			stats.Errors++
			continue
		}
		stats.SourcesProcessed++
		stats.DocumentsFetched += found
		stats.DocumentsSaved += created
	}
	return stats, nil
}

// ResumeSource reactivates a paused or errored source.
func (s *IngestService) ResumeSource(ctx context.Context, sourceID string) error {
	source, err := s.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}
	source.Status = domain.SourceHealthy
	source.ConsecutiveFailures = 0
	source.LastError = ""
	source.UpdatedAt = time.Now()
	return s.sourceStore.Save(ctx, source)
}

// CleanupDocuments removes workspace documents published before the
// retention cutoff.
func (s *IngestService) CleanupDocuments(ctx context.Context, workspaceID string, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := s.docStore.DeletePublishedBefore(ctx, workspaceID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old documents: %w", err)
	}
	logger.Info("Cleaned up %d documents from workspace %s", deleted, workspaceID)
	return deleted, nil
}
