package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
	"github.com/canopy-labs/canopy/internal/logger"
)

// Ensure CoreService implements the interface.
var _ driving.CoreService = (*CoreService)(nil)

// DefaultNumSeeds is how many documents auto-seeding selects.
const DefaultNumSeeds = 5

// CoreService evolves the workspace core centroid from seeds and feedback.
type CoreService struct {
	workspaceStore driven.WorkspaceStore
	docStore       driven.DocumentStore
	coreStore      driven.CoreStore
	embedder       driven.EmbeddingService
}

// NewCoreService creates a new workspace core service.
func NewCoreService(
	workspaceStore driven.WorkspaceStore,
	docStore driven.DocumentStore,
	coreStore driven.CoreStore,
	embedder driven.EmbeddingService,
) *CoreService {
	return &CoreService{
		workspaceStore: workspaceStore,
		docStore:       docStore,
		coreStore:      coreStore,
		embedder:       embedder,
	}
}

// Seed embeds the workspace name+description and records the top-N most
// similar embedded documents as auto seeds. Idempotent: re-seeding an
// already-seeded pair keeps the original record.
func (s *CoreService) Seed(ctx context.Context, workspaceID string, numSeeds int) ([]domain.Document, error) {
	if numSeeds <= 0 {
		numSeeds = DefaultNumSeeds
	}

	workspace, err := s.workspaceStore.Get(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	queryText := strings.TrimSpace(workspace.Name + " " + workspace.Description)
	if queryText == "" {
		logger.Warn("Workspace %s has no name/description for seeding", workspace.ID)
		return nil, nil
	}

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	queryEmbedding, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := s.docStore.ListEmbedded(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list embedded documents: %w", err)
	}
	if len(docs) == 0 {
		logger.Info("No embedded documents in workspace %s, nothing to seed", workspace.ID)
		return nil, nil
	}

	type scored struct {
		doc        domain.Document
		similarity float64
	}
	ranked := make([]scored, 0, len(docs))
	for i := range docs {
		ranked = append(ranked, scored{
			doc:        docs[i],
			similarity: domain.CosineSimilarity(queryEmbedding, docs[i].Embedding),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	if numSeeds > len(ranked) {
		numSeeds = len(ranked)
	}
	selected := make([]domain.Document, 0, numSeeds)
	now := time.Now()
	for _, r := range ranked[:numSeeds] {
		seed := domain.CoreSeed{
			WorkspaceID: workspaceID,
			DocumentID:  r.doc.ID,
			Source:      domain.SeedAuto,
			CreatedAt:   now,
		}
		if err := s.coreStore.SaveSeed(ctx, seed); err != nil {
			return nil, fmt.Errorf("save seed: %w", err)
		}
		selected = append(selected, r.doc)
	}

	logger.Info("Seeded %d documents for workspace %s", len(selected), workspace.ID)
	return selected, nil
}

// UpdateCentroid recomputes the core centroid from the feedback log and
// seeds, persists it on the workspace, and returns the vector.
//
// Weighting: the most recent vote per document wins (up +1.0,
// down -0.5); unvoted seed documents contribute +1.0. A single
// negative-weight embedding yields no centroid; a lone downvote cannot
// define a core. Workspaces with only downvotes get no centroid rather
// than a suppressing one.
func (s *CoreService) UpdateCentroid(ctx context.Context, workspaceID string) ([]float32, error) {
	workspace, err := s.workspaceStore.Get(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	feedback, err := s.coreStore.ListFeedback(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	// Chronological overwrite: the latest vote per document wins.
	weights := make(map[string]float64)
	for _, fb := range feedback {
		if fb.Vote == domain.VoteUp {
			weights[fb.DocumentID] = domain.UpvoteWeight
		} else {
			weights[fb.DocumentID] = domain.DownvoteWeight
		}
	}

	seeds, err := s.coreStore.ListSeeds(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	for _, seed := range seeds {
		if _, voted := weights[seed.DocumentID]; !voted {
			weights[seed.DocumentID] = domain.SeedWeight
		}
	}

	ids := make([]string, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs, err := s.docStore.GetBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load weighted documents: %w", err)
	}
	byID := make(map[string]*domain.Document, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}

	var vectors [][]float32
	var vectorWeights []float64
	for _, id := range ids {
		doc, ok := byID[id]
		if !ok || !doc.HasEmbedding() {
			continue
		}
		vectors = append(vectors, doc.Embedding)
		vectorWeights = append(vectorWeights, weights[id])
	}

	if len(vectors) == 0 {
		logger.Warn("No valid embeddings for workspace %s core centroid", workspaceID)
		return nil, nil
	}
	if len(vectors) == 1 && vectorWeights[0] < 0 {
		return nil, nil
	}

	centroid := domain.WeightedCentroid(vectors, vectorWeights)
	if centroid == nil {
		return nil, nil
	}

	now := time.Now()
	workspace.CoreCentroid = &domain.CoreCentroid{
		Vector:    centroid,
		UpdatedAt: now,
	}
	workspace.UpdatedAt = now
	if err := s.workspaceStore.Save(ctx, workspace); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}

	logger.Info("Updated core centroid for workspace %s (from %d documents)", workspaceID, len(vectors))
	return centroid, nil
}

// AddFeedback appends a vote on a document. The document must have an
// embedding; feedback requires a comparable vector. Centroid
// recomputation is left to the caller so batched feedback doesn't
// trigger redundant rebuilds.
func (s *CoreService) AddFeedback(ctx context.Context, workspaceID, documentID string, vote domain.Vote, userID string) (*domain.CoreFeedback, error) {
	if !vote.Valid() {
		return nil, fmt.Errorf("%w: vote %q must be %q or %q", domain.ErrInvalidInput, vote, domain.VoteUp, domain.VoteDown)
	}

	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("%w: document %s is not in workspace %s", domain.ErrInvalidInput, documentID, workspaceID)
	}
	if !doc.HasEmbedding() {
		return nil, fmt.Errorf("%w: document %s must be embedded before feedback", domain.ErrMissingEmbedding, documentID)
	}

	fb := &domain.CoreFeedback{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		DocumentID:  documentID,
		Vote:        vote,
		UserID:      userID,
		CreatedAt:   time.Now(),
	}
	if err := s.coreStore.AddFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("add feedback: %w", err)
	}

	logger.Info("Recorded %s feedback for document %s in workspace %s", vote, documentID, workspaceID)
	return fb, nil
}
