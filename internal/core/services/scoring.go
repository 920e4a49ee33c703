package services

import (
	"context"
	"fmt"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
	"github.com/canopy-labs/canopy/internal/logger"
)

// Ensure ScoreService implements the interface.
var _ driving.ScoreService = (*ScoreService)(nil)

// RelevanceWeights tunes the relevance combination. The defaults favour
// alignment heavily; they are parameters of the public contract, not
// hardcoded constants.
type RelevanceWeights struct {
	// Alignment weights the normalised core-alignment component.
	Alignment float64

	// Velocity weights the recency component.
	Velocity float64

	// Bias weights the feedback-and-source-weight component.
	Bias float64
}

// DefaultRelevanceWeights returns the standard 0.70/0.20/0.10 split.
func DefaultRelevanceWeights() RelevanceWeights {
	return RelevanceWeights{Alignment: 0.70, Velocity: 0.20, Bias: 0.10}
}

// DefaultScoreWindowDays is the trailing window for document velocity.
const DefaultScoreWindowDays = 7

// neutralFeedbackBias applies when a document has never been voted on.
const neutralFeedbackBias = 0.5

// ScoreService computes and persists the four document scores.
// All score computations are pure reads of current state; only the
// scored document itself is mutated.
type ScoreService struct {
	workspaceStore driven.WorkspaceStore
	sourceStore    driven.SourceStore
	docStore       driven.DocumentStore
	clusterStore   driven.ClusterStore
	coreStore      driven.CoreStore
	weights        RelevanceWeights
	windowDays     int
}

// NewScoreService creates a score service with default weights and window.
func NewScoreService(
	workspaceStore driven.WorkspaceStore,
	sourceStore driven.SourceStore,
	docStore driven.DocumentStore,
	clusterStore driven.ClusterStore,
	coreStore driven.CoreStore,
) *ScoreService {
	return &ScoreService{
		workspaceStore: workspaceStore,
		sourceStore:    sourceStore,
		docStore:       docStore,
		clusterStore:   clusterStore,
		coreStore:      coreStore,
		weights:        DefaultRelevanceWeights(),
		windowDays:     DefaultScoreWindowDays,
	}
}

// SetWeights overrides the relevance weights.
func (s *ScoreService) SetWeights(w RelevanceWeights) {
	s.weights = w
}

// SetWindowDays overrides the velocity window.
func (s *ScoreService) SetWindowDays(days int) {
	if days > 0 {
		s.windowDays = days
	}
}

// Alignment is the cosine similarity between the document embedding and
// the workspace core centroid. 0.0 when either is absent: a missing
// embedding or core is an expected partial-pipeline state, not an error.
func Alignment(doc *domain.Document, workspace *domain.Workspace) float64 {
	if !doc.HasEmbedding() || !workspace.HasCore() {
		return 0.0
	}
	return domain.CosineSimilarity(doc.Embedding, workspace.CoreCentroid.Vector)
}

// Velocity is a linear recency decay over the window: 1.0 for a document
// published now, 0.0 at or beyond windowDays. Uses PublishedAt with an
// IngestedAt fallback; 0.0 without any timestamp.
func Velocity(doc *domain.Document, now time.Time, windowDays int) float64 {
	if windowDays <= 0 {
		windowDays = DefaultScoreWindowDays
	}
	ts, ok := doc.RecencyTimestamp()
	if !ok {
		return 0.0
	}
	ageDays := now.Sub(ts).Hours() / 24
	if ageDays >= float64(windowDays) {
		return 0.0
	}
	v := 1.0 - ageDays/float64(windowDays)
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}

// NormalizeAlignment maps cosine range [-1, 1] to [0, 1].
func NormalizeAlignment(alignment float64) float64 {
	n := (alignment + 1.0) / 2.0
	if n < 0 {
		return 0.0
	}
	if n > 1 {
		return 1.0
	}
	return n
}

// Novelty is the inverse similarity to the nearest cluster other than
// the document's own: 1 - max(0, similarity). Excluding the document's
// own cluster matters: without it a fresh singleton cluster would
// trivially score novelty near zero against itself. 1.0 when the
// workspace has no other clusters; 0.0 for unembedded documents.
func (s *ScoreService) Novelty(ctx context.Context, doc *domain.Document) (float64, error) {
	if !doc.HasEmbedding() {
		return 0.0, nil
	}

	ownClusterID := ""
	membership, err := s.clusterStore.MembershipForDocument(ctx, doc.ID)
	if err != nil && !isNotFound(err) {
		return 0, fmt.Errorf("get membership: %w", err)
	}
	if membership != nil {
		ownClusterID = membership.ClusterID
	}

	clusters, err := s.clusterStore.ListByWorkspace(ctx, doc.WorkspaceID)
	if err != nil {
		return 0, fmt.Errorf("list clusters: %w", err)
	}

	bestSimilarity := -1.0
	found := false
	for i := range clusters {
		if clusters[i].ID == ownClusterID || !clusters[i].HasCentroid() {
			continue
		}
		found = true
		if sim := domain.CosineSimilarity(doc.Embedding, clusters[i].Centroid); sim > bestSimilarity {
			bestSimilarity = sim
		}
	}
	if !found {
		return 1.0, nil
	}
	if bestSimilarity < 0 {
		bestSimilarity = 0
	}
	return 1.0 - bestSimilarity, nil
}

// Relevance combines the persisted alignment and velocity with a
// feedback/source-weight bias. Returns 0.0 until alignment and velocity
// have been computed and persisted, which enforces the scoring-order
// dependency. The result is clamped to [0, 1].
func (s *ScoreService) Relevance(ctx context.Context, doc *domain.Document) (float64, error) {
	if doc.Alignment == nil || doc.Velocity == nil {
		logger.Debug("Document %s missing alignment or velocity, relevance is 0", doc.ID)
		return 0.0, nil
	}

	bias, err := s.bias(ctx, doc)
	if err != nil {
		return 0, err
	}

	relevance := s.weights.Alignment*NormalizeAlignment(*doc.Alignment) +
		s.weights.Velocity**doc.Velocity +
		s.weights.Bias*bias
	if relevance < 0 {
		return 0.0, nil
	}
	if relevance > 1 {
		return 1.0, nil
	}
	return relevance, nil
}

// bias is feedbackBias x averageSourceWeight. Feedback bias is 1.0 for
// a latest upvote, 0.0 for a downvote, 0.5 with no votes. The source
// weight is the mean of the linked sources' tunable weights.
func (s *ScoreService) bias(ctx context.Context, doc *domain.Document) (float64, error) {
	feedbackBias := neutralFeedbackBias
	latest, err := s.coreStore.LatestFeedbackForDocument(ctx, doc.WorkspaceID, doc.ID)
	if err != nil && !isNotFound(err) {
		return 0, fmt.Errorf("latest feedback: %w", err)
	}
	if latest != nil {
		if latest.Vote == domain.VoteUp {
			feedbackBias = 1.0
		} else {
			feedbackBias = 0.0
		}
	}

	sourceWeight, err := s.averageSourceWeight(ctx, doc.ID)
	if err != nil {
		return 0, err
	}
	return feedbackBias * sourceWeight, nil
}

// averageSourceWeight is the mean weight of the document's linked
// sources, 1.0 when it has none.
func (s *ScoreService) averageSourceWeight(ctx context.Context, documentID string) (float64, error) {
	links, err := s.docStore.ListSourceLinks(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("list source links: %w", err)
	}
	if len(links) == 0 {
		return 1.0, nil
	}

	total := 0.0
	counted := 0
	for _, link := range links {
		source, err := s.sourceStore.Get(ctx, link.SourceID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return 0, fmt.Errorf("get source: %w", err)
		}
		total += source.EffectiveWeight()
		counted++
	}
	if counted == 0 {
		return 1.0, nil
	}
	return total / float64(counted), nil
}

// ScoreDocument computes and persists alignment, velocity, novelty and
// relevance in dependency order.
func (s *ScoreService) ScoreDocument(ctx context.Context, documentID string) error {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	workspace, err := s.workspaceStore.Get(ctx, doc.WorkspaceID)
	if err != nil {
		return fmt.Errorf("get workspace: %w", err)
	}

	now := time.Now()

	alignment := Alignment(doc, workspace)
	velocity := Velocity(doc, now, s.windowDays)
	novelty, err := s.Novelty(ctx, doc)
	if err != nil {
		return err
	}

	doc.Alignment = &alignment
	doc.Velocity = &velocity
	doc.Novelty = &novelty

	// Relevance reads the alignment and velocity set above; they are
	// persisted together in one save.
	relevance, err := s.Relevance(ctx, doc)
	if err != nil {
		return err
	}
	doc.Relevance = &relevance
	doc.ScoredAt = &now
	doc.UpdatedAt = now

	if err := s.docStore.Save(ctx, doc); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}

// RescoreWorkspace re-scores every embedded document in a workspace.
func (s *ScoreService) RescoreWorkspace(ctx context.Context, workspaceID string) error {
	docs, err := s.docStore.ListEmbedded(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("list embedded documents: %w", err)
	}
	for i := range docs {
		if err := s.ScoreDocument(ctx, docs[i].ID); err != nil {
			return fmt.Errorf("score document %s: %w", docs[i].ID, err)
		}
	}
	logger.Info("Rescored %d documents in workspace %s", len(docs), workspaceID)
	return nil
}

// RecomputeNovelty refreshes novelty for every embedded document, then
// refreshes relevance as well since downstream weighting may consume it.
func (s *ScoreService) RecomputeNovelty(ctx context.Context, workspaceID string) error {
	docs, err := s.docStore.ListEmbedded(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("list embedded documents: %w", err)
	}
	now := time.Now()
	for i := range docs {
		doc := &docs[i]
		novelty, err := s.Novelty(ctx, doc)
		if err != nil {
			return err
		}
		doc.Novelty = &novelty

		relevance, err := s.Relevance(ctx, doc)
		if err != nil {
			return err
		}
		doc.Relevance = &relevance
		doc.ScoredAt = &now
		doc.UpdatedAt = now
		if err := s.docStore.Save(ctx, doc); err != nil {
			return fmt.Errorf("save scores: %w", err)
		}
	}
	logger.Info("Recomputed novelty for %d documents in workspace %s", len(docs), workspaceID)
	return nil
}
