package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
	"github.com/canopy-labs/canopy/internal/logger"
)

// Ensure ClusterService implements the interface.
var _ driving.ClusterService = (*ClusterService)(nil)

// DefaultClusterThreshold is the minimum cosine similarity for a
// document to join an existing cluster.
const DefaultClusterThreshold = 0.7

// DefaultVelocityWindow is the trailing window for cluster velocity.
const DefaultVelocityWindow = 7 * 24 * time.Hour

// ClusterService manages similarity clusters and their metrics.
type ClusterService struct {
	workspaceStore driven.WorkspaceStore
	docStore       driven.DocumentStore
	clusterStore   driven.ClusterStore
	threshold      float64
	window         time.Duration

	// locks serialises cluster assignment per workspace. Without it,
	// concurrent arrivals of near-identical documents could both decide
	// "no cluster matches" and create two redundant clusters.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewClusterService creates a cluster service with the default threshold
// and velocity window.
func NewClusterService(
	workspaceStore driven.WorkspaceStore,
	docStore driven.DocumentStore,
	clusterStore driven.ClusterStore,
) *ClusterService {
	return &ClusterService{
		workspaceStore: workspaceStore,
		docStore:       docStore,
		clusterStore:   clusterStore,
		threshold:      DefaultClusterThreshold,
		window:         DefaultVelocityWindow,
		locks:          make(map[string]*sync.Mutex),
	}
}

// SetThreshold overrides the default similarity threshold.
func (s *ClusterService) SetThreshold(threshold float64) {
	if threshold > 0 {
		s.threshold = threshold
	}
}

// workspaceLock returns the mutex guarding cluster writes for a workspace.
func (s *ClusterService) workspaceLock(workspaceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[workspaceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[workspaceID] = lock
	}
	return lock
}

// AssignDocument places a document in the nearest cluster at or above
// the threshold, or creates a new cluster seeded with its embedding.
// Documents without embeddings are skipped (nil, nil).
func (s *ClusterService) AssignDocument(ctx context.Context, documentID string, threshold float64) (*domain.Cluster, error) {
	if threshold <= 0 {
		threshold = s.threshold
	}

	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if !doc.HasEmbedding() {
		logger.Debug("Document %s has no embedding, skipping cluster assignment", doc.ID)
		return nil, nil
	}

	// The scan-decide-write sequence must be atomic per workspace.
	lock := s.workspaceLock(doc.WorkspaceID)
	lock.Lock()
	defer lock.Unlock()

	clusters, err := s.clusterStore.ListByWorkspace(ctx, doc.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	var best *domain.Cluster
	bestSimilarity := -1.0
	for i := range clusters {
		if !clusters[i].HasCentroid() {
			continue
		}
		// Strict > keeps the first-encountered cluster on exact ties.
		if sim := domain.CosineSimilarity(doc.Embedding, clusters[i].Centroid); sim > bestSimilarity {
			bestSimilarity = sim
			best = &clusters[i]
		}
	}

	now := time.Now()
	if best != nil && bestSimilarity >= threshold {
		m := domain.ClusterMembership{
			DocumentID: doc.ID,
			ClusterID:  best.ID,
			AssignedAt: now,
		}
		if err := s.clusterStore.AddMembership(ctx, m); err != nil {
			return nil, fmt.Errorf("add membership: %w", err)
		}
		size, err := s.clusterStore.CountMemberships(ctx, best.ID)
		if err != nil {
			return nil, fmt.Errorf("count memberships: %w", err)
		}
		best.Size = size
		best.UpdatedAt = now
		if err := s.clusterStore.Save(ctx, best); err != nil {
			return nil, fmt.Errorf("save cluster: %w", err)
		}
		logger.Debug("Assigned document %s to cluster %s (similarity=%.3f)", doc.ID, best.ID, bestSimilarity)
		return best, nil
	}

	created := &domain.Cluster{
		ID:          uuid.NewString(),
		WorkspaceID: doc.WorkspaceID,
		Centroid:    doc.Embedding,
		Size:        1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.clusterStore.Save(ctx, created); err != nil {
		return nil, fmt.Errorf("create cluster: %w", err)
	}
	m := domain.ClusterMembership{
		DocumentID: doc.ID,
		ClusterID:  created.ID,
		AssignedAt: now,
	}
	if err := s.clusterStore.AddMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("add membership: %w", err)
	}
	logger.Debug("Created cluster %s for document %s", created.ID, doc.ID)
	return created, nil
}

// ComputeCentroid recomputes a cluster centroid from current member
// embeddings. Returns nil when the cluster has no embedded members,
// signalling the caller to delete it.
func (s *ClusterService) ComputeCentroid(ctx context.Context, cluster *domain.Cluster) ([]float32, error) {
	memberships, err := s.clusterStore.ListMemberships(ctx, cluster.ID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.DocumentID)
	}
	docs, err := s.docStore.GetBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	var embeddings [][]float32
	for i := range docs {
		if docs[i].HasEmbedding() {
			embeddings = append(embeddings, docs[i].Embedding)
		}
	}
	return domain.MeanCentroid(embeddings), nil
}

// ReconcileCentroids recomputes every cluster centroid from members and
// deletes clusters with no members. This is the garbage-collection pass
// for orphaned clusters.
func (s *ClusterService) ReconcileCentroids(ctx context.Context, workspaceID string) error {
	clusters, err := s.clusterStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("list clusters: %w", err)
	}

	reconciled := 0
	for i := range clusters {
		cluster := &clusters[i]
		centroid, err := s.ComputeCentroid(ctx, cluster)
		if err != nil {
			return err
		}
		if centroid == nil {
			logger.Debug("Deleting empty cluster %s", cluster.ID)
			if err := s.clusterStore.Delete(ctx, cluster.ID); err != nil {
				return fmt.Errorf("delete cluster: %w", err)
			}
			continue
		}
		size, err := s.clusterStore.CountMemberships(ctx, cluster.ID)
		if err != nil {
			return fmt.Errorf("count memberships: %w", err)
		}
		cluster.Centroid = centroid
		cluster.Size = size
		cluster.UpdatedAt = time.Now()
		if err := s.clusterStore.Save(ctx, cluster); err != nil {
			return fmt.Errorf("save cluster: %w", err)
		}
		reconciled++
	}
	logger.Info("Reconciled %d cluster centroids in workspace %s", reconciled, workspaceID)
	return nil
}

// TrackDrift returns 1 - cos(current, previous centroid), or nil when
// either centroid is absent. Captures how far the cluster topic moved
// since the last metrics pass.
func TrackDrift(cluster *domain.Cluster) *float64 {
	if len(cluster.Centroid) == 0 || len(cluster.PreviousCentroid) == 0 {
		return nil
	}
	drift := 1.0 - domain.CosineSimilarity(cluster.Centroid, cluster.PreviousCentroid)
	return &drift
}

// ComputeMetrics refreshes the cluster centroid (archiving the prior
// value into PreviousCentroid) and recomputes alignment, velocity and
// drift.
func (s *ClusterService) ComputeMetrics(ctx context.Context, clusterID string) (*driving.ClusterMetrics, error) {
	cluster, err := s.clusterStore.Get(ctx, clusterID)
	if err != nil {
		return nil, fmt.Errorf("get cluster: %w", err)
	}
	workspace, err := s.workspaceStore.Get(ctx, cluster.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	centroid, err := s.ComputeCentroid(ctx, cluster)
	if err != nil {
		return nil, err
	}
	if centroid != nil {
		cluster.PreviousCentroid = cluster.Centroid
		cluster.Centroid = centroid
	}

	alignment := 0.0
	if workspace.HasCore() && cluster.HasCentroid() {
		alignment = domain.CosineSimilarity(cluster.Centroid, workspace.CoreCentroid.Vector)
	}

	velocity, err := s.clusterVelocity(ctx, cluster.ID)
	if err != nil {
		return nil, err
	}

	drift := TrackDrift(cluster)

	now := time.Now()
	cluster.Alignment = &alignment
	cluster.Velocity = &velocity
	cluster.DriftDistance = drift
	cluster.MetricsUpdatedAt = &now
	cluster.UpdatedAt = now
	if err := s.clusterStore.Save(ctx, cluster); err != nil {
		return nil, fmt.Errorf("save cluster: %w", err)
	}

	return &driving.ClusterMetrics{
		Alignment:     alignment,
		Velocity:      velocity,
		DriftDistance: drift,
	}, nil
}

// clusterVelocity is the fraction of memberships assigned within the
// trailing window. 0.0 for clusters with no members.
func (s *ClusterService) clusterVelocity(ctx context.Context, clusterID string) (float64, error) {
	total, err := s.clusterStore.CountMemberships(ctx, clusterID)
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	if total == 0 {
		return 0.0, nil
	}
	recent, err := s.clusterStore.CountMembershipsSince(ctx, clusterID, time.Now().Add(-s.window))
	if err != nil {
		return 0, fmt.Errorf("count recent memberships: %w", err)
	}
	v := float64(recent) / float64(total)
	if v > 1.0 {
		v = 1.0
	}
	return v, nil
}

// RecomputeAssignments drops every membership in the workspace and
// reassigns each embedded document, then reconciles centroids. Used
// after bulk changes such as a threshold change.
func (s *ClusterService) RecomputeAssignments(ctx context.Context, workspaceID string, threshold float64) (driving.RecomputeStats, error) {
	var stats driving.RecomputeStats

	before, err := s.clusterStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return stats, fmt.Errorf("list clusters: %w", err)
	}
	if err := s.clusterStore.DeleteMembershipsByWorkspace(ctx, workspaceID); err != nil {
		return stats, fmt.Errorf("drop memberships: %w", err)
	}

	docs, err := s.docStore.ListEmbedded(ctx, workspaceID)
	if err != nil {
		return stats, fmt.Errorf("list embedded documents: %w", err)
	}
	for i := range docs {
		cluster, err := s.AssignDocument(ctx, docs[i].ID, threshold)
		if err != nil {
			return stats, fmt.Errorf("assign document %s: %w", docs[i].ID, err)
		}
		if cluster != nil {
			stats.DocumentsAssigned++
		}
	}

	if err := s.ReconcileCentroids(ctx, workspaceID); err != nil {
		return stats, err
	}

	after, err := s.clusterStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return stats, fmt.Errorf("list clusters: %w", err)
	}

	beforeIDs := make(map[string]bool, len(before))
	for _, c := range before {
		beforeIDs[c.ID] = true
	}
	afterIDs := make(map[string]bool, len(after))
	for _, c := range after {
		afterIDs[c.ID] = true
		if !beforeIDs[c.ID] {
			stats.ClustersCreated++
		}
	}
	for id := range beforeIDs {
		if !afterIDs[id] {
			stats.ClustersDeleted++
		}
	}
	return stats, nil
}
