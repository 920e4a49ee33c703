package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// Ensure ClusterStore implements the interface.
var _ driven.ClusterStore = (*ClusterStore)(nil)

type membershipKey struct {
	documentID string
	clusterID  string
}

// ClusterStore is an in-memory implementation of driven.ClusterStore.
type ClusterStore struct {
	mu          sync.RWMutex
	clusters    map[string]domain.Cluster
	memberships map[membershipKey]domain.ClusterMembership
}

// NewClusterStore creates a new in-memory cluster store.
func NewClusterStore() *ClusterStore {
	return &ClusterStore{
		clusters:    make(map[string]domain.Cluster),
		memberships: make(map[membershipKey]domain.ClusterMembership),
	}
}

// Save stores or updates a cluster.
func (s *ClusterStore) Save(_ context.Context, cluster *domain.Cluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters[cluster.ID] = *cluster
	return nil
}

// Get retrieves a cluster by ID.
func (s *ClusterStore) Get(_ context.Context, id string) (*domain.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cluster, ok := s.clusters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cluster, nil
}

// Delete removes a cluster and its memberships.
func (s *ClusterStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clusters[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.clusters, id)
	for key := range s.memberships {
		if key.clusterID == id {
			delete(s.memberships, key)
		}
	}
	return nil
}

// ListByWorkspace returns all clusters in a workspace, oldest first so
// assignment scans encounter clusters in creation order.
func (s *ClusterStore) ListByWorkspace(_ context.Context, workspaceID string) ([]domain.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Cluster
	for _, cluster := range s.clusters {
		if cluster.WorkspaceID == workspaceID {
			result = append(result, cluster)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// AddMembership links a document to a cluster, idempotently.
func (s *ClusterStore) AddMembership(_ context.Context, m domain.ClusterMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{documentID: m.DocumentID, clusterID: m.ClusterID}
	if _, exists := s.memberships[key]; exists {
		return nil
	}
	s.memberships[key] = m
	return nil
}

// ListMemberships returns all memberships of a cluster.
func (s *ClusterStore) ListMemberships(_ context.Context, clusterID string) ([]domain.ClusterMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ClusterMembership
	for key, m := range s.memberships {
		if key.clusterID == clusterID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DocumentID < result[j].DocumentID })
	return result, nil
}

// CountMemberships returns the live membership count of a cluster.
func (s *ClusterStore) CountMemberships(_ context.Context, clusterID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key := range s.memberships {
		if key.clusterID == clusterID {
			count++
		}
	}
	return count, nil
}

// CountMembershipsSince counts memberships assigned at or after since.
func (s *ClusterStore) CountMembershipsSince(_ context.Context, clusterID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key, m := range s.memberships {
		if key.clusterID == clusterID && !m.AssignedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// MembershipForDocument returns the document's current membership.
func (s *ClusterStore) MembershipForDocument(_ context.Context, documentID string) (*domain.ClusterMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, m := range s.memberships {
		if key.documentID == documentID {
			membership := m
			return &membership, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteMembershipsByWorkspace drops every membership in a workspace.
func (s *ClusterStore) DeleteMembershipsByWorkspace(_ context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.memberships {
		cluster, ok := s.clusters[key.clusterID]
		if ok && cluster.WorkspaceID == workspaceID {
			delete(s.memberships, key)
		}
	}
	return nil
}
