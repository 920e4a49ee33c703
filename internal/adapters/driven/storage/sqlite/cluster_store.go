package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// clusterStore implements driven.ClusterStore.
type clusterStore struct {
	store *Store
}

var _ driven.ClusterStore = (*clusterStore)(nil)

const clusterColumns = `id, workspace_id, centroid, previous_centroid, size,
	alignment, velocity, drift_distance, metrics_updated_at, created_at, updated_at`

// Save stores or updates a cluster.
func (s *clusterStore) Save(ctx context.Context, cluster *domain.Cluster) error {
	now := time.Now().UTC()
	if cluster.CreatedAt.IsZero() {
		cluster.CreatedAt = now
	}
	cluster.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO clusters (`+clusterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			centroid = excluded.centroid,
			previous_centroid = excluded.previous_centroid,
			size = excluded.size,
			alignment = excluded.alignment,
			velocity = excluded.velocity,
			drift_distance = excluded.drift_distance,
			metrics_updated_at = excluded.metrics_updated_at,
			updated_at = excluded.updated_at
	`, cluster.ID, cluster.WorkspaceID,
		vectorToBlob(cluster.Centroid), vectorToBlob(cluster.PreviousCentroid),
		cluster.Size, nullFloat(cluster.Alignment), nullFloat(cluster.Velocity),
		nullFloat(cluster.DriftDistance), nullTime(cluster.MetricsUpdatedAt),
		cluster.CreatedAt, cluster.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving cluster: %w", err)
	}
	return nil
}

// Get retrieves a cluster by ID.
func (s *clusterStore) Get(ctx context.Context, id string) (*domain.Cluster, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+clusterColumns+" FROM clusters WHERE id = ?", id)

	cluster, err := scanCluster(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cluster: %w", err)
	}
	return cluster, nil
}

// Delete removes a cluster. Memberships cascade.
func (s *clusterStore) Delete(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM clusters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting cluster: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting cluster: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all clusters in a workspace, oldest first.
// Creation order makes nearest-cluster tie-breaks deterministic.
func (s *clusterStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Cluster, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+clusterColumns+" FROM clusters WHERE workspace_id = ? ORDER BY created_at ASC, id ASC",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("querying clusters: %w", err)
	}
	defer rows.Close()

	var clusters []domain.Cluster //nolint:prealloc // size unknown from query
	for rows.Next() {
		cluster, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cluster: %w", err)
		}
		clusters = append(clusters, *cluster)
	}
	return clusters, rows.Err()
}

// AddMembership links a document to a cluster.
func (s *clusterStore) AddMembership(ctx context.Context, m domain.ClusterMembership) error {
	assigned := m.AssignedAt
	if assigned.IsZero() {
		assigned = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO cluster_memberships (document_id, cluster_id, assigned_at)
		VALUES (?, ?, ?)
	`, m.DocumentID, m.ClusterID, assigned)
	if err != nil {
		return fmt.Errorf("adding membership: %w", err)
	}
	return nil
}

// ListMemberships returns all memberships of a cluster.
func (s *clusterStore) ListMemberships(ctx context.Context, clusterID string) ([]domain.ClusterMembership, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, cluster_id, assigned_at
		FROM cluster_memberships WHERE cluster_id = ? ORDER BY assigned_at
	`, clusterID)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	var memberships []domain.ClusterMembership //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.ClusterMembership
		if err := rows.Scan(&m.DocumentID, &m.ClusterID, &m.AssignedAt); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// CountMemberships returns the live membership count of a cluster.
func (s *clusterStore) CountMemberships(ctx context.Context, clusterID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cluster_memberships WHERE cluster_id = ?", clusterID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting memberships: %w", err)
	}
	return count, nil
}

// CountMembershipsSince returns how many memberships were assigned at or
// after the given time.
func (s *clusterStore) CountMembershipsSince(ctx context.Context, clusterID string, since time.Time) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cluster_memberships WHERE cluster_id = ? AND assigned_at >= ?",
		clusterID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recent memberships: %w", err)
	}
	return count, nil
}

// MembershipForDocument returns the document's current membership.
func (s *clusterStore) MembershipForDocument(ctx context.Context, documentID string) (*domain.ClusterMembership, error) {
	var m domain.ClusterMembership
	err := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, cluster_id, assigned_at
		FROM cluster_memberships WHERE document_id = ?
		ORDER BY assigned_at DESC LIMIT 1
	`, documentID).Scan(&m.DocumentID, &m.ClusterID, &m.AssignedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	return &m, nil
}

// DeleteMembershipsByWorkspace drops every membership in a workspace.
func (s *clusterStore) DeleteMembershipsByWorkspace(ctx context.Context, workspaceID string) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM cluster_memberships WHERE cluster_id IN (
			SELECT id FROM clusters WHERE workspace_id = ?
		)
	`, workspaceID)
	if err != nil {
		return fmt.Errorf("deleting workspace memberships: %w", err)
	}
	return nil
}

func scanCluster(row rowScanner) (*domain.Cluster, error) {
	var cluster domain.Cluster
	var centroid, previous []byte
	var alignment, velocity, drift sql.NullFloat64
	var metricsUpdated sql.NullTime
	if err := row.Scan(&cluster.ID, &cluster.WorkspaceID, &centroid, &previous,
		&cluster.Size, &alignment, &velocity, &drift, &metricsUpdated,
		&cluster.CreatedAt, &cluster.UpdatedAt); err != nil {
		return nil, err
	}
	cluster.Centroid = blobToVector(centroid)
	cluster.PreviousCentroid = blobToVector(previous)
	cluster.Alignment = floatPtr(alignment)
	cluster.Velocity = floatPtr(velocity)
	cluster.DriftDistance = floatPtr(drift)
	cluster.MetricsUpdatedAt = timePtr(metricsUpdated)
	return &cluster, nil
}
