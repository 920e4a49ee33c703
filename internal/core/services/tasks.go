package services

import (
	"context"
	"fmt"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
	"github.com/canopy-labs/canopy/internal/logger"
)

// Ensure TaskService implements the interface.
var _ driving.TaskRunner = (*TaskService)(nil)

// TaskService executes the named task surface and makes the cascading
// rescoring dependencies explicit as a directed trigger graph instead of
// side effects buried inside a single function:
//
//	update-workspace-core  -> rescore-workspace
//	recompute-clusters     -> recompute-novelty -> relevance refresh
//
// Per-document pipeline order is extract+embed -> assign-cluster ->
// score-document; a later step observes the persisted result of the
// earlier one.
type TaskService struct {
	ingest   driving.IngestOrchestrator
	pipeline *DocumentPipeline
	clusters driving.ClusterService
	core     driving.CoreService
	scores   driving.ScoreService
}

// NewTaskService creates a task runner over the core services.
func NewTaskService(
	ingest driving.IngestOrchestrator,
	pipeline *DocumentPipeline,
	clusters driving.ClusterService,
	core driving.CoreService,
	scores driving.ScoreService,
) *TaskService {
	return &TaskService{
		ingest:   ingest,
		pipeline: pipeline,
		clusters: clusters,
		core:     core,
		scores:   scores,
	}
}

// Run executes one task synchronously, including downstream tasks the
// trigger graph requires. Tasks are idempotent where possible because
// delivery is at-least-once.
func (s *TaskService) Run(ctx context.Context, task driving.Task) (driving.TaskResult, error) {
	logger.Debug("Running task %s on %s", task.Name, task.EntityID)

	payload, err := s.dispatch(ctx, task)
	if err != nil {
		return driving.TaskResult{Status: driving.TaskFailed, Payload: payload}, err
	}
	return driving.TaskResult{Status: driving.TaskOK, Payload: payload}, nil
}

//nolint:gocyclo // Dispatch table over the closed task set
func (s *TaskService) dispatch(ctx context.Context, task driving.Task) (map[string]any, error) {
	switch task.Name {
	case driving.TaskIngestSource:
		found, created, err := s.ingest.IngestSource(ctx, task.EntityID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"found": found, "created": created}, nil

	case driving.TaskIngestWorkspace:
		stats, err := s.ingest.IngestWorkspace(ctx, task.EntityID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"sources_processed": stats.SourcesProcessed,
			"documents_fetched": stats.DocumentsFetched,
			"documents_saved":   stats.DocumentsSaved,
			"errors":            stats.Errors,
		}, nil

	case driving.TaskExtractAndEmbed:
		if err := s.pipeline.ExtractAndEmbed(ctx, task.EntityID); err != nil {
			return nil, err
		}
		return map[string]any{"document": task.EntityID}, nil

	case driving.TaskAssignCluster:
		cluster, err := s.clusters.AssignDocument(ctx, task.EntityID, 0)
		if err != nil {
			return nil, err
		}
		if cluster == nil {
			return map[string]any{"assigned": false}, nil
		}
		return map[string]any{"assigned": true, "cluster": cluster.ID}, nil

	case driving.TaskScoreDocument:
		if err := s.scores.ScoreDocument(ctx, task.EntityID); err != nil {
			return nil, err
		}
		return map[string]any{"document": task.EntityID}, nil

	case driving.TaskUpdateCore:
		return s.runUpdateCore(ctx, task.EntityID)

	case driving.TaskReconcileCluster:
		if err := s.clusters.ReconcileCentroids(ctx, task.EntityID); err != nil {
			return nil, err
		}
		return map[string]any{"workspace": task.EntityID}, nil

	case driving.TaskClusterMetrics:
		metrics, err := s.clusters.ComputeMetrics(ctx, task.EntityID)
		if err != nil {
			return nil, err
		}
		payload := map[string]any{
			"alignment": metrics.Alignment,
			"velocity":  metrics.Velocity,
		}
		if metrics.DriftDistance != nil {
			payload["drift_distance"] = *metrics.DriftDistance
		}
		return payload, nil

	case driving.TaskRecomputeCluster:
		return s.runRecomputeClusters(ctx, task.EntityID)

	case driving.TaskRescoreWorkspace:
		if err := s.scores.RescoreWorkspace(ctx, task.EntityID); err != nil {
			return nil, err
		}
		return map[string]any{"workspace": task.EntityID}, nil

	case driving.TaskRecomputeNovelty:
		if err := s.scores.RecomputeNovelty(ctx, task.EntityID); err != nil {
			return nil, err
		}
		return map[string]any{"workspace": task.EntityID}, nil

	default:
		return nil, fmt.Errorf("%w: unknown task %q", domain.ErrInvalidInput, task.Name)
	}
}

// runUpdateCore updates the core centroid, then triggers the dependent
// workspace rescore: alignment is measured against the core, so every
// document score is stale after a centroid change.
func (s *TaskService) runUpdateCore(ctx context.Context, workspaceID string) (map[string]any, error) {
	centroid, err := s.core.UpdateCentroid(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if centroid == nil {
		return map[string]any{"updated": false}, nil
	}

	if err := s.scores.RescoreWorkspace(ctx, workspaceID); err != nil {
		return nil, fmt.Errorf("rescore after core update: %w", err)
	}
	return map[string]any{"updated": true, "dimensions": len(centroid)}, nil
}

// runRecomputeClusters reassigns the whole workspace, then triggers the
// novelty recomputation (novelty depends on cluster topology), which in
// turn refreshes relevance.
func (s *TaskService) runRecomputeClusters(ctx context.Context, workspaceID string) (map[string]any, error) {
	stats, err := s.clusters.RecomputeAssignments(ctx, workspaceID, 0)
	if err != nil {
		return nil, err
	}

	if err := s.scores.RecomputeNovelty(ctx, workspaceID); err != nil {
		return nil, fmt.Errorf("recompute novelty after reclustering: %w", err)
	}
	return map[string]any{
		"documents_assigned": stats.DocumentsAssigned,
		"clusters_created":   stats.ClustersCreated,
		"clusters_deleted":   stats.ClustersDeleted,
	}, nil
}

// ProcessDocument runs the full per-document pipeline in order:
// extract+embed, cluster assignment, scoring.
func (s *TaskService) ProcessDocument(ctx context.Context, documentID string) error {
	steps := []driving.Task{
		{Name: driving.TaskExtractAndEmbed, EntityID: documentID},
		{Name: driving.TaskAssignCluster, EntityID: documentID},
		{Name: driving.TaskScoreDocument, EntityID: documentID},
	}
	for _, step := range steps {
		if _, err := s.Run(ctx, step); err != nil {
			return fmt.Errorf("task %s: %w", step.Name, err)
		}
	}
	return nil
}
