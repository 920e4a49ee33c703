package driving

import "context"

// TaskName identifies a unit of work on the task surface.
type TaskName string

// Named operations consumed by the orchestration layer. Each takes an
// entity ID and has no side effects beyond its named scope.
const (
	TaskIngestSource     TaskName = "ingest-source"
	TaskIngestWorkspace  TaskName = "ingest-workspace"
	TaskExtractAndEmbed  TaskName = "extract-and-embed-document"
	TaskAssignCluster    TaskName = "assign-cluster"
	TaskScoreDocument    TaskName = "score-document"
	TaskUpdateCore       TaskName = "update-workspace-core"
	TaskReconcileCluster TaskName = "reconcile-clusters"
	TaskClusterMetrics   TaskName = "update-cluster-metrics"
	TaskRecomputeCluster TaskName = "recompute-clusters"
	TaskRescoreWorkspace TaskName = "rescore-workspace"
	TaskRecomputeNovelty TaskName = "recompute-novelty"
)

// TaskStatus is the outcome of a task run.
type TaskStatus string

const (
	// TaskOK means the task completed.
	TaskOK TaskStatus = "ok"
	// TaskFailed means the task returned an error.
	TaskFailed TaskStatus = "failed"
)

// Task is one unit of work: a named operation applied to an entity.
type Task struct {
	// Name identifies the operation.
	Name TaskName

	// EntityID is the ID of the workspace, source, document or cluster
	// the task operates on.
	EntityID string
}

// TaskResult carries the outcome and a result payload.
type TaskResult struct {
	// Status is ok or failed.
	Status TaskStatus

	// Payload holds operation-specific result counts and values.
	Payload map[string]any
}

// TaskRunner executes named tasks and follows the trigger graph:
// a core-centroid update triggers a workspace rescore, and a cluster
// recompute triggers novelty recomputation followed by a relevance
// refresh. Tasks are idempotent where possible because queue semantics
// offer at-least-once delivery.
type TaskRunner interface {
	// Run executes one task synchronously, including any downstream
	// tasks the trigger graph requires.
	Run(ctx context.Context, task Task) (TaskResult, error)
}
