package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopy-labs/canopy/internal/core/ports/driving"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage similarity clusters",
	Long:  `Inspect and recompute the similarity clusters within a workspace.`,
}

var clusterListCmd = &cobra.Command{
	Use:   "list [workspace-id]",
	Short: "List clusters in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runClusterList,
}

var clusterRecomputeCmd = &cobra.Command{
	Use:   "recompute [workspace-id]",
	Short: "Rebuild all cluster assignments",
	Long: `Drops every membership in the workspace and reassigns all embedded
documents from scratch, then refreshes novelty and relevance scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runClusterRecompute,
}

var clusterReconcileCmd = &cobra.Command{
	Use:   "reconcile [workspace-id]",
	Short: "Recompute cluster centroids from current members",
	Long: `Recomputes every cluster centroid in the workspace from its live
memberships and removes clusters that have lost all members.`,
	Args: cobra.ExactArgs(1),
	RunE: runClusterReconcile,
}

var clusterMetricsCmd = &cobra.Command{
	Use:   "metrics [cluster-id]",
	Short: "Refresh and show metrics for a cluster",
	Args:  cobra.ExactArgs(1),
	RunE:  runClusterMetrics,
}

// clusterThreshold is a flag for the recompute command.
var clusterThreshold float64

func init() {
	clusterRecomputeCmd.Flags().Float64VarP(&clusterThreshold, "threshold", "t", 0, "Similarity threshold (default 0.7)")

	clusterCmd.AddCommand(clusterListCmd)
	clusterCmd.AddCommand(clusterRecomputeCmd)
	clusterCmd.AddCommand(clusterReconcileCmd)
	clusterCmd.AddCommand(clusterMetricsCmd)
	rootCmd.AddCommand(clusterCmd)
}

func runClusterList(cmd *cobra.Command, args []string) error {
	if clusterStore == nil {
		return errors.New("cluster store not configured")
	}

	workspaceID := args[0]
	clusters, err := clusterStore.ListByWorkspace(context.Background(), workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list clusters: %w", err)
	}

	if len(clusters) == 0 {
		cmd.Printf("No clusters in workspace %s.\n", workspaceID)
		return nil
	}

	cmd.Println("Clusters:")
	cmd.Println()
	for i := range clusters {
		c := &clusters[i]
		cmd.Printf("  %s  size=%d", c.ID, c.Size)
		if c.Alignment != nil {
			cmd.Printf("  alignment=%.3f", *c.Alignment)
		}
		if c.Velocity != nil {
			cmd.Printf("  velocity=%.3f", *c.Velocity)
		}
		if c.DriftDistance != nil {
			cmd.Printf("  drift=%.3f", *c.DriftDistance)
		}
		cmd.Println()
	}

	cmd.Printf("\nTotal: %d clusters\n", len(clusters))
	return nil
}

func runClusterRecompute(cmd *cobra.Command, args []string) error {
	if taskRunner == nil || clusterService == nil {
		return errors.New("cluster service not configured")
	}

	ctx := context.Background()
	workspaceID := args[0]

	if clusterThreshold > 0 {
		// Direct call so the one-off threshold applies; the task path
		// always uses the configured default.
		stats, err := clusterService.RecomputeAssignments(ctx, workspaceID, clusterThreshold)
		if err != nil {
			return fmt.Errorf("recompute failed: %w", err)
		}
		if err := scoreService.RecomputeNovelty(ctx, workspaceID); err != nil {
			return fmt.Errorf("novelty refresh failed: %w", err)
		}
		cmd.Printf("Assigned %d documents (%d clusters created, %d deleted).\n",
			stats.DocumentsAssigned, stats.ClustersCreated, stats.ClustersDeleted)
		return nil
	}

	cmd.Printf("Recomputing clusters for workspace %s...\n", workspaceID)
	result, err := taskRunner.Run(ctx, driving.Task{
		Name:     driving.TaskRecomputeCluster,
		EntityID: workspaceID,
	})
	if err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}

	cmd.Printf("Assigned %v documents (%v clusters created, %v deleted). Novelty refreshed.\n",
		result.Payload["documents_assigned"],
		result.Payload["clusters_created"],
		result.Payload["clusters_deleted"])
	return nil
}

func runClusterReconcile(cmd *cobra.Command, args []string) error {
	if taskRunner == nil {
		return errors.New("cluster service not configured")
	}

	workspaceID := args[0]
	_, err := taskRunner.Run(context.Background(), driving.Task{
		Name:     driving.TaskReconcileCluster,
		EntityID: workspaceID,
	})
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	cmd.Printf("Cluster centroids reconciled for workspace %s.\n", workspaceID)
	return nil
}

func runClusterMetrics(cmd *cobra.Command, args []string) error {
	if clusterService == nil {
		return errors.New("cluster service not configured")
	}

	clusterID := args[0]
	metrics, err := clusterService.ComputeMetrics(context.Background(), clusterID)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	cmd.Printf("Cluster %s:\n\n", clusterID)
	cmd.Printf("  Alignment: %.3f\n", metrics.Alignment)
	cmd.Printf("  Velocity:  %.3f\n", metrics.Velocity)
	if metrics.DriftDistance != nil {
		cmd.Printf("  Drift:     %.3f\n", *metrics.DriftDistance)
	} else {
		cmd.Println("  Drift:     (no previous centroid)")
	}
	return nil
}
