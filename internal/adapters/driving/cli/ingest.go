package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopy-labs/canopy/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [workspace-id]",
	Short: "Ingest content from workspace sources",
	Long: `Fetches new content from every healthy source in a workspace, then
runs the per-document pipeline: extraction, embedding, cluster
assignment and scoring. Use --source to ingest a single source.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestCleanupCmd = &cobra.Command{
	Use:   "cleanup [workspace-id]",
	Short: "Delete documents older than the retention window",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestCleanup,
}

// Flags.
var (
	ingestSourceID   string
	ingestSkipScores bool
	retentionDays    int
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestSourceID, "source", "s", "", "Ingest only this source")
	ingestCmd.Flags().BoolVar(&ingestSkipScores, "skip-pipeline", false, "Fetch and store only; skip embedding and scoring")
	ingestCleanupCmd.Flags().IntVar(&retentionDays, "days", 0, "Retention window in days (default 90)")

	ingestCmd.AddCommand(ingestCleanupCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if taskRunner == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	workspaceID := args[0]

	if ingestSourceID != "" {
		cmd.Printf("Ingesting source %s...\n", ingestSourceID)
		result, err := taskRunner.Run(ctx, driving.Task{
			Name:     driving.TaskIngestSource,
			EntityID: ingestSourceID,
		})
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		cmd.Printf("Found %v items, created %v documents.\n",
			result.Payload["found"], result.Payload["created"])
	} else {
		cmd.Printf("Ingesting workspace %s...\n", workspaceID)
		result, err := taskRunner.Run(ctx, driving.Task{
			Name:     driving.TaskIngestWorkspace,
			EntityID: workspaceID,
		})
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		cmd.Printf("Sources: %v processed, %v failed. Documents: %v fetched, %v saved.\n",
			result.Payload["sources_processed"], result.Payload["errors"],
			result.Payload["documents_fetched"], result.Payload["documents_saved"])
	}

	if ingestSkipScores {
		return nil
	}

	return runDocumentPipeline(ctx, cmd, workspaceID)
}

// runDocumentPipeline embeds, clusters and scores every document in the
// workspace that has no embedding yet. Per-document failures are
// reported and skipped so one dead link cannot stall the batch.
func runDocumentPipeline(ctx context.Context, cmd *cobra.Command, workspaceID string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	docs, err := docStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	pending := 0
	failed := 0
	for i := range docs {
		if docs[i].HasEmbedding() {
			continue
		}
		pending++

		for _, name := range []driving.TaskName{
			driving.TaskExtractAndEmbed,
			driving.TaskAssignCluster,
			driving.TaskScoreDocument,
		} {
			if _, err := taskRunner.Run(ctx, driving.Task{Name: name, EntityID: docs[i].ID}); err != nil {
				cmd.Printf("  Skipping %s: %v\n", docs[i].ID, err)
				failed++
				break
			}
		}
	}

	if pending == 0 {
		cmd.Println("No new documents to process.")
		return nil
	}

	cmd.Printf("Processed %d documents (%d failed).\n", pending-failed, failed)
	return nil
}

func runIngestCleanup(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	workspaceID := args[0]
	deleted, err := ingestService.CleanupDocuments(context.Background(), workspaceID, retentionDays)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	cmd.Printf("Deleted %d documents.\n", deleted)
	return nil
}
