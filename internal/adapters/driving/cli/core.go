package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
)

var coreCmd = &cobra.Command{
	Use:   "core",
	Short: "Manage the workspace interest core",
	Long: `The core is a centroid vector representing what the workspace is
about. It starts from auto-selected seed documents and evolves as you
vote on documents.`,
}

var coreSeedCmd = &cobra.Command{
	Use:   "seed [workspace-id]",
	Short: "Select seed documents for the core",
	Long: `Embeds the workspace name and description and records the most
similar documents as core seeds. Run 'canopy core update' afterwards to
establish the centroid.`,
	Args: cobra.ExactArgs(1),
	RunE: runCoreSeed,
}

var coreUpdateCmd = &cobra.Command{
	Use:   "update [workspace-id]",
	Short: "Recompute the core centroid",
	Long: `Recomputes the core centroid from seeds and feedback, then rescores
every document in the workspace against the new core.`,
	Args: cobra.ExactArgs(1),
	RunE: runCoreUpdate,
}

var coreVoteCmd = &cobra.Command{
	Use:   "vote [workspace-id] [doc-id] [up|down]",
	Short: "Vote on a document's fit to the core",
	Long: `Records feedback on a document. Upvoted documents pull the core
towards them; downvoted documents push it away. The centroid and all
scores are refreshed after the vote.`,
	Args: cobra.ExactArgs(3),
	RunE: runCoreVote,
}

// numSeeds is a flag for the seed command.
var numSeeds int

func init() {
	coreSeedCmd.Flags().IntVarP(&numSeeds, "num", "n", 0, "Number of seeds to select (default 5)")

	coreCmd.AddCommand(coreSeedCmd)
	coreCmd.AddCommand(coreUpdateCmd)
	coreCmd.AddCommand(coreVoteCmd)
	rootCmd.AddCommand(coreCmd)
}

func runCoreSeed(cmd *cobra.Command, args []string) error {
	if coreService == nil {
		return errors.New("core service not configured")
	}

	workspaceID := args[0]
	seeds, err := coreService.Seed(context.Background(), workspaceID, numSeeds)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	if len(seeds) == 0 {
		cmd.Println("No seeds selected: the workspace has no embedded documents yet.")
		return nil
	}

	cmd.Printf("Selected %d seed documents:\n\n", len(seeds))
	for i := range seeds {
		cmd.Printf("  %s  %s\n", seeds[i].ID, seeds[i].Title)
	}
	cmd.Println("\nRun 'canopy core update' to establish the centroid.")
	return nil
}

func runCoreUpdate(cmd *cobra.Command, args []string) error {
	if taskRunner == nil {
		return errors.New("task runner not configured")
	}

	workspaceID := args[0]
	result, err := taskRunner.Run(context.Background(), driving.Task{
		Name:     driving.TaskUpdateCore,
		EntityID: workspaceID,
	})
	if err != nil {
		return fmt.Errorf("core update failed: %w", err)
	}

	if updated, ok := result.Payload["updated"].(bool); ok && !updated {
		cmd.Println("No core signals yet. Seed the workspace or vote on documents first.")
		return nil
	}

	cmd.Printf("Core centroid updated (%v dimensions). Workspace rescored.\n",
		result.Payload["dimensions"])
	return nil
}

func runCoreVote(cmd *cobra.Command, args []string) error {
	if coreService == nil || taskRunner == nil {
		return errors.New("core service not configured")
	}

	ctx := context.Background()
	workspaceID, documentID := args[0], args[1]
	vote := domain.Vote(args[2])
	if !vote.Valid() {
		return fmt.Errorf("invalid vote %q (expected up or down)", args[2])
	}

	if _, err := coreService.AddFeedback(ctx, workspaceID, documentID, vote, ""); err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}

	// The centroid update cascades into a workspace rescore.
	if _, err := taskRunner.Run(ctx, driving.Task{
		Name:     driving.TaskUpdateCore,
		EntityID: workspaceID,
	}); err != nil {
		return fmt.Errorf("core update after vote failed: %w", err)
	}

	cmd.Printf("Recorded %s vote on %s. Core and scores updated.\n", vote, documentID)
	return nil
}
