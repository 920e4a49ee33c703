package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect ingested documents",
}

var documentListCmd = &cobra.Command{
	Use:   "list [workspace-id]",
	Short: "List documents ranked by relevance",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info and scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentRescoreCmd = &cobra.Command{
	Use:   "rescore [workspace-id]",
	Short: "Recompute scores for every document in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRescore,
}

// documentLimit is a flag for the list command.
var documentLimit int

func init() {
	documentListCmd.Flags().IntVarP(&documentLimit, "limit", "l", 20, "Maximum documents to show")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentRescoreCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	workspaceID := args[0]
	docs, err := docStore.ListByWorkspace(context.Background(), workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in workspace %s. Run 'canopy ingest' first.\n", workspaceID)
		return nil
	}

	// Scored documents first, by descending relevance; unscored trail
	// in ingestion order.
	sort.SliceStable(docs, func(i, j int) bool {
		ri, rj := docs[i].Relevance, docs[j].Relevance
		switch {
		case ri != nil && rj != nil:
			return *ri > *rj
		case ri != nil:
			return true
		default:
			return false
		}
	})

	shown := len(docs)
	if documentLimit > 0 && shown > documentLimit {
		shown = documentLimit
	}

	cmd.Printf("Documents in workspace %s:\n\n", workspaceID)
	for i := 0; i < shown; i++ {
		doc := &docs[i]
		if doc.Relevance != nil {
			cmd.Printf("  %.3f  %s  %s\n", *doc.Relevance, doc.ID, doc.Title)
		} else {
			cmd.Printf("  -      %s  %s\n", doc.ID, doc.Title)
		}
	}

	cmd.Printf("\nShowing %d of %d documents\n", shown, len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	ctx := context.Background()
	doc, err := docStore.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.Title)
	cmd.Printf("  URL:       %s\n", doc.URL)
	if doc.PublishedAt != nil {
		cmd.Printf("  Published: %s\n", doc.PublishedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("  Ingested:  %s\n", doc.IngestedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Embedded:  %v\n", doc.HasEmbedding())

	cmd.Println("\n  Scores:")
	printScore(cmd, "Alignment", doc.Alignment)
	printScore(cmd, "Velocity", doc.Velocity)
	printScore(cmd, "Novelty", doc.Novelty)
	printScore(cmd, "Relevance", doc.Relevance)

	if clusterStore != nil {
		if m, err := clusterStore.MembershipForDocument(ctx, doc.ID); err == nil {
			cmd.Printf("\n  Cluster:   %s\n", m.ClusterID)
		} else if errors.Is(err, domain.ErrNotFound) {
			cmd.Println("\n  Cluster:   (unassigned)")
		}
	}

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}

	return nil
}

func printScore(cmd *cobra.Command, name string, value *float64) {
	if value != nil {
		cmd.Printf("    %-10s %.3f\n", name+":", *value)
	} else {
		cmd.Printf("    %-10s (not scored)\n", name+":")
	}
}

func runDocumentRescore(cmd *cobra.Command, args []string) error {
	if taskRunner == nil {
		return errors.New("score service not configured")
	}

	workspaceID := args[0]
	cmd.Printf("Rescoring workspace %s...\n", workspaceID)

	if _, err := taskRunner.Run(context.Background(), driving.Task{
		Name:     driving.TaskRescoreWorkspace,
		EntityID: workspaceID,
	}); err != nil {
		return fmt.Errorf("rescore failed: %w", err)
	}

	cmd.Println("Workspace rescored.")
	return nil
}
