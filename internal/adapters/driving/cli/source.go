package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage content sources",
	Long:  `Add, list, remove, and resume content sources within a workspace.`,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add [workspace-id]",
	Short: "Add a source to a workspace",
	Long: `Adds a content source to a workspace.

Provider-specific settings are passed with repeated --set key=value flags:

  canopy source add WS --provider rss --name "Go Blog" --set feed_url=https://go.dev/blog/feed.atom
  canopy source add WS --provider hackernews --name "HN Top" --set listing=topstories
  canopy source add WS --provider subreddit --name "r/golang" --set subreddit=golang`,
	Args: cobra.ExactArgs(1),
	RunE: runSourceAdd,
}

var sourceListCmd = &cobra.Command{
	Use:   "list [workspace-id]",
	Short: "List sources in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceList,
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceRemove,
}

var sourceResumeCmd = &cobra.Command{
	Use:   "resume [source-id]",
	Short: "Resume a paused or errored source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceResume,
}

var sourceLogCmd = &cobra.Command{
	Use:   "log [source-id]",
	Short: "Show recent ingestion runs for a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceLog,
}

// Flags for the add command.
var (
	sourceProvider string
	sourceName     string
	sourceWeight   float64
	sourceSettings []string
)

func init() {
	sourceAddCmd.Flags().StringVarP(&sourceProvider, "provider", "p", "rss", "Provider type (rss, hackernews, subreddit)")
	sourceAddCmd.Flags().StringVarP(&sourceName, "name", "n", "", "Display name for the source")
	sourceAddCmd.Flags().Float64VarP(&sourceWeight, "weight", "w", 1.0, "Scoring weight for documents from this source")
	sourceAddCmd.Flags().StringArrayVar(&sourceSettings, "set", nil, "Provider setting as key=value (repeatable)")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	sourceCmd.AddCommand(sourceResumeCmd)
	sourceCmd.AddCommand(sourceLogCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	if sourceStore == nil || workspaceStore == nil {
		return errors.New("source service not configured")
	}

	ctx := context.Background()
	workspaceID := args[0]

	if _, err := workspaceStore.Get(ctx, workspaceID); err != nil {
		return fmt.Errorf("failed to get workspace: %w", err)
	}

	kind := domain.ProviderKind(sourceProvider)
	if !kind.Valid() {
		return fmt.Errorf("unknown provider type %q (expected rss, hackernews or subreddit)", sourceProvider)
	}

	config := make(map[string]string)
	for _, setting := range sourceSettings {
		key, value, found := strings.Cut(setting, "=")
		if !found {
			return fmt.Errorf("invalid --set value %q (expected key=value)", setting)
		}
		config[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	name := sourceName
	if name == "" {
		name = string(kind)
	}

	source := &domain.Source{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        name,
		Provider:    kind,
		Config:      config,
		Status:      domain.SourceHealthy,
		Weight:      sourceWeight,
	}

	if err := sourceStore.Save(ctx, source); err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("Added %s source %s (%s)\n", source.Provider, source.Name, source.ID)
	return nil
}

func runSourceList(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source service not configured")
	}

	workspaceID := args[0]
	sources, err := sourceStore.ListByWorkspace(context.Background(), workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Printf("No sources configured for workspace %s.\n", workspaceID)
		return nil
	}

	cmd.Println("Configured sources:")
	cmd.Println()
	for i := range sources {
		src := &sources[i]
		cmd.Printf("  %s\n", src.ID)
		cmd.Printf("    Name:     %s\n", src.Name)
		cmd.Printf("    Provider: %s\n", src.Provider)
		cmd.Printf("    Status:   %s\n", src.Status)
		if src.Weight != 1.0 {
			cmd.Printf("    Weight:   %.2f\n", src.Weight)
		}
		if src.LastError != "" {
			cmd.Printf("    Last error: %s\n", src.LastError)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d sources\n", len(sources))
	return nil
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	if sourceStore == nil {
		return errors.New("source service not configured")
	}

	sourceID := args[0]
	if err := sourceStore.Delete(context.Background(), sourceID); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Source %s removed.\n", sourceID)
	return nil
}

func runSourceResume(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	sourceID := args[0]
	if err := ingestService.ResumeSource(context.Background(), sourceID); err != nil {
		return fmt.Errorf("failed to resume source: %w", err)
	}

	cmd.Printf("Source %s resumed.\n", sourceID)
	return nil
}

func runSourceLog(cmd *cobra.Command, args []string) error {
	if store == nil {
		return errors.New("ingestion log store not configured")
	}

	sourceID := args[0]
	logs, err := store.IngestionLogStore().ListBySource(context.Background(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to list ingestion logs: %w", err)
	}

	if len(logs) == 0 {
		cmd.Printf("No ingestion runs recorded for source %s.\n", sourceID)
		return nil
	}

	cmd.Printf("Ingestion runs for source %s:\n\n", sourceID)
	for i := range logs {
		entry := &logs[i]
		cmd.Printf("  %s  %s  found=%d created=%d",
			entry.StartedAt.Format("2006-01-02 15:04:05"),
			entry.Status, entry.DocumentsFound, entry.DocumentsCreated)
		if entry.ErrorMessage != "" {
			cmd.Printf("  error=%s", entry.ErrorMessage)
		}
		cmd.Println()
	}

	return nil
}
