package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/canopy-labs/canopy/internal/core/domain"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage research workspaces",
	Long:  `Create, list, and inspect research workspaces.`,
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceCreate,
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces",
	RunE:  runWorkspaceList,
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show [workspace-id]",
	Short: "Show workspace info",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceShow,
}

// workspaceDescription is a flag for the create command.
var workspaceDescription string

func init() {
	workspaceCreateCmd.Flags().StringVarP(&workspaceDescription, "description", "d", "", "What the workspace is about")

	workspaceCmd.AddCommand(workspaceCreateCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceShowCmd)
	rootCmd.AddCommand(workspaceCmd)
}

func runWorkspaceCreate(cmd *cobra.Command, args []string) error {
	if workspaceStore == nil {
		return errors.New("workspace store not configured")
	}

	ws := &domain.Workspace{
		ID:          uuid.New().String(),
		Name:        args[0],
		Description: workspaceDescription,
	}

	if err := workspaceStore.Save(context.Background(), ws); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	cmd.Printf("Created workspace %s (%s)\n", ws.Name, ws.ID)
	return nil
}

func runWorkspaceList(cmd *cobra.Command, _ []string) error {
	if workspaceStore == nil {
		return errors.New("workspace store not configured")
	}

	workspaces, err := workspaceStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}

	if len(workspaces) == 0 {
		cmd.Println("No workspaces configured. Create one with 'canopy workspace create'.")
		return nil
	}

	cmd.Println("Workspaces:")
	cmd.Println()
	for i := range workspaces {
		cmd.Printf("  %s\n", workspaces[i].ID)
		cmd.Printf("    Name: %s\n", workspaces[i].Name)
		if workspaces[i].Description != "" {
			cmd.Printf("    Description: %s\n", workspaces[i].Description)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d workspaces\n", len(workspaces))
	return nil
}

func runWorkspaceShow(cmd *cobra.Command, args []string) error {
	if workspaceStore == nil {
		return errors.New("workspace store not configured")
	}

	ctx := context.Background()
	ws, err := workspaceStore.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get workspace: %w", err)
	}

	cmd.Printf("Workspace: %s\n\n", ws.ID)
	cmd.Printf("  Name:        %s\n", ws.Name)
	cmd.Printf("  Description: %s\n", ws.Description)
	cmd.Printf("  Created:     %s\n", ws.CreatedAt.Format("2006-01-02 15:04:05"))

	if ws.HasCore() {
		cmd.Printf("  Core:        %d dimensions, updated %s\n",
			len(ws.CoreCentroid.Vector),
			ws.CoreCentroid.UpdatedAt.Format("2006-01-02 15:04:05"))
	} else {
		cmd.Println("  Core:        not established (run 'canopy core seed' then 'canopy core update')")
	}

	if sourceStore != nil {
		sources, err := sourceStore.ListByWorkspace(ctx, ws.ID)
		if err == nil {
			cmd.Printf("  Sources:     %d\n", len(sources))
		}
	}

	return nil
}
