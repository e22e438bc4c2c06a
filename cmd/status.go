package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/repodoc/constants/lipgloss"
)

var (
	statusRepo   string
	statusCommit string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the newest documentation run for a repository and commit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := handleRootCommand(cmd, false)
		if err != nil {
			return err
		}
		defer deps.Store.Close()

		status, err := deps.Orchestrator.Status(context.Background(), statusRepo, statusCommit)
		if err != nil {
			return err
		}
		run := status.Run

		fmt.Println(lipgloss.Cyan.Render(fmt.Sprintf("%s @ %s", statusRepo, statusCommit)))
		fmt.Printf("state: %s", run.Status)
		if run.Mode != "" {
			fmt.Printf(" (%s)", run.Mode)
		}
		if status.Active {
			fmt.Print(" [active]")
		}
		fmt.Println()
		if run.Error != "" {
			fmt.Println(lipgloss.Red.Render("error: " + run.Error))
		}
		if run.Calls > 0 {
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf(
				"calls: %d, tokens in/out: %d/%d, cost: $%.4f",
				run.Calls, run.InputTokens, run.OutputTokens, run.Cost)))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusRepo, "repo", "", "Repository identifier.")
	statusCmd.Flags().StringVar(&statusCommit, "commit", "", "Commit identifier the run documents.")
	_ = statusCmd.MarkFlagRequired("repo")
	_ = statusCmd.MarkFlagRequired("commit")

	rootCmd.AddCommand(statusCmd)
}
