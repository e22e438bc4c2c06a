package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	runsRepo  string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent documentation runs for a repository.",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := handleRootCommand(cmd, false)
		if err != nil {
			return err
		}
		defer deps.Store.Close()

		runs, err := deps.Store.ListRuns(context.Background(), runsRepo, runsLimit)
		if err != nil {
			return err
		}

		rows := pterm.TableData{{"Run", "Commit", "State", "Mode", "Calls", "Cost", "Started"}}
		for _, run := range runs {
			rows = append(rows, []string{
				run.ID.String(),
				run.CommitRef,
				run.Status,
				run.Mode,
				pterm.Sprintf("%d", run.Calls),
				pterm.Sprintf("$%.4f", run.Cost),
				run.StartedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsRepo, "repo", "", "Repository identifier to list runs for.")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to show.")
	_ = runsCmd.MarkFlagRequired("repo")

	rootCmd.AddCommand(runsCmd)
}
