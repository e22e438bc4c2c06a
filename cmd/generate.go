package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/repodoc/constants/lipgloss"
	"github.com/meysamhadeli/repodoc/utils"
	"github.com/meysamhadeli/repodoc/workflow"
)

var (
	generateRepo     string
	generateCommit   string
	generatePath     string
	generateTestMode bool
	generatePreview  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the documentation pipeline for a repository at a commit.",
	Long: `Analyzes the repository at the given path, decides between a full and an
incremental documentation build, summarizes changed source files and
persists the synthesized document. Unchanged files reuse their stored
summaries, so repeated runs only pay for what actually changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := handleRootCommand(cmd, generateTestMode)
		if err != nil {
			return err
		}
		defer deps.Store.Close()
		return handleGenerateCommand(deps)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateRepo, "repo", "", "Repository identifier (e.g., 'acme/payments').")
	generateCmd.Flags().StringVar(&generateCommit, "commit", "", "Commit identifier this run documents.")
	generateCmd.Flags().StringVar(&generatePath, "path", ".", "Path to the repository working tree.")
	generateCmd.Flags().BoolVar(&generateTestMode, "test-mode", false, "Use deterministic mock parsing and generation; no external calls.")
	generateCmd.Flags().BoolVar(&generatePreview, "preview", false, "Render the generated document to the terminal.")
	_ = generateCmd.MarkFlagRequired("repo")
	_ = generateCmd.MarkFlagRequired("commit")

	rootCmd.AddCommand(generateCmd)
}

func handleGenerateCommand(deps *RootDependencies) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	running, _ := spinner.Start(fmt.Sprintf("Documenting %s at %s...", generateRepo, generateCommit))

	report, err := deps.Orchestrator.Run(ctx, workflow.Trigger{
		RepositoryID: generateRepo,
		CommitRef:    generateCommit,
		RootDir:      generatePath,
	})
	running.Stop()
	fmt.Print("\r")

	if err != nil {
		if errors.Is(err, workflow.ErrRunActive) {
			fmt.Println(lipgloss.Yellow.Render("A run is already active for this repository and commit; try again once it finishes."))
			return nil
		}
		return err
	}

	printReport(report)

	if generatePreview {
		doc, docErr := deps.Store.LatestDocument(ctx, generateRepo)
		if docErr != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("No document to preview: %v", docErr)))
			return nil
		}
		fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("%s  (template %s)", doc.Title, doc.TemplateVersion)))
		rendered, renderErr := utils.RenderMarkdown(ctx, doc.Content, deps.Config.Theme)
		if renderErr != nil {
			return renderErr
		}
		fmt.Println(rendered)
	}
	return nil
}

func printReport(report *workflow.Report) {
	header := fmt.Sprintf("Run %s finished: %s (%s)", report.RunID, report.Stage, report.Decision)
	if report.CacheHit {
		header += " [cache hit]"
	}
	if report.Degraded {
		fmt.Println(lipgloss.Yellow.Render(header))
	} else {
		fmt.Println(lipgloss.Green.Render(header))
	}

	outcomes := make(map[workflow.FileOutcome]int, 4)
	for _, f := range report.Files {
		outcomes[f.Outcome]++
	}
	fmt.Println(lipgloss.Gray.Render(fmt.Sprintf(
		"files: %d summarized, %d degraded, %d unchanged, %d removed",
		outcomes[workflow.OutcomeSummarized], outcomes[workflow.OutcomeDegraded],
		outcomes[workflow.OutcomeSkippedUnchanged], outcomes[workflow.OutcomeRemoved])))
	fmt.Println(lipgloss.Gray.Render(fmt.Sprintf(
		"calls: %d (%d failed), tokens in/out: %d/%d, cost: $%.4f",
		report.Calls.Calls, report.Calls.Failures,
		report.Calls.InputTokens, report.Calls.OutputTokens, report.Calls.Cost)))

	for _, path := range report.DegradedFiles() {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("needs follow-up: %s", path)))
	}
}
