package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/repodoc/config"
	"github.com/meysamhadeli/repodoc/constants/lipgloss"
	"github.com/meysamhadeli/repodoc/parser"
	"github.com/meysamhadeli/repodoc/providers"
	provider_contracts "github.com/meysamhadeli/repodoc/providers/contracts"
	"github.com/meysamhadeli/repodoc/store"
	store_contracts "github.com/meysamhadeli/repodoc/store/contracts"
	"github.com/meysamhadeli/repodoc/workflow"
)

// RootDependencies holds the wired dependencies shared by subcommands.
type RootDependencies struct {
	Config       *config.Config
	Store        store_contracts.Store
	Provider     provider_contracts.CompletionProvider
	Orchestrator *workflow.Orchestrator
	Cwd          string
}

var rootCmd = &cobra.Command{
	Use:   "repodoc",
	Short: "repodoc keeps repository documentation current from commit to commit.",
	Long: `repodoc turns repository change events into persisted documentation.
It analyzes what changed, summarizes affected source files through a
text-generation provider and synthesizes a sectioned markdown document,
regenerating only what a change actually touches.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// handleRootCommand loads configuration and wires the dependency graph
// for a subcommand invocation.
func handleRootCommand(cmd *cobra.Command, testMode bool) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	// .env is optional; environment variables win over file values.
	_ = godotenv.Load()

	cfg := config.LoadConfigs(cmd.Root(), cwd)

	var st store_contracts.Store
	if cfg.DatabaseURL != "" {
		st, err = store.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
	} else {
		fmt.Println(lipgloss.Yellow.Render("No database_url configured, using in-memory storage"))
		st = store.NewMemoryStore()
	}

	providerConfig := cfg.AIProviderConfig
	if testMode {
		providerConfig = &providers.AIProviderConfig{Provider: "mock", Model: "mock"}
		cfg.AIProviderConfig = providerConfig
	}
	provider, err := providers.NewCompletionProvider(providerConfig)
	if err != nil {
		st.Close()
		return nil, err
	}

	selector := parser.NewDefaultSelector()
	if testMode {
		selector = parser.NewTestSelector()
	}

	orchestrator := workflow.NewOrchestrator(st, provider, selector, workflow.Options{
		Model:                providerConfig.Model,
		TemplateVersion:      cfg.TemplateVersion,
		FullRebuildThreshold: cfg.FullRebuildThreshold,
		MaxConcurrentCalls:   cfg.MaxConcurrentCalls,
		RetryPolicy: providers.RetryPolicy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: time.Duration(cfg.BackoffSeconds) * time.Second,
			MaxBackoff:     30 * time.Second,
			CallTimeout:    time.Duration(cfg.CallTimeoutSeconds) * time.Second,
		},
	})

	return &RootDependencies{
		Config:       cfg,
		Store:        st,
		Provider:     provider,
		Orchestrator: orchestrator,
		Cwd:          cwd,
	}, nil
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(err.Error()))
		os.Exit(1)
	}
}
