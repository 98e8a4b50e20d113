package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/guidewalk/internal/config"
	"github.com/harrison/guidewalk/internal/history"
)

// NewHistoryCommand creates the history command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded guide runs",
	}

	cmd.PersistentFlags().String("db", "", "Path to the history database (default from config)")

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryFlakyCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func openHistoryStore(cmd *cobra.Command) (*history.Store, *config.Config, error) {
	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.History.DBPath
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			guideURL, _ := cmd.Flags().GetString("guide-url")
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.Runs(context.Background(), guideURL, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-20s %-8s %-40s %s\n", "RUN", "STARTED", "RESULT", "GUIDE", "STEPS (pass/fail/skip)")
			for _, run := range runs {
				result := "PASSED"
				if !run.Success {
					result = "FAILED"
				}
				if run.AbortReason != "" {
					result = run.AbortReason
				}
				fmt.Fprintf(out, "%-10s %-20s %-8s %-40s %d/%d/%d of %d\n",
					run.RunID,
					run.StartedAt.Local().Format(time.DateTime),
					result,
					run.GuideURL,
					run.Passed, run.Failed, run.Skipped, run.TotalSteps)
			}
			return nil
		},
	}
	cmd.Flags().String("guide-url", "", "Only show runs for this guide")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	return cmd
}

func newHistoryFlakyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flaky",
		Short: "Show steps that both passed and failed across runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			flaky, err := store.FlakySteps(context.Background())
			if err != nil {
				return err
			}
			if len(flaky) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No flaky steps recorded.")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-30s %8s %8s %8s\n", "STEP", "RUNS", "PASSES", "FAILURES")
			for _, f := range flaky {
				fmt.Fprintf(out, "%-30s %8d %8d %8d\n", f.StepID, f.Runs, f.Passes, f.Failures)
			}
			return nil
		},
	}
}

func newHistoryPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			keepDays, _ := cmd.Flags().GetInt("keep-days")
			if keepDays == 0 {
				keepDays = cfg.History.KeepRunsDays
			}
			if err := store.Prune(context.Background(), keepDays); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned runs older than %d days.\n", keepDays)
			return nil
		},
	}
	cmd.Flags().Int("keep-days", 0, "Retention window in days (default from config)")
	return cmd
}
