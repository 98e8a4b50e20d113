package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/guidewalk/internal/artifacts"
	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/config"
	"github.com/harrison/guidewalk/internal/discovery"
	"github.com/harrison/guidewalk/internal/executor"
	"github.com/harrison/guidewalk/internal/filelock"
	"github.com/harrison/guidewalk/internal/history"
	"github.com/harrison/guidewalk/internal/logger"
	"github.com/harrison/guidewalk/internal/models"
	"github.com/harrison/guidewalk/internal/report"
	"github.com/harrison/guidewalk/internal/requirements"
	"github.com/harrison/guidewalk/internal/session"
)

// runLogger fans engine log calls out to the console and, when available,
// the per-run log file.
type runLogger struct {
	console *logger.ConsoleLogger
	file    *logger.FileLogger
}

func (l *runLogger) LogDebug(message string) {
	l.console.LogDebug(message)
	if l.file != nil {
		l.file.LogDebug(message)
	}
}

func (l *runLogger) LogInfo(message string) {
	l.console.LogInfo(message)
	if l.file != nil {
		l.file.LogInfo(message)
	}
}

func (l *runLogger) LogWarn(message string) {
	l.console.LogWarn(message)
	if l.file != nil {
		l.file.LogWarn(message)
	}
}

func (l *runLogger) LogError(message string) {
	l.console.LogError(message)
	if l.file != nil {
		l.file.LogError(message)
	}
}

func (l *runLogger) LogStepResult(result models.StepTestResult) {
	l.console.LogStepResult(result)
	if l.file != nil {
		l.file.LogStepResult(result)
	}
}

func (l *runLogger) LogRunSummary(summary models.RunSummary) {
	l.console.LogRunSummary(summary)
	if l.file != nil {
		l.file.LogRunSummary(summary)
	}
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [guide-url]",
		Short: "Run every step of an interactive guide",
		Long: `Open the guide page, discover its steps, and drive each one to a
terminal outcome.

Configuration is loaded from .guidewalk/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Run the guide at a URL
  guidewalk run https://app.example.test/guides/getting-started

  # Attach to an already-running browser
  guidewalk run --debugger-url ws://127.0.0.1:9222 https://app.example.test/guides/getting-started

  # Watch the browser while it runs
  guidewalk run --headless=false https://app.example.test/guides/getting-started

  # Capture screenshots around every step, not only failures
  guidewalk run --always-screenshot https://app.example.test/guides/getting-started`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .guidewalk/config.yaml)")
	cmd.Flags().String("timeout", "", "Base per-step timeout (e.g. 30s, 2m)")
	cmd.Flags().String("artifacts-dir", "", "Directory for screenshots, DOM snapshots and console dumps")
	cmd.Flags().Bool("headless", true, "Run the browser without a visible window")
	cmd.Flags().String("debugger-url", "", "Attach to an already-running browser instead of launching one")
	cmd.Flags().Bool("always-screenshot", false, "Capture pre-step and success screenshots as well")
	cmd.Flags().String("log-level", "", "Logging verbosity (debug, info, warn, error)")
	cmd.Flags().String("session-endpoint", "", "Authenticated endpoint probed for session expiry")
	cmd.Flags().Bool("continue-on-failure", false, "Keep running after a mandatory step fails")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.GuideURL = args[0]
	}
	if cfg.GuideURL == "" {
		return fmt.Errorf("no guide URL given: pass one as an argument or set guide_url in the config")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	home, err := config.GetGuidewalkHome()
	if err != nil {
		return err
	}
	lock, err := filelock.AcquireRunLock(home)
	if err != nil {
		return err
	}
	defer lock.Release()

	log := &runLogger{console: logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)}
	if fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel); err == nil {
		log.file = fileLog
		defer fileLog.Close()
	} else {
		log.LogWarn(fmt.Sprintf("file logging disabled: %v", err))
	}

	runID := uuid.NewString()[:8]
	startedAt := time.Now()
	log.LogInfo(fmt.Sprintf("run %s: opening %s", runID, cfg.GuideURL))

	b, err := browser.Launch(browser.LaunchOptions{
		DebuggerURL: cfg.DebuggerURL,
		Headless:    cfg.Headless,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	page, err := b.OpenPage(cfg.GuideURL)
	if err != nil {
		return err
	}

	disc := discovery.Discover(page)
	if disc.TotalSteps == 0 {
		return fmt.Errorf("no guide steps found at %s", cfg.GuideURL)
	}
	log.LogInfo(fmt.Sprintf("discovered %d steps (%d pre-completed, %d without action controls) in %s",
		disc.TotalSteps, disc.PreCompletedCount, disc.NoActionControlCount, disc.Duration.Round(time.Millisecond)))

	collector := artifacts.NewCollector(filepath.Join(cfg.ArtifactsDir, runID), log)
	resolver := requirements.NewResolver(requirements.DefaultOptions(), log)

	execOpts := executor.DefaultOptions()
	execOpts.BaseTimeout = cfg.Timeout
	execOpts.AlwaysScreenshot = cfg.AlwaysScreenshot
	exec := executor.New(execOpts, resolver, collector, log)

	orch := executor.NewOrchestrator(exec, session.NewValidator(cfg.SessionEndpoint), collector, log, executor.RunOptions{
		SessionCheckInterval:   cfg.SessionCheckInterval,
		StopOnMandatoryFailure: cfg.StopOnMandatoryFailure,
		FinalScreenshot:        cfg.FinalScreenshot,
		OnStepComplete:         log.LogStepResult,
	})

	run := orch.RunAll(page, disc.Steps)
	summary := run.Summary()
	log.LogRunSummary(summary)

	if cfg.Report.Enabled {
		writeReports(cfg, collector.Dir(), run, report.Meta{RunID: runID, GuideURL: cfg.GuideURL, StartedAt: startedAt}, log)
	}
	if cfg.History.Enabled {
		recordHistory(cfg, runID, startedAt, run, summary, log)
		artifacts.PruneRunDirs(cfg.ArtifactsDir, cfg.History.KeepRunsDays, log)
	}

	if run.Aborted && run.AbortReason == models.AbortAuthExpired {
		return &ExitError{Code: ExitAuthExpired, Message: run.AbortMessage}
	}
	if !summary.Success {
		return &ExitError{Code: ExitMandatoryFailure, Message: fmt.Sprintf("%d mandatory step(s) failed", summary.MandatoryFailed)}
	}
	return nil
}

func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		raw, _ := flags.GetString("timeout")
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", raw, err)
		}
		cfg.Timeout = timeout
	}
	if flags.Changed("artifacts-dir") {
		cfg.ArtifactsDir, _ = flags.GetString("artifacts-dir")
	}
	if flags.Changed("headless") {
		cfg.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("debugger-url") {
		cfg.DebuggerURL, _ = flags.GetString("debugger-url")
	}
	if flags.Changed("always-screenshot") {
		cfg.AlwaysScreenshot, _ = flags.GetBool("always-screenshot")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("session-endpoint") {
		cfg.SessionEndpoint, _ = flags.GetString("session-endpoint")
	}
	if flags.Changed("continue-on-failure") {
		continueOn, _ := flags.GetBool("continue-on-failure")
		cfg.StopOnMandatoryFailure = !continueOn
	}
	return cfg, nil
}

func writeReports(cfg *config.Config, dir string, run *models.RunResult, meta report.Meta, log *runLogger) {
	gen := report.NewGenerator(dir)
	if path, err := gen.WriteMarkdown(run, meta); err != nil {
		log.LogWarn(fmt.Sprintf("write report: %v", err))
	} else {
		log.LogInfo(fmt.Sprintf("report written to %s", path))
	}
	if cfg.Report.HTML {
		if path, err := gen.WriteHTML(run, meta); err != nil {
			log.LogWarn(fmt.Sprintf("write html report: %v", err))
		} else {
			log.LogInfo(fmt.Sprintf("html report written to %s", path))
		}
	}
}

func recordHistory(cfg *config.Config, runID string, startedAt time.Time, run *models.RunResult, summary models.RunSummary, log *runLogger) {
	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		return
	}
	defer store.Close()

	ctx := context.Background()
	record := &history.RunRecord{
		RunID:           runID,
		GuideURL:        cfg.GuideURL,
		StartedAt:       startedAt,
		Duration:        summary.Duration,
		TotalSteps:      summary.Total,
		Passed:          summary.Passed,
		Failed:          summary.Failed,
		MandatoryFailed: summary.MandatoryFailed,
		SkippableFailed: summary.SkippableFailed,
		Skipped:         summary.Skipped,
		NotReached:      summary.NotReached,
		Success:         summary.Success,
		AbortReason:     string(run.AbortReason),
	}
	steps := make([]history.StepRecord, 0, len(run.Results))
	for _, res := range run.Results {
		steps = append(steps, history.StepRecord{
			StepID:         res.StepID,
			Status:         string(res.Status),
			Classification: string(res.Classification),
			Error:          res.Error,
			SkipReason:     string(res.SkipReason),
			Duration:       res.Duration,
		})
	}
	if err := store.RecordRun(ctx, record, steps); err != nil {
		log.LogWarn(fmt.Sprintf("record run history: %v", err))
		return
	}
	if err := store.Prune(ctx, cfg.History.KeepRunsDays); err != nil {
		log.LogWarn(fmt.Sprintf("prune run history: %v", err))
	}
}
