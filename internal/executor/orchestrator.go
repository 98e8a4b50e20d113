package executor

import (
	"fmt"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/models"
)

// StepRunner drives one step to a terminal result.
type StepRunner interface {
	Execute(page browser.Page, step models.TestableStep) models.StepTestResult
}

var _ StepRunner = (*Executor)(nil)

// SessionChecker probes whether the authenticated session is still live.
type SessionChecker interface {
	IsValid(page browser.Page) bool
}

// FinalCollector captures the end-of-run page state.
type FinalCollector interface {
	Final(page browser.Page) string
}

// RunLogger is the logging surface of the orchestrator.
type RunLogger interface {
	LogInfo(message string)
	LogError(message string)
}

// RunOptions controls run-level sequencing.
type RunOptions struct {
	// SessionCheckInterval validates the session every N steps, at indices
	// 0, N, 2N and so on. Zero means the default of 5; negative disables
	// the check entirely.
	SessionCheckInterval int
	// StopOnMandatoryFailure aborts the run when a mandatory step fails.
	StopOnMandatoryFailure bool
	// FinalScreenshot captures the page state once at run end.
	FinalScreenshot bool
	// OnStepComplete, when set, is invoked after every step result for
	// real-time reporting.
	OnStepComplete func(models.StepTestResult)
}

// DefaultRunOptions returns the standard run bounds.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		SessionCheckInterval:   5,
		StopOnMandatoryFailure: true,
	}
}

// Orchestrator sequences step execution across an entire guide. It owns the
// page exclusively for the duration of a run.
type Orchestrator struct {
	runner  StepRunner
	session SessionChecker
	final   FinalCollector
	log     RunLogger
	opts    RunOptions
}

// NewOrchestrator builds an orchestrator. session, final, and log may be
// nil; a nil session checker disables expiry detection.
func NewOrchestrator(runner StepRunner, session SessionChecker, final FinalCollector, log RunLogger, opts RunOptions) *Orchestrator {
	if opts.SessionCheckInterval == 0 {
		opts.SessionCheckInterval = 5
	}
	return &Orchestrator{
		runner:  runner,
		session: session,
		final:   final,
		log:     log,
		opts:    opts,
	}
}

// RunAll executes the discovered steps in order and aggregates their
// results. The output always has one result per input step: once the run
// aborts, remaining steps are padded with not_reached placeholders.
func (o *Orchestrator) RunAll(page browser.Page, steps []models.TestableStep) *models.RunResult {
	run := &models.RunResult{}

	for i, step := range steps {
		if run.Aborted {
			run.Results = append(run.Results, models.NotReachedResult(step, abortClass(run.AbortReason)))
			continue
		}

		if o.checkSessionAt(i) && !o.session.IsValid(page) {
			o.logError("session expired, aborting run")
			run.Aborted = true
			run.AbortReason = models.AbortAuthExpired
			run.AbortMessage = "authenticated session is no longer valid"
			run.Results = append(run.Results, models.NotReachedResult(step, models.ClassInfrastructure))
			continue
		}

		o.logInfo(fmt.Sprintf("step %d/%d: %s", i+1, len(steps), step.ID))
		result := o.runner.Execute(page, step)
		run.Results = append(run.Results, result)
		if o.opts.OnStepComplete != nil {
			o.opts.OnStepComplete(result)
		}

		if result.Status == models.StatusFailed && step.Mandatory() && o.opts.StopOnMandatoryFailure {
			o.logError(fmt.Sprintf("mandatory step %s failed, aborting run", step.ID))
			run.Aborted = true
			run.AbortReason = models.AbortMandatoryFailure
			run.AbortMessage = fmt.Sprintf("mandatory step %s failed: %s", step.ID, result.Error)
		}
	}

	if o.opts.FinalScreenshot && o.final != nil {
		run.FinalArtifact = o.final.Final(page)
	}
	return run
}

func (o *Orchestrator) checkSessionAt(index int) bool {
	if o.session == nil || o.opts.SessionCheckInterval < 0 {
		return false
	}
	return index%o.opts.SessionCheckInterval == 0
}

// abortClass maps an abort reason to the classification carried by the
// padded results. Only auth expiry implies an infrastructure cause for the
// steps that never ran.
func abortClass(reason models.AbortReason) models.Classification {
	if reason == models.AbortAuthExpired {
		return models.ClassInfrastructure
	}
	return ""
}

func (o *Orchestrator) logInfo(msg string) {
	if o.log != nil {
		o.log.LogInfo(msg)
	}
}

func (o *Orchestrator) logError(msg string) {
	if o.log != nil {
		o.log.LogError(msg)
	}
}
