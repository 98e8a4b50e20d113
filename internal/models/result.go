package models

import "time"

// StepStatus is the terminal status of one step's test.
type StepStatus string

const (
	StatusPassed     StepStatus = "passed"
	StatusFailed     StepStatus = "failed"
	StatusSkipped    StepStatus = "skipped"
	StatusNotReached StepStatus = "not_reached"
)

// SkipReason explains why a step was skipped rather than executed.
type SkipReason string

const (
	SkipPreCompleted      SkipReason = "pre_completed"
	SkipNoActionControl   SkipReason = "no_action_control"
	SkipRequirementsUnmet SkipReason = "requirements_unmet"
)

// Classification is the coarse triage category assigned to a failure.
type Classification string

const (
	ClassContentDrift      Classification = "content-drift"
	ClassProductRegression Classification = "product-regression"
	ClassInfrastructure    Classification = "infrastructure"
	ClassUnknown           Classification = "unknown"
)

// AbortReason distinguishes why a run stopped before completing all steps.
type AbortReason string

const (
	AbortAuthExpired      AbortReason = "AUTH_EXPIRED"
	AbortMandatoryFailure AbortReason = "MANDATORY_FAILURE"
)

// ArtifactPaths holds file references for diagnostic captures. All fields are
// optional; presence depends on capture policy and step outcome.
type ArtifactPaths struct {
	Screenshot    string
	ScreenshotPre string
	DOM           string
	Console       string
}

// Empty reports whether no artifact was captured.
func (a ArtifactPaths) Empty() bool {
	return a.Screenshot == "" && a.ScreenshotPre == "" && a.DOM == "" && a.Console == ""
}

// StepTestResult is the terminal record for one step. It is created exactly
// once by the executor and never mutated after return.
//
// Classification is present only on failed results; the constructor helpers
// below are the only intended way to build a result, which keeps that
// invariant out of caller hands.
type StepTestResult struct {
	StepID         string
	Status         StepStatus
	Duration       time.Duration
	CurrentURL     string
	ConsoleErrors  []string
	Error          string
	SkipReason     SkipReason
	Skippable      bool
	Classification Classification
	Artifacts      *ArtifactPaths
}

// PassedResult builds a passed result for a step.
func PassedResult(step TestableStep, duration time.Duration, url string, consoleErrors []string) StepTestResult {
	return StepTestResult{
		StepID:        step.ID,
		Status:        StatusPassed,
		Duration:      duration,
		CurrentURL:    url,
		ConsoleErrors: consoleErrors,
		Skippable:     step.Skippable,
	}
}

// SkippedResult builds a skipped result with the given reason.
func SkippedResult(step TestableStep, reason SkipReason, duration time.Duration, url string) StepTestResult {
	return StepTestResult{
		StepID:     step.ID,
		Status:     StatusSkipped,
		SkipReason: reason,
		Duration:   duration,
		CurrentURL: url,
		Skippable:  step.Skippable,
	}
}

// FailedResult builds a failed result carrying the error text and its triage
// classification.
func FailedResult(step TestableStep, errMsg string, class Classification, duration time.Duration, url string, consoleErrors []string) StepTestResult {
	return StepTestResult{
		StepID:         step.ID,
		Status:         StatusFailed,
		Error:          errMsg,
		Classification: class,
		Duration:       duration,
		CurrentURL:     url,
		ConsoleErrors:  consoleErrors,
		Skippable:      step.Skippable,
	}
}

// NotReachedResult builds the placeholder result emitted for steps after a
// run abort. An aborted run still yields one result per input step.
func NotReachedResult(step TestableStep, class Classification) StepTestResult {
	return StepTestResult{
		StepID:         step.ID,
		Status:         StatusNotReached,
		Classification: class,
		Skippable:      step.Skippable,
	}
}

// RunResult is the run-level aggregate built incrementally by the
// orchestrator. Once Aborted is set, every subsequent step's result has
// status not_reached.
type RunResult struct {
	Results       []StepTestResult
	Aborted       bool
	AbortReason   AbortReason
	AbortMessage  string
	FinalArtifact string // final-state screenshot path, if captured
}

// RunSummary holds the counts the reporting layer consumes.
type RunSummary struct {
	Total           int
	Passed          int
	Failed          int
	MandatoryFailed int
	SkippableFailed int
	Skipped         int
	NotReached      int
	Duration        time.Duration
	Success         bool
}

// Summary derives the run summary. Success depends only on mandatory
// failures; skippable failures are recorded but do not fail the run.
func (r *RunResult) Summary() RunSummary {
	s := RunSummary{Total: len(r.Results)}
	for _, res := range r.Results {
		s.Duration += res.Duration
		switch res.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
			if res.Skippable {
				s.SkippableFailed++
			} else {
				s.MandatoryFailed++
			}
		case StatusSkipped:
			s.Skipped++
		case StatusNotReached:
			s.NotReached++
		}
	}
	s.Success = s.MandatoryFailed == 0
	return s
}
