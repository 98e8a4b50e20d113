// Package executor drives one discovered step from idle to a terminal
// outcome: passed, failed, or skipped. It owns the per-step state machine,
// the computed timeout budget, and the nested guided sub-step loop.
package executor

import (
	"fmt"
	"time"

	"github.com/harrison/guidewalk/internal/artifacts"
	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/classify"
	"github.com/harrison/guidewalk/internal/models"
	"github.com/harrison/guidewalk/internal/requirements"
)

// Logger is the narrow logging surface the executor uses.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// Resolver re-checks and repairs a step's prerequisites.
type Resolver interface {
	Resolve(page browser.Page, step models.TestableStep) (models.RequirementResult, *models.FixResult)
}

// Collector persists diagnostic captures around step outcomes.
type Collector interface {
	OnFailure(page browser.Page, stepID string, consoleErrors []string) *models.ArtifactPaths
	OnSuccess(page browser.Page, stepID string) *models.ArtifactPaths
	PreStep(page browser.Page, stepID string) string
}

var _ Collector = (*artifacts.Collector)(nil)
var _ Resolver = (*requirements.Resolver)(nil)

// Options bounds the step state machine.
type Options struct {
	// BaseTimeout is the budget for a plain step. Defaults to 30s.
	BaseTimeout time.Duration
	// MultistepSurcharge is added per internal action of a multistep step.
	MultistepSurcharge time.Duration
	// GuidedSurcharge is added per declared sub-step of a guided step. It is
	// also the per-sub-step budget inside the guided loop.
	GuidedSurcharge time.Duration
	// ControlAppearWait bounds how long a missing action control is waited
	// for before the step is skipped.
	ControlAppearWait time.Duration
	// PollInterval paces every polling loop.
	PollInterval time.Duration
	// SettleDelay is the pause after invoking the action control, letting
	// reactive completion checks run.
	SettleDelay time.Duration
	// HoverDwell is how long a hover sub-step rests on its target.
	HoverDwell time.Duration
	// FillDebounce is the pause after a form fill before validity polling.
	FillDebounce time.Duration
	// FillValidityTimeout bounds the wait for a declared form-state verdict.
	FillValidityTimeout time.Duration
	// AlwaysScreenshot also captures pre-step and success screenshots.
	AlwaysScreenshot bool
}

// DefaultOptions returns the standard execution bounds.
func DefaultOptions() Options {
	return Options{
		BaseTimeout:         30 * time.Second,
		MultistepSurcharge:  5 * time.Second,
		GuidedSurcharge:     10 * time.Second,
		ControlAppearWait:   10 * time.Second,
		PollInterval:        250 * time.Millisecond,
		SettleDelay:         time.Second,
		HoverDwell:          time.Second,
		FillDebounce:        500 * time.Millisecond,
		FillValidityTimeout: 5 * time.Second,
	}
}

// Executor drives steps against a live page. It is not safe for concurrent
// use; the engine is single-threaded and exactly one step is in flight at a
// time.
type Executor struct {
	opts      Options
	resolver  Resolver
	collector Collector
	log       Logger

	sleep func(time.Duration)
	now   func() time.Time
}

// New builds an executor. resolver, collector, and log may be nil; nil
// dependencies disable the corresponding behavior (no fix loop, no
// artifacts, no logging).
func New(opts Options, resolver Resolver, collector Collector, log Logger) *Executor {
	def := DefaultOptions()
	if opts.BaseTimeout <= 0 {
		opts.BaseTimeout = def.BaseTimeout
	}
	if opts.MultistepSurcharge <= 0 {
		opts.MultistepSurcharge = def.MultistepSurcharge
	}
	if opts.GuidedSurcharge <= 0 {
		opts.GuidedSurcharge = def.GuidedSurcharge
	}
	if opts.ControlAppearWait <= 0 {
		opts.ControlAppearWait = def.ControlAppearWait
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = def.SettleDelay
	}
	if opts.HoverDwell <= 0 {
		opts.HoverDwell = def.HoverDwell
	}
	if opts.FillDebounce <= 0 {
		opts.FillDebounce = def.FillDebounce
	}
	if opts.FillValidityTimeout <= 0 {
		opts.FillValidityTimeout = def.FillValidityTimeout
	}
	return &Executor{
		opts:      opts,
		resolver:  resolver,
		collector: collector,
		log:       log,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Execute drives one step to a terminal result. Errors raised at any stage
// are caught here, classified, and artifacted; they never escape to the
// caller.
func (e *Executor) Execute(page browser.Page, step models.TestableStep) models.StepTestResult {
	start := e.now()
	capture := page.StartConsoleCapture()
	defer capture.Stop()

	if step.PreCompleted {
		return models.SkippedResult(step, models.SkipPreCompleted, e.elapsed(start), page.URL())
	}

	deadline := start.Add(ComputeStepTimeout(step, e.opts))

	if el, ok := page.Find(step.Selector); ok {
		if err := el.ScrollIntoView(); err != nil {
			e.warn(fmt.Sprintf("step %s: scroll into view: %v", step.ID, err))
		}
	}

	var prePath string
	if e.opts.AlwaysScreenshot && e.collector != nil {
		prePath = e.collector.PreStep(page, step.ID)
	}

	if e.resolver != nil {
		req, fix := e.resolver.Resolve(page, step)
		if !req.Met {
			switch {
			case step.Skippable:
				return models.SkippedResult(step, models.SkipRequirementsUnmet, e.elapsed(start), page.URL())
			case fix != nil && !fix.Success:
				err := NewStepError(step.ID, fmt.Sprintf("mandatory requirements unmet: %s", fix.FailureReason), nil)
				return e.fail(page, step, err, start, capture, prePath)
			}
			// Mandatory with no fix control: proceed anyway. The action
			// control may still become enabled once earlier steps run.
			e.debug(fmt.Sprintf("step %s: requirements unmet with no fix control, proceeding", step.ID))
		}
	}

	if !e.waitFor(e.opts.ControlAppearWait, func() bool {
		_, ok := page.Find(browser.ActionControlSelector(step.ID))
		return ok
	}) {
		return models.SkippedResult(step, models.SkipNoActionControl, e.elapsed(start), page.URL())
	}

	// Objective-based auto-completion: the guide may mark the step complete
	// before we ever interact with it.
	if e.stepCompleted(page, step) {
		return e.pass(page, step, start, capture, prePath)
	}

	if !e.waitUntil(deadline, func() bool {
		control, ok := page.Find(browser.ActionControlSelector(step.ID))
		return ok && control.Enabled()
	}) {
		err := NewTimeoutError(step.ID, ComputeStepTimeout(step, e.opts), "action control enabled")
		return e.fail(page, step, err, start, capture, prePath)
	}

	control, ok := page.Find(browser.ActionControlSelector(step.ID))
	if !ok {
		err := NewStepError(step.ID, "action control disappeared before invocation", nil)
		return e.fail(page, step, err, start, capture, prePath)
	}
	urlBefore := page.URL()
	if err := control.Click(); err != nil {
		return e.fail(page, step, NewStepError(step.ID, "invoke action control", err), start, capture, prePath)
	}

	e.sleep(e.opts.SettleDelay)

	if step.Guided {
		if err := e.runGuided(page, step, deadline); err != nil {
			return e.fail(page, step, err, start, capture, prePath)
		}
		if !e.waitUntil(deadline, func() bool { return e.stepCompleted(page, step) }) {
			err := NewTimeoutError(step.ID, ComputeStepTimeout(step, e.opts), "guided step completion")
			return e.fail(page, step, err, start, capture, prePath)
		}
		return e.pass(page, step, start, capture, prePath)
	}

	// Navigation consumes the step: a changed location with a detached step
	// element counts as passed.
	if page.URL() != urlBefore && e.stepGone(page, step) {
		return e.pass(page, step, start, capture, prePath)
	}

	if !e.waitUntil(deadline, func() bool {
		if e.stepCompleted(page, step) {
			return true
		}
		// Delayed navigation, e.g. a form fill that updates the location
		// asynchronously.
		return page.URL() != urlBefore && e.stepGone(page, step)
	}) {
		err := NewTimeoutError(step.ID, ComputeStepTimeout(step, e.opts), "completion indicator")
		return e.fail(page, step, err, start, capture, prePath)
	}
	return e.pass(page, step, start, capture, prePath)
}

func (e *Executor) pass(page browser.Page, step models.TestableStep, start time.Time, capture browser.ConsoleCapture, prePath string) models.StepTestResult {
	result := models.PassedResult(step, e.elapsed(start), page.URL(), capture.Errors())
	if e.opts.AlwaysScreenshot && e.collector != nil {
		result.Artifacts = e.collector.OnSuccess(page, step.ID)
	}
	attachPre(&result, prePath)
	return result
}

func (e *Executor) fail(page browser.Page, step models.TestableStep, err error, start time.Time, capture browser.ConsoleCapture, prePath string) models.StepTestResult {
	consoleErrors := capture.Errors()
	class := classify.ClassifyError(err, "")
	result := models.FailedResult(step, err.Error(), class, e.elapsed(start), page.URL(), consoleErrors)
	if e.collector != nil {
		result.Artifacts = e.collector.OnFailure(page, step.ID, consoleErrors)
	}
	attachPre(&result, prePath)
	return result
}

func attachPre(result *models.StepTestResult, prePath string) {
	if prePath == "" {
		return
	}
	if result.Artifacts == nil {
		result.Artifacts = &models.ArtifactPaths{}
	}
	result.Artifacts.ScreenshotPre = prePath
}

// stepCompleted reads the live step element's completion indicators.
func (e *Executor) stepCompleted(page browser.Page, step models.TestableStep) bool {
	el, ok := page.Find(step.Selector)
	if !ok || el.Detached() {
		return false
	}
	if completed, ok := el.Attribute(browser.AttrCompleted); ok && completed == "true" {
		return true
	}
	state, _ := el.Attribute(browser.AttrStepState)
	return models.StepState(state) == models.StateCompleted
}

// stepGone reports whether the step element detached or left the page.
func (e *Executor) stepGone(page browser.Page, step models.TestableStep) bool {
	el, ok := page.Find(step.Selector)
	return !ok || el.Detached()
}

// stepState reads the live state attribute, defaulting to idle when the
// element or attribute is missing.
func (e *Executor) stepState(page browser.Page, step models.TestableStep) models.StepState {
	el, ok := page.Find(step.Selector)
	if !ok {
		return models.StateIdle
	}
	state, ok := el.Attribute(browser.AttrStepState)
	if !ok || state == "" {
		return models.StateIdle
	}
	return models.StepState(state)
}

// waitFor polls cond at the configured interval until it holds or the
// timeout elapses.
func (e *Executor) waitFor(timeout time.Duration, cond func() bool) bool {
	return e.waitUntil(e.now().Add(timeout), cond)
}

// waitUntil polls cond at the configured interval until it holds or the
// deadline passes. cond is always checked at least once.
func (e *Executor) waitUntil(deadline time.Time, cond func() bool) bool {
	for {
		if cond() {
			return true
		}
		if !e.now().Before(deadline) {
			return false
		}
		e.sleep(e.opts.PollInterval)
	}
}

func (e *Executor) elapsed(start time.Time) time.Duration {
	return e.now().Sub(start)
}

func (e *Executor) debug(msg string) {
	if e.log != nil {
		e.log.LogDebug(msg)
	}
}

func (e *Executor) warn(msg string) {
	if e.log != nil {
		e.log.LogWarn(msg)
	}
}
