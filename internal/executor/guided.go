package executor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/models"
)

// runGuided drives the ordered sub-steps of a guided step. The step element
// reports its protocol state through the state attribute; the loop runs
// while it stays executing and the declared sub-step count is not exhausted.
// Error and cancelled states propagate as failures.
func (e *Executor) runGuided(page browser.Page, step models.TestableStep, deadline time.Time) error {
	if !e.waitUntil(deadline, func() bool {
		st := e.stepState(page, step)
		return st == models.StateExecuting || st.Terminal()
	}) {
		return NewTimeoutError(step.ID, ComputeStepTimeout(step, e.opts), "guided step to start executing")
	}

	for {
		switch st := e.stepState(page, step); st {
		case models.StateCompleted:
			return nil
		case models.StateError, models.StateCancelled:
			return NewStepError(step.ID, fmt.Sprintf("guided step reported state %s", st), nil)
		}

		idx := e.substepIndex(page, step)
		if idx >= step.GuidedStepCount {
			// Declared count exhausted; the caller polls for final
			// completion.
			return nil
		}

		e.debug(fmt.Sprintf("step %s: sub-step %d/%d", step.ID, idx+1, step.GuidedStepCount))
		if err := e.dispatchSubstep(page, step); err != nil {
			return err
		}
		if err := e.awaitAdvance(page, step, idx); err != nil {
			return err
		}
	}
}

// dispatchSubstep reads the current sub-step's declared action from the
// companion prompt element and performs it.
func (e *Executor) dispatchSubstep(page browser.Page, step models.TestableStep) error {
	var prompt browser.Element
	if !e.waitFor(e.opts.GuidedSurcharge, func() bool {
		p, ok := page.Find(browser.PromptSelector)
		if ok {
			prompt = p
		}
		return ok
	}) {
		return NewStepError(step.ID, "guided prompt never appeared", nil)
	}

	action, _ := prompt.Attribute(browser.AttrPromptAction)
	target, _ := prompt.Attribute(browser.AttrPromptTarget)
	value, _ := prompt.Attribute(browser.AttrPromptValue)

	switch models.ActionType(action) {
	case models.ActionNoop, "":
		cont, ok := page.Find(browser.PromptContinueSelector)
		if !ok {
			return NewStepError(step.ID, "noop sub-step has no continue control", nil)
		}
		if err := cont.Click(); err != nil {
			return NewStepError(step.ID, "acknowledge noop sub-step", err)
		}
		return nil

	case models.ActionButton, models.ActionHighlight:
		el, err := e.resolveTarget(page, step, target, models.ActionType(action) == models.ActionButton)
		if err != nil {
			return err
		}
		urlBefore := page.URL()
		if err := el.Click(); err != nil {
			return NewStepError(step.ID, fmt.Sprintf("invoke sub-step target %q", target), err)
		}
		if page.URL() != urlBefore {
			// The step element may be remounted after navigation; give the
			// page a beat before the loop re-acquires it and checks for
			// early completion.
			e.sleep(e.opts.SettleDelay)
		}
		return nil

	case models.ActionHover:
		el, err := e.resolveTarget(page, step, target, false)
		if err != nil {
			return err
		}
		if err := el.Hover(); err != nil {
			return NewStepError(step.ID, fmt.Sprintf("hover sub-step target %q", target), err)
		}
		e.sleep(e.opts.HoverDwell)
		return nil

	case models.ActionFormFill:
		return e.fillForm(page, step, target, value)

	default:
		return NewStepError(step.ID, fmt.Sprintf("unsupported sub-step action %q", action), nil)
	}
}

// resolveTarget locates a sub-step's target element. Buttons resolve by
// accessible name first, falling back to a raw selector match; everything
// else is a selector.
func (e *Executor) resolveTarget(page browser.Page, step models.TestableStep, target string, button bool) (browser.Element, error) {
	if target == "" {
		return nil, NewStepError(step.ID, "sub-step declares no target", nil)
	}
	if button {
		if el, ok := page.FindButton(target); ok {
			return el, nil
		}
	}
	if el, ok := page.Find(target); ok {
		return el, nil
	}
	return nil, NewStepError(step.ID, fmt.Sprintf("sub-step target %q not found", target), nil)
}

// fillForm sets the target value and waits for validation to settle. A
// persistently invalid form state gets exactly one refill before failing; a
// missing verdict is read as acceptance, the guide declares no validity.
func (e *Executor) fillForm(page browser.Page, step models.TestableStep, target, value string) error {
	el, err := e.resolveTarget(page, step, target, false)
	if err != nil {
		return err
	}
	if err := el.Fill(value); err != nil {
		return NewStepError(step.ID, fmt.Sprintf("fill sub-step target %q", target), err)
	}

	state := e.awaitFormVerdict(page)
	if state != browser.FormStateInvalid {
		return nil
	}

	e.debug(fmt.Sprintf("step %s: form state invalid after fill, retrying once", step.ID))
	if err := el.Fill(value); err != nil {
		return NewStepError(step.ID, fmt.Sprintf("refill sub-step target %q", target), err)
	}
	if e.awaitFormVerdict(page) == browser.FormStateInvalid {
		return NewStepError(step.ID, fmt.Sprintf("form state still invalid after refilling %q", target), nil)
	}
	return nil
}

// awaitFormVerdict debounces, then polls the prompt's form-state attribute
// for a valid/invalid verdict. Returns the last observed state, which may be
// pending or empty when the guide never declares one.
func (e *Executor) awaitFormVerdict(page browser.Page) string {
	e.sleep(e.opts.FillDebounce)
	var state string
	e.waitFor(e.opts.FillValidityTimeout, func() bool {
		state = ""
		if prompt, ok := page.Find(browser.PromptSelector); ok {
			state, _ = prompt.Attribute(browser.AttrFormState)
		}
		return state == browser.FormStateValid || state == browser.FormStateInvalid
	})
	return state
}

// awaitAdvance waits for the sub-step index to move past idx or the step to
// complete. Once most of the per-sub-step budget has elapsed, a skip control
// on the prompt is invoked once as a courtesy to guides stuck mid-timeout.
func (e *Executor) awaitAdvance(page browser.Page, step models.TestableStep, idx int) error {
	budget := e.opts.GuidedSurcharge
	start := e.now()
	deadline := start.Add(budget)
	skipAfter := start.Add(budget * 8 / 10)
	skipTried := false

	for {
		switch st := e.stepState(page, step); st {
		case models.StateCompleted:
			return nil
		case models.StateError, models.StateCancelled:
			return NewStepError(step.ID, fmt.Sprintf("guided step reported state %s during sub-step %d", st, idx), nil)
		}
		if e.substepIndex(page, step) > idx {
			return nil
		}

		now := e.now()
		if !now.Before(deadline) {
			return NewTimeoutError(step.ID, budget, fmt.Sprintf("sub-step %d to advance", idx))
		}
		if !skipTried && !now.Before(skipAfter) {
			skipTried = true
			if skip, ok := page.Find(browser.PromptSkipSelector); ok {
				if err := skip.Click(); err != nil {
					e.warn(fmt.Sprintf("step %s: prompt skip: %v", step.ID, err))
				}
			}
		}
		e.sleep(e.opts.PollInterval)
	}
}

// substepIndex reads the live zero-based sub-step index, defaulting to 0.
func (e *Executor) substepIndex(page browser.Page, step models.TestableStep) int {
	el, ok := page.Find(step.Selector)
	if !ok {
		return 0
	}
	raw, ok := el.Attribute(browser.AttrSubstepIndex)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
