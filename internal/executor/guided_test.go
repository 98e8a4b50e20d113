package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/browser/browsertest"
	"github.com/harrison/guidewalk/internal/models"
)

func guidedStep(id string, count int) models.TestableStep {
	step := plainStep(id)
	step.ActionType = models.ActionGuided
	step.Guided = true
	step.GuidedStepCount = count
	return step
}

// guidedPage wires a step element whose action control starts the guided
// protocol: state flips to executing with the sub-step index at zero.
func guidedPage(step models.TestableStep) (*browsertest.FakePage, *browsertest.FakeElement) {
	page := browsertest.NewPage()
	el := stepElement(step.ID).WithAttr(browser.AttrStepState, "idle")
	page.Set(step.Selector, el)
	control := browsertest.NewElement()
	control.OnClick = func() {
		el.Attrs[browser.AttrStepState] = "executing"
		el.Attrs[browser.AttrSubstepIndex] = "0"
	}
	page.Set(browser.ActionControlSelector(step.ID), control)
	return page, el
}

func prompt(action, target, value string) *browsertest.FakeElement {
	p := browsertest.NewElement().WithAttr(browser.AttrPromptAction, action)
	if target != "" {
		p.Attrs[browser.AttrPromptTarget] = target
	}
	if value != "" {
		p.Attrs[browser.AttrPromptValue] = value
	}
	return p
}

func TestGuidedButtonThenNoopCompletes(t *testing.T) {
	step := guidedStep("g", 2)
	page, el := guidedPage(step)

	// Sub-step 0: press the Save button, resolved by accessible name.
	page.Set(browser.PromptSelector, prompt("button", "Save", ""))
	save := browsertest.NewElement()
	save.OnClick = func() {
		el.Attrs[browser.AttrSubstepIndex] = "1"
		page.Set(browser.PromptSelector, prompt("noop", "", ""))
	}
	page.SetButton("Save", save)

	// Sub-step 1: acknowledge via the continue control.
	cont := browsertest.NewElement()
	cont.OnClick = func() {
		el.Attrs[browser.AttrStepState] = "completed"
	}
	page.Set(browser.PromptContinueSelector, cont)

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, 1, save.Clicks)
	assert.Equal(t, 1, cont.Clicks)
}

func TestGuidedButtonFallsBackToSelector(t *testing.T) {
	step := guidedStep("g", 1)
	page, el := guidedPage(step)

	page.Set(browser.PromptSelector, prompt("button", "#save-btn", ""))
	save := browsertest.NewElement()
	save.OnClick = func() {
		el.Attrs[browser.AttrStepState] = "completed"
	}
	// No accessible-name match registered; only the raw selector resolves.
	page.Set("#save-btn", save)

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, 1, save.Clicks)
}

func TestGuidedHoverDwellsOnTarget(t *testing.T) {
	step := guidedStep("g", 1)
	page, el := guidedPage(step)

	page.Set(browser.PromptSelector, prompt("hover", "#chart", ""))
	chart := browsertest.NewElement()
	page.Set("#chart", chart)

	e, clock := newTestExecutor(metResolver(), nil)
	// Complete the step once the dwell after the hover has elapsed.
	e.sleep = func(d time.Duration) {
		clock.sleep(d)
		if chart.Hovers > 0 {
			el.Attrs[browser.AttrStepState] = "completed"
		}
	}

	result := e.Execute(page, step)

	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, 1, chart.Hovers)
}

func TestGuidedErrorStatePropagatesAsFailure(t *testing.T) {
	step := guidedStep("g", 2)
	page, el := guidedPage(step)

	page.Set(browser.PromptSelector, prompt("button", "Save", ""))
	save := browsertest.NewElement()
	save.OnClick = func() {
		el.Attrs[browser.AttrStepState] = "error"
	}
	page.SetButton("Save", save)

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "reported state error")
}

func TestGuidedFormFillValid(t *testing.T) {
	step := guidedStep("g", 1)
	page, el := guidedPage(step)

	p := prompt("formfill", "#name-input", "My Dashboard")
	page.Set(browser.PromptSelector, p)
	input := browsertest.NewElement()
	input.OnFill = func(value string) {
		p.Attrs[browser.AttrFormState] = browser.FormStateValid
		el.Attrs[browser.AttrStepState] = "completed"
	}
	page.Set("#name-input", input)

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, []string{"My Dashboard"}, input.Filled)
}

func TestGuidedFormFillRetriesExactlyOnce(t *testing.T) {
	step := guidedStep("g", 1)
	page, _ := guidedPage(step)

	p := prompt("formfill", "#name-input", "My Dashboard")
	p.Attrs[browser.AttrFormState] = browser.FormStateInvalid
	page.Set(browser.PromptSelector, p)
	input := browsertest.NewElement()
	page.Set("#name-input", input)

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "still invalid")
	assert.Len(t, input.Filled, 2)
}

func TestGuidedFormFillSecondAttemptSucceeds(t *testing.T) {
	step := guidedStep("g", 1)
	page, el := guidedPage(step)

	p := prompt("formfill", "#name-input", "My Dashboard")
	page.Set(browser.PromptSelector, p)
	input := browsertest.NewElement()
	fills := 0
	input.OnFill = func(value string) {
		fills++
		if fills == 1 {
			p.Attrs[browser.AttrFormState] = browser.FormStateInvalid
			return
		}
		p.Attrs[browser.AttrFormState] = browser.FormStateValid
		el.Attrs[browser.AttrStepState] = "completed"
	}
	page.Set("#name-input", input)

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, 2, fills)
}

func TestGuidedPromptSkipInvokedLateInBudget(t *testing.T) {
	step := guidedStep("g", 1)
	page, el := guidedPage(step)

	page.Set(browser.PromptSelector, prompt("button", "Save", ""))
	// The save click lands but the guide never advances on its own.
	page.SetButton("Save", browsertest.NewElement())
	skip := browsertest.NewElement()
	skip.OnClick = func() {
		el.Attrs[browser.AttrStepState] = "completed"
	}
	page.Set(browser.PromptSkipSelector, skip)

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, 1, skip.Clicks)
}

func TestGuidedAdvanceTimeoutFails(t *testing.T) {
	step := guidedStep("g", 1)
	page, _ := guidedPage(step)
	page.Set(browser.PromptSelector, prompt("button", "Save", ""))
	page.SetButton("Save", browsertest.NewElement())

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "sub-step 0 to advance")
	assert.Equal(t, models.ClassInfrastructure, result.Classification)
}

func TestGuidedNeverEntersExecutingTimesOut(t *testing.T) {
	step := guidedStep("g", 1)
	page := browsertest.NewPage()
	el := stepElement(step.ID).WithAttr(browser.AttrStepState, "idle")
	page.Set(step.Selector, el)
	// The action control click does not start the protocol.
	page.Set(browser.ActionControlSelector(step.ID), browsertest.NewElement())

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "guided step to start executing")
}

func TestGuidedMissingTargetFails(t *testing.T) {
	step := guidedStep("g", 1)
	page, _ := guidedPage(step)
	page.Set(browser.PromptSelector, prompt("button", "Nowhere", ""))

	e, _ := newTestExecutor(metResolver(), nil)
	result := e.Execute(page, step)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, `target "Nowhere" not found`)
}
