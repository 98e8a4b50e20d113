// Package discovery scans a rendered guide page and extracts the testable
// steps in document order.
package discovery

import (
	"strconv"
	"time"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/models"
)

// fallbackActionCount is used when a multistep step's action-count attribute
// is missing or unparseable. Three internal actions is a conservative default
// for timeout budgeting, not a guess at guide intent.
const fallbackActionCount = 3

// Result is the outcome of one discovery pass.
type Result struct {
	Steps                []models.TestableStep
	TotalSteps           int
	PreCompletedCount    int
	NoActionControlCount int
	Duration             time.Duration
}

// Discover scans the page for step elements and extracts per-step metadata.
// Output order matches DOM order; steps are never deduplicated or reordered.
func Discover(page browser.Page) Result {
	start := time.Now()
	result := Result{}

	for i, el := range page.FindAll(browser.StepSelector) {
		step := readStep(page, el, i)
		if step.ID == "" {
			continue
		}
		if step.PreCompleted {
			result.PreCompletedCount++
		}
		if !step.HasActionControl {
			result.NoActionControlCount++
		}
		result.Steps = append(result.Steps, step)
	}

	result.TotalSteps = len(result.Steps)
	result.Duration = time.Since(start)
	return result
}

func readStep(page browser.Page, el browser.Element, index int) models.TestableStep {
	id, _ := el.Attribute(browser.AttrStepID)
	actionType, _ := el.Attribute(browser.AttrActionType)
	refTarget, _ := el.Attribute(browser.AttrRefTarget)

	step := models.TestableStep{
		ID:           id,
		Index:        index,
		Selector:     browser.StepSelectorFor(id),
		ActionType:   models.ActionType(actionType),
		RefTarget:    refTarget,
		PreCompleted: isPreCompleted(el),
	}

	if section, ok := el.Closest(browser.SectionSelector); ok {
		step.SectionID, _ = section.Attribute(browser.AttrSectionID)
	}

	_, step.HasActionControl = page.Find(browser.ActionControlSelector(id))

	// Skippable only when a skip control is rendered. On a completed step the
	// control may simply not render anymore, so its absence is conservatively
	// read as not-skippable.
	_, step.Skippable = page.Find(browser.SkipControlSelector(id))

	if step.ActionType == models.ActionMultistep {
		step.Multistep = true
		step.ActionCount = parseCount(el, browser.AttrActionCount, fallbackActionCount)
	}

	if inferGuided(step, el) {
		step.Guided = true
		step.GuidedStepCount = parseCount(el, browser.AttrSubstepTotal, 1)
		if step.GuidedStepCount < 1 {
			step.GuidedStepCount = 1
		}
	}

	return step
}

// inferGuided treats a step as guided when it declares the guided action
// type, or when it exposes a sub-step total while its action type is unset.
// Multistep steps also carry a sub-step-like attribute and are excluded to
// avoid double classification.
func inferGuided(step models.TestableStep, el browser.Element) bool {
	if step.ActionType == models.ActionGuided {
		return true
	}
	if step.Multistep || step.ActionType != "" {
		return false
	}
	_, hasTotal := el.Attribute(browser.AttrSubstepTotal)
	return hasTotal
}

func isPreCompleted(el browser.Element) bool {
	if completed, ok := el.Attribute(browser.AttrCompleted); ok && completed == "true" {
		return true
	}
	state, _ := el.Attribute(browser.AttrStepState)
	return models.StepState(state) == models.StateCompleted
}

func parseCount(el browser.Element, attr string, fallback int) int {
	raw, ok := el.Attribute(attr)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
