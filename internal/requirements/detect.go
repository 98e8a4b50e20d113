// Package requirements detects whether a step's prerequisites are satisfied
// and drives the bounded automatic-fix loop when they are not.
package requirements

import (
	"strings"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/models"
)

// Detect reads the step's requirement surface and derives its status.
//
// Decision table, in order:
//   - checking spinner visible            -> checking
//   - action enabled and no explanation   -> met
//   - explanation or fix/retry/skip shown -> unmet
//   - action present but disabled         -> unknown, treated as not met
//   - no signal at all                    -> unknown, assumed met
//
// The result is a fresh snapshot on every call and is never mutated.
func Detect(page browser.Page, step models.TestableStep) models.RequirementResult {
	result := models.RequirementResult{
		Status:    models.RequirementUnknown,
		Skippable: step.Skippable,
	}

	if spinner, ok := page.Find(browser.CheckingSelector(step.ID)); ok && spinner.Visible() {
		result.Checking = true
	}
	if explanation, ok := page.Find(browser.RequirementSelector(step.ID)); ok && explanation.Visible() {
		result.Explanation = strings.TrimSpace(explanation.Text())
	}
	_, result.HasFixControl = page.Find(browser.FixControlSelector(step.ID))
	_, result.HasRetryControl = page.Find(browser.RetryControlSelector(step.ID))
	_, result.HasSkipControl = page.Find(browser.SkipControlSelector(step.ID))

	action, actionExists := page.Find(browser.ActionControlSelector(step.ID))
	actionEnabled := actionExists && action.Enabled()

	if result.HasFixControl {
		result.FixKind = inferFixKind(result.Explanation)
	}

	switch {
	case result.Checking:
		result.Status = models.RequirementChecking
	case actionEnabled && result.Explanation == "":
		result.Status = models.RequirementMet
		result.Met = true
	case result.Explanation != "" || result.HasFixControl || result.HasRetryControl || result.HasSkipControl:
		result.Status = models.RequirementUnmet
	case actionExists && !actionEnabled:
		// Disabled with no explanation: no confident call, treated as not met.
		result.Status = models.RequirementUnknown
	default:
		// No requirement surface at all: assume met, there is no signal to
		// the contrary.
		result.Status = models.RequirementUnknown
		result.Met = true
	}

	return result
}

// inferFixKind guesses the fix category from explanation-text keywords, with
// navigation as the safe default. This is acknowledged best-effort, kept
// behind one function so an explicit contract attribute can replace it
// without touching the resolver's control flow.
func inferFixKind(explanation string) models.FixKind {
	lower := strings.ToLower(explanation)
	switch {
	case strings.Contains(lower, "location"):
		return models.FixLocation
	case strings.Contains(lower, "expand"):
		return models.FixExpandParentNav
	case strings.Contains(lower, "scroll") || strings.Contains(lower, "load more"):
		return models.FixLazyScroll
	default:
		return models.FixNavigation
	}
}
