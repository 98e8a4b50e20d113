package browser

import "fmt"

// Step contract attribute surface. Whatever renders the guide exposes these
// data attributes; the engine only ever reads them and never assumes how the
// guide was authored.
const (
	// StepSelector matches every step root element.
	StepSelector = `[data-guide-step]`
	// SectionSelector matches the section grouping ancestors of steps.
	SectionSelector = `[data-guide-section]`
	// PromptSelector matches the companion prompt element of a guided step.
	PromptSelector = `[data-guide-prompt]`

	AttrStepID       = "data-guide-step"
	AttrSectionID    = "data-guide-section"
	AttrStepState    = "data-step-state"
	AttrActionType   = "data-action-type"
	AttrRefTarget    = "data-ref-target"
	AttrActionCount  = "data-action-count"
	AttrSubstepTotal = "data-substep-total"
	AttrSubstepIndex = "data-substep-index"
	AttrCompleted    = "data-completed"

	AttrPromptAction = "data-prompt-action"
	AttrPromptTarget = "data-prompt-target"
	AttrPromptValue  = "data-prompt-value"
	AttrFormState    = "data-form-state"

	// PromptContinueSelector is the acknowledge control for noop sub-steps.
	PromptContinueSelector = `[data-prompt-continue]`
	// PromptSkipSelector is the optional skip control on the prompt.
	PromptSkipSelector = `[data-prompt-skip]`
)

// Form validity values reported through AttrFormState.
const (
	FormStateValid   = "valid"
	FormStateInvalid = "invalid"
	FormStatePending = "pending"
)

// StepSelectorFor returns the selector locating one step root by id.
func StepSelectorFor(stepID string) string {
	return fmt.Sprintf(`[data-guide-step=%q]`, stepID)
}

// ActionControlSelector returns the selector for a step's action control.
func ActionControlSelector(stepID string) string {
	return fmt.Sprintf(`[data-step-action=%q]`, stepID)
}

// FixControlSelector returns the selector for a step's requirement-fix control.
func FixControlSelector(stepID string) string {
	return fmt.Sprintf(`[data-step-fix=%q]`, stepID)
}

// RetryControlSelector returns the selector for a step's requirement-retry control.
func RetryControlSelector(stepID string) string {
	return fmt.Sprintf(`[data-step-retry=%q]`, stepID)
}

// SkipControlSelector returns the selector for a step's skip control.
func SkipControlSelector(stepID string) string {
	return fmt.Sprintf(`[data-step-skip=%q]`, stepID)
}

// RequirementSelector returns the selector for a step's requirement
// explanation element.
func RequirementSelector(stepID string) string {
	return fmt.Sprintf(`[data-step-requirement=%q]`, stepID)
}

// CheckingSelector returns the selector for a step's requirement-checking
// spinner.
func CheckingSelector(stepID string) string {
	return fmt.Sprintf(`[data-step-checking=%q]`, stepID)
}
