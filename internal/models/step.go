// Package models defines the data types shared across the guidewalk engine:
// discovered steps, requirement snapshots, fix outcomes, and per-step and
// per-run results.
package models

// ActionType identifies the kind of action a step's control performs when
// invoked.
type ActionType string

// Known target action types exposed by the step contract.
const (
	ActionHighlight ActionType = "highlight"
	ActionButton    ActionType = "button"
	ActionNavigate  ActionType = "navigate"
	ActionFormFill  ActionType = "formfill"
	ActionNoop      ActionType = "noop"
	ActionMultistep ActionType = "multistep"
	ActionGuided    ActionType = "guided"
	ActionHover     ActionType = "hover"
)

// TestableStep is a step discovered in the rendered guide. It is created once
// by discovery and read-only for the remainder of the run.
type TestableStep struct {
	ID               string     // stable identifier from the step contract
	Index            int        // document order, zero-based
	SectionID        string     // nearest ancestor section, empty if none
	Selector         string     // selector that re-locates the live element
	Skippable        bool       // a skip control is rendered for this step
	HasActionControl bool       // an action-invocation control exists
	PreCompleted     bool       // step was already completed before the run
	ActionType       ActionType // declared target action type, may be empty
	RefTarget        string     // page element the action targets
	Multistep        bool
	ActionCount      int // internal actions for multistep steps
	Guided           bool
	GuidedStepCount  int // declared sub-steps, >= 1 when Guided
}

// Mandatory reports whether a failure of this step should abort the run.
func (s TestableStep) Mandatory() bool {
	return !s.Skippable
}

// StepState is the lifecycle state a step element reports through the
// contract's state attribute.
type StepState string

const (
	StateIdle      StepState = "idle"
	StateExecuting StepState = "executing"
	StateCompleted StepState = "completed"
	StateError     StepState = "error"
	StateCancelled StepState = "cancelled"
)

// Terminal reports whether the state ends the guided protocol for a step.
func (s StepState) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateCancelled
}
