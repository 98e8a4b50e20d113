package models

import "time"

// RequirementStatus is the derived state of a step's prerequisites.
type RequirementStatus string

const (
	// RequirementMet means the action control is enabled and no blocking
	// signal is present.
	RequirementMet RequirementStatus = "met"
	// RequirementUnmet means the page shows an explanation or remediation
	// control for an unsatisfied prerequisite.
	RequirementUnmet RequirementStatus = "unmet"
	// RequirementChecking means the page is still evaluating prerequisites.
	RequirementChecking RequirementStatus = "checking"
	// RequirementUnknown means no signal allowed a confident call either way.
	RequirementUnknown RequirementStatus = "unknown"
)

// FixKind is the inferred category of an automatic requirement fix.
type FixKind string

const (
	FixNavigation      FixKind = "navigation"
	FixLocation        FixKind = "location"
	FixExpandParentNav FixKind = "expand-parent-navigation"
	FixLazyScroll      FixKind = "lazy-scroll"
)

// RequirementResult is a point-in-time snapshot of a step's prerequisite
// surface. It is produced fresh on every check and never mutated.
type RequirementResult struct {
	Met             bool
	Status          RequirementStatus
	HasFixControl   bool
	FixKind         FixKind // meaningful only when HasFixControl
	Skippable       bool
	Explanation     string // requirement explanation text, empty if none
	Checking        bool
	HasSkipControl  bool
	HasRetryControl bool
}

// FixAttempt records one pass of the bounded auto-fix loop.
type FixAttempt struct {
	Attempt  int // 1-indexed
	Duration time.Duration
	Success  bool
	MetAfter bool // requirements were met after this attempt
}

// FixResult is the outcome of the bounded auto-fix loop for one step.
type FixResult struct {
	Success       bool
	TotalAttempts int
	Attempts      []FixAttempt
	FinalStatus   RequirementStatus
	FailureReason string // set when Success is false
}
