package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StepError represents an error that occurred while driving a single step.
// It includes context about which step failed and when.
type StepError struct {
	StepID    string    // Identifier of the step that failed
	Message   string    // Human-readable error message
	Err       error     // Underlying error (optional)
	Timestamp time.Time // When the error occurred
}

// NewStepError creates a new StepError with the current timestamp.
func NewStepError(stepID, msg string, err error) *StepError {
	return &StepError{
		StepID:    stepID,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for StepError.
func (e *StepError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("step %s: %s", e.StepID, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *StepError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a bounded wait that expired while driving a step.
type TimeoutError struct {
	StepID          string        // Identifier of the step that timed out
	TimeoutDuration time.Duration // Duration after which timeout occurred
	Context         string        // What the engine was waiting for (optional)
	Timestamp       time.Time     // When the timeout occurred
}

// NewTimeoutError creates a new TimeoutError with the current timestamp.
func NewTimeoutError(stepID string, duration time.Duration, waitingFor string) *TimeoutError {
	return &TimeoutError{
		StepID:          stepID,
		TimeoutDuration: duration,
		Context:         waitingFor,
		Timestamp:       time.Now(),
	}
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("step %s: timeout after %v", e.StepID, e.TimeoutDuration))
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Context))
	}
	return sb.String()
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsStepError checks if the error is or wraps a StepError.
func IsStepError(err error) bool {
	if err == nil {
		return false
	}
	var se *StepError
	return errors.As(err, &se)
}

// IsTimeoutError checks if the error is or wraps a TimeoutError or
// context.DeadlineExceeded.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
