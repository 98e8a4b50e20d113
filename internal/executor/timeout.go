package executor

import (
	"time"

	"github.com/harrison/guidewalk/internal/models"
)

// ComputeStepTimeout derives the per-step budget: the base timeout plus a
// per-unit surcharge for multistep and guided steps. The guided surcharge
// takes precedence when a step carries both flags; guides should not set
// both, but a defined answer beats an undefined one.
func ComputeStepTimeout(step models.TestableStep, opts Options) time.Duration {
	switch {
	case step.Guided && step.GuidedStepCount > 0:
		return opts.BaseTimeout + time.Duration(step.GuidedStepCount)*opts.GuidedSurcharge
	case step.Multistep && step.ActionCount > 0:
		return opts.BaseTimeout + time.Duration(step.ActionCount)*opts.MultistepSurcharge
	default:
		return opts.BaseTimeout
	}
}
