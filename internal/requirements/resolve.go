package requirements

import (
	"fmt"
	"time"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/models"
)

// Logger is the narrow logging surface the resolver uses.
type Logger interface {
	LogDebug(message string)
}

// Options bounds the auto-fix loop.
type Options struct {
	// MaxAttempts caps fix invocations. Defaults to 3.
	MaxAttempts int
	// SettleDelay is the pause after invoking a fix control.
	SettleDelay time.Duration
	// LocationSettleDelay replaces SettleDelay for location fixes, which may
	// trigger a navigation.
	LocationSettleDelay time.Duration
	// IdleTimeout, when non-zero, additionally waits for network traffic to
	// settle after each fix.
	IdleTimeout time.Duration
}

// DefaultOptions returns the standard fix-loop bounds.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:         3,
		SettleDelay:         1500 * time.Millisecond,
		LocationSettleDelay: 3 * time.Second,
		IdleTimeout:         5 * time.Second,
	}
}

// Resolver drives the bounded fix loop for unmet requirements.
type Resolver struct {
	opts  Options
	log   Logger
	sleep func(time.Duration)
	now   func() time.Time
}

// NewResolver builds a resolver with the given bounds. log may be nil.
func NewResolver(opts Options, log Logger) *Resolver {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 1500 * time.Millisecond
	}
	if opts.LocationSettleDelay <= 0 {
		opts.LocationSettleDelay = 3 * time.Second
	}
	return &Resolver{
		opts:  opts,
		log:   log,
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// Resolve re-checks the step's requirements and, while they stay unmet and a
// fix control is available, invokes the fix up to MaxAttempts times. Every
// attempt is recorded; the loop never raises, failures are absorbed into the
// FixResult.
//
// The returned RequirementResult is the freshest snapshot; the FixResult is
// nil when no fix was needed or possible before the first attempt.
func (r *Resolver) Resolve(page browser.Page, step models.TestableStep) (models.RequirementResult, *models.FixResult) {
	req := Detect(page, step)
	if req.Met {
		return req, nil
	}
	if !req.HasFixControl {
		return req, nil
	}

	fix := &models.FixResult{}
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		req = Detect(page, step)
		if req.Met {
			fix.Success = true
			break
		}

		control, ok := page.Find(browser.FixControlSelector(step.ID))
		if !ok {
			fix.FailureReason = "no fix control available"
			break
		}

		start := r.now()
		r.debug(fmt.Sprintf("step %s: fix attempt %d/%d (%s)", step.ID, attempt, r.opts.MaxAttempts, req.FixKind))
		clickErr := control.Click()
		if clickErr == nil {
			r.settle(page, req.FixKind)
			req = Detect(page, step)
		}

		fix.TotalAttempts++
		fix.Attempts = append(fix.Attempts, models.FixAttempt{
			Attempt:  attempt,
			Duration: r.now().Sub(start),
			Success:  clickErr == nil && req.Met,
			MetAfter: req.Met,
		})

		if req.Met {
			fix.Success = true
			break
		}
	}

	fix.FinalStatus = req.Status
	if !fix.Success && fix.FailureReason == "" {
		fix.FailureReason = fmt.Sprintf("requirements still unmet after %d fix attempts", fix.TotalAttempts)
	}
	return req, fix
}

// settle gives the page time to react to a fix. Location fixes may navigate,
// so they get the longer delay.
func (r *Resolver) settle(page browser.Page, kind models.FixKind) {
	delay := r.opts.SettleDelay
	if kind == models.FixLocation {
		delay = r.opts.LocationSettleDelay
	}
	r.sleep(delay)
	if r.opts.IdleTimeout > 0 {
		page.WaitRequestIdle(r.opts.IdleTimeout)
	}
}

func (r *Resolver) debug(msg string) {
	if r.log != nil {
		r.log.LogDebug(msg)
	}
}
