package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/browser/browsertest"
	"github.com/harrison/guidewalk/internal/models"
)

// scriptedRunner returns a canned result per step and records the order in
// which steps were executed.
type scriptedRunner struct {
	results  map[string]models.StepTestResult
	executed []string
}

func (r *scriptedRunner) Execute(page browser.Page, step models.TestableStep) models.StepTestResult {
	r.executed = append(r.executed, step.ID)
	if res, ok := r.results[step.ID]; ok {
		return res
	}
	return models.PassedResult(step, time.Second, page.URL(), nil)
}

type scriptedSession struct {
	valid  []bool
	checks int
}

func (s *scriptedSession) IsValid(page browser.Page) bool {
	s.checks++
	if s.checks-1 < len(s.valid) {
		return s.valid[s.checks-1]
	}
	return true
}

type stubFinal struct {
	path string
}

func (f *stubFinal) Final(page browser.Page) string { return f.path }

func makeSteps(ids ...string) []models.TestableStep {
	steps := make([]models.TestableStep, len(ids))
	for i, id := range ids {
		steps[i] = models.TestableStep{ID: id, Index: i, Selector: browser.StepSelectorFor(id)}
	}
	return steps
}

func TestRunAllHappyPath(t *testing.T) {
	runner := &scriptedRunner{}
	var seen []string
	opts := DefaultRunOptions()
	opts.OnStepComplete = func(res models.StepTestResult) { seen = append(seen, res.StepID) }
	o := NewOrchestrator(runner, &scriptedSession{}, nil, nil, opts)

	run := o.RunAll(browsertest.NewPage(), makeSteps("a", "b", "c"))

	require.Len(t, run.Results, 3)
	assert.False(t, run.Aborted)
	assert.Equal(t, []string{"a", "b", "c"}, runner.executed)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	summary := run.Summary()
	assert.True(t, summary.Success)
	assert.Equal(t, 3, summary.Passed)
}

func TestRunAllMandatoryFailureAborts(t *testing.T) {
	steps := makeSteps("a", "b", "c")
	runner := &scriptedRunner{results: map[string]models.StepTestResult{
		"b": models.FailedResult(steps[1], "boom", models.ClassUnknown, time.Second, "", nil),
	}}
	o := NewOrchestrator(runner, &scriptedSession{}, nil, nil, DefaultRunOptions())

	run := o.RunAll(browsertest.NewPage(), steps)

	require.Len(t, run.Results, 3)
	assert.True(t, run.Aborted)
	assert.Equal(t, models.AbortMandatoryFailure, run.AbortReason)
	assert.Contains(t, run.AbortMessage, "mandatory step b failed")
	assert.Equal(t, models.StatusNotReached, run.Results[2].Status)
	// Mandatory-failure padding carries no classification; only the failed
	// step itself is classified.
	assert.Empty(t, run.Results[2].Classification)
	assert.Equal(t, []string{"a", "b"}, runner.executed)
	assert.False(t, run.Summary().Success)
}

func TestRunAllSkippableFailureContinues(t *testing.T) {
	steps := makeSteps("a", "b", "c")
	steps[1].Skippable = true
	runner := &scriptedRunner{results: map[string]models.StepTestResult{
		"b": models.FailedResult(steps[1], "boom", models.ClassUnknown, time.Second, "", nil),
	}}
	o := NewOrchestrator(runner, &scriptedSession{}, nil, nil, DefaultRunOptions())

	run := o.RunAll(browsertest.NewPage(), steps)

	assert.False(t, run.Aborted)
	assert.Equal(t, []string{"a", "b", "c"}, runner.executed)
	summary := run.Summary()
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.SkippableFailed)
	assert.Equal(t, 0, summary.MandatoryFailed)
}

func TestRunAllStopOnMandatoryFailureDisabled(t *testing.T) {
	steps := makeSteps("a", "b", "c")
	runner := &scriptedRunner{results: map[string]models.StepTestResult{
		"a": models.FailedResult(steps[0], "boom", models.ClassUnknown, time.Second, "", nil),
	}}
	opts := DefaultRunOptions()
	opts.StopOnMandatoryFailure = false
	o := NewOrchestrator(runner, &scriptedSession{}, nil, nil, opts)

	run := o.RunAll(browsertest.NewPage(), steps)

	assert.False(t, run.Aborted)
	assert.Equal(t, []string{"a", "b", "c"}, runner.executed)
}

func TestRunAllSessionExpiryAborts(t *testing.T) {
	runner := &scriptedRunner{}
	session := &scriptedSession{valid: []bool{false}}
	o := NewOrchestrator(runner, session, nil, nil, DefaultRunOptions())

	run := o.RunAll(browsertest.NewPage(), makeSteps("a", "b", "c"))

	require.Len(t, run.Results, 3)
	assert.True(t, run.Aborted)
	assert.Equal(t, models.AbortAuthExpired, run.AbortReason)
	assert.Empty(t, runner.executed)
	for _, res := range run.Results {
		assert.Equal(t, models.StatusNotReached, res.Status)
		assert.Equal(t, models.ClassInfrastructure, res.Classification)
	}
}

func TestRunAllSessionCheckedAtInterval(t *testing.T) {
	runner := &scriptedRunner{}
	session := &scriptedSession{}
	o := NewOrchestrator(runner, session, nil, nil, DefaultRunOptions())

	o.RunAll(browsertest.NewPage(), makeSteps("a", "b", "c", "d", "e", "f", "g"))

	// Seven steps with interval 5: checks at indices 0 and 5.
	assert.Equal(t, 2, session.checks)
}

func TestRunAllMidRunExpiryMarksRemaining(t *testing.T) {
	runner := &scriptedRunner{}
	session := &scriptedSession{valid: []bool{true, false}}
	o := NewOrchestrator(runner, session, nil, nil, DefaultRunOptions())

	run := o.RunAll(browsertest.NewPage(), makeSteps("a", "b", "c", "d", "e", "f", "g"))

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, runner.executed)
	assert.Equal(t, models.StatusNotReached, run.Results[5].Status)
	assert.Equal(t, models.StatusNotReached, run.Results[6].Status)
	assert.Equal(t, models.AbortAuthExpired, run.AbortReason)
}

func TestRunAllNilSessionCheckerSkipsValidation(t *testing.T) {
	runner := &scriptedRunner{}
	o := NewOrchestrator(runner, nil, nil, nil, DefaultRunOptions())

	run := o.RunAll(browsertest.NewPage(), makeSteps("a"))

	assert.False(t, run.Aborted)
	assert.Len(t, runner.executed, 1)
}

func TestRunAllFinalScreenshot(t *testing.T) {
	runner := &scriptedRunner{}
	opts := DefaultRunOptions()
	opts.FinalScreenshot = true
	o := NewOrchestrator(runner, nil, &stubFinal{path: "/tmp/run/execution-final.png"}, nil, opts)

	run := o.RunAll(browsertest.NewPage(), makeSteps("a"))

	assert.Equal(t, "/tmp/run/execution-final.png", run.FinalArtifact)
}
