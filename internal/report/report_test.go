package report

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/guidewalk/internal/models"
)

func sampleRun() *models.RunResult {
	steps := []models.TestableStep{
		{ID: "create-dashboard"},
		{ID: "add-panel", Skippable: true},
		{ID: "save"},
	}
	return &models.RunResult{
		Results: []models.StepTestResult{
			models.PassedResult(steps[0], 3*time.Second, "https://app.example.test/d/1", nil),
			models.SkippedResult(steps[1], models.SkipPreCompleted, 0, ""),
			models.FailedResult(steps[2], "step save: timeout after 30s", models.ClassInfrastructure, 30*time.Second, "https://app.example.test/d/1", []string{"TypeError: boom"}),
		},
		Aborted:      true,
		AbortReason:  models.AbortMandatoryFailure,
		AbortMessage: "mandatory step save failed: step save: timeout after 30s",
	}
}

func sampleMeta() Meta {
	return Meta{
		RunID:     "2c3e9a34",
		GuideURL:  "https://app.example.test/guides/getting-started",
		StartedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}
}

func TestRenderContainsSummaryAndSteps(t *testing.T) {
	out := Render(sampleRun(), sampleMeta())

	assert.Contains(t, out, "# Guide Run Report")
	assert.Contains(t, out, "**Run:** 2c3e9a34")
	assert.Contains(t, out, "**Result:** FAILED")
	assert.Contains(t, out, "| 3 | 1 | 1 | 1 | 0 |")
	assert.Contains(t, out, "| 1 | create-dashboard | PASSED |")
	assert.Contains(t, out, "| 2 | add-panel | SKIPPED |")
	assert.Contains(t, out, "pre_completed")
	assert.Contains(t, out, "**Run aborted** (`MANDATORY_FAILURE`)")
	assert.Contains(t, out, "### save")
	assert.Contains(t, out, "Classification: `infrastructure`")
	assert.Contains(t, out, "`TypeError: boom`")
}

func TestRenderSuccessfulRun(t *testing.T) {
	step := models.TestableStep{ID: "only"}
	run := &models.RunResult{
		Results: []models.StepTestResult{
			models.PassedResult(step, time.Second, "", nil),
		},
	}

	out := Render(run, Meta{})

	assert.Contains(t, out, "**Result:** PASSED")
	assert.NotContains(t, out, "## Failures")
	assert.NotContains(t, out, "Run aborted")
}

func TestWriteMarkdownAndHTML(t *testing.T) {
	g := NewGenerator(t.TempDir())

	mdPath, err := g.WriteMarkdown(sampleRun(), sampleMeta())
	require.NoError(t, err)
	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Guide Run Report")

	htmlPath, err := g.WriteHTML(sampleRun(), sampleMeta())
	require.NoError(t, err)
	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<!DOCTYPE html>")
	assert.Contains(t, string(html), "<h1>Guide Run Report</h1>")
	// GFM tables render as real HTML tables.
	assert.Contains(t, string(html), "<table>")
	assert.Contains(t, string(html), "create-dashboard")
}
