// Package report renders a run's results as a markdown summary and,
// optionally, a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/harrison/guidewalk/internal/filelock"
	"github.com/harrison/guidewalk/internal/models"
)

// Meta carries run identity for the report header.
type Meta struct {
	RunID     string
	GuideURL  string
	StartedAt time.Time
}

// Generator writes report files into a target directory.
type Generator struct {
	dir string
	md  goldmark.Markdown
}

// NewGenerator returns a generator writing into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{
		dir: dir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
		),
	}
}

// WriteMarkdown renders the run to report.md and returns its path.
func (g *Generator) WriteMarkdown(run *models.RunResult, meta Meta) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(g.dir, "report.md")
	if err := filelock.AtomicWrite(path, []byte(Render(run, meta))); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// WriteHTML renders the run to report.html via goldmark and returns its
// path.
func (g *Generator) WriteHTML(run *models.RunResult, meta Meta) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	var body bytes.Buffer
	if err := g.md.Convert([]byte(Render(run, meta)), &body); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	page.WriteString(fmt.Sprintf("<title>Guide run %s</title>\n", htmlEscape(meta.RunID)))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	path := filepath.Join(g.dir, "report.html")
	if err := filelock.AtomicWrite(path, page.Bytes()); err != nil {
		return "", fmt.Errorf("write report html: %w", err)
	}
	return path, nil
}

// Render builds the markdown report text.
func Render(run *models.RunResult, meta Meta) string {
	summary := run.Summary()
	var sb strings.Builder

	sb.WriteString("# Guide Run Report\n\n")
	if meta.RunID != "" {
		sb.WriteString(fmt.Sprintf("- **Run:** %s\n", meta.RunID))
	}
	if meta.GuideURL != "" {
		sb.WriteString(fmt.Sprintf("- **Guide:** %s\n", meta.GuideURL))
	}
	if !meta.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Started:** %s\n", meta.StartedAt.Format(time.RFC3339)))
	}
	verdict := "PASSED"
	if !summary.Success {
		verdict = "FAILED"
	}
	sb.WriteString(fmt.Sprintf("- **Result:** %s\n\n", verdict))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Total | Passed | Failed | Skipped | Not reached | Duration |\n")
	sb.WriteString("|------:|-------:|-------:|--------:|------------:|---------:|\n")
	sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d | %s |\n\n",
		summary.Total, summary.Passed, summary.Failed, summary.Skipped, summary.NotReached, summary.Duration.Round(time.Second)))

	if summary.Failed > 0 {
		sb.WriteString(fmt.Sprintf("Mandatory failures: %d, skippable failures: %d.\n\n", summary.MandatoryFailed, summary.SkippableFailed))
	}

	if run.Aborted {
		sb.WriteString(fmt.Sprintf("**Run aborted** (`%s`): %s\n\n", run.AbortReason, run.AbortMessage))
	}

	sb.WriteString("## Steps\n\n")
	sb.WriteString("| # | Step | Status | Duration | Detail |\n")
	sb.WriteString("|--:|------|--------|---------:|--------|\n")
	for i, res := range run.Results {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, res.StepID, stepStatus(res), res.Duration.Round(time.Millisecond), stepDetail(res)))
	}
	sb.WriteString("\n")

	if failures := failedResults(run); len(failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, res := range failures {
			sb.WriteString(fmt.Sprintf("### %s\n\n", res.StepID))
			sb.WriteString(fmt.Sprintf("- Classification: `%s`\n", res.Classification))
			sb.WriteString(fmt.Sprintf("- Error: %s\n", res.Error))
			if res.CurrentURL != "" {
				sb.WriteString(fmt.Sprintf("- URL: %s\n", res.CurrentURL))
			}
			if res.Artifacts != nil {
				if res.Artifacts.Screenshot != "" {
					sb.WriteString(fmt.Sprintf("- Screenshot: %s\n", res.Artifacts.Screenshot))
				}
				if res.Artifacts.DOM != "" {
					sb.WriteString(fmt.Sprintf("- DOM snapshot: %s\n", res.Artifacts.DOM))
				}
				if res.Artifacts.Console != "" {
					sb.WriteString(fmt.Sprintf("- Console errors: %s\n", res.Artifacts.Console))
				}
			}
			if len(res.ConsoleErrors) > 0 {
				sb.WriteString("- Console:\n")
				for _, line := range res.ConsoleErrors {
					sb.WriteString(fmt.Sprintf("  - `%s`\n", line))
				}
			}
			sb.WriteString("\n")
		}
	}

	if run.FinalArtifact != "" {
		sb.WriteString(fmt.Sprintf("Final screenshot: %s\n", run.FinalArtifact))
	}

	return sb.String()
}

func stepStatus(res models.StepTestResult) string {
	return strings.ToUpper(string(res.Status))
}

func stepDetail(res models.StepTestResult) string {
	switch res.Status {
	case models.StatusSkipped:
		return string(res.SkipReason)
	case models.StatusFailed:
		return res.Error
	case models.StatusNotReached:
		if res.Classification != "" {
			return string(res.Classification)
		}
		return ""
	default:
		return ""
	}
}

func failedResults(run *models.RunResult) []models.StepTestResult {
	var out []models.StepTestResult
	for _, res := range run.Results {
		if res.Status == models.StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return replacer.Replace(s)
}
