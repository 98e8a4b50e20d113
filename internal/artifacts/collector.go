// Package artifacts persists diagnostic captures (screenshots, DOM
// snapshots, console logs) around step outcomes.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/guidewalk/internal/browser"
	"github.com/harrison/guidewalk/internal/models"
)

// Logger is the narrow logging surface the collector needs. Capture failures
// are warnings, never errors: a failed screenshot must not block DOM capture
// or the step result.
type Logger interface {
	LogWarn(message string)
}

// Collector writes capture files into a run directory.
type Collector struct {
	dir string
	log Logger
}

// NewCollector returns a collector writing into dir. The directory is
// created lazily on first capture. log may be nil.
func NewCollector(dir string, log Logger) *Collector {
	return &Collector{dir: dir, log: log}
}

// Dir returns the collector's target directory.
func (c *Collector) Dir() string {
	return c.dir
}

// OnFailure captures the failure bundle for a step: screenshot, DOM
// snapshot, and the collected console errors (only when non-empty). Each
// capture is independently best-effort. Returns nil only when nothing was
// captured.
func (c *Collector) OnFailure(page browser.Page, stepID string, consoleErrors []string) *models.ArtifactPaths {
	if err := c.ensureDir(); err != nil {
		c.warn(fmt.Sprintf("artifacts dir: %v", err))
		return nil
	}

	paths := models.ArtifactPaths{}
	paths.Screenshot = c.screenshot(page, fmt.Sprintf("%s-failure.png", stepID))
	paths.DOM = c.domSnapshot(page, stepID)
	if len(consoleErrors) > 0 {
		paths.Console = c.consoleDump(stepID, consoleErrors)
	}
	if paths.Empty() {
		return nil
	}
	return &paths
}

// OnSuccess captures a post-step screenshot for passing steps when the
// always-screenshot policy is on.
func (c *Collector) OnSuccess(page browser.Page, stepID string) *models.ArtifactPaths {
	if err := c.ensureDir(); err != nil {
		c.warn(fmt.Sprintf("artifacts dir: %v", err))
		return nil
	}
	path := c.screenshot(page, fmt.Sprintf("%s-success.png", stepID))
	if path == "" {
		return nil
	}
	return &models.ArtifactPaths{Screenshot: path}
}

// PreStep captures the page state before a step is driven. Returns the file
// path or empty.
func (c *Collector) PreStep(page browser.Page, stepID string) string {
	if err := c.ensureDir(); err != nil {
		c.warn(fmt.Sprintf("artifacts dir: %v", err))
		return ""
	}
	return c.screenshot(page, fmt.Sprintf("%s-pre.png", stepID))
}

// Final captures the end-of-run page state.
func (c *Collector) Final(page browser.Page) string {
	if err := c.ensureDir(); err != nil {
		c.warn(fmt.Sprintf("artifacts dir: %v", err))
		return ""
	}
	return c.screenshot(page, "execution-final.png")
}

func (c *Collector) ensureDir() error {
	return os.MkdirAll(c.dir, 0o755)
}

func (c *Collector) screenshot(page browser.Page, name string) string {
	data, err := page.Screenshot(false)
	if err != nil {
		c.warn(fmt.Sprintf("screenshot %s: %v", name, err))
		return ""
	}
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.warn(fmt.Sprintf("write %s: %v", name, err))
		return ""
	}
	return path
}

func (c *Collector) domSnapshot(page browser.Page, stepID string) string {
	html, err := page.HTML()
	if err != nil {
		c.warn(fmt.Sprintf("dom snapshot for %s: %v", stepID, err))
		return ""
	}
	path := filepath.Join(c.dir, fmt.Sprintf("%s-dom.html", stepID))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		c.warn(fmt.Sprintf("write dom snapshot for %s: %v", stepID, err))
		return ""
	}
	return path
}

func (c *Collector) consoleDump(stepID string, consoleErrors []string) string {
	data, err := json.MarshalIndent(consoleErrors, "", "  ")
	if err != nil {
		c.warn(fmt.Sprintf("encode console errors for %s: %v", stepID, err))
		return ""
	}
	path := filepath.Join(c.dir, fmt.Sprintf("%s-console.json", stepID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.warn(fmt.Sprintf("write console errors for %s: %v", stepID, err))
		return ""
	}
	return path
}

func (c *Collector) warn(msg string) {
	if c.log != nil {
		c.log.LogWarn(msg)
	}
}
