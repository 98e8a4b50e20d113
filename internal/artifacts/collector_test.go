package artifacts

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/guidewalk/internal/browser/browsertest"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) LogWarn(message string) {
	l.warnings = append(l.warnings, message)
}

func TestOnFailureCapturesFullBundle(t *testing.T) {
	dir := t.TempDir()
	page := browsertest.NewPage()
	page.ScreenshotData = []byte("png-bytes")
	page.HTMLValue = "<html><body>broken</body></html>"

	c := NewCollector(dir, nil)
	paths := c.OnFailure(page, "step-1", []string{"TypeError: x is undefined"})

	require.NotNil(t, paths)
	assert.Equal(t, filepath.Join(dir, "step-1-failure.png"), paths.Screenshot)
	assert.Equal(t, filepath.Join(dir, "step-1-dom.html"), paths.DOM)
	assert.Equal(t, filepath.Join(dir, "step-1-console.json"), paths.Console)

	html, err := os.ReadFile(paths.DOM)
	require.NoError(t, err)
	assert.Contains(t, string(html), "broken")

	raw, err := os.ReadFile(paths.Console)
	require.NoError(t, err)
	var lines []string
	require.NoError(t, json.Unmarshal(raw, &lines))
	assert.Equal(t, []string{"TypeError: x is undefined"}, lines)
}

func TestOnFailureSkipsConsoleWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	c := NewCollector(dir, nil)

	paths := c.OnFailure(browsertest.NewPage(), "step-1", nil)

	require.NotNil(t, paths)
	assert.Empty(t, paths.Console)
	_, err := os.Stat(filepath.Join(dir, "step-1-console.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestScreenshotFailureDoesNotBlockDOMCapture(t *testing.T) {
	dir := t.TempDir()
	page := browsertest.NewPage()
	page.ScreenshotErr = errors.New("target closed")

	log := &recordingLogger{}
	c := NewCollector(dir, log)
	paths := c.OnFailure(page, "step-1", nil)

	require.NotNil(t, paths)
	assert.Empty(t, paths.Screenshot)
	assert.NotEmpty(t, paths.DOM)
	assert.NotEmpty(t, log.warnings)
}

func TestOnFailureReturnsNilWhenNothingCaptured(t *testing.T) {
	dir := t.TempDir()
	page := browsertest.NewPage()
	page.ScreenshotErr = errors.New("target closed")
	page.HTMLErr = errors.New("target closed")

	c := NewCollector(dir, &recordingLogger{})
	assert.Nil(t, c.OnFailure(page, "step-1", nil))
}

func TestPreStepAndFinalPaths(t *testing.T) {
	dir := t.TempDir()
	page := browsertest.NewPage()
	c := NewCollector(dir, nil)

	assert.Equal(t, filepath.Join(dir, "step-1-pre.png"), c.PreStep(page, "step-1"))
	assert.Equal(t, filepath.Join(dir, "execution-final.png"), c.Final(page))
}

func TestOnSuccessScreenshot(t *testing.T) {
	dir := t.TempDir()
	c := NewCollector(dir, nil)

	paths := c.OnSuccess(browsertest.NewPage(), "step-2")
	require.NotNil(t, paths)
	assert.Equal(t, filepath.Join(dir, "step-2-success.png"), paths.Screenshot)
}

func TestCollectorCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "run")
	c := NewCollector(dir, nil)

	paths := c.OnSuccess(browsertest.NewPage(), "step-1")
	require.NotNil(t, paths)
	_, err := os.Stat(dir)
	assert.NoError(t, err)
}
