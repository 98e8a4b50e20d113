// Package logger provides logging implementations for guidewalk runs.
//
// The logger package offers leveled logging of run progress at the step and
// summary levels. Implementations are thread-safe and support various output
// destinations (console, file).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/guidewalk/internal/models"
)

// Log level constants for filtering
const (
	levelDebug int = 0
	levelInfo  int = 1
	levelWarn  int = 2
	levelError int = 3
)

// ConsoleLogger logs run progress to a writer with timestamps and thread
// safety. All output is prefixed with [HH:MM:SS] timestamps. It supports log
// level filtering to control message verbosity. Color output is enabled
// automatically when writing to a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded.
// Valid levels: debug, info, warn, error (case-insensitive); empty or
// invalid levels default to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates
// it. Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

func colorLevel(level string) string {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogStepResult logs the terminal result of one step at INFO level.
// Format: "[HH:MM:SS] Step <id>: <STATUS> (<duration>)"
func (cl *ConsoleLogger) LogStepResult(result models.StepTestResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	status := strings.ToUpper(string(result.Status))
	if cl.colorOutput {
		status = colorStatus(result.Status)
	}

	detail := formatDuration(result.Duration)
	switch {
	case result.Status == models.StatusSkipped && result.SkipReason != "":
		detail = string(result.SkipReason)
	case result.Status == models.StatusFailed && result.Error != "":
		detail = fmt.Sprintf("%s, %s", formatDuration(result.Duration), result.Error)
	}

	cl.writer.Write([]byte(fmt.Sprintf("[%s] Step %s: %s (%s)\n", ts, result.StepID, status, detail)))
}

func colorStatus(status models.StepStatus) string {
	text := strings.ToUpper(string(status))
	switch status {
	case models.StatusPassed:
		return color.New(color.FgGreen).Sprint(text)
	case models.StatusFailed:
		return color.New(color.FgRed).Sprint(text)
	case models.StatusSkipped:
		return color.New(color.FgYellow).Sprint(text)
	case models.StatusNotReached:
		return color.New(color.FgHiBlack).Sprint(text)
	default:
		return text
	}
}

// LogRunSummary logs the end-of-run statistics at INFO level.
func (cl *ConsoleLogger) LogRunSummary(summary models.RunSummary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	header := "=== Run Summary ==="
	passed := fmt.Sprintf("Passed: %d", summary.Passed)
	failed := fmt.Sprintf("Failed: %d (mandatory %d, skippable %d)", summary.Failed, summary.MandatoryFailed, summary.SkippableFailed)
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
		passed = color.New(color.FgGreen).Sprint(passed)
		if summary.Failed > 0 {
			failed = color.New(color.FgRed).Sprint(failed)
		}
	}

	output := fmt.Sprintf("[%s] %s\n", ts, header)
	output += fmt.Sprintf("[%s] Total steps: %d\n", ts, summary.Total)
	output += fmt.Sprintf("[%s] %s\n", ts, passed)
	output += fmt.Sprintf("[%s] %s\n", ts, failed)
	output += fmt.Sprintf("[%s] Skipped: %d\n", ts, summary.Skipped)
	if summary.NotReached > 0 {
		output += fmt.Sprintf("[%s] Not reached: %d\n", ts, summary.NotReached)
	}
	output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(summary.Duration))

	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, remainder/time.Second)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, remainder/time.Second)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a logger implementation that discards all messages. Useful
// for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogDebug is a no-op implementation.
func (n *NoOpLogger) LogDebug(message string) {
}

// LogInfo is a no-op implementation.
func (n *NoOpLogger) LogInfo(message string) {
}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(message string) {
}

// LogError is a no-op implementation.
func (n *NoOpLogger) LogError(message string) {
}

// LogStepResult is a no-op implementation.
func (n *NoOpLogger) LogStepResult(result models.StepTestResult) {
}

// LogRunSummary is a no-op implementation.
func (n *NoOpLogger) LogRunSummary(summary models.RunSummary) {
}
