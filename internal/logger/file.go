package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/guidewalk/internal/models"
)

// FileLogger logs run events to timestamped files in a log directory and
// maintains a latest.log symlink pointing to the most recent run. It is
// thread-safe and never emits color codes.
type FileLogger struct {
	runLog  *os.File
	runFile string
	inner   *ConsoleLogger
}

// NewFileLogger creates a FileLogger writing into logDir, creating the
// directory when missing. The run file is named run-YYYYMMDD-HHMMSS.log.
func NewFileLogger(logDir, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	// Best-effort symlink; some filesystems reject them.
	symlink := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlink); err == nil {
		os.Remove(symlink)
	}
	os.Symlink(filepath.Base(runFile), symlink)

	inner := NewConsoleLogger(file, logLevel)
	inner.colorOutput = false
	return &FileLogger{
		runLog:  file,
		runFile: runFile,
		inner:   inner,
	}, nil
}

// RunFile returns the path of the current run's log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	return fl.runLog.Close()
}

// LogDebug logs a debug-level message to the run file.
func (fl *FileLogger) LogDebug(message string) {
	fl.inner.LogDebug(message)
}

// LogInfo logs an info-level message to the run file.
func (fl *FileLogger) LogInfo(message string) {
	fl.inner.LogInfo(message)
}

// LogWarn logs a warning-level message to the run file.
func (fl *FileLogger) LogWarn(message string) {
	fl.inner.LogWarn(message)
}

// LogError logs an error-level message to the run file.
func (fl *FileLogger) LogError(message string) {
	fl.inner.LogError(message)
}

// LogStepResult logs a step's terminal result to the run file.
func (fl *FileLogger) LogStepResult(result models.StepTestResult) {
	fl.inner.LogStepResult(result)
}

// LogRunSummary logs the end-of-run statistics to the run file.
func (fl *FileLogger) LogRunSummary(summary models.RunSummary) {
	fl.inner.LogRunSummary(summary)
}
