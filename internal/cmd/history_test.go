package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/guidewalk/internal/history"
)

func seedHistoryDB(t *testing.T, dbPath string) {
	t.Helper()

	store, err := history.NewStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	runs := []struct {
		runID   string
		success bool
		steps   []history.StepRecord
	}{
		{
			runID:   "run-aaaa",
			success: true,
			steps: []history.StepRecord{
				{StepID: "add-panel", Status: "passed", Duration: 2 * time.Second},
				{StepID: "save-dashboard", Status: "passed", Duration: time.Second},
			},
		},
		{
			runID:   "run-bbbb",
			success: false,
			steps: []history.StepRecord{
				{StepID: "add-panel", Status: "passed", Duration: 2 * time.Second},
				{StepID: "save-dashboard", Status: "failed", Classification: "infrastructure", Duration: 31 * time.Second},
			},
		},
	}

	for i, r := range runs {
		record := &history.RunRecord{
			RunID:      r.runID,
			GuideURL:   "https://app.example.test/guides/setup",
			StartedAt:  time.Now().Add(-time.Duration(len(runs)-i) * time.Hour),
			Duration:   40 * time.Second,
			TotalSteps: len(r.steps),
			Success:    r.success,
		}
		for _, s := range r.steps {
			switch s.Status {
			case "passed":
				record.Passed++
			case "failed":
				record.Failed++
			}
		}
		if err := store.RecordRun(context.Background(), record, r.steps); err != nil {
			t.Fatalf("Failed to record run: %v", err)
		}
	}
}

func TestHistoryListCommand(t *testing.T) {
	dir := t.TempDir()
	chdirT(t, dir)
	dbPath := filepath.Join(dir, "history.db")
	seedHistoryDB(t, dbPath)

	cmd := NewHistoryCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"list", "--db", dbPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	outputStr := output.String()
	if !strings.Contains(outputStr, "run-aaaa") || !strings.Contains(outputStr, "run-bbbb") {
		t.Errorf("Expected both run IDs in output, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "PASSED") || !strings.Contains(outputStr, "FAILED") {
		t.Errorf("Expected run results in output, got: %s", outputStr)
	}

	// Most recent run first.
	if strings.Index(outputStr, "run-bbbb") > strings.Index(outputStr, "run-aaaa") {
		t.Errorf("Expected most recent run first, got: %s", outputStr)
	}
}

func TestHistoryListCommandEmpty(t *testing.T) {
	dir := t.TempDir()
	chdirT(t, dir)

	cmd := NewHistoryCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"list", "--db", filepath.Join(dir, "empty.db")})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	if !strings.Contains(output.String(), "No recorded runs") {
		t.Errorf("Expected empty-history message, got: %s", output.String())
	}
}

func TestHistoryFlakyCommand(t *testing.T) {
	dir := t.TempDir()
	chdirT(t, dir)
	dbPath := filepath.Join(dir, "history.db")
	seedHistoryDB(t, dbPath)

	cmd := NewHistoryCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"flaky", "--db", dbPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	outputStr := output.String()
	// save-dashboard passed once and failed once; add-panel always passed.
	if !strings.Contains(outputStr, "save-dashboard") {
		t.Errorf("Expected flaky step in output, got: %s", outputStr)
	}
	if strings.Contains(outputStr, "add-panel") {
		t.Errorf("Stable step should not be listed as flaky, got: %s", outputStr)
	}
}

func TestHistoryPruneCommand(t *testing.T) {
	dir := t.TempDir()
	chdirT(t, dir)
	dbPath := filepath.Join(dir, "history.db")
	seedHistoryDB(t, dbPath)

	cmd := NewHistoryCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"prune", "--db", dbPath, "--keep-days", "30"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command failed: %v", err)
	}

	if !strings.Contains(output.String(), "30 days") {
		t.Errorf("Expected retention window in output, got: %s", output.String())
	}

	// Recent runs survive a 30-day window.
	store, err := history.NewStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()
	runs, err := store.Runs(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("Expected 2 runs after prune, got %d", len(runs))
	}
}
