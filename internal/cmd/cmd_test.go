package cmd

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/taskmux/taskmux/internal/task"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	if rootCmd.Use != "taskmux" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "taskmux")
	}

	expected := []string{"run", "list", "kill", "status", "output", "monitor", "logs", "cleanup", "resources"}
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range expected {
		if !names[want] {
			t.Errorf("expected subcommand %q not registered", want)
		}
	}
}

func TestRootCommandReportsErrorsOnce(t *testing.T) {
	// main prints the returned error, so cobra must not print it too.
	if !rootCmd.SilenceErrors {
		t.Error("SilenceErrors not set; failures would be printed twice")
	}
	if !rootCmd.SilenceUsage {
		t.Error("SilenceUsage not set")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a much longer string", 10, "a much ..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestStyledStatusCoversAllStatuses(t *testing.T) {
	for _, s := range []task.Status{
		task.StatusPending, task.StatusRunning, task.StatusCompleted,
		task.StatusFailed, task.StatusKilled,
	} {
		if _, ok := statusStyles[s]; !ok {
			t.Errorf("no style registered for status %q", s)
		}
	}
	// Unknown statuses fall back to the raw string.
	if got := styledStatus(task.Status("weird")); got != "weird" {
		t.Errorf("styledStatus(weird) = %q", got)
	}
}

func TestLogEntryUnmarshalCapturesExtras(t *testing.T) {
	line := `{"time":"2026-08-31T10:00:00Z","level":"INFO","msg":"task started","task_id":"00001","session":"task_00001"}`

	var entry logEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Level != "INFO" || entry.Msg != "task started" {
		t.Errorf("known fields not parsed: %+v", entry)
	}
	if entry.TaskID != "00001" {
		t.Errorf("TaskID = %q, want 00001", entry.TaskID)
	}
	if got, ok := entry.Extra["session"]; !ok || got != "task_00001" {
		t.Errorf("Extra[session] = %v, want task_00001", got)
	}
	if _, ok := entry.Extra["msg"]; ok {
		t.Error("known field msg leaked into Extra")
	}
}

func TestPassesFilters(t *testing.T) {
	now := time.Now()
	entry := &logEntry{
		Time:  now,
		Level: "WARN",
		Msg:   "capture fallback engaged",
		Extra: map[string]any{"mode": "poll"},
	}

	if !passesFilters(entry, -1, time.Time{}, nil) {
		t.Error("unfiltered entry rejected")
	}
	if !passesFilters(entry, levelPriority("WARN"), time.Time{}, nil) {
		t.Error("entry at min level rejected")
	}
	if passesFilters(entry, levelPriority("ERROR"), time.Time{}, nil) {
		t.Error("entry below min level accepted")
	}
	if passesFilters(entry, -1, now.Add(time.Minute), nil) {
		t.Error("entry before since-time accepted")
	}
	if !passesFilters(entry, -1, time.Time{}, regexp.MustCompile("fallback")) {
		t.Error("grep on message failed")
	}
	if !passesFilters(entry, -1, time.Time{}, regexp.MustCompile("poll")) {
		t.Error("grep should search extra field values")
	}
	if passesFilters(entry, -1, time.Time{}, regexp.MustCompile("nomatch")) {
		t.Error("non-matching grep accepted")
	}
}

func TestLevelPriorityOrdering(t *testing.T) {
	if !(levelPriority("debug") < levelPriority("info") &&
		levelPriority("info") < levelPriority("warn") &&
		levelPriority("warn") < levelPriority("error")) {
		t.Error("level priorities are not strictly increasing")
	}
	if levelPriority("bogus") != -1 {
		t.Errorf("levelPriority(bogus) = %d, want -1", levelPriority("bogus"))
	}
}
