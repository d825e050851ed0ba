package task

import (
	"testing"
	"time"
)

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusKilled, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusRunning.Valid() {
		t.Error("running should be valid")
	}
	if Status("paused").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestSessionName(t *testing.T) {
	if got := SessionName("00017"); got != "task_00017" {
		t.Errorf("SessionName = %q", got)
	}
}

func TestFormatID(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "00001"},
		{42, "00042"},
		{99999, "99999"},
		{100000, "100000"}, // grows past the padding rather than truncating
	}
	for _, tt := range tests {
		if got := FormatID(tt.n); got != tt.want {
			t.Errorf("FormatID(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	start := time.Now().Add(-10 * time.Second)
	end := start.Add(4 * time.Second)

	finished := &Task{StartTime: &start, EndTime: &end}
	if got := finished.Duration(); got != 4*time.Second {
		t.Errorf("finished Duration = %v, want 4s", got)
	}

	never := &Task{}
	if got := never.Duration(); got != 0 {
		t.Errorf("unstarted Duration = %v, want 0", got)
	}

	running := &Task{StartTime: &start}
	if got := running.Duration(); got < 9*time.Second {
		t.Errorf("running Duration = %v, want roughly 10s", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	start := time.Now()
	code := 1
	orig := &Task{
		ID:        "00001",
		StartTime: &start,
		ExitCode:  &code,
	}

	clone := orig.Clone()
	*clone.StartTime = start.Add(time.Hour)
	*clone.ExitCode = 99

	if !orig.StartTime.Equal(start) {
		t.Error("clone shares StartTime pointer")
	}
	if *orig.ExitCode != 1 {
		t.Error("clone shares ExitCode pointer")
	}
}
