package tmux

import (
	"strings"
	"testing"
)

func TestTailLines(t *testing.T) {
	text := "one\ntwo\nthree\nfour\nfive"

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"last two", 2, "four\nfive"},
		{"exact count", 5, text},
		{"more than available", 10, text},
		{"zero returns all", 0, text},
		{"negative returns all", -1, text},
		{"single line", 1, "five"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TailLines(text, tt.n); got != tt.want {
				t.Errorf("TailLines(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestTailLinesEmpty(t *testing.T) {
	if got := TailLines("", 5); got != "" {
		t.Errorf("TailLines on empty = %q", got)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/plain/path.log", "'/plain/path.log'"},
		{"/path with space/x.log", "'/path with space/x.log'"},
		{"/it's/here.log", `'/it'\''s/here.log'`},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientCommandIncludesSocket(t *testing.T) {
	c := NewClient("taskmux-test", 80, 24, 1000)

	cmd := c.command("has-session", "-t", "task_00001")
	args := strings.Join(cmd.Args, " ")
	if !strings.HasPrefix(args, "tmux -L taskmux-test ") {
		t.Errorf("command args = %q, want -L socket prefix", args)
	}
	if !strings.HasSuffix(args, "has-session -t task_00001") {
		t.Errorf("command args = %q", args)
	}
}

func TestExecClientSatisfiesInterface(t *testing.T) {
	var _ Client = NewClient("taskmux", 200, 50, 10000)
}
