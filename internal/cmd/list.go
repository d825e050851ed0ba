package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskmux/taskmux/internal/task"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List all tasks with their current status.

Running tasks are reconciled against tmux first, so a task whose session
exited on its own shows up as completed. Running tasks sort to the top,
then the rest from newest to oldest.`,
	RunE: runList,
}

var listStatus string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only show tasks with this status (pending|running|completed|failed|killed)")
}

var statusStyles = map[task.Status]lipgloss.Style{
	task.StatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // yellow
	task.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // green
	task.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // blue
	task.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // red
	task.StatusKilled:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")), // magenta
}

func styledStatus(s task.Status) string {
	if st, ok := statusStyles[s]; ok {
		return st.Render(string(s))
	}
	return string(s)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	filter := task.Status(listStatus)
	if listStatus != "" && !filter.Valid() {
		return fmt.Errorf("unknown status %q (want pending, running, completed, failed, or killed)", listStatus)
	}

	if a.cfg.Cleanup.Auto {
		maxAge := time.Duration(a.cfg.Cleanup.MaxAgeHours) * time.Hour
		if n := a.retention.Cleanup(maxAge); n > 0 {
			fmt.Printf("Cleaned up %d old task(s)\n", n)
		}
	}

	tasks := a.sup.List(filter)
	if len(tasks) == 0 {
		if listStatus != "" {
			fmt.Printf("No tasks with status %q.\n", listStatus)
		} else {
			fmt.Println("No tasks found.")
			fmt.Println("Run 'taskmux run <name> <command>' to create one.")
		}
		return nil
	}

	fmt.Println(strings.Repeat("─", 78))
	fmt.Printf("%-7s %-10s %-24s %-10s %s\n", "ID", "STATUS", "NAME", "DURATION", "COMMAND")
	fmt.Println(strings.Repeat("─", 78))

	for _, t := range tasks {
		dur := "-"
		if t.StartTime != nil {
			dur = t.Duration().Round(time.Second).String()
		}
		// Pad the raw status before styling so ANSI codes don't skew columns.
		status := styledStatus(t.Status) + strings.Repeat(" ", max(0, 10-len(t.Status)))
		fmt.Printf("%-7s %s %-24s %-10s %s\n",
			t.ID, status, truncate(t.Name, 24), dur, truncate(t.Command, 30))
	}
	fmt.Printf("\n%d task(s)\n", len(tasks))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
