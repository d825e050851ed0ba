package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show detailed status for a task",
	Long: `Show the full record for a single task.

If the task is marked running but its tmux session has vanished, the
record is reconciled to completed before being printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.sup.Status(args[0])
	if err != nil {
		return fmt.Errorf("status for task %s: %w", args[0], err)
	}

	fmt.Printf("Task:     %s\n", t.ID)
	fmt.Printf("Name:     %s\n", t.Name)
	fmt.Printf("Command:  %s\n", t.Command)
	fmt.Printf("Session:  %s\n", t.SessionName)
	fmt.Printf("Status:   %s\n", styledStatus(t.Status))
	if t.Priority != 0 {
		fmt.Printf("Priority: %d\n", t.Priority)
	}
	if t.MaxRetries != 0 {
		fmt.Printf("Retries:  %d/%d\n", t.RetryCount, t.MaxRetries)
	}
	fmt.Printf("Created:  %s\n", t.CreatedAt.Format(time.RFC822))
	if t.StartTime != nil {
		fmt.Printf("Started:  %s\n", t.StartTime.Format(time.RFC822))
	}
	if t.EndTime != nil {
		fmt.Printf("Ended:    %s\n", t.EndTime.Format(time.RFC822))
	}
	if t.StartTime != nil {
		fmt.Printf("Duration: %s\n", t.Duration().Round(time.Second))
	}
	if t.PID != 0 {
		fmt.Printf("PID:      %d\n", t.PID)
	}
	if t.ErrorMessage != "" {
		fmt.Printf("Error:    %s\n", t.ErrorMessage)
	}
	return nil
}
