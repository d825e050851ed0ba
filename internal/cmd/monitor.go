package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmux/taskmux/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <task-id>",
	Short: "Monitor a task's output live",
	Long: `Open a live view of a task's output that refreshes on a timer.

Quitting the monitor never affects the task; use 'taskmux kill' to stop it.`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

var (
	monitorLines   int
	monitorRefresh int
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVarP(&monitorLines, "lines", "n", 50, "Number of output lines to show")
	monitorCmd.Flags().IntVarP(&monitorRefresh, "refresh", "r", 1, "Refresh interval in seconds")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Fail fast on unknown ids before taking over the terminal.
	if _, err := a.sup.Status(args[0]); err != nil {
		return fmt.Errorf("monitor task %s: %w", args[0], err)
	}

	lines := monitorLines
	if !cmd.Flags().Changed("lines") && a.cfg.Capture.SnapshotLines > 0 {
		lines = a.cfg.Capture.SnapshotLines
	}

	m := monitor.New(a.sup, args[0], lines, time.Duration(monitorRefresh)*time.Second)
	return m.Run()
}
