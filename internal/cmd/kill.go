package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill <task-id>",
	Short: "Stop a running task",
	Long: `Stop a task's tmux session.

By default the task gets an interrupt first and a short grace period to
shut down before the session is killed; either way the task is recorded
as completed. With --force the session is killed immediately and the
task is recorded as killed.`,
	Args: cobra.ExactArgs(1),
	RunE: runKill,
}

var killForce bool

func init() {
	rootCmd.AddCommand(killCmd)
	killCmd.Flags().BoolVarP(&killForce, "force", "f", false, "Kill the session immediately without a grace period")
}

func runKill(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.sup.Stop(args[0], killForce)
	if err != nil {
		return fmt.Errorf("stop task %s: %w", args[0], err)
	}
	fmt.Printf("Task %s stopped: %s\n", t.ID, t.Status)
	return nil
}
