package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <name> <command>",
	Short: "Create and start a new task",
	Long: `Create a new task and start it immediately in a detached tmux session.

The command runs until it exits on its own or is stopped with 'taskmux kill'.
The session outlives taskmux itself, so closing the terminal does not stop
the task.

Examples:
  taskmux run "train model" "python train.py"
  taskmux run nightly-build "make -j8 all" --priority 5
  taskmux run flaky-job "./sync.sh" --max-retries 3`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

var (
	runPriority   int
	runMaxRetries int
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVarP(&runPriority, "priority", "p", 0, "Task priority (display only)")
	runCmd.Flags().IntVar(&runMaxRetries, "max-retries", 0, "Recorded retry budget (display only)")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name, command := args[0], args[1]

	created, err := a.sup.Create(name, command, runPriority, runMaxRetries)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	fmt.Printf("Task created: %s - %s\n", created.ID, created.Name)

	started, err := a.sup.Start(created.ID)
	if err != nil {
		return fmt.Errorf("start task %s: %w", created.ID, err)
	}

	fmt.Printf("Task started: %s (session %s", started.ID, started.SessionName)
	if started.PID != 0 {
		fmt.Printf(", pid %d", started.PID)
	}
	fmt.Println(")")
	fmt.Printf("  view output:  taskmux output %s\n", started.ID)
	fmt.Printf("  monitor live: taskmux monitor %s\n", started.ID)
	fmt.Printf("  stop:         taskmux kill %s\n", started.ID)
	return nil
}
