package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var outputCmd = &cobra.Command{
	Use:   "output <task-id>",
	Short: "Show recent output from a task",
	Long: `Show recent output from a task's session.

While the session is alive this is a live snapshot of the pane; after it
exits the tail of the captured log file is shown instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutput,
}

var outputLines int

func init() {
	rootCmd.AddCommand(outputCmd)
	outputCmd.Flags().IntVarP(&outputLines, "lines", "n", 50, "Number of lines to show")
}

func runOutput(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lines := outputLines
	if !cmd.Flags().Changed("lines") && a.cfg.Capture.SnapshotLines > 0 {
		lines = a.cfg.Capture.SnapshotLines
	}

	out, err := a.sup.Output(args[0], lines)
	if err != nil {
		return fmt.Errorf("output for task %s: %w", args[0], err)
	}
	fmt.Print(out)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		fmt.Println()
	}
	return nil
}
