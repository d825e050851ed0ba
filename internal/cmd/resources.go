package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmux/taskmux/internal/sysmon"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Show host resource usage",
	Long: `Sample and print host CPU, memory, disk, and GPU usage.

Useful for a quick check of whether the machine has headroom before
starting more tasks. CPU sampling takes about a second.`,
	RunE: runResources,
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
}

func runResources(cmd *cobra.Command, args []string) error {
	snap, err := sysmon.NewHostMonitor().Sample()
	if err != nil {
		return fmt.Errorf("sample host resources: %w", err)
	}
	fmt.Print(sysmon.Format(snap))
	return nil
}
