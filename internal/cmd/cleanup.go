package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old finished tasks",
	Long: `Remove finished tasks older than the age threshold, along with their
captured log files. Pending and running tasks are never touched.`,
	RunE: runCleanup,
}

var cleanupMaxAge int

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().IntVar(&cleanupMaxAge, "max-age", -1, "Age threshold in hours (default from config)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	hours := cleanupMaxAge
	if hours < 0 {
		hours = a.cfg.Cleanup.MaxAgeHours
	}

	n := a.retention.Cleanup(time.Duration(hours) * time.Hour)
	fmt.Printf("Cleaned up %d task(s) older than %dh\n", n, hours)

	if orphans := a.retention.KillOrphans(); orphans > 0 {
		fmt.Printf("Killed %d orphaned session(s)\n", orphans)
	}
	return nil
}
