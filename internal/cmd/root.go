// Package cmd implements the taskmux command-line interface. Commands map
// directly onto the supervisor, store, capture, and retention operations.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskmux/taskmux/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "taskmux",
	Short: "Supervise long-running shell commands in tmux sessions",
	Long: `Taskmux runs shell commands as supervised tasks, each inside a
detached tmux session that keeps running even if taskmux exits.
Task state and captured output are persisted so tasks can be
listed, monitored, stopped, and cleaned up at any time.`,
	// main reports the error; without SilenceErrors cobra would print
	// it a second time.
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskmux/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TASKMUX")
	// Replace dots with underscores for nested keys in env vars,
	// e.g. TASKMUX_CLEANUP_MAX_AGE_HOURS for cleanup.max_age_hours
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
