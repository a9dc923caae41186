package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cilens",
	Short: "CI/CD insight collector",
	Long:  "cilens collects CI pipeline traces from GitLab and produces structured insight reports: pipeline types, critical paths, flakiness and failure analysis.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
