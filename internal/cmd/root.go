// Package cmd defines the CLI commands for the flinkview executable.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates and configures the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flinkview",
		Short: "Normalized view and REST proxy for Flink deployments on Kubernetes",
		Long: `flinkview watches FlinkDeployment custom resources managed by the Flink
Kubernetes operator, normalizes them into a stable job listing, and proxies
HTTP requests to each job's REST endpoint.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment only)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
