// Package commands defines the cofrance CLI.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the cofrance CLI
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cofrance",
		Short:         "Stand and oceanic clearance tags for French ATC positions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Serve())
	cmd.AddCommand(Version())

	return cmd
}
