package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yegors/co-france/internal/plugin"
	"github.com/yegors/co-france/pkg/logger"
)

// Version returns the version command
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			md := plugin.New(logger.NewNop()).Metadata()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", md.Name, md.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  author: %s\n", md.Author)
		},
	}
}
