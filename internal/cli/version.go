package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the build version, set via ldflags at release time.
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pgplayer %s\n", Version)
		},
	}
}
