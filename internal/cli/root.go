// Package cli implements the pgplayer command line tool: playback into
// an ffplay window, test pattern recording, and media inspection.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/faakharhzb/pgplayer/internal/cli/config"
)

var rootCmd = &cobra.Command{
	Use:   "pgplayer",
	Short: "Play and record video from the command line",
	Long: `pgplayer plays video files and URLs through ffmpeg decode pipelines,
with audio on the system speaker and frames rendered in an ffplay
window. It can also record video and inspect media containers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", config.GetLogLevel(),
		"Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(NewPlayCommand())
	rootCmd.AddCommand(NewRecordCommand())
	rootCmd.AddCommand(NewProbeCommand())
	rootCmd.AddCommand(NewVersionCommand())
}

// setupLogging applies the log level flag before any command runs.
func setupLogging(cmd *cobra.Command) error {
	name, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	logrus.SetLevel(level)
	return nil
}
