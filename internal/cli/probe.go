package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/faakharhzb/pgplayer/internal/cli/config"
	"github.com/faakharhzb/pgplayer/media/probe"
)

// NewProbeCommand creates the probe command.
func NewProbeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <source>",
		Short: "Inspect a media file or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.OutOrStdout(), args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")

	return cmd
}

func runProbe(out io.Writer, source string, asJSON bool) error {
	prober := probe.New()
	if binary := config.GetFFprobeBinary(); binary != "" {
		prober = probe.NewWithBinary(binary)
	}

	info, err := prober.Probe(context.Background(), source)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(out, "format:   %s\n", info.Format.FormatName)
	fmt.Fprintf(out, "duration: %.3fs\n", info.DurationSeconds())

	if vs := info.VideoStream(); vs != nil {
		line := fmt.Sprintf("video:    %s %dx%d", vs.CodecName, vs.PixelWidth(), vs.PixelHeight())
		if fps, err := vs.FrameRate(); err == nil {
			line += fmt.Sprintf(" %.3f fps", fps)
		}
		fmt.Fprintln(out, line)
	}

	if as := info.AudioStream(); as != nil {
		line := fmt.Sprintf("audio:    %s", as.CodecName)
		if rate, err := as.SampleRateHz(); err == nil {
			line += fmt.Sprintf(" %d Hz", rate)
		}
		if as.Channels > 0 {
			line += fmt.Sprintf(" %dch", as.Channels)
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
