package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/faakharhzb/pgplayer"
	"github.com/faakharhzb/pgplayer/internal/cli/config"
	"github.com/faakharhzb/pgplayer/media/video"
)

// recordFlags holds the record command's flag values.
type recordFlags struct {
	duration    time.Duration
	size        string
	fps         int
	recordAudio bool
}

// NewRecordCommand creates the record command.
func NewRecordCommand() *cobra.Command {
	flags := &recordFlags{}

	cmd := &cobra.Command{
		Use:   "record <output>",
		Short: "Record the built-in test pattern to a video file",
		Long: `Record generates color bar test pattern frames with a moving marker
and encodes them to the output file for the requested duration. It
exercises the full encode pipeline without needing a camera.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(args[0], flags)
		},
	}

	cmd.Flags().DurationVar(&flags.duration, "duration", 10*time.Second,
		"How long to record")
	cmd.Flags().StringVar(&flags.size, "size", "1280x720",
		"Frame size as WIDTHxHEIGHT")
	cmd.Flags().IntVar(&flags.fps, "fps", pgplayer.DefaultFrameRate,
		"Recording frame rate")
	cmd.Flags().BoolVar(&flags.recordAudio, "record-audio", false,
		"Capture the default microphone alongside the video")

	return cmd
}

// parseSize splits a WIDTHxHEIGHT string into its dimensions.
func parseSize(size string) (width, height int, err error) {
	w, h, found := strings.Cut(size, "x")
	if !found {
		return 0, 0, fmt.Errorf("invalid size %q, expected WIDTHxHEIGHT", size)
	}

	width, err = strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", size, err)
	}
	height, err = strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", size, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, dimensions must be positive", size)
	}
	return width, height, nil
}

func runRecord(output string, flags *recordFlags) error {
	width, height, err := parseSize(flags.size)
	if err != nil {
		return err
	}

	opts := pgplayer.NewRecorderOptions()
	opts.FrameRate = flags.fps
	opts.RecordAudio = flags.recordAudio
	opts.FFmpegBinary = config.GetFFmpegBinary()

	recorder, err := pgplayer.NewRecorder(output, width, height, opts)
	if err != nil {
		return err
	}

	pattern, err := video.NewPattern(width, height, float64(recorder.FrameRate()))
	if err != nil {
		return err
	}

	if err := recorder.Start(); err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	ticker := time.NewTicker(time.Second / time.Duration(recorder.FrameRate()))
	defer ticker.Stop()

	deadline := time.Now().Add(flags.duration)
	frameIndex := 0

recording:
	for time.Now().Before(deadline) {
		select {
		case <-interrupt:
			break recording
		case <-ticker.C:
		}

		frame := pattern.Frame(frameIndex)
		frameIndex++

		if err := recorder.WriteFrame(frame.Image); err != nil {
			break recording
		}
		if err := recorder.Err(); err != nil {
			_ = recorder.Stop()
			return err
		}
	}

	if err := recorder.Stop(); err != nil {
		return err
	}

	fmt.Printf("Recorded %s (%d frames written, %d dropped)\n",
		output, recorder.FramesWritten(), recorder.FramesDropped())
	return nil
}
