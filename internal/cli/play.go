package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/faakharhzb/pgplayer"
	"github.com/faakharhzb/pgplayer/internal/cli/config"
	"github.com/faakharhzb/pgplayer/media"
	"github.com/faakharhzb/pgplayer/media/audio"
	"github.com/faakharhzb/pgplayer/media/ffmpeg"
	"github.com/faakharhzb/pgplayer/media/video"
)

// playFlags holds the play command's flag values.
type playFlags struct {
	volume    float64
	speed     float64
	loop      int
	mute      bool
	noDisplay bool
	noAudio   bool
}

// NewPlayCommand creates the play command.
func NewPlayCommand() *cobra.Command {
	flags := &playFlags{}

	cmd := &cobra.Command{
		Use:   "play <source>",
		Short: "Play a video file or URL",
		Long: `Play decodes the source and renders it in an ffplay window, with
audio on the system speaker. Playback runs until the media finishes,
the window is closed, or the process is interrupted.

Bare Ogg/Opus audio files are decoded natively and play through the
speaker without video or the ffmpeg binary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(args[0], flags)
		},
	}

	cmd.Flags().Float64Var(&flags.volume, "volume", config.GetDefaultVolume(),
		"Audio volume from 0.0 to 1.0")
	cmd.Flags().Float64Var(&flags.speed, "speed", config.GetDefaultSpeed(),
		"Playback speed from 0.1 to 16.0")
	cmd.Flags().IntVar(&flags.loop, "loop", 1,
		"Times to play the media; 0 plays forever")
	cmd.Flags().BoolVar(&flags.mute, "mute", false,
		"Start with audio muted")
	cmd.Flags().BoolVar(&flags.noDisplay, "no-display", false,
		"Decode without opening a window")
	cmd.Flags().BoolVar(&flags.noAudio, "no-audio", false,
		"Skip audio playback entirely")

	return cmd
}

// validatePlaybackFlags rejects out-of-range volume and speed values.
// Library callers get the original's silent clamping; explicit command
// line values fail loudly instead.
func validatePlaybackFlags(flags *playFlags) error {
	if flags.volume < 0 || flags.volume > 1 {
		return fmt.Errorf("%w: %g is not in [0, 1]", media.ErrInvalidVolume, flags.volume)
	}
	if flags.speed < pgplayer.MinSpeed || flags.speed > pgplayer.MaxSpeed {
		return fmt.Errorf("%w: %g is not in [%g, %g]",
			media.ErrInvalidSpeed, flags.speed, pgplayer.MinSpeed, pgplayer.MaxSpeed)
	}
	return nil
}

func runPlay(source string, flags *playFlags) error {
	if err := validatePlaybackFlags(flags); err != nil {
		return err
	}
	if isNativeAudioSource(source) {
		return runPlayOpus(source, flags)
	}

	opts := pgplayer.NewOptions()
	opts.Volume = flags.volume
	opts.Speed = flags.speed
	opts.Loop = flags.loop
	opts.DisableAudio = flags.noAudio
	opts.SampleRate = config.GetSampleRate()
	opts.Channels = config.GetChannels()
	opts.FFmpegBinary = config.GetFFmpegBinary()
	opts.FFprobeBinary = config.GetFFprobeBinary()

	player, err := pgplayer.New(source, opts)
	if err != nil {
		return err
	}
	defer player.Stop()

	if flags.mute {
		player.SetMuted(true)
	}

	var display *ffmpeg.Display
	if !flags.noDisplay {
		display, err = ffmpeg.NewDisplay(ffmpeg.DisplayConfig{
			Binary:    config.GetFFplayBinary(),
			Width:     player.Width(),
			Height:    player.Height(),
			FrameRate: player.FPS(),
			Title:     source,
		})
		if err != nil {
			return err
		}
		defer display.Close()
	}

	if err := player.Start(); err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / player.FPS()))
	defer ticker.Stop()

	for {
		select {
		case <-interrupt:
			logrus.WithFields(logrus.Fields{
				"function": "runPlay",
			}).Info("Interrupted")
			return nil
		case <-ticker.C:
		}

		switch player.State() {
		case pgplayer.StateFinished, pgplayer.StateStopped:
			stats := player.Stats()
			logrus.WithFields(logrus.Fields{
				"function": "runPlay",
				"decoded":  stats.FramesDecoded,
				"dropped":  stats.FramesDropped,
				"loops":    stats.LoopsCompleted,
			}).Info("Playback complete")
			return nil
		case pgplayer.StateError:
			return player.Err()
		}

		if display == nil {
			continue
		}
		if frame, fresh := player.Frame(); fresh {
			if err := display.WriteFrame(video.RGBABytes(frame)); err != nil {
				// The user closed the window.
				logrus.WithFields(logrus.Fields{
					"function": "runPlay",
					"error":    err,
				}).Debug("Display closed")
				return nil
			}
		}
	}
}

// opusChunkSamples is how many decoded samples move per pump iteration,
// 100ms of mono audio at the opus decode rate.
const opusChunkSamples = 4800

// isNativeAudioSource reports whether the source looks like a bare
// Ogg/Opus audio file, which plays through the native decode path.
func isNativeAudioSource(source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".opus", ".ogg", ".oga":
		return true
	}
	return false
}

// runPlayOpus plays an audio-only Ogg/Opus file through the speaker,
// honoring the volume, mute, and loop flags.
func runPlayOpus(source string, flags *playFlags) error {
	if flags.noAudio {
		return fmt.Errorf("--no-audio with an audio-only source leaves nothing to play")
	}
	if flags.speed != 1.0 {
		logrus.WithFields(logrus.Fields{
			"function": "runPlayOpus",
			"speed":    flags.speed,
		}).Warn("Native opus playback runs at normal speed, ignoring --speed")
	}

	// The native decoder always emits mono at 48kHz; the sink duplicates
	// mono to both speaker channels.
	sink, err := audio.NewSink(audio.SinkConfig{
		SampleRate: config.GetSampleRate(),
		Channels:   1,
	})
	if err != nil {
		return err
	}
	defer sink.Close()
	sink.SetMuted(flags.mute)

	volume := audio.NewVolumeEffect(flags.volume)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	passes := 0
	for {
		interrupted, err := playOpusPass(source, sink, volume, interrupt)
		if err != nil {
			return err
		}
		if interrupted {
			logrus.WithFields(logrus.Fields{
				"function": "runPlayOpus",
			}).Info("Interrupted")
			return nil
		}

		passes++
		if flags.loop != 0 && passes >= flags.loop {
			break
		}
	}

	sink.Drain()
	return nil
}

// playOpusPass decodes the source once from start to end, feeding the
// sink. Returns true when an interrupt ended the pass early.
func playOpusPass(source string, sink *audio.Sink, volume *audio.VolumeEffect, interrupt <-chan os.Signal) (bool, error) {
	src, err := audio.NewOpusFileSource(source)
	if err != nil {
		return false, err
	}
	defer src.Close()

	var resampler *audio.Resampler
	if src.GetSampleRate() != sink.GetSampleRate() {
		resampler, err = audio.NewOpusPlaybackResampler(sink.GetSampleRate(), src.GetChannels())
		if err != nil {
			return false, err
		}
		defer resampler.Close()
	}

	buf := make([]int16, opusChunkSamples)
	for {
		select {
		case <-interrupt:
			return true, nil
		default:
		}

		n, err := src.ReadChunk(buf)
		if n > 0 {
			samples := buf[:n]
			if resampler != nil {
				resampled, rerr := resampler.Resample(samples)
				if rerr != nil {
					return false, rerr
				}
				samples = resampled
			}
			processed, perr := volume.Process(samples)
			if perr != nil {
				return false, perr
			}
			if werr := sink.Write(processed); werr != nil {
				return false, werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
	}
}
