// Package ffmpeg drives the ffmpeg family of binaries over pipes.
//
// This file builds the command line arguments for every pipeline. The
// builders are pure functions so the exact invocations stay testable
// without spawning processes.
package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Per-stage bounds of ffmpeg's atempo filter. Tempos outside this range
// must be expressed as a chain of stages.
const (
	atempoStageMin = 0.5
	atempoStageMax = 2.0
)

// AtempoChain builds an atempo filter expression for the given playback
// speed.
//
// A single atempo stage only accepts tempos in [0.5, 2.0], so speeds
// outside that range are factored into a chain of stages whose product
// is the requested speed (0.1 becomes three halvings and a 0.8 stage).
func AtempoChain(speed float64) string {
	var stages []string

	remaining := speed
	for remaining < atempoStageMin {
		stages = append(stages, "atempo=0.5")
		remaining *= 2.0
	}
	for remaining > atempoStageMax {
		stages = append(stages, "atempo=2")
		remaining /= 2.0
	}
	stages = append(stages, "atempo="+strconv.FormatFloat(remaining, 'g', -1, 64))

	return strings.Join(stages, ",")
}

// DecodeVideoArgs builds the argument list for decoding a source into
// raw rgb24 frames on stdout. The input is a path, a URL, or "pipe:0"
// for stdin-fed sources.
func DecodeVideoArgs(input string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}
}

// DecodeAudioArgs builds the argument list for decoding a source into
// signed 16-bit little-endian PCM on stdout, resampled to the given
// rate and channel count with the playback speed applied by an atempo
// chain.
func DecodeAudioArgs(input string, sampleRate, channels int, speed float64) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-af", AtempoChain(speed),
		"pipe:1",
	}
}

// DisplayArgs builds the ffplay argument list for rendering raw rgba
// frames arriving on stdin.
func DisplayArgs(width, height int, frameRate float64, title string) []string {
	return []string{
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.FormatFloat(frameRate, 'f', -1, 64),
		"-i", "-",
		"-window_title", title,
		"-fflags", "nobuffer",
		"-flags", "low_delay",
	}
}

// EncodeArgs builds the argument list for encoding raw rgba frames from
// stdin into the configured output file, optionally muxing microphone
// audio captured from a platform audio device.
//
// The caller passes the audio input arguments (built by MicInputArgs)
// separately so the per-platform device selection stays testable.
func EncodeArgs(cfg EncoderConfig, audioInput []string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", strconv.Itoa(cfg.FrameRate),
		"-i", "pipe:0",
	}

	args = append(args, audioInput...)

	args = append(args,
		"-c:v", cfg.VideoCodec,
		"-pix_fmt", cfg.PixelFormat,
	)

	if len(audioInput) > 0 {
		args = append(args,
			"-c:a", cfg.AudioCodec,
			"-ar", strconv.Itoa(cfg.SampleRate),
			"-ac", strconv.Itoa(cfg.Channels),
			// The microphone input is live and unbounded, so the
			// recording must end when the video stream does.
			"-shortest",
		)
	}

	args = append(args, cfg.OutputFile)
	return args
}

// MicInputArgs builds the input arguments for capturing the platform's
// default microphone. The goos parameter selects the capture backend.
//
// Returns an error for platforms without a known capture backend.
func MicInputArgs(goos, device string) ([]string, error) {
	switch goos {
	case "linux":
		if device == "" {
			device = "default"
		}
		return []string{"-f", "pulse", "-i", device}, nil
	case "darwin":
		if device == "" {
			device = ":0"
		}
		return []string{"-f", "avfoundation", "-i", device}, nil
	case "windows":
		if device == "" {
			device = "Microphone"
		}
		return []string{"-f", "dshow", "-i", "audio=" + device}, nil
	default:
		return nil, fmt.Errorf("no audio capture backend for OS: %s", goos)
	}
}
