// Package ffmpeg drives the ffmpeg family of binaries over pipes.
//
// This file implements the encode pipeline used for recording. An
// Encoder owns one ffmpeg process that reads raw rgba frames on stdin,
// optionally captures microphone audio from the platform's default
// device, and muxes the encoded result into the output file.
package ffmpeg

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
)

// EncoderConfig describes an encode pipeline.
type EncoderConfig struct {
	// Binary is the ffmpeg executable. Empty means "ffmpeg" from PATH.
	Binary string

	// OutputFile is the container file to write. Existing files are
	// overwritten.
	OutputFile string

	// Width and Height are the frame dimensions. Every frame written
	// must be Width*Height*4 bytes of rgba.
	Width  int
	Height int

	// FrameRate is the recording frame rate. Defaults to 30.
	FrameRate int

	// VideoCodec selects the video encoder. Defaults to "libx264".
	VideoCodec string

	// PixelFormat is the encoded pixel format. Defaults to "yuv420p".
	PixelFormat string

	// RecordAudio enables microphone capture muxed alongside video.
	RecordAudio bool

	// SampleRate is the audio capture rate in Hz. Defaults to 44100.
	SampleRate int

	// Channels is the audio channel count. Defaults to 2.
	Channels int

	// AudioCodec selects the audio encoder. Defaults to "aac".
	AudioCodec string

	// AudioDevice overrides the platform's default capture device.
	AudioDevice string
}

// applyDefaults fills unset fields with the standard recording values.
func (c *EncoderConfig) applyDefaults() {
	if c.FrameRate <= 0 {
		c.FrameRate = 30
	}
	if c.VideoCodec == "" {
		c.VideoCodec = "libx264"
	}
	if c.PixelFormat == "" {
		c.PixelFormat = "yuv420p"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.Channels <= 0 {
		c.Channels = 2
	}
	if c.AudioCodec == "" {
		c.AudioCodec = "aac"
	}
}

// Encoder feeds raw rgba frames to an encoding ffmpeg process.
//
// WriteFrame is safe for concurrent use, though recording pipelines
// normally have a single writer goroutine.
type Encoder struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    bytes.Buffer
	frameSize int

	mu     sync.Mutex
	closed bool
}

// NewEncoder validates the configuration, starts the ffmpeg process,
// and returns an encoder ready for WriteFrame calls.
//
// Parameters:
//   - cfg: output file, frame geometry, codecs, and audio capture
//
// Returns:
//   - *Encoder: running encode pipeline
//   - error: media.ErrFFmpegNotFound, a validation error, or a process
//     start failure
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	cfg.applyDefaults()

	logrus.WithFields(logrus.Fields{
		"function":     "NewEncoder",
		"output":       cfg.OutputFile,
		"width":        cfg.Width,
		"height":       cfg.Height,
		"frame_rate":   cfg.FrameRate,
		"video_codec":  cfg.VideoCodec,
		"record_audio": cfg.RecordAudio,
	}).Info("Starting encode pipeline")

	if cfg.OutputFile == "" {
		return nil, fmt.Errorf("output file is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, cfg.Width, cfg.Height)
	}

	binary, err := Locate(cfg.Binary)
	if err != nil {
		return nil, err
	}

	var audioInput []string
	if cfg.RecordAudio {
		audioInput, err = MicInputArgs(runtime.GOOS, cfg.AudioDevice)
		if err != nil {
			return nil, fmt.Errorf("audio capture unavailable: %w", err)
		}
	}

	cmd := exec.Command(binary, EncodeArgs(cfg, audioInput)...)

	e := &Encoder{
		cmd:       cmd,
		frameSize: cfg.Width * cfg.Height * 4,
	}
	cmd.Stderr = &e.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get ffmpeg stdin pipe: %w", err)
	}
	e.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewEncoder",
		"pid":      cmd.Process.Pid,
	}).Debug("Encode process started")

	return e, nil
}

// FrameSize returns the size of one raw rgba frame in bytes.
func (e *Encoder) FrameSize() int {
	return e.frameSize
}

// WriteFrame sends one raw rgba frame to the encoder.
//
// Returns media.ErrStopped after Close, or an error when the frame size
// does not match the configured dimensions.
func (e *Encoder) WriteFrame(frame []byte) error {
	if len(frame) != e.frameSize {
		return fmt.Errorf("frame size %d does not match expected %d", len(frame), e.frameSize)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return media.ErrStopped
	}

	if _, err := e.stdin.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame to encoder: %w", err)
	}
	return nil
}

// Close finishes the recording. Closing stdin flushes the encoder and
// finalizes the container, then the process is reaped. Safe to call
// multiple times.
//
// Returns the encode process's exit error with its stderr attached, so
// callers learn about encodes that failed mid-recording.
func (e *Encoder) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if err := e.stdin.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Close",
			"error":    err,
		}).Warn("Failed to close encoder stdin")
	}

	if err := e.cmd.Wait(); err != nil {
		msg := strings.TrimSpace(e.stderr.String())
		if msg != "" {
			return fmt.Errorf("encode process failed: %w: %s", err, msg)
		}
		return fmt.Errorf("encode process failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Close",
	}).Info("Encode pipeline finished")

	return nil
}
