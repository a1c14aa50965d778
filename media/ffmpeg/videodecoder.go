// Package ffmpeg drives the ffmpeg family of binaries over pipes.
//
// This file implements the video decode pipeline. A VideoDecoder owns
// one ffmpeg process that demuxes and decodes the source and emits raw
// rgb24 frames of a fixed size on stdout.
package ffmpeg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
)

// VideoDecoderConfig describes the source and frame geometry for a
// video decode pipeline.
type VideoDecoderConfig struct {
	// Binary is the ffmpeg executable. Empty means "ffmpeg" from PATH.
	Binary string

	// Source is the file path or URL to decode. Ignored when
	// SourceData is set.
	Source string

	// SourceData is an in-memory source fed to ffmpeg over stdin.
	SourceData []byte

	// Width and Height are the coded frame dimensions from probing.
	// Every frame read from the decoder is Width*Height*3 bytes.
	Width  int
	Height int
}

// VideoDecoder reads raw rgb24 frames from a decoding ffmpeg process.
//
// ReadFrame is intended for a single reader goroutine. Close may be
// called from any goroutine and is safe to call more than once.
type VideoDecoder struct {
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	stderr     bytes.Buffer
	width      int
	height     int
	frameSize  int
	framesRead atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewVideoDecoder validates the configuration, starts the ffmpeg
// process, and returns a decoder ready for ReadFrame calls.
//
// Parameters:
//   - cfg: source and frame geometry
//
// Returns:
//   - *VideoDecoder: running decode pipeline
//   - error: media.ErrFFmpegNotFound, media.ErrInvalidDimensions, or a
//     process start failure
func NewVideoDecoder(cfg VideoDecoderConfig) (*VideoDecoder, error) {
	logrus.WithFields(logrus.Fields{
		"function": "NewVideoDecoder",
		"source":   cfg.Source,
		"width":    cfg.Width,
		"height":   cfg.Height,
	}).Debug("Starting video decode pipeline")

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, cfg.Width, cfg.Height)
	}
	if cfg.Source == "" && len(cfg.SourceData) == 0 {
		return nil, media.ErrEmptySource
	}

	binary, err := Locate(cfg.Binary)
	if err != nil {
		return nil, err
	}

	input := cfg.Source
	if len(cfg.SourceData) > 0 {
		input = "pipe:0"
	}

	cmd := exec.Command(binary, DecodeVideoArgs(input)...)
	if len(cfg.SourceData) > 0 {
		cmd.Stdin = bytes.NewReader(cfg.SourceData)
	}

	d := &VideoDecoder{
		cmd:       cmd,
		width:     cfg.Width,
		height:    cfg.Height,
		frameSize: cfg.Width * cfg.Height * 3,
	}
	cmd.Stderr = &d.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get ffmpeg stdout pipe: %w", err)
	}
	d.stdout = stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewVideoDecoder",
		"pid":        cmd.Process.Pid,
		"frame_size": d.frameSize,
	}).Debug("Video decode process started")

	return d, nil
}

// Width returns the frame width in pixels.
func (d *VideoDecoder) Width() int {
	return d.width
}

// Height returns the frame height in pixels.
func (d *VideoDecoder) Height() int {
	return d.height
}

// FrameSize returns the size of one raw frame in bytes.
func (d *VideoDecoder) FrameSize() int {
	return d.frameSize
}

// ReadFrame returns the next raw rgb24 frame.
//
// io.EOF signals a cleanly ended stream. A decode pipeline that exits
// without producing a single frame reports ffmpeg's stderr instead,
// since that means the source could not be decoded at all.
func (d *VideoDecoder) ReadFrame() ([]byte, error) {
	buf := make([]byte, d.frameSize)
	n, err := io.ReadFull(d.stdout, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if n > 0 {
				logrus.WithFields(logrus.Fields{
					"function": "ReadFrame",
					"bytes":    n,
					"expected": d.frameSize,
				}).Warn("Discarding truncated trailing frame")
			}
			if d.framesRead.Load() == 0 {
				return nil, d.failNoOutput("video")
			}
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read video frame: %w", err)
	}

	d.framesRead.Add(1)
	return buf, nil
}

// failNoOutput reaps the exited process and surfaces its stderr for
// pipelines that never produced output.
func (d *VideoDecoder) failNoOutput(kind string) error {
	d.Close()
	if msg := strings.TrimSpace(d.stderr.String()); msg != "" {
		return fmt.Errorf("ffmpeg produced no %s output: %s", kind, msg)
	}
	return fmt.Errorf("ffmpeg produced no %s output", kind)
}

// Close terminates the decode process and releases its pipes. Safe to
// call multiple times.
func (d *VideoDecoder) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	// The process was killed or has already exited, so the only
	// interest here is reaping it.
	_ = d.cmd.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"frames":   d.framesRead.Load(),
	}).Debug("Video decode pipeline closed")

	return nil
}
