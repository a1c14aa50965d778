// Package ffmpeg drives the ffmpeg family of binaries over pipes.
//
// This file implements the audio decode pipeline. An AudioDecoder owns
// one ffmpeg process that decodes the source's audio stream into signed
// 16-bit little-endian PCM at a fixed rate and channel count, with the
// playback speed already applied by an atempo filter chain.
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

// AudioDecoderConfig describes the source and output format for an
// audio decode pipeline.
type AudioDecoderConfig struct {
	// Binary is the ffmpeg executable. Empty means "ffmpeg" from PATH.
	Binary string

	// Source is the file path or URL to decode. Ignored when
	// SourceData is set.
	Source string

	// SourceData is an in-memory source fed to ffmpeg over stdin.
	SourceData []byte

	// SampleRate is the PCM output rate in Hz.
	SampleRate int

	// Channels is the PCM channel count (1 or 2).
	Channels int

	// Speed is the playback speed applied as an atempo chain. Values
	// at or below zero fall back to 1.0.
	Speed float64
}

// AudioDecoder reads PCM chunks from a decoding ffmpeg process.
//
// ReadChunk is intended for a single reader goroutine. Close may be
// called from any goroutine and is safe to call more than once.
type AudioDecoder struct {
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	stderr     bytes.Buffer
	sampleRate int
	channels   int
	speed      float64
	bytesRead  atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewAudioDecoder validates the configuration, starts the ffmpeg
// process, and returns a decoder ready for ReadChunk calls.
//
// Parameters:
//   - cfg: source, output format, and playback speed
//
// Returns:
//   - *AudioDecoder: running decode pipeline
//   - error: media.ErrFFmpegNotFound, a validation error, or a process
//     start failure
func NewAudioDecoder(cfg AudioDecoderConfig) (*AudioDecoder, error) {
	logrus.WithFields(logrus.Fields{
		"function":    "NewAudioDecoder",
		"source":      cfg.Source,
		"sample_rate": cfg.SampleRate,
		"channels":    cfg.Channels,
		"speed":       cfg.Speed,
	}).Debug("Starting audio decode pipeline")

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", cfg.SampleRate)
	}
	if cfg.Channels < 1 || cfg.Channels > 2 {
		return nil, fmt.Errorf("invalid channel count: %d", cfg.Channels)
	}
	if cfg.Source == "" && len(cfg.SourceData) == 0 {
		return nil, media.ErrEmptySource
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}

	binary, err := Locate(cfg.Binary)
	if err != nil {
		return nil, err
	}

	input := cfg.Source
	if len(cfg.SourceData) > 0 {
		input = "pipe:0"
	}

	cmd := exec.Command(binary, DecodeAudioArgs(input, cfg.SampleRate, cfg.Channels, cfg.Speed)...)
	if len(cfg.SourceData) > 0 {
		cmd.Stdin = bytes.NewReader(cfg.SourceData)
	}

	d := &AudioDecoder{
		cmd:        cmd,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		speed:      cfg.Speed,
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
		"function": "NewAudioDecoder",
		"pid":      cmd.Process.Pid,
	}).Debug("Audio decode process started")

	return d, nil
}

// SampleRate returns the PCM output rate in Hz.
func (d *AudioDecoder) SampleRate() int {
	return d.sampleRate
}

// Channels returns the PCM channel count.
func (d *AudioDecoder) Channels() int {
	return d.channels
}

// Speed returns the playback speed baked into the PCM stream.
func (d *AudioDecoder) Speed() float64 {
	return d.speed
}

// ReadChunk fills buf with PCM bytes and returns the number of bytes
// read.
//
// Reads block until buf is full, the stream ends, or an error occurs. A
// shorter final chunk is returned with a nil error; the subsequent call
// reports io.EOF. A pipeline that exits without producing a single byte
// reports ffmpeg's stderr instead.
func (d *AudioDecoder) ReadChunk(buf []byte) (int, error) {
	n, err := io.ReadFull(d.stdout, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if n > 0 {
				d.bytesRead.Add(uint64(n))
				return n, nil
			}
			if d.bytesRead.Load() == 0 {
				return 0, d.failNoOutput()
			}
			return 0, io.EOF
		}
		return n, fmt.Errorf("failed to read audio chunk: %w", err)
	}

	d.bytesRead.Add(uint64(n))
	return n, nil
}

// failNoOutput reaps the exited process and surfaces its stderr for
// pipelines that never produced output.
func (d *AudioDecoder) failNoOutput() error {
	d.Close()
	if msg := strings.TrimSpace(d.stderr.String()); msg != "" {
		return fmt.Errorf("ffmpeg produced no audio output: %s", msg)
	}
	return fmt.Errorf("ffmpeg produced no audio output")
}

// Close terminates the decode process and releases its pipes. Safe to
// call multiple times.
func (d *AudioDecoder) Close() error {
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
	_ = d.cmd.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"bytes":    d.bytesRead.Load(),
	}).Debug("Audio decode pipeline closed")

	return nil
}
