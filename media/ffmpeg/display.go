// Package ffmpeg drives the ffmpeg family of binaries over pipes.
//
// This file implements the ffplay display sink. A Display owns one
// ffplay process rendering raw rgba frames written to its stdin, which
// gives command line consumers a video window without binding any GUI
// toolkit into the library.
package ffmpeg

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
)

// DisplayConfig describes an ffplay render window.
type DisplayConfig struct {
	// Binary is the ffplay executable. Empty means "ffplay" from PATH.
	Binary string

	// Width and Height are the frame dimensions. Every frame written
	// must be Width*Height*4 bytes of rgba.
	Width  int
	Height int

	// FrameRate hints the display pacing.
	FrameRate float64

	// Title is the window title. Defaults to "pgplayer".
	Title string
}

// Display renders raw rgba frames in an ffplay window.
type Display struct {
	cmd       *exec.Cmd
	pipe      io.WriteCloser
	frameSize int

	mu     sync.Mutex
	closed bool
}

// NewDisplay starts an ffplay process configured for the given frame
// geometry.
//
// Returns media.ErrFFplayNotFound when the binary is missing.
func NewDisplay(cfg DisplayConfig) (*Display, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, cfg.Width, cfg.Height)
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	if cfg.Title == "" {
		cfg.Title = "pgplayer"
	}

	binary, err := LocateDisplay(cfg.Binary)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(binary, DisplayArgs(cfg.Width, cfg.Height, cfg.FrameRate, cfg.Title)...)

	pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get ffplay stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffplay: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewDisplay",
		"pid":      cmd.Process.Pid,
		"width":    cfg.Width,
		"height":   cfg.Height,
	}).Info("Display window started")

	return &Display{
		cmd:       cmd,
		pipe:      pipe,
		frameSize: cfg.Width * cfg.Height * 4,
	}, nil
}

// FrameSize returns the size of one raw rgba frame in bytes.
func (d *Display) FrameSize() int {
	return d.frameSize
}

// WriteFrame sends one raw rgba frame to the window. A closed window
// (the user closed it or Close was called) returns media.ErrStopped.
func (d *Display) WriteFrame(frame []byte) error {
	if len(frame) != d.frameSize {
		return fmt.Errorf("frame size %d does not match expected %d", len(frame), d.frameSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return media.ErrStopped
	}

	if _, err := d.pipe.Write(frame); err != nil {
		// ffplay exits when its window is closed, which surfaces here
		// as a broken pipe.
		return media.ErrStopped
	}
	return nil
}

// Close terminates the display window. Safe to call multiple times.
func (d *Display) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	_ = d.pipe.Close()
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.cmd.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
	}).Debug("Display window closed")

	return nil
}
