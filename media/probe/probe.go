// Package probe provides a typed wrapper around ffprobe JSON output.
//
// Playback needs container metadata before the first frame is decoded:
// duration, frame rate, coded dimensions, and which streams exist. The
// probe package shells out to ffprobe, decodes its JSON report, and
// exposes helpers for the fields the player consumes.
//
// Key types:
//   - Info: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata
//
// Primary entry points:
//   - Probe: inspects a file path or URL
//   - ProbeBytes: inspects an in-memory source fed over stdin
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
)

// DefaultBinary is the ffprobe executable used when no explicit path is
// configured.
const DefaultBinary = "ffprobe"

// Info is the parsed result of an ffprobe inspection.
type Info struct {
	Format  Format   `json:"format"`
	Streams []Stream `json:"streams"`
}

// Format contains container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// Stream contains the properties of a single audio or video stream.
// Numeric fields that ffprobe reports as strings stay strings here;
// helper methods parse them on demand.
type Stream struct {
	Index         int    `json:"index"`
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	CodedWidth    int    `json:"coded_width"`
	CodedHeight   int    `json:"coded_height"`
	PixFmt        string `json:"pix_fmt"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	RFrameRate    string `json:"r_frame_rate"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
	Duration      string `json:"duration"`
}

// VideoStream returns the first video stream, or nil when the source
// has none.
func (i *Info) VideoStream() *Stream {
	for idx := range i.Streams {
		if i.Streams[idx].CodecType == "video" {
			return &i.Streams[idx]
		}
	}
	return nil
}

// AudioStream returns the first audio stream, or nil when the source
// has none.
func (i *Info) AudioStream() *Stream {
	for idx := range i.Streams {
		if i.Streams[idx].CodecType == "audio" {
			return &i.Streams[idx]
		}
	}
	return nil
}

// DurationSeconds parses the container duration. Returns 0 when ffprobe
// reported no duration, which happens for live or piped sources.
func (i *Info) DurationSeconds() float64 {
	if i.Format.Duration == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(i.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return seconds
}

// FrameRate parses the stream's average frame rate fraction ("30/1",
// "30000/1001") into frames per second.
func (s *Stream) FrameRate() (float64, error) {
	rate := s.AvgFrameRate
	if rate == "" || rate == "0/0" {
		rate = s.RFrameRate
	}
	if rate == "" {
		return 0, fmt.Errorf("stream %d has no frame rate", s.Index)
	}

	num, den, found := strings.Cut(rate, "/")
	if !found {
		value, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q: %w", rate, err)
		}
		return value, nil
	}

	numerator, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate numerator %q: %w", rate, err)
	}
	denominator, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate denominator %q: %w", rate, err)
	}
	if denominator == 0 {
		return 0, fmt.Errorf("frame rate %q has zero denominator", rate)
	}
	return numerator / denominator, nil
}

// SampleRateHz parses the audio sample rate, which ffprobe reports as a
// string.
func (s *Stream) SampleRateHz() (int, error) {
	if s.SampleRate == "" {
		return 0, fmt.Errorf("stream %d has no sample rate", s.Index)
	}
	rate, err := strconv.Atoi(s.SampleRate)
	if err != nil {
		return 0, fmt.Errorf("invalid sample rate %q: %w", s.SampleRate, err)
	}
	return rate, nil
}

// PixelWidth returns the coded width when present, falling back to the
// display width.
func (s *Stream) PixelWidth() int {
	if s.CodedWidth > 0 {
		return s.CodedWidth
	}
	return s.Width
}

// PixelHeight returns the coded height when present, falling back to
// the display height.
func (s *Stream) PixelHeight() int {
	if s.CodedHeight > 0 {
		return s.CodedHeight
	}
	return s.Height
}

// Prober executes ffprobe inspections with a configurable binary path.
type Prober struct {
	binary string
}

// New creates a Prober using the default ffprobe binary from PATH.
func New() *Prober {
	return NewWithBinary(DefaultBinary)
}

// NewWithBinary creates a Prober using a specific ffprobe executable.
// An empty binary falls back to the default.
func NewWithBinary(binary string) *Prober {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Prober{binary: binary}
}

// Probe inspects a media source by path or URL.
//
// Local paths are checked for existence before ffprobe runs so a missing
// file reports media.ErrSourceNotFound instead of an opaque ffprobe
// failure. URL sources are handed to ffprobe untouched.
//
// Parameters:
//   - ctx: cancels the ffprobe process when done
//   - source: file path or URL of the media to inspect
//
// Returns:
//   - *Info: parsed stream and format metadata
//   - error: media.ErrFFprobeNotFound, media.ErrSourceNotFound, or an
//     execution error with ffprobe's stderr attached
func (p *Prober) Probe(ctx context.Context, source string) (*Info, error) {
	logrus.WithFields(logrus.Fields{
		"function": "Probe",
		"source":   source,
		"binary":   p.binary,
	}).Debug("Probing media source")

	if !isRemote(source) {
		if _, err := os.Stat(source); err != nil {
			return nil, fmt.Errorf("%w: %s", media.ErrSourceNotFound, source)
		}
	}

	return p.run(ctx, nil, source)
}

// ProbeBytes inspects an in-memory media source by feeding it to
// ffprobe over stdin.
func (p *Prober) ProbeBytes(ctx context.Context, data []byte) (*Info, error) {
	logrus.WithFields(logrus.Fields{
		"function": "ProbeBytes",
		"size":     len(data),
		"binary":   p.binary,
	}).Debug("Probing in-memory media source")

	if len(data) == 0 {
		return nil, media.ErrEmptySource
	}

	return p.run(ctx, bytes.NewReader(data), "pipe:0")
}

// run executes ffprobe against the given input and decodes its JSON
// report.
func (p *Prober) run(ctx context.Context, stdin *bytes.Reader, input string) (*Info, error) {
	binary, err := exec.LookPath(p.binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", media.ErrFFprobeNotFound, p.binary)
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "run",
			"input":    input,
			"error":    err,
			"stderr":   stderr.String(),
		}).Error("ffprobe execution failed")
		return nil, fmt.Errorf("ffprobe failed for %s: %w", input, err)
	}

	var info Info
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "run",
		"input":    input,
		"streams":  len(info.Streams),
		"format":   info.Format.FormatName,
	}).Debug("Probe completed")

	return &info, nil
}

// Probe inspects a media source using the default ffprobe binary.
func Probe(ctx context.Context, source string) (*Info, error) {
	return New().Probe(ctx, source)
}

// ProbeBytes inspects an in-memory source using the default ffprobe
// binary.
func ProbeBytes(ctx context.Context, data []byte) (*Info, error) {
	return New().ProbeBytes(ctx, data)
}

// isRemote reports whether the source names a protocol ffprobe should
// open directly instead of a local file.
func isRemote(source string) bool {
	return strings.Contains(source, "://")
}
