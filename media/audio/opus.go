// Package audio provides PCM processing and speaker output for
// pgplayer.
//
// This file implements a native Ogg/Opus source so audio-only files
// play without spawning the external ffmpeg binary. Pages are parsed
// with the pion oggreader and segments decoded one opus packet at a
// time.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"
	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
)

// OpusDecodeRate is the sample rate opus decodes at. The format always
// reconstructs 48kHz regardless of the source's original rate.
const OpusDecodeRate = 48000

// opusFrameSamples is the size of one decoded 20ms mono frame at
// 48kHz.
const opusFrameSamples = 960

// OpusFileSource decodes an Ogg/Opus stream into PCM samples.
//
// Output is mono int16 at 48kHz. Not safe for concurrent reads; the
// playback loop owns the source.
type OpusFileSource struct {
	reader io.Reader
	closer io.Closer
	ogg    *oggreader.OggReader
	header *oggreader.OggHeader

	decoder   *opus.Decoder
	decodeBuf []byte
	pending   []int16
	preSkip   int
	eof       bool

	samplesRead atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewOpusSource creates an opus source reading from r.
//
// The stream must begin with an OpusHead page. If r is also an
// io.Closer it is closed together with the source.
//
// Parameters:
//   - r: Ogg/Opus stream
//
// Returns:
//   - *OpusFileSource: New source instance
//   - error: Any error that occurred while reading the stream header
func NewOpusSource(r io.Reader) (*OpusFileSource, error) {
	ogg, header, err := oggreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read ogg header: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewOpusSource",
		"channels":    header.Channels,
		"sample_rate": header.SampleRate,
		"pre_skip":    header.PreSkip,
	}).Info("Opened opus source")

	decoder := opus.NewDecoder()

	source := &OpusFileSource{
		reader:    r,
		ogg:       ogg,
		header:    header,
		decoder:   &decoder,
		decodeBuf: make([]byte, opusFrameSamples*2),
		preSkip:   int(header.PreSkip),
	}
	if closer, ok := r.(io.Closer); ok {
		source.closer = closer
	}
	return source, nil
}

// NewOpusFileSource opens an .opus/.ogg file as a PCM source.
func NewOpusFileSource(path string) (*OpusFileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", media.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open opus file: %w", err)
	}

	source, err := NewOpusSource(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return source, nil
}

// GetSampleRate returns the PCM output rate (always 48kHz).
func (s *OpusFileSource) GetSampleRate() int {
	return OpusDecodeRate
}

// GetChannels returns the PCM output channel count (always mono).
func (s *OpusFileSource) GetChannels() int {
	return 1
}

// ReadChunk fills buf with decoded PCM samples.
//
// Follows the same contract as the ffmpeg audio decoder: full chunks
// until the stream ends, then one final partial chunk, then io.EOF.
//
// Parameters:
//   - buf: Destination sample buffer
//
// Returns:
//   - int: Number of samples written to buf
//   - error: io.EOF at end of stream, or any decode error
func (s *OpusFileSource) ReadChunk(buf []int16) (int, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("empty chunk buffer")
	}

	filled := 0
	for filled < len(buf) {
		if len(s.pending) == 0 {
			if err := s.fillPending(); err != nil {
				if errors.Is(err, io.EOF) {
					if filled > 0 {
						return filled, nil
					}
					logrus.WithFields(logrus.Fields{
						"function":     "ReadChunk",
						"samples_read": s.samplesRead.Load(),
					}).Debug("Opus stream ended")
					return 0, io.EOF
				}
				return filled, err
			}
			continue
		}

		n := copy(buf[filled:], s.pending)
		s.pending = s.pending[n:]
		filled += n
		s.samplesRead.Add(uint64(n))
	}
	return filled, nil
}

// fillPending parses ogg pages until at least one decoded segment is
// available, skipping the comment header and pre-skip samples.
func (s *OpusFileSource) fillPending() error {
	for len(s.pending) == 0 {
		if s.eof {
			return io.EOF
		}

		segments, _, err := s.ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			s.eof = true
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("failed to parse ogg page: %w", err)
		}
		if len(segments) > 0 && bytes.HasPrefix(segments[0], []byte("OpusTags")) {
			continue
		}

		for _, segment := range segments {
			if len(segment) == 0 {
				continue
			}
			if _, _, err := s.decoder.Decode(segment, s.decodeBuf); err != nil {
				return fmt.Errorf("opus decode failed: %w", err)
			}

			// The decoder accepts only 20ms SILK frames and fills the
			// whole buffer on success; any other frame duration fails
			// the Decode call above.
			samples := BytesToSamples(s.decodeBuf)
			if s.preSkip > 0 {
				if s.preSkip >= len(samples) {
					s.preSkip -= len(samples)
					continue
				}
				samples = samples[s.preSkip:]
				s.preSkip = 0
			}
			s.pending = append(s.pending, samples...)
		}
	}
	return nil
}

// Close releases the source and its underlying reader.
func (s *OpusFileSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":     "Close",
		"samples_read": s.samplesRead.Load(),
	}).Debug("Closing opus source")

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
