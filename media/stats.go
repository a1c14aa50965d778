// Package media provides the shared playback primitives for pgplayer.
//
// This file implements playback statistics collection. The pipelines
// record decode, drop, and delivery events as they happen and callers
// read a consistent snapshot at any time.
package media

import (
	"sync"
	"time"
)

// Stats collects playback counters from the decode and playback
// pipelines. All methods are safe for concurrent use.
type Stats struct {
	mu sync.Mutex

	framesDecoded   uint64
	framesDropped   uint64
	framesDelivered uint64
	audioChunks     uint64
	audioUnderruns  uint64
	loopsCompleted  uint64
	drift           float64
	lastUpdate      time.Time
}

// StatsSnapshot is a point-in-time copy of playback statistics.
type StatsSnapshot struct {
	// FramesDecoded counts video frames read from the decoder.
	FramesDecoded uint64
	// FramesDropped counts frames discarded for lagging the clock.
	FramesDropped uint64
	// FramesDelivered counts frames published to the frame slot.
	FramesDelivered uint64
	// AudioChunks counts PCM chunks handed to the output device.
	AudioChunks uint64
	// AudioUnderruns counts times the output device ran dry.
	AudioUnderruns uint64
	// LoopsCompleted counts completed playback loops.
	LoopsCompleted uint64
	// Drift is the most recent video-behind-audio offset in seconds.
	// Negative values mean video lagged the audio clock.
	Drift float64
	// LastUpdate is when any counter last changed.
	LastUpdate time.Time
}

// NewStats creates an empty statistics collector.
func NewStats() *Stats {
	return &Stats{}
}

// AddFrameDecoded records one frame read from the video decoder.
func (s *Stats) AddFrameDecoded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framesDecoded++
	s.lastUpdate = time.Now()
}

// AddFrameDropped records one frame discarded for running late.
func (s *Stats) AddFrameDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framesDropped++
	s.lastUpdate = time.Now()
}

// AddFrameDelivered records one frame published for display.
func (s *Stats) AddFrameDelivered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framesDelivered++
	s.lastUpdate = time.Now()
}

// AddAudioChunk records one PCM chunk handed to the output device.
func (s *Stats) AddAudioChunk() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioChunks++
	s.lastUpdate = time.Now()
}

// AddAudioUnderrun records one output device underrun.
func (s *Stats) AddAudioUnderrun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioUnderruns++
	s.lastUpdate = time.Now()
}

// AddLoopCompleted records one completed playback loop.
func (s *Stats) AddLoopCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loopsCompleted++
	s.lastUpdate = time.Now()
}

// SetDrift records the most recent audio/video drift measurement.
func (s *Stats) SetDrift(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drift = seconds
	s.lastUpdate = time.Now()
}

// Snapshot returns a consistent copy of all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		FramesDecoded:   s.framesDecoded,
		FramesDropped:   s.framesDropped,
		FramesDelivered: s.framesDelivered,
		AudioChunks:     s.audioChunks,
		AudioUnderruns:  s.audioUnderruns,
		LoopsCompleted:  s.loopsCompleted,
		Drift:           s.drift,
		LastUpdate:      s.lastUpdate,
	}
}
