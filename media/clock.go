// Package media provides the shared playback primitives for pgplayer.
//
// This file implements the synchronization clock that slaves video
// presentation to audio playback. The audio pipeline publishes the
// presentation timestamp of the most recently played chunk and the video
// pipeline reads it back to decide whether a frame is early, on time, or
// too late to show. Sources without an audio stream fall back to a
// wall-clock base so the same pacing logic still applies.
package media

import (
	"sync"
	"time"
)

// Clock tracks the master playback position in media seconds.
//
// Audio is the master when present: SetAudioPTS publishes the timestamp
// of the chunk most recently handed to the speaker. When no audio ever
// ticks, Now derives the position from elapsed wall time scaled by the
// playback speed. All methods are safe for concurrent use.
type Clock struct {
	mu sync.Mutex

	// Audio master position
	audioPTS float64
	hasAudio bool

	// Wall-clock fallback
	started bool
	base    time.Time
	elapsed time.Duration
	paused  bool
	speed   float64
}

// NewClock creates a clock with a 1.0x wall-clock speed.
func NewClock() *Clock {
	return &Clock{
		speed: 1.0,
	}
}

// Start anchors the wall-clock fallback at the current time.
// speed scales elapsed wall time into media time for sources
// without audio.
func (c *Clock) Start(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	c.base = time.Now()
	c.elapsed = 0
	c.paused = false
	if speed > 0 {
		c.speed = speed
	}
}

// SetAudioPTS publishes the media timestamp of the audio chunk most
// recently handed to the output device. Once called, audio becomes the
// clock master.
func (c *Clock) SetAudioPTS(pts float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioPTS = pts
	c.hasAudio = true
}

// AudioPTS returns the last published audio timestamp and whether audio
// has ever ticked.
func (c *Clock) AudioPTS() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.audioPTS, c.hasAudio
}

// Pause freezes the wall-clock fallback. Audio-mastered clocks pause
// naturally because the audio pipeline stops publishing timestamps.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.paused {
		return
	}
	c.elapsed += time.Since(c.base)
	c.paused = true
}

// Resume unfreezes the wall-clock fallback after a Pause.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || !c.paused {
		return
	}
	c.base = time.Now()
	c.paused = false
}

// SetSpeed changes the wall-clock speed scale without moving the
// current position. Audio-mastered clocks are unaffected because the
// published timestamps already reflect the decode speed.
func (c *Clock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if speed <= 0 || speed == c.speed {
		return
	}
	if c.started {
		if !c.paused {
			c.elapsed += time.Since(c.base)
			c.base = time.Now()
		}
		// Rescale accumulated time so the position reads the same
		// under the new speed.
		c.elapsed = time.Duration(float64(c.elapsed) * c.speed / speed)
	}
	c.speed = speed
}

// Now returns the current playback position in media seconds.
//
// When audio has ticked, the audio position wins. Otherwise the position
// is elapsed wall time scaled by the playback speed, which keeps frame
// dropping meaningful for silent sources.
func (c *Clock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasAudio {
		return c.audioPTS
	}
	if !c.started {
		return 0
	}
	elapsed := c.elapsed
	if !c.paused {
		elapsed += time.Since(c.base)
	}
	return elapsed.Seconds() * c.speed
}

// Reset returns the clock to its initial state. Used when playback loops
// back to the start of the media.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioPTS = 0
	c.hasAudio = false
	c.base = time.Now()
	c.elapsed = 0
	c.paused = false
}
