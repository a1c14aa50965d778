// Package audio provides PCM processing and speaker output for
// pgplayer.
//
// This file implements the playback sink. Decoded PCM is pushed into a
// bounded queue that a beep streamer drains into the speaker; the
// queue's backpressure paces the decode loop the same way a blocking
// device write would, and its consumption counter drives the playback
// clock.
package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
)

const (
	// DefaultBufferDuration is the speaker buffer size requested at
	// initialization. Smaller buffers reduce latency at the cost of
	// underrun risk.
	DefaultBufferDuration = 100 * time.Millisecond

	// DefaultMaxBuffered bounds how much decoded audio may sit in the
	// sink queue. Writers block once the bound is reached.
	DefaultMaxBuffered = 500 * time.Millisecond

	// resampleQuality is the beep resampler quality used when the
	// speaker was initialized at a different rate than the sink.
	resampleQuality = 4
)

// The speaker device is process-global, so it is initialized exactly
// once at the rate of the first sink. Later sinks at other rates are
// resampled onto it.
var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate beep.SampleRate
)

func ensureSpeaker(rate beep.SampleRate, buffer time.Duration) (beep.SampleRate, error) {
	speakerOnce.Do(func() {
		logrus.WithFields(logrus.Fields{
			"function":    "ensureSpeaker",
			"sample_rate": rate,
			"buffer":      buffer,
		}).Info("Initializing speaker")

		speakerErr = speaker.Init(rate, rate.N(buffer))
		if speakerErr == nil {
			speakerRate = rate
		}
	})
	if speakerErr != nil {
		return 0, speakerErr
	}
	return speakerRate, nil
}

// pcmQueue is a bounded FIFO of speaker frames implementing
// beep.Streamer.
//
// Stream never blocks: an empty open queue yields silence so the mixer
// keeps pulling, and a closed empty queue ends the stream. Writers
// block while the queue is full.
type pcmQueue struct {
	mu        sync.Mutex
	space     *sync.Cond
	buf       [][2]float64
	maxFrames int
	closed    bool
	started   bool

	consumed  atomic.Uint64
	underruns atomic.Uint64
}

func newPCMQueue(maxFrames int) *pcmQueue {
	q := &pcmQueue{
		buf:       make([][2]float64, 0, maxFrames),
		maxFrames: maxFrames,
	}
	q.space = sync.NewCond(&q.mu)
	return q
}

// write appends frames, blocking while the queue is full. Returns
// media.ErrStopped once the queue has been closed.
func (q *pcmQueue) write(frames [][2]float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(frames) > 0 {
		for len(q.buf) >= q.maxFrames && !q.closed {
			q.space.Wait()
		}
		if q.closed {
			return media.ErrStopped
		}

		n := q.maxFrames - len(q.buf)
		if n > len(frames) {
			n = len(frames)
		}
		q.buf = append(q.buf, frames[:n]...)
		frames = frames[n:]
	}
	return nil
}

// Stream fills samples from the queue, padding with silence when the
// queue runs dry while open.
func (q *pcmQueue) Stream(samples [][2]float64) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(samples, q.buf)
	if n > 0 {
		q.buf = q.buf[:copy(q.buf, q.buf[n:])]
		q.consumed.Add(uint64(n))
		q.started = true
		q.space.Broadcast()
	}

	if q.closed {
		return n, n > 0
	}

	if n < len(samples) {
		for i := n; i < len(samples); i++ {
			samples[i] = [2]float64{}
		}
		if q.started {
			q.underruns.Add(1)
		}
		n = len(samples)
	}
	return n, true
}

// Err implements beep.Streamer. The queue itself never fails.
func (q *pcmQueue) Err() error {
	return nil
}

func (q *pcmQueue) buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// drain blocks until the queue is empty or closed.
func (q *pcmQueue) drain() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) > 0 && !q.closed {
		q.space.Wait()
	}
}

func (q *pcmQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.buf = nil
	q.space.Broadcast()
}

// SinkConfig holds configuration for creating a playback sink.
type SinkConfig struct {
	SampleRate     int           // PCM sample rate in Hz
	Channels       int           // Number of channels (1=mono, 2=stereo)
	BufferDuration time.Duration // Speaker buffer size (default: 100ms)
	MaxBuffered    time.Duration // Queue bound (default: 500ms)
}

// Sink plays int16 PCM through the system speaker.
//
// Writes block once the internal queue holds MaxBuffered worth of
// audio, so a decode loop pushing into the sink is paced at playback
// speed. Safe for concurrent use.
type Sink struct {
	sampleRate int
	channels   int

	queue  *pcmQueue
	ctrl   *beep.Ctrl
	volume *effects.Volume

	mu     sync.Mutex
	closed bool
}

// NewSink creates a playback sink and starts streaming it on the
// speaker.
//
// The first sink in the process initializes the speaker at its own
// sample rate; sinks created later at other rates are transparently
// resampled.
//
// Parameters:
//   - config: Sink configuration
//
// Returns:
//   - *Sink: New sink instance
//   - error: Any error that occurred during speaker initialization
func NewSink(config SinkConfig) (*Sink, error) {
	logrus.WithFields(logrus.Fields{
		"function":    "NewSink",
		"sample_rate": config.SampleRate,
		"channels":    config.Channels,
	}).Info("Creating audio sink")

	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", config.SampleRate)
	}
	if config.Channels < 1 || config.Channels > 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (must be 1 or 2)", config.Channels)
	}
	if config.BufferDuration <= 0 {
		config.BufferDuration = DefaultBufferDuration
	}
	if config.MaxBuffered <= 0 {
		config.MaxBuffered = DefaultMaxBuffered
	}

	rate := beep.SampleRate(config.SampleRate)
	actualRate, err := ensureSpeaker(rate, config.BufferDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	maxFrames := rate.N(config.MaxBuffered)
	if maxFrames < 1 {
		maxFrames = 1
	}
	queue := newPCMQueue(maxFrames)

	var streamer beep.Streamer = queue
	if actualRate != rate {
		logrus.WithFields(logrus.Fields{
			"function":     "NewSink",
			"sink_rate":    rate,
			"speaker_rate": actualRate,
		}).Warn("Speaker already initialized at different rate, resampling")
		streamer = beep.Resample(resampleQuality, rate, actualRate, queue)
	}

	ctrl := &beep.Ctrl{Streamer: streamer}
	volume := &effects.Volume{
		Streamer: ctrl,
		Base:     2,
		Volume:   0,
	}
	speaker.Play(volume)

	return &Sink{
		sampleRate: config.SampleRate,
		channels:   config.Channels,
		queue:      queue,
		ctrl:       ctrl,
		volume:     volume,
	}, nil
}

// samplesToFrames converts interleaved int16 PCM into speaker frames.
// Mono input is duplicated to both channels.
func samplesToFrames(samples []int16, channels int) [][2]float64 {
	frameCount := len(samples) / channels
	frames := make([][2]float64, frameCount)
	if channels == 1 {
		for i := 0; i < frameCount; i++ {
			v := float64(samples[i]) / 32768.0
			frames[i] = [2]float64{v, v}
		}
	} else {
		for i := 0; i < frameCount; i++ {
			frames[i] = [2]float64{
				float64(samples[i*2]) / 32768.0,
				float64(samples[i*2+1]) / 32768.0,
			}
		}
	}
	return frames
}

// Write queues PCM samples for playback, blocking while the queue is
// full.
//
// Samples must be aligned to the channel count. Mono input is
// duplicated to both speaker channels. Returns media.ErrStopped after
// Close.
func (s *Sink) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if len(samples)%s.channels != 0 {
		return fmt.Errorf("samples (%d) not aligned to channel count (%d)", len(samples), s.channels)
	}

	return s.queue.write(samplesToFrames(samples, s.channels))
}

// Pause suspends or resumes playback. While paused the speaker emits
// silence and the queue stops draining.
func (s *Sink) Pause(paused bool) {
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Pause",
		"paused":   paused,
	}).Debug("Sink pause state changed")
}

// Paused reports whether playback is currently paused.
func (s *Sink) Paused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return s.ctrl.Paused
}

// SetMuted silences output without touching the volume level or
// stopping queue consumption.
func (s *Sink) SetMuted(muted bool) {
	speaker.Lock()
	s.volume.Silent = muted
	speaker.Unlock()
}

// Muted reports whether output is muted.
func (s *Sink) Muted() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return s.volume.Silent
}

// GetSampleRate returns the sink's PCM sample rate.
func (s *Sink) GetSampleRate() int {
	return s.sampleRate
}

// GetChannels returns the sink's channel count.
func (s *Sink) GetChannels() int {
	return s.channels
}

// ConsumedFrames returns the number of queued frames the speaker has
// consumed. Silence inserted during underruns is not counted, so the
// value tracks actual media progress.
func (s *Sink) ConsumedFrames() uint64 {
	return s.queue.consumed.Load()
}

// Underruns returns how many times the speaker pulled from an empty
// queue mid-stream.
func (s *Sink) Underruns() uint64 {
	return s.queue.underruns.Load()
}

// BufferedFrames returns the number of frames currently queued.
func (s *Sink) BufferedFrames() int {
	return s.queue.buffered()
}

// Drain blocks until all queued audio has been consumed or the sink is
// closed. Draining while paused blocks until playback resumes.
func (s *Sink) Drain() {
	s.queue.drain()
}

// Close stops the sink, dropping any queued audio and unblocking
// writers.
//
// The shared speaker stays initialized for other sinks; this sink's
// streamer ends and is removed from the mixer.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Close",
		"consumed":  s.queue.consumed.Load(),
		"underruns": s.queue.underruns.Load(),
	}).Info("Closing audio sink")

	s.queue.close()
	return nil
}
