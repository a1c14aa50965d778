// Package pgplayer provides video playback and recording backed by
// ffmpeg subprocess pipelines.
//
// A Player decodes a media source into raw frames and PCM audio, plays
// the audio through the system speaker, and hands video frames to the
// caller at the right moments, synchronized against the audio position.
// A Recorder runs the pipeline the other way, encoding frames handed to
// it into a video file.
//
// Example:
//
//	opts := pgplayer.NewOptions()
//	opts.Volume = 0.5
//
//	player, err := pgplayer.New("movie.mp4", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer player.Stop()
//
//	player.OnFinished(func() {
//	    fmt.Println("playback finished")
//	})
//
//	if err := player.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
//	for player.State() == pgplayer.StatePlaying {
//	    if frame, fresh := player.Frame(); fresh {
//	        render(frame)
//	    }
//	    time.Sleep(time.Second / time.Duration(player.FPS()))
//	}
package pgplayer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
	"github.com/faakharhzb/pgplayer/media/audio"
	"github.com/faakharhzb/pgplayer/media/ffmpeg"
	"github.com/faakharhzb/pgplayer/media/probe"
	"github.com/faakharhzb/pgplayer/media/video"
)

// State aliases the media package's playback state so callers can use
// the player without importing it.
type State = media.State

// Playback states.
const (
	StateIdle     = media.StateIdle
	StatePlaying  = media.StatePlaying
	StatePaused   = media.StatePaused
	StateStopped  = media.StateStopped
	StateFinished = media.StateFinished
	StateError    = media.StateError
)

// StateChangeCallback is called when the player transitions between
// playback states.
type StateChangeCallback func(oldState, newState media.State)

// FinishedCallback is called when playback reaches the natural end of
// the media, including all requested loops.
type FinishedCallback func()

// Player plays a video source and hands decoded frames to the caller.
//
// A Player wraps one source. Start launches a video goroutine and,
// when the source has an audible audio stream, an audio goroutine; the
// audio position drives frame timing so video stays in sync with what
// the speaker is actually playing. Frames are published into a single
// latest-frame slot that Frame and FrameScaled read from, so a slow
// caller sees the most recent frame rather than a growing backlog.
//
// All methods are safe for concurrent use.
type Player struct {
	source     string
	sourceData []byte

	width    int
	height   int
	fps      float64
	duration float64
	hasAudio bool

	opts Options

	speedMu sync.RWMutex
	speed   float64

	volume *audio.VolumeEffect
	muted  atomic.Bool

	clock  *media.Clock
	stats  *media.Stats
	scaler *video.Scaler

	state         atomic.Uint32
	started       atomic.Bool
	stopRequested atomic.Bool
	stopOnce      sync.Once
	stopCh        chan struct{}
	wg            sync.WaitGroup

	pauseMu   sync.Mutex
	pauseCond *sync.Cond
	paused    bool

	frameMu    sync.Mutex
	frameImg   *image.RGBA
	frameFresh bool

	sinkMu      sync.Mutex
	sink        *audio.Sink
	audioActive bool

	decMu    sync.Mutex
	decoders map[io.Closer]struct{}

	doneMu        sync.Mutex
	activeStreams int
	doneStreams   int

	errMu    sync.Mutex
	firstErr error

	// Owned by the audio goroutine.
	seenUnderruns uint64

	cbMu          sync.Mutex
	onStateChange StateChangeCallback
	onFinished    FinishedCallback
}

// New creates a player for a file path or URL.
//
// The source is probed up front: a local path must exist and the
// container must hold a video stream. Frame geometry, frame rate,
// duration, and audio presence are captured from the probe report.
//
// Parameters:
//   - source: file path or URL of the media to play
//   - opts: playback options, nil for defaults
//
// Returns:
//   - *Player: player ready for Start
//   - error: ErrEmptySource, ErrSourceNotFound, ErrNoVideoStream, or a
//     probe failure
func New(source string, opts *Options) (*Player, error) {
	if source == "" {
		return nil, media.ErrEmptySource
	}

	o := opts.normalize()

	prober := probe.New()
	if o.FFprobeBinary != "" {
		prober = probe.NewWithBinary(o.FFprobeBinary)
	}
	info, err := prober.Probe(context.Background(), source)
	if err != nil {
		return nil, err
	}

	return newPlayer(source, nil, o, info)
}

// NewFromBytes creates a player for an in-memory media source. The data
// is fed to the probe and decode processes over stdin, so nothing is
// written to disk.
//
// Parameters:
//   - data: complete media file contents
//   - opts: playback options, nil for defaults
//
// Returns:
//   - *Player: player ready for Start
//   - error: ErrEmptySource, ErrNoVideoStream, or a probe failure
func NewFromBytes(data []byte, opts *Options) (*Player, error) {
	if len(data) == 0 {
		return nil, media.ErrEmptySource
	}

	o := opts.normalize()

	prober := probe.New()
	if o.FFprobeBinary != "" {
		prober = probe.NewWithBinary(o.FFprobeBinary)
	}
	info, err := prober.ProbeBytes(context.Background(), data)
	if err != nil {
		return nil, err
	}

	return newPlayer("", data, o, info)
}

// newPlayer builds a Player from a probe report and normalized options.
func newPlayer(source string, data []byte, o Options, info *probe.Info) (*Player, error) {
	vs := info.VideoStream()
	if vs == nil {
		return nil, media.ErrNoVideoStream
	}

	fps, err := vs.FrameRate()
	if err != nil {
		return nil, fmt.Errorf("failed to determine frame rate: %w", err)
	}
	// Still-image and attachment streams probe as "0/1". A zero rate
	// would poison every pacing division downstream.
	if fps <= 0 {
		return nil, fmt.Errorf("%w: stream %d reports %q", media.ErrNoFrameRate, vs.Index, vs.AvgFrameRate)
	}

	width := vs.PixelWidth()
	height := vs.PixelHeight()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, width, height)
	}

	p := &Player{
		source:     source,
		sourceData: data,
		width:      width,
		height:     height,
		fps:        fps,
		duration:   info.DurationSeconds(),
		hasAudio:   info.AudioStream() != nil,
		opts:       o,
		speed:      o.Speed,
		volume:     audio.NewVolumeEffect(o.Volume),
		clock:      media.NewClock(),
		stats:      media.NewStats(),
		scaler:     video.NewScaler(),
		stopCh:     make(chan struct{}),
		decoders:   make(map[io.Closer]struct{}),
		// Frame reads before the first decoded frame arrives see a
		// blank image of the source geometry, never nil.
		frameImg: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	p.pauseCond = sync.NewCond(&p.pauseMu)
	p.state.Store(uint32(media.StateIdle))

	logrus.WithFields(logrus.Fields{
		"function":  "newPlayer",
		"source":    source,
		"width":     width,
		"height":    height,
		"fps":       fps,
		"duration":  p.duration,
		"has_audio": p.hasAudio,
		"loop":      o.Loop,
		"speed":     o.Speed,
	}).Info("Player created")

	return p, nil
}

// Width returns the source frame width in pixels.
func (p *Player) Width() int {
	return p.width
}

// Height returns the source frame height in pixels.
func (p *Player) Height() int {
	return p.height
}

// Size returns the source frame dimensions.
func (p *Player) Size() (width, height int) {
	return p.width, p.height
}

// FPS returns the source video frame rate.
func (p *Player) FPS() float64 {
	return p.fps
}

// Duration returns the container duration in seconds, or zero when the
// container does not report one.
func (p *Player) Duration() float64 {
	return p.duration
}

// HasAudio reports whether the source contains an audio stream.
func (p *Player) HasAudio() bool {
	return p.hasAudio
}

// Source returns the path or URL the player was created from. Players
// created with NewFromBytes return an empty string.
func (p *Player) Source() string {
	return p.source
}

// State returns the current playback state.
func (p *Player) State() media.State {
	return media.State(p.state.Load())
}

// Err returns the first pipeline error, or nil. Only meaningful once
// State reports StateError.
func (p *Player) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.firstErr
}

// Stats returns a snapshot of the playback counters.
func (p *Player) Stats() media.StatsSnapshot {
	return p.stats.Snapshot()
}

// OnStateChange registers a callback for playback state transitions.
// The callback is invoked on its own goroutine.
//
// Parameters:
//   - callback: function to call on every state change, nil to clear
func (p *Player) OnStateChange(callback StateChangeCallback) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onStateChange = callback
}

// OnFinished registers a callback for the natural end of playback,
// after all requested loops. The callback is invoked on its own
// goroutine. Stopping the player does not fire it.
//
// Parameters:
//   - callback: function to call when playback finishes, nil to clear
func (p *Player) OnFinished(callback FinishedCallback) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onFinished = callback
}

// Start launches the playback goroutines.
//
// The video goroutine always runs. The audio goroutine runs when the
// source has an audio stream, audio is not disabled, and the speaker
// initializes; a speaker failure degrades to silent playback instead of
// failing Start.
//
// Returns:
//   - error: ErrAlreadyStarted on a second call, ErrStopped after Stop
func (p *Player) Start() error {
	if p.stopRequested.Load() {
		return media.ErrStopped
	}
	if !p.started.CompareAndSwap(false, true) {
		return media.ErrAlreadyStarted
	}

	logrus.WithFields(logrus.Fields{
		"function": "Start",
		"source":   p.source,
	}).Info("Starting playback")

	audioActive := p.hasAudio && !p.opts.DisableAudio
	if audioActive {
		sink, err := audio.NewSink(audio.SinkConfig{
			SampleRate: p.opts.SampleRate,
			Channels:   p.opts.Channels,
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Start",
				"error":    err,
			}).Warn("Audio sink unavailable, continuing without audio")
			audioActive = false
		} else {
			sink.SetMuted(p.muted.Load())
			p.sinkMu.Lock()
			p.sink = sink
			p.sinkMu.Unlock()
		}
	}

	p.doneMu.Lock()
	p.activeStreams = 1
	if audioActive {
		p.activeStreams = 2
	}
	p.doneMu.Unlock()
	p.audioActive = audioActive

	p.clock.Start(p.Speed())
	p.setState(media.StatePlaying)

	p.wg.Add(1)
	go p.videoLoop()
	if audioActive {
		p.wg.Add(1)
		go p.audioLoop()
	}

	return nil
}

// Stop halts playback and releases every pipeline resource. Safe to
// call multiple times and before Start.
//
// Decoder processes are killed, the audio sink is closed, paused
// goroutines are released, and the call blocks until both playback
// goroutines have exited. The state becomes StateStopped unless
// playback had already finished or failed.
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		logrus.WithFields(logrus.Fields{
			"function": "Stop",
			"source":   p.source,
		}).Info("Stopping playback")

		p.stopRequested.Store(true)
		close(p.stopCh)

		p.pauseMu.Lock()
		p.paused = false
		p.pauseCond.Broadcast()
		p.pauseMu.Unlock()

		p.closeDecoders()
		if s := p.currentSink(); s != nil {
			_ = s.Close()
		}
	})

	p.wg.Wait()

	state := p.State()
	if state != media.StateFinished && state != media.StateError {
		p.setState(media.StateStopped)
	}
}

// SetVolume sets the audio volume, clamped to [0.0, 1.0]. Takes effect
// from the next decoded chunk.
func (p *Player) SetVolume(volume float64) {
	p.volume.SetVolume(volume)
}

// Volume returns the current audio volume.
func (p *Player) Volume() float64 {
	return p.volume.GetVolume()
}

// IncreaseVolume raises the volume by delta and returns the new
// clamped value.
func (p *Player) IncreaseVolume(delta float64) float64 {
	p.volume.SetVolume(p.volume.GetVolume() + delta)
	return p.volume.GetVolume()
}

// DecreaseVolume lowers the volume by delta and returns the new
// clamped value.
func (p *Player) DecreaseVolume(delta float64) float64 {
	p.volume.SetVolume(p.volume.GetVolume() - delta)
	return p.volume.GetVolume()
}

// SetMuted silences or restores audio output without touching the
// volume setting.
func (p *Player) SetMuted(muted bool) {
	p.muted.Store(muted)
	if s := p.currentSink(); s != nil {
		s.SetMuted(muted)
	}
}

// Muted reports whether audio output is muted.
func (p *Player) Muted() bool {
	return p.muted.Load()
}

// SetSpeed sets the playback speed, clamped to [0.1, 16.0].
//
// Video pacing follows the new speed immediately. The audio tempo
// filter is fixed when its decode process spawns, so audible speed
// changes apply from the next loop iteration.
func (p *Player) SetSpeed(speed float64) {
	speed = ClampSpeed(speed)

	p.speedMu.Lock()
	p.speed = speed
	p.speedMu.Unlock()

	p.clock.SetSpeed(speed)

	logrus.WithFields(logrus.Fields{
		"function": "SetSpeed",
		"speed":    speed,
	}).Debug("Playback speed changed")
}

// Speed returns the current playback speed.
func (p *Player) Speed() float64 {
	p.speedMu.RLock()
	defer p.speedMu.RUnlock()
	return p.speed
}

// IncreaseSpeed raises the playback speed by delta and returns the new
// clamped value.
func (p *Player) IncreaseSpeed(delta float64) float64 {
	p.SetSpeed(p.Speed() + delta)
	return p.Speed()
}

// DecreaseSpeed lowers the playback speed by delta and returns the new
// clamped value.
func (p *Player) DecreaseSpeed(delta float64) float64 {
	p.SetSpeed(p.Speed() - delta)
	return p.Speed()
}

// SetPaused pauses or resumes playback. Both playback goroutines stop
// at their next iteration boundary, the speaker output pauses, and the
// clock freezes so no frames are dropped while paused. A no-op before
// Start and after Stop.
func (p *Player) SetPaused(paused bool) {
	if !p.started.Load() || p.stopRequested.Load() {
		return
	}

	p.pauseMu.Lock()
	if p.paused == paused {
		p.pauseMu.Unlock()
		return
	}
	p.paused = paused
	if !paused {
		p.pauseCond.Broadcast()
	}
	p.pauseMu.Unlock()

	if paused {
		p.clock.Pause()
	} else {
		p.clock.Resume()
	}
	if s := p.currentSink(); s != nil {
		s.Pause(paused)
	}

	state := p.State()
	if state == media.StatePlaying || state == media.StatePaused {
		if paused {
			p.setState(media.StatePaused)
		} else {
			p.setState(media.StatePlaying)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "SetPaused",
		"paused":   paused,
	}).Debug("Pause state changed")
}

// TogglePause flips between paused and playing.
func (p *Player) TogglePause() {
	p.SetPaused(!p.Paused())
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	p.pauseMu.Lock()
	defer p.pauseMu.Unlock()
	return p.paused
}

// Frame returns the most recently presented frame and whether it is
// fresh, meaning it has not been returned by a previous Frame or
// FrameScaled call. Before the first frame decodes the image is blank.
//
// The returned image is shared with later reads; callers that mutate
// it should copy first.
//
// Returns:
//   - *image.RGBA: latest presented frame, never nil
//   - bool: true when the frame has not been delivered before
func (p *Player) Frame() (*image.RGBA, bool) {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()

	fresh := p.frameFresh
	if fresh {
		p.frameFresh = false
		p.stats.AddFrameDelivered()
	}
	return p.frameImg, fresh
}

// FrameScaled returns the most recently presented frame scaled to the
// given size. The scaled image is always a copy, so the stored frame is
// never mutated.
//
// Parameters:
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - *image.RGBA: scaled copy of the latest frame
//   - bool: true when the frame has not been delivered before
//   - error: ErrInvalidDimensions for a non-positive size
func (p *Player) FrameScaled(width, height int) (*image.RGBA, bool, error) {
	p.frameMu.Lock()
	img := p.frameImg
	fresh := p.frameFresh
	if fresh {
		p.frameFresh = false
		p.stats.AddFrameDelivered()
	}
	p.frameMu.Unlock()

	scaled, err := p.scaler.Scale(img, width, height)
	if err != nil {
		return nil, false, err
	}
	return scaled, fresh, nil
}

// publishFrame stores a decoded frame in the latest-frame slot,
// replacing whatever the caller has not picked up yet.
func (p *Player) publishFrame(img *image.RGBA) {
	p.frameMu.Lock()
	p.frameImg = img
	p.frameFresh = true
	p.frameMu.Unlock()
}

// setState transitions the playback state and notifies the registered
// callback asynchronously.
func (p *Player) setState(state media.State) {
	old := media.State(p.state.Swap(uint32(state)))
	if old == state {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "setState",
		"old":      old.String(),
		"new":      state.String(),
	}).Debug("State changed")

	p.cbMu.Lock()
	cb := p.onStateChange
	p.cbMu.Unlock()
	if cb != nil {
		go cb(old, state)
	}
}

// fail records the first pipeline error and moves the player to
// StateError.
func (p *Player) fail(err error) {
	p.errMu.Lock()
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.errMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "fail",
		"error":    err,
	}).Error("Playback pipeline failed")

	p.setState(media.StateError)
}

// streamDone records one stream reaching its natural end. When every
// active stream has finished the player enters StateFinished and the
// finished callback fires.
func (p *Player) streamDone() {
	p.doneMu.Lock()
	p.doneStreams++
	done := p.doneStreams >= p.activeStreams
	p.doneMu.Unlock()

	if !done || p.stopRequested.Load() {
		return
	}
	if p.State() == media.StateError {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "streamDone",
		"source":   p.source,
	}).Info("Playback finished")

	p.setState(media.StateFinished)

	p.cbMu.Lock()
	cb := p.onFinished
	p.cbMu.Unlock()
	if cb != nil {
		go cb()
	}
}

// currentSink returns the audio sink, or nil before Start or for silent
// playback.
func (p *Player) currentSink() *audio.Sink {
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	return p.sink
}

// track registers a decoder so Stop can kill its process mid-read. The
// returned release function unregisters and closes it.
func (p *Player) track(closer io.Closer) func() {
	p.decMu.Lock()
	if p.stopRequested.Load() {
		p.decMu.Unlock()
		_ = closer.Close()
		return func() {}
	}
	p.decoders[closer] = struct{}{}
	p.decMu.Unlock()

	return func() {
		p.decMu.Lock()
		delete(p.decoders, closer)
		p.decMu.Unlock()
		_ = closer.Close()
	}
}

// closeDecoders kills every registered decoder process, unblocking
// goroutines stuck reading from them.
func (p *Player) closeDecoders() {
	p.decMu.Lock()
	closers := make([]io.Closer, 0, len(p.decoders))
	for c := range p.decoders {
		closers = append(closers, c)
	}
	p.decMu.Unlock()

	for _, c := range closers {
		_ = c.Close()
	}
}

// waitIfPaused blocks while the player is paused. Returns ErrStopped
// when Stop is requested while waiting or before.
func (p *Player) waitIfPaused() error {
	p.pauseMu.Lock()
	for p.paused && !p.stopRequested.Load() {
		p.pauseCond.Wait()
	}
	p.pauseMu.Unlock()

	if p.stopRequested.Load() {
		return media.ErrStopped
	}
	return nil
}

// sleepInterruptible sleeps for d or until Stop is requested.
func (p *Player) sleepInterruptible(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-p.stopCh:
	}
}

// videoLoop plays the video stream for every requested loop iteration.
// It owns loop counting for the whole player.
func (p *Player) videoLoop() {
	defer p.wg.Done()

	passes := 0
	for {
		if err := p.videoPass(); err != nil {
			if errors.Is(err, media.ErrStopped) || p.stopRequested.Load() {
				return
			}
			p.fail(fmt.Errorf("video pipeline: %w", err))
			return
		}

		passes++
		p.stats.AddLoopCompleted()

		if p.opts.Loop != 0 && passes >= p.opts.Loop {
			break
		}

		logrus.WithFields(logrus.Fields{
			"function": "videoLoop",
			"pass":     passes + 1,
		}).Debug("Restarting video stream")
	}

	p.streamDone()
}

// frameAction is the synchronization policy's verdict for one decoded
// frame.
type frameAction int

const (
	// frameDeliver presents the frame immediately.
	frameDeliver frameAction = iota
	// frameWait sleeps one SyncSleepQuantum before presenting.
	frameWait
	// frameDrop discards the frame without presenting it.
	frameDrop
)

// syncFrame decides what to do with a frame at pts given the clock
// position, both in media seconds. The returned delay is the frame's
// lead over the clock in playback seconds: a frame further ahead than
// SyncSleepQuantum waits, a frame more than LateFrameThreshold behind
// is dropped, anything between is delivered as is.
func syncFrame(pts, clockNow, speed float64) (frameAction, float64) {
	delay := (pts - clockNow) / speed

	switch {
	case delay > media.SyncSleepQuantum:
		return frameWait, delay
	case delay < -media.LateFrameThreshold:
		return frameDrop, delay
	}
	return frameDeliver, delay
}

// videoPass decodes and presents the video stream once, from start to
// EOF, applying the synchronization policy frame by frame.
func (p *Player) videoPass() error {
	dec, err := ffmpeg.NewVideoDecoder(ffmpeg.VideoDecoderConfig{
		Binary:     p.opts.FFmpegBinary,
		Source:     p.source,
		SourceData: p.sourceData,
		Width:      p.width,
		Height:     p.height,
	})
	if err != nil {
		return err
	}
	release := p.track(dec)
	defer release()

	// Silent playback paces against wall time, which must restart from
	// zero with each pass. With audio the clock follows the published
	// audio position instead, which wraps on its own.
	if !p.audioActive {
		p.clock.Reset()
	}

	frameIndex := 0
	for {
		if err := p.waitIfPaused(); err != nil {
			return err
		}

		raw, err := dec.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if p.stopRequested.Load() {
				return media.ErrStopped
			}
			return err
		}
		p.stats.AddFrameDecoded()

		// The rawvideo pipe carries no timestamps, so the frame index
		// over a constant frame rate is the presentation time.
		pts := float64(frameIndex) / p.fps
		frameIndex++

		speed := p.Speed()
		action, delay := syncFrame(pts, p.clock.Now(), speed)
		p.stats.SetDrift(delay)

		switch action {
		case frameWait:
			p.sleepInterruptible(time.Duration(media.SyncSleepQuantum * float64(time.Second)))
		case frameDrop:
			p.stats.AddFrameDropped()
			continue
		}

		frame, err := video.NewFrameRGB24(raw, p.width, p.height, pts)
		if err != nil {
			return err
		}
		p.publishFrame(frame.Image)

		p.sleepInterruptible(time.Duration(float64(time.Second) / p.fps / speed))
	}
}

// audioLoop plays the audio stream for every requested loop iteration.
func (p *Player) audioLoop() {
	defer p.wg.Done()

	passes := 0
	for {
		if err := p.audioPass(); err != nil {
			if errors.Is(err, media.ErrStopped) || p.stopRequested.Load() {
				return
			}
			p.fail(fmt.Errorf("audio pipeline: %w", err))
			return
		}

		passes++
		if p.opts.Loop != 0 && passes >= p.opts.Loop {
			break
		}

		logrus.WithFields(logrus.Fields{
			"function": "audioLoop",
			"pass":     passes + 1,
		}).Debug("Restarting audio stream")
	}

	p.streamDone()
}

// audioPass decodes the audio stream once and plays it through the
// sink, publishing the consumed position as the master clock. The pass
// ends only after the sink's buffered tail has played out, so the next
// pass starts from a drained queue.
func (p *Player) audioPass() error {
	speed := p.Speed()
	dec, err := ffmpeg.NewAudioDecoder(ffmpeg.AudioDecoderConfig{
		Binary:     p.opts.FFmpegBinary,
		Source:     p.source,
		SourceData: p.sourceData,
		SampleRate: p.opts.SampleRate,
		Channels:   p.opts.Channels,
		Speed:      speed,
	})
	if err != nil {
		return err
	}
	release := p.track(dec)
	defer release()

	sink := p.currentSink()
	rate := float64(dec.SampleRate())
	passBase := sink.ConsumedFrames()

	buf := make([]byte, ffmpeg.AudioChunkSize)
	for {
		if err := p.waitIfPaused(); err != nil {
			return err
		}

		n, err := dec.ReadChunk(buf)
		if n > 0 {
			samples := audio.BytesToSamples(buf[:n])
			samples, perr := p.volume.Process(samples)
			if perr != nil {
				return perr
			}
			if werr := sink.Write(samples); werr != nil {
				return werr
			}
			p.stats.AddAudioChunk()
			p.publishAudioPTS(sink, passBase, rate, speed)
			p.syncUnderruns(sink)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if p.stopRequested.Load() {
				return media.ErrStopped
			}
			return err
		}
	}

	return p.drainTail(sink, passBase, rate, speed)
}

// publishAudioPTS publishes the media position of the audio actually
// consumed by the speaker this pass. Consumed frames lag written frames
// by the sink's queue depth, so this tracks what is audible rather than
// what has been decoded.
func (p *Player) publishAudioPTS(sink *audio.Sink, passBase uint64, rate, speed float64) {
	consumed := sink.ConsumedFrames() - passBase
	p.clock.SetAudioPTS(float64(consumed) / rate * speed)
}

// drainTail waits for the sink's buffered audio to play out after
// stream EOF, keeping the clock ticking so late video frames still pace
// correctly through the tail.
func (p *Player) drainTail(sink *audio.Sink, passBase uint64, rate, speed float64) error {
	for sink.BufferedFrames() > 0 {
		if err := p.waitIfPaused(); err != nil {
			return err
		}
		select {
		case <-p.stopCh:
			return media.ErrStopped
		case <-time.After(20 * time.Millisecond):
		}
		p.publishAudioPTS(sink, passBase, rate, speed)
		p.syncUnderruns(sink)
	}
	p.publishAudioPTS(sink, passBase, rate, speed)
	return nil
}

// syncUnderruns folds new speaker underruns into the stats counters.
func (p *Player) syncUnderruns(sink *audio.Sink) {
	total := sink.Underruns()
	for p.seenUnderruns < total {
		p.seenUnderruns++
		p.stats.AddAudioUnderrun()
	}
}
