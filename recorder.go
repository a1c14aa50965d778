package pgplayer

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/faakharhzb/pgplayer/media"
	"github.com/faakharhzb/pgplayer/media/ffmpeg"
	"github.com/faakharhzb/pgplayer/media/video"
)

// Recorder encodes frames handed to it into a video file.
//
// WriteFrame is non-blocking: frames pass through a bounded queue and
// the oldest queued frame is discarded when the queue is full, so a
// renderer never stalls on a slow encoder. The writer goroutine stamps
// each frame at its wall-clock position, holding the previous frame
// through gaps when the caller supplies frames slower than the
// recording rate.
//
// All methods are safe for concurrent use.
type Recorder struct {
	outputFile string
	width      int
	height     int
	opts       RecorderOptions

	frames chan image.Image

	scaler *video.Scaler

	encMu   sync.Mutex
	encoder *ffmpeg.Encoder

	started  atomic.Bool
	stopped  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	framesWritten atomic.Uint64
	framesDropped atomic.Uint64

	errMu    sync.Mutex
	firstErr error
}

// NewRecorder creates a recorder for the given output file and frame
// size. The encode process is not spawned until Start.
//
// Parameters:
//   - outputFile: container file to write, overwritten if present
//   - width: output frame width in pixels
//   - height: output frame height in pixels
//   - opts: recording options, nil for defaults
//
// Returns:
//   - *Recorder: recorder ready for Start
//   - error: ErrInvalidDimensions or a missing output file
func NewRecorder(outputFile string, width, height int, opts *RecorderOptions) (*Recorder, error) {
	if outputFile == "" {
		return nil, fmt.Errorf("output file is required")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, width, height)
	}

	o := opts.normalize()

	logrus.WithFields(logrus.Fields{
		"function":     "NewRecorder",
		"output":       outputFile,
		"width":        width,
		"height":       height,
		"frame_rate":   o.FrameRate,
		"record_audio": o.RecordAudio,
	}).Info("Recorder created")

	return &Recorder{
		outputFile: outputFile,
		width:      width,
		height:     height,
		opts:       o,
		frames:     make(chan image.Image, o.QueueSize),
		scaler:     video.NewScaler(),
		stopCh:     make(chan struct{}),
	}, nil
}

// OutputFile returns the container file being written.
func (r *Recorder) OutputFile() string {
	return r.outputFile
}

// Width returns the output frame width in pixels.
func (r *Recorder) Width() int {
	return r.width
}

// Height returns the output frame height in pixels.
func (r *Recorder) Height() int {
	return r.height
}

// Size returns the output frame dimensions.
func (r *Recorder) Size() (width, height int) {
	return r.width, r.height
}

// FrameRate returns the recording frame rate.
func (r *Recorder) FrameRate() int {
	return r.opts.FrameRate
}

// VideoCodec returns the video encoder name.
func (r *Recorder) VideoCodec() string {
	return r.opts.VideoCodec
}

// PixelFormat returns the encoded pixel format.
func (r *Recorder) PixelFormat() string {
	return r.opts.PixelFormat
}

// SampleRate returns the audio capture rate in Hz.
func (r *Recorder) SampleRate() int {
	return r.opts.SampleRate
}

// Channels returns the audio channel count.
func (r *Recorder) Channels() int {
	return r.opts.Channels
}

// ChannelLayout returns the audio channel layout name.
func (r *Recorder) ChannelLayout() string {
	return r.opts.ChannelLayout
}

// AudioCodec returns the audio encoder name.
func (r *Recorder) AudioCodec() string {
	return r.opts.AudioCodec
}

// RecordAudio reports whether microphone capture is enabled.
func (r *Recorder) RecordAudio() bool {
	return r.opts.RecordAudio
}

// Stopped reports whether the recorder has been stopped.
func (r *Recorder) Stopped() bool {
	return r.stopped.Load()
}

// FramesWritten returns how many frames have been encoded, including
// frames repeated to fill wall-clock gaps.
func (r *Recorder) FramesWritten() uint64 {
	return r.framesWritten.Load()
}

// FramesDropped returns how many frames were discarded, either evicted
// from a full queue or arriving faster than the recording rate.
func (r *Recorder) FramesDropped() uint64 {
	return r.framesDropped.Load()
}

// Err returns the first encode error, or nil.
func (r *Recorder) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.firstErr
}

// Start spawns the encode process and the writer goroutine. When audio
// recording is enabled the encode process also captures the platform's
// default input device.
//
// Returns:
//   - error: ErrAlreadyStarted on a second call, ErrStopped after Stop,
//     or an encode process start failure
func (r *Recorder) Start() error {
	if r.stopped.Load() {
		return media.ErrStopped
	}
	if !r.started.CompareAndSwap(false, true) {
		return media.ErrAlreadyStarted
	}

	enc, err := ffmpeg.NewEncoder(ffmpeg.EncoderConfig{
		Binary:      r.opts.FFmpegBinary,
		OutputFile:  r.outputFile,
		Width:       r.width,
		Height:      r.height,
		FrameRate:   r.opts.FrameRate,
		VideoCodec:  r.opts.VideoCodec,
		PixelFormat: r.opts.PixelFormat,
		RecordAudio: r.opts.RecordAudio,
		SampleRate:  r.opts.SampleRate,
		Channels:    r.opts.Channels,
		AudioCodec:  r.opts.AudioCodec,
	})
	if err != nil {
		r.started.Store(false)
		return err
	}

	r.encMu.Lock()
	r.encoder = enc
	r.encMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Start",
		"output":   r.outputFile,
	}).Info("Recording started")

	r.wg.Add(1)
	go r.writerLoop()

	return nil
}

// WriteFrame queues a frame for encoding without blocking. When the
// queue is full the oldest queued frame is discarded to make room.
// Frames that do not match the output size are scaled by the writer.
//
// Parameters:
//   - frame: image to record; retained until encoded, so callers
//     reusing a buffer should hand in a copy
//
// Returns:
//   - error: ErrStopped after Stop, or a nil frame error
func (r *Recorder) WriteFrame(frame image.Image) error {
	if frame == nil {
		return fmt.Errorf("frame is nil")
	}
	if r.stopped.Load() {
		return media.ErrStopped
	}

	select {
	case r.frames <- frame:
		return nil
	default:
	}

	// Queue full. Evict the oldest frame and retry once; losing the
	// race to another writer just drops this frame instead.
	select {
	case <-r.frames:
		r.framesDropped.Add(1)
	default:
	}
	select {
	case r.frames <- frame:
	default:
		r.framesDropped.Add(1)
	}
	return nil
}

// Stop finishes the recording. The writer goroutine exits, the encoder
// flushes, and the call blocks until ffmpeg finalizes the container.
// Safe to call multiple times.
//
// Returns:
//   - error: the encode process's exit error, if it failed
func (r *Recorder) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stopCh)
		r.wg.Wait()

		if enc := r.currentEncoder(); enc != nil {
			err = enc.Close()
		}

		logrus.WithFields(logrus.Fields{
			"function": "Stop",
			"output":   r.outputFile,
			"written":  r.framesWritten.Load(),
			"dropped":  r.framesDropped.Load(),
		}).Info("Recording stopped")
	})
	return err
}

// currentEncoder returns the encode pipeline, or nil before Start.
func (r *Recorder) currentEncoder() *ffmpeg.Encoder {
	r.encMu.Lock()
	defer r.encMu.Unlock()
	return r.encoder
}

// fail records the first encode error.
func (r *Recorder) fail(err error) {
	r.errMu.Lock()
	if r.firstErr == nil {
		r.firstErr = err
	}
	r.errMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "fail",
		"output":   r.outputFile,
		"error":    err,
	}).Error("Recording pipeline failed")
}

// writeEncoded sends one converted frame to the encoder and counts it.
// Returns false when the writer should exit.
func (r *Recorder) writeEncoded(buf []byte) bool {
	if err := r.encoder.WriteFrame(buf); err != nil {
		if !errors.Is(err, media.ErrStopped) {
			r.fail(err)
		}
		return false
	}
	r.framesWritten.Add(1)
	return true
}

// convertFrame scales a queued frame to the output geometry and packs
// it into the raw rgba layout the encoder reads.
func (r *Recorder) convertFrame(frame image.Image) ([]byte, error) {
	rgba, ok := frame.(*image.RGBA)
	if !ok {
		b := frame.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), frame, b.Min, draw.Src)
	}

	b := rgba.Bounds()
	if b.Dx() != r.width || b.Dy() != r.height {
		scaled, err := r.scaler.Scale(rgba, r.width, r.height)
		if err != nil {
			return nil, err
		}
		rgba = scaled
	}

	return video.RGBABytes(rgba), nil
}

// writerLoop drains the frame queue into the encoder.
//
// Each frame lands at its wall-clock index: when the caller falls
// behind the recording rate the previously written frame is repeated to
// fill the gap, and when the caller runs ahead excess frames are
// dropped. The loop paces itself at the frame interval so a deep queue
// cannot rush the recording timeline.
func (r *Recorder) writerLoop() {
	defer r.wg.Done()

	fps := float64(r.opts.FrameRate)
	interval := time.Duration(float64(time.Second) / fps)
	start := time.Now()
	written := 0
	var held []byte

	for {
		var frame image.Image
		select {
		case <-r.stopCh:
			return
		case frame = <-r.frames:
		case <-time.After(100 * time.Millisecond):
			continue
		}

		buf, err := r.convertFrame(frame)
		if err != nil {
			r.fail(err)
			return
		}

		target := int(time.Since(start).Seconds() * fps)
		for written < target && held != nil {
			if !r.writeEncoded(held) {
				return
			}
			written++
		}
		if written <= target {
			if !r.writeEncoded(buf) {
				return
			}
			written++
		} else {
			r.framesDropped.Add(1)
		}
		held = buf

		select {
		case <-r.stopCh:
			return
		case <-time.After(interval):
		}
	}
}
