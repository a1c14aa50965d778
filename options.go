package pgplayer

import "github.com/faakharhzb/pgplayer/media/audio"

// Playback speed limits. Speeds outside this range are clamped, never
// rejected.
const (
	MinSpeed = 0.1
	MaxSpeed = 16.0
)

// Defaults applied when an option is left at its zero value.
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultFrameRate  = 30
	DefaultQueueSize  = 50
)

// ClampSpeed restricts a playback speed to the supported
// [MinSpeed, MaxSpeed] range.
func ClampSpeed(speed float64) float64 {
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}

// Options configures a Player.
//
// Use NewOptions for a fully populated default set and adjust fields
// from there; a zero Options value would request zero volume.
type Options struct {
	// Speed is the playback speed, clamped to [0.1, 16.0].
	// Zero selects normal speed.
	Speed float64

	// Volume is the audio volume, clamped to [0.0, 1.0].
	Volume float64

	// Loop is how many times the media plays. Zero repeats forever,
	// negative values are treated as zero.
	Loop int

	// SampleRate is the PCM rate audio is decoded at (default: 44100).
	SampleRate int

	// Channels is the decoded channel count, 1 or 2 (default: 2).
	Channels int

	// DisableAudio skips audio playback even when the source has an
	// audio stream.
	DisableAudio bool

	// FFmpegBinary overrides the ffmpeg executable name or path.
	FFmpegBinary string

	// FFprobeBinary overrides the ffprobe executable name or path.
	FFprobeBinary string
}

// NewOptions returns the default playback options: normal speed, full
// volume, a single play-through, 44.1kHz stereo audio.
func NewOptions() *Options {
	return &Options{
		Speed:      1.0,
		Volume:     1.0,
		Loop:       1,
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
	}
}

// normalize returns a copy of the options with every field clamped or
// defaulted to a usable value.
func (o *Options) normalize() Options {
	var n Options
	if o != nil {
		n = *o
	} else {
		n = *NewOptions()
	}

	if n.Speed == 0 {
		n.Speed = 1.0
	}
	n.Speed = ClampSpeed(n.Speed)
	n.Volume = audio.ClampVolume(n.Volume)
	if n.Loop < 0 {
		n.Loop = 0
	}
	if n.SampleRate <= 0 {
		n.SampleRate = DefaultSampleRate
	}
	if n.Channels < 1 || n.Channels > 2 {
		n.Channels = DefaultChannels
	}
	return n
}

// RecorderOptions configures a Recorder.
//
// Zero values select the defaults listed on each field.
type RecorderOptions struct {
	// FrameRate is the output video frame rate (default: 30).
	FrameRate int

	// VideoCodec is the ffmpeg video encoder (default: "libx264").
	VideoCodec string

	// PixelFormat is the output pixel format (default: "yuv420p").
	PixelFormat string

	// RecordAudio captures the default input device alongside the
	// frames.
	RecordAudio bool

	// SampleRate is the recorded audio rate (default: 44100).
	SampleRate int

	// Channels is the recorded channel count (default: 2).
	Channels int

	// ChannelLayout names the audio layout (default: "stereo").
	ChannelLayout string

	// AudioCodec is the ffmpeg audio encoder (default: "aac").
	AudioCodec string

	// QueueSize bounds the frame queue between WriteFrame and the
	// encoder; the oldest frame is dropped when full (default: 50).
	QueueSize int

	// FFmpegBinary overrides the ffmpeg executable name or path.
	FFmpegBinary string
}

// NewRecorderOptions returns the default recording options.
func NewRecorderOptions() *RecorderOptions {
	return &RecorderOptions{
		FrameRate:     DefaultFrameRate,
		VideoCodec:    "libx264",
		PixelFormat:   "yuv420p",
		SampleRate:    DefaultSampleRate,
		Channels:      DefaultChannels,
		ChannelLayout: "stereo",
		AudioCodec:    "aac",
		QueueSize:     DefaultQueueSize,
	}
}

// normalize returns a copy of the recorder options with defaults
// applied.
func (o *RecorderOptions) normalize() RecorderOptions {
	var n RecorderOptions
	if o != nil {
		n = *o
	} else {
		n = *NewRecorderOptions()
	}

	if n.FrameRate <= 0 {
		n.FrameRate = DefaultFrameRate
	}
	if n.VideoCodec == "" {
		n.VideoCodec = "libx264"
	}
	if n.PixelFormat == "" {
		n.PixelFormat = "yuv420p"
	}
	if n.SampleRate <= 0 {
		n.SampleRate = DefaultSampleRate
	}
	if n.Channels < 1 || n.Channels > 2 {
		n.Channels = DefaultChannels
	}
	if n.ChannelLayout == "" {
		if n.Channels == 1 {
			n.ChannelLayout = "mono"
		} else {
			n.ChannelLayout = "stereo"
		}
	}
	if n.AudioCodec == "" {
		n.AudioCodec = "aac"
	}
	if n.QueueSize <= 0 {
		n.QueueSize = DefaultQueueSize
	}
	return n
}
