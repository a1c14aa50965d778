package media

import "errors"

// Sentinel errors for media operations.
// These errors enable reliable error classification using errors.Is().

// Source errors.
var (
	// ErrSourceNotFound indicates the media source path does not exist.
	ErrSourceNotFound = errors.New("media source not found")

	// ErrNoVideoStream indicates the source contains no video stream.
	ErrNoVideoStream = errors.New("source has no video stream")

	// ErrNoFrameRate indicates the video stream reports no usable
	// frame rate, as still-image and attachment streams do.
	ErrNoFrameRate = errors.New("video stream has no usable frame rate")

	// ErrEmptySource indicates an empty in-memory source was provided.
	ErrEmptySource = errors.New("source data is empty")
)

// External tool errors.
var (
	// ErrFFmpegNotFound indicates the ffmpeg binary is not on PATH.
	ErrFFmpegNotFound = errors.New("ffmpeg binary not found")

	// ErrFFprobeNotFound indicates the ffprobe binary is not on PATH.
	ErrFFprobeNotFound = errors.New("ffprobe binary not found")

	// ErrFFplayNotFound indicates the ffplay binary is not on PATH.
	ErrFFplayNotFound = errors.New("ffplay binary not found")
)

// Lifecycle errors.
var (
	// ErrAlreadyStarted indicates the session was already started.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrStopped indicates the session has been stopped.
	ErrStopped = errors.New("session stopped")
)

// Parameter errors.
var (
	// ErrInvalidSpeed indicates a playback speed outside the valid range.
	ErrInvalidSpeed = errors.New("invalid playback speed")

	// ErrInvalidVolume indicates a volume outside the valid range.
	ErrInvalidVolume = errors.New("invalid volume")

	// ErrInvalidDimensions indicates non-positive frame dimensions.
	ErrInvalidDimensions = errors.New("invalid frame dimensions")
)
