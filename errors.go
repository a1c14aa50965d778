package pgplayer

import "github.com/faakharhzb/pgplayer/media"

// Errors returned by players and recorders. Each aliases the
// corresponding media package sentinel, so errors.Is matches across
// both packages.
var (
	// ErrSourceNotFound indicates the media file does not exist.
	ErrSourceNotFound = media.ErrSourceNotFound

	// ErrNoVideoStream indicates the source contains no video stream.
	ErrNoVideoStream = media.ErrNoVideoStream

	// ErrNoFrameRate indicates the video stream reports no usable
	// frame rate.
	ErrNoFrameRate = media.ErrNoFrameRate

	// ErrEmptySource indicates an empty path or byte slice was given.
	ErrEmptySource = media.ErrEmptySource

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = media.ErrAlreadyStarted

	// ErrStopped indicates the player was stopped while the operation
	// was in flight.
	ErrStopped = media.ErrStopped

	// ErrInvalidDimensions indicates a non-positive width or height.
	ErrInvalidDimensions = media.ErrInvalidDimensions
)
