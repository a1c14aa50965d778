// Package media provides the shared playback primitives for pgplayer.
//
// This package defines the playback state machine, the audio-master
// synchronization clock, and the statistics counters used by the decode
// and playback pipelines. Higher-level packages build on these types:
// media/probe inspects containers, media/ffmpeg runs the decode and
// encode subprocesses, media/audio handles PCM processing and speaker
// output, and media/video handles frames and scaling.
package media

import (
	"fmt"
)

// State represents the current state of a playback or recording session.
type State uint32

const (
	// StateIdle indicates the session has been created but not started
	StateIdle State = iota
	// StatePlaying indicates media is actively playing
	StatePlaying
	// StatePaused indicates playback is paused and can be resumed
	StatePaused
	// StateStopped indicates the session was stopped by the caller
	StateStopped
	// StateFinished indicates playback reached the end of the media
	StateFinished
	// StateError indicates the session failed
	StateError
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	case StateFinished:
		return "Finished"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(s))
	}
}

// Synchronization policy constants shared by the playback pipelines.
const (
	// LateFrameThreshold is how far a video frame may lag the audio
	// clock before it is dropped instead of presented.
	LateFrameThreshold = 0.2

	// SyncSleepQuantum is the longest single sleep the video pipeline
	// takes while waiting for the audio clock to catch up. Short sleeps
	// keep pause and stop requests responsive.
	SyncSleepQuantum = 0.005
)
