// Package ffmpeg drives the ffmpeg family of binaries over pipes.
//
// All demuxing, decoding, and encoding is delegated to external ffmpeg
// processes. Decoders read fixed-size raw frames or PCM chunks from the
// process stdout, the encoder feeds raw RGBA frames to a process stdin,
// and the display sink pipes frames into ffplay. Keeping the codecs out
// of process keeps this module pure Go.
//
// The pipelines:
//
//	source → ffmpeg → rawvideo rgb24 stdout → VideoDecoder.ReadFrame
//	source → ffmpeg → s16le PCM stdout      → AudioDecoder.ReadChunk
//	Encoder.WriteFrame → rawvideo rgba stdin → ffmpeg → encoded file
//	Display.WriteFrame → rawvideo rgba stdin → ffplay → window
package ffmpeg

import (
	"fmt"
	"os/exec"

	"github.com/faakharhzb/pgplayer/media"
)

// Default executable names resolved from PATH.
const (
	DefaultBinary        = "ffmpeg"
	DefaultDisplayBinary = "ffplay"
)

// AudioChunkSize is how many bytes of PCM an AudioDecoder hands out per
// read.
const AudioChunkSize = 32768

// locate resolves an ffmpeg-family binary, mapping a missing executable
// to the matching sentinel error.
func locate(binary string, missing error) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", missing, binary)
	}
	return path, nil
}

// Locate resolves the ffmpeg binary from PATH.
//
// Returns:
//   - string: absolute path of the executable
//   - error: media.ErrFFmpegNotFound when the binary is missing
func Locate(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	return locate(binary, media.ErrFFmpegNotFound)
}

// LocateDisplay resolves the ffplay binary from PATH.
//
// Returns:
//   - string: absolute path of the executable
//   - error: media.ErrFFplayNotFound when the binary is missing
func LocateDisplay(binary string) (string, error) {
	if binary == "" {
		binary = DefaultDisplayBinary
	}
	return locate(binary, media.ErrFFplayNotFound)
}
