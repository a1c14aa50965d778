// Package audio provides PCM processing and speaker output for
// pgplayer.
//
// This file implements sample rate conversion between decoded audio
// and the playback sink. The native Opus path always decodes at 48kHz
// while the sink commonly runs at 44.1kHz, so a lightweight linear
// interpolation resampler bridges the two without extra dependencies.
package audio

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Resampler converts PCM audio between sample rates.
//
// Uses linear interpolation with a fractional read position carried
// across calls, so chunked streams resample without discontinuities at
// chunk boundaries. Not safe for concurrent use; each stream owns its
// resampler.
type Resampler struct {
	inputRate   int
	outputRate  int
	channels    int
	lastSamples []int16
	position    float64
}

// ResamplerConfig holds configuration for creating a resampler.
type ResamplerConfig struct {
	InputRate  int // Input sample rate in Hz
	OutputRate int // Output sample rate in Hz
	Channels   int // Number of audio channels (1=mono, 2=stereo)
}

// NewResampler creates a new audio resampler instance.
//
// Parameters:
//   - config: Resampler configuration
//
// Returns:
//   - *Resampler: New resampler instance
//   - error: Any error that occurred during initialization
func NewResampler(config ResamplerConfig) (*Resampler, error) {
	logrus.WithFields(logrus.Fields{
		"function":    "NewResampler",
		"input_rate":  config.InputRate,
		"output_rate": config.OutputRate,
		"channels":    config.Channels,
	}).Info("Creating new audio resampler")

	if config.InputRate <= 0 || config.OutputRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: input=%d, output=%d", config.InputRate, config.OutputRate)
	}

	if config.Channels < 1 || config.Channels > 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (must be 1 or 2)", config.Channels)
	}

	return &Resampler{
		inputRate:   config.InputRate,
		outputRate:  config.OutputRate,
		channels:    config.Channels,
		lastSamples: make([]int16, config.Channels),
		position:    0.0,
	}, nil
}

// NewOpusPlaybackResampler creates a resampler from the fixed Opus
// decode rate (48kHz) to a playback rate.
func NewOpusPlaybackResampler(outputRate, channels int) (*Resampler, error) {
	return NewResampler(ResamplerConfig{
		InputRate:  48000,
		OutputRate: outputRate,
		Channels:   channels,
	})
}

// Resample converts audio samples from the input rate to the output
// rate.
//
// Input samples must be aligned to the configured channel count. When
// the rates match the input is copied through unchanged.
//
// Parameters:
//   - input: Input PCM audio samples (int16 format)
//
// Returns:
//   - []int16: Resampled PCM audio samples
//   - error: Any error that occurred during resampling
func (r *Resampler) Resample(input []int16) ([]int16, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("empty input samples")
	}
	if len(input)%r.channels != 0 {
		return nil, fmt.Errorf("input samples (%d) not aligned to channel count (%d)", len(input), r.channels)
	}

	if r.inputRate == r.outputRate {
		result := make([]int16, len(input))
		copy(result, input)
		return result, nil
	}

	ratio := float64(r.inputRate) / float64(r.outputRate)
	inputFrames := len(input) / r.channels
	outputFrames := int(float64(inputFrames)/ratio + 0.5)
	output := make([]int16, 0, outputFrames*r.channels)

	for outputFrame := 0; outputFrame < outputFrames; outputFrame++ {
		inputPos := r.position
		inputIndex := int(inputPos)
		frac := inputPos - float64(inputIndex)

		for ch := 0; ch < r.channels; ch++ {
			output = append(output, r.interpolate(input, inputIndex, frac, ch, inputFrames))
		}

		r.position += ratio
	}

	r.advance(input, inputFrames)

	logrus.WithFields(logrus.Fields{
		"function":      "Resample",
		"input_frames":  inputFrames,
		"output_frames": len(output) / r.channels,
		"ratio":         ratio,
	}).Debug("Audio resampling completed")

	return output, nil
}

// interpolate computes one output sample for one channel.
//
// Negative indices read from the previous batch's tail, indices past
// the end clamp to the last available sample, everything in between is
// linearly interpolated.
func (r *Resampler) interpolate(input []int16, inputIndex int, frac float64, ch, inputFrames int) int16 {
	if inputIndex < 0 {
		if len(r.lastSamples) > ch {
			return r.lastSamples[ch]
		}
		return 0
	}
	if inputIndex >= inputFrames-1 {
		if inputIndex < inputFrames {
			return input[inputIndex*r.channels+ch]
		}
		if len(input) > ch {
			return input[len(input)-r.channels+ch]
		}
		return 0
	}

	sample1 := input[inputIndex*r.channels+ch]
	sample2 := input[(inputIndex+1)*r.channels+ch]
	return int16(float64(sample1)*(1.0-frac) + float64(sample2)*frac)
}

// advance shifts the fractional position past the consumed frames and
// saves the final frame for boundary interpolation on the next call.
func (r *Resampler) advance(input []int16, inputFrames int) {
	r.position -= float64(inputFrames)

	if len(input) >= r.channels {
		copy(r.lastSamples, input[len(input)-r.channels:])
	}
}

// CalculateOutputSize estimates the output sample count for a given
// input sample count.
//
// Useful for pre-allocating buffers ahead of a Resample call.
func (r *Resampler) CalculateOutputSize(inputSize int) int {
	if r.inputRate == r.outputRate {
		return inputSize
	}
	ratio := float64(r.outputRate) / float64(r.inputRate)
	return int(float64(inputSize)*ratio + 0.5)
}

// GetInputRate returns the configured input sample rate.
func (r *Resampler) GetInputRate() int {
	return r.inputRate
}

// GetOutputRate returns the configured output sample rate.
func (r *Resampler) GetOutputRate() int {
	return r.outputRate
}

// GetChannels returns the configured number of channels.
func (r *Resampler) GetChannels() int {
	return r.channels
}

// Reset clears the resampler's carried state.
//
// Call when starting a new stream or after a seek so stale boundary
// samples do not bleed into the new audio.
func (r *Resampler) Reset() {
	logrus.WithFields(logrus.Fields{
		"function":     "Reset",
		"old_position": r.position,
	}).Debug("Resetting resampler state")

	r.position = 0.0
	for i := range r.lastSamples {
		r.lastSamples[i] = 0
	}
}

// Close releases resampler resources.
func (r *Resampler) Close() error {
	r.Reset()
	return nil
}
