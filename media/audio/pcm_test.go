package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesToSamples(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []int16
	}{
		{
			name:     "positive_sample",
			data:     []byte{0x01, 0x00},
			expected: []int16{1},
		},
		{
			name:     "negative_one",
			data:     []byte{0xFF, 0xFF},
			expected: []int16{-1},
		},
		{
			name:     "minimum_value",
			data:     []byte{0x00, 0x80},
			expected: []int16{-32768},
		},
		{
			name:     "maximum_value",
			data:     []byte{0xFF, 0x7F},
			expected: []int16{32767},
		},
		{
			name:     "multiple_samples",
			data:     []byte{0x00, 0x00, 0x34, 0x12},
			expected: []int16{0, 0x1234},
		},
		{
			name:     "odd_trailing_byte_ignored",
			data:     []byte{0x01, 0x00, 0xFF},
			expected: []int16{1},
		},
		{
			name:     "empty_input",
			data:     nil,
			expected: []int16{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BytesToSamples(tt.data))
		})
	}
}

func TestSamplesToBytes(t *testing.T) {
	tests := []struct {
		name     string
		samples  []int16
		expected []byte
	}{
		{
			name:     "positive_sample",
			samples:  []int16{1},
			expected: []byte{0x01, 0x00},
		},
		{
			name:     "negative_one",
			samples:  []int16{-1},
			expected: []byte{0xFF, 0xFF},
		},
		{
			name:     "boundary_values",
			samples:  []int16{-32768, 32767},
			expected: []byte{0x00, 0x80, 0xFF, 0x7F},
		},
		{
			name:     "empty_input",
			samples:  nil,
			expected: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SamplesToBytes(tt.samples))
		})
	}
}

func TestPCMRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 1000, -1000, 32767, -32768, 0x1234}

	result := BytesToSamples(SamplesToBytes(samples))

	assert.Equal(t, samples, result)
}

func TestSamplesDuration(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		sampleRate int
		channels   int
		expected   float64
	}{
		{
			name:       "one_second_stereo",
			count:      88200,
			sampleRate: 44100,
			channels:   2,
			expected:   1.0,
		},
		{
			name:       "one_second_mono",
			count:      44100,
			sampleRate: 44100,
			channels:   1,
			expected:   1.0,
		},
		{
			name:       "half_second_stereo",
			count:      44100,
			sampleRate: 44100,
			channels:   2,
			expected:   0.5,
		},
		{
			name:       "zero_rate",
			count:      1000,
			sampleRate: 0,
			channels:   2,
			expected:   0,
		},
		{
			name:       "zero_channels",
			count:      1000,
			sampleRate: 44100,
			channels:   0,
			expected:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SamplesDuration(tt.count, tt.sampleRate, tt.channels), 1e-9)
		})
	}
}

func TestBytesDuration(t *testing.T) {
	// One 32 KiB decoder chunk of stereo 44.1kHz audio.
	duration := BytesDuration(32768, 44100, 2)

	assert.InDelta(t, 8192.0/44100.0, duration, 1e-9)
}
