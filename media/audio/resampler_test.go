package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResampler(t *testing.T) {
	tests := []struct {
		name      string
		config    ResamplerConfig
		expectErr bool
	}{
		{
			name: "valid_config",
			config: ResamplerConfig{
				InputRate:  48000,
				OutputRate: 44100,
				Channels:   2,
			},
			expectErr: false,
		},
		{
			name: "zero_input_rate",
			config: ResamplerConfig{
				InputRate:  0,
				OutputRate: 44100,
				Channels:   2,
			},
			expectErr: true,
		},
		{
			name: "negative_output_rate",
			config: ResamplerConfig{
				InputRate:  48000,
				OutputRate: -1,
				Channels:   2,
			},
			expectErr: true,
		},
		{
			name: "zero_channels",
			config: ResamplerConfig{
				InputRate:  48000,
				OutputRate: 44100,
				Channels:   0,
			},
			expectErr: true,
		},
		{
			name: "too_many_channels",
			config: ResamplerConfig{
				InputRate:  48000,
				OutputRate: 44100,
				Channels:   3,
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resampler, err := NewResampler(tt.config)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, resampler)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resampler)
				assert.Equal(t, tt.config.InputRate, resampler.GetInputRate())
				assert.Equal(t, tt.config.OutputRate, resampler.GetOutputRate())
				assert.Equal(t, tt.config.Channels, resampler.GetChannels())
			}
		})
	}
}

func TestNewOpusPlaybackResampler(t *testing.T) {
	resampler, err := NewOpusPlaybackResampler(44100, 1)

	require.NoError(t, err)
	assert.Equal(t, 48000, resampler.GetInputRate())
	assert.Equal(t, 44100, resampler.GetOutputRate())
	assert.Equal(t, 1, resampler.GetChannels())
}

func TestResampleSameRate(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  44100,
		OutputRate: 44100,
		Channels:   2,
	})
	require.NoError(t, err)

	input := []int16{100, 200, 300, 400}
	output, err := resampler.Resample(input)

	require.NoError(t, err)
	assert.Equal(t, input, output)

	// Output must be a copy, not an alias of the input.
	input[0] = -1
	assert.Equal(t, int16(100), output[0])
}

func TestResampleInvalidInput(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  48000,
		OutputRate: 44100,
		Channels:   2,
	})
	require.NoError(t, err)

	_, err = resampler.Resample(nil)
	assert.Error(t, err)

	_, err = resampler.Resample([]int16{1, 2, 3})
	assert.Error(t, err)
}

func TestResampleDownsample(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  48000,
		OutputRate: 24000,
		Channels:   1,
	})
	require.NoError(t, err)

	input := make([]int16, 960)
	output, err := resampler.Resample(input)

	require.NoError(t, err)
	assert.InDelta(t, 480, len(output), 1)
}

func TestResampleUpsample(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  24000,
		OutputRate: 48000,
		Channels:   1,
	})
	require.NoError(t, err)

	input := make([]int16, 480)
	output, err := resampler.Resample(input)

	require.NoError(t, err)
	assert.InDelta(t, 960, len(output), 1)
}

func TestResampleConstantSignal(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  48000,
		OutputRate: 44100,
		Channels:   1,
	})
	require.NoError(t, err)

	input := make([]int16, 960)
	for i := range input {
		input[i] = 1000
	}

	output, err := resampler.Resample(input)

	require.NoError(t, err)
	require.NotEmpty(t, output)
	for i, sample := range output {
		require.Equal(t, int16(1000), sample, "sample %d", i)
	}
}

func TestResampleCarriesStateAcrossCalls(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  48000,
		OutputRate: 44100,
		Channels:   1,
	})
	require.NoError(t, err)

	total := 0
	for i := 0; i < 4; i++ {
		output, err := resampler.Resample(make([]int16, 960))
		require.NoError(t, err)
		total += len(output)
	}

	// Four 20ms chunks at 48kHz resample to roughly 80ms at 44.1kHz.
	assert.InDelta(t, 4*960*44100/48000, total, 4)
}

func TestResampleStereoAlignment(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  48000,
		OutputRate: 44100,
		Channels:   2,
	})
	require.NoError(t, err)

	output, err := resampler.Resample(make([]int16, 960))

	require.NoError(t, err)
	assert.Zero(t, len(output)%2, "stereo output must stay frame-aligned")
}

func TestCalculateOutputSize(t *testing.T) {
	tests := []struct {
		name       string
		inputRate  int
		outputRate int
		inputSize  int
		expected   int
	}{
		{name: "same_rate", inputRate: 44100, outputRate: 44100, inputSize: 1024, expected: 1024},
		{name: "downsample_half", inputRate: 48000, outputRate: 24000, inputSize: 960, expected: 480},
		{name: "upsample_double", inputRate: 24000, outputRate: 48000, inputSize: 480, expected: 960},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resampler, err := NewResampler(ResamplerConfig{
				InputRate:  tt.inputRate,
				OutputRate: tt.outputRate,
				Channels:   1,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resampler.CalculateOutputSize(tt.inputSize))
		})
	}
}

func TestResamplerReset(t *testing.T) {
	resampler, err := NewResampler(ResamplerConfig{
		InputRate:  48000,
		OutputRate: 44100,
		Channels:   1,
	})
	require.NoError(t, err)

	first, err := resampler.Resample(make([]int16, 960))
	require.NoError(t, err)

	resampler.Reset()

	second, err := resampler.Resample(make([]int16, 960))
	require.NoError(t, err)

	// After a reset the resampler behaves like a fresh instance.
	assert.Equal(t, len(first), len(second))
	require.NoError(t, resampler.Close())
}
