package ffmpeg

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		expected string
	}{
		{name: "normal_speed", speed: 1.0, expected: "atempo=1"},
		{name: "half_speed", speed: 0.5, expected: "atempo=0.5"},
		{name: "double_speed", speed: 2.0, expected: "atempo=2"},
		{name: "fractional_speed", speed: 1.5, expected: "atempo=1.5"},
		{name: "quarter_speed", speed: 0.25, expected: "atempo=0.5,atempo=0.5"},
		{name: "minimum_speed", speed: 0.1, expected: "atempo=0.5,atempo=0.5,atempo=0.5,atempo=0.8"},
		{name: "quadruple_speed", speed: 4.0, expected: "atempo=2,atempo=2"},
		{name: "triple_speed", speed: 3.0, expected: "atempo=2,atempo=1.5"},
		{name: "maximum_speed", speed: 16.0, expected: "atempo=2,atempo=2,atempo=2,atempo=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AtempoChain(tt.speed))
		})
	}
}

// TestAtempoChainProduct verifies that chained stages multiply back to
// the requested speed and each stage stays within ffmpeg's accepted
// range.
func TestAtempoChainProduct(t *testing.T) {
	speeds := []float64{0.1, 0.2, 0.3, 0.5, 0.75, 1.0, 1.25, 2.0, 3.7, 8.0, 12.5, 16.0}

	for _, speed := range speeds {
		chain := AtempoChain(speed)
		product := 1.0
		for _, stage := range strings.Split(chain, ",") {
			value, err := strconv.ParseFloat(strings.TrimPrefix(stage, "atempo="), 64)
			require.NoError(t, err, "stage %q of chain %q", stage, chain)
			assert.GreaterOrEqual(t, value, 0.5, "stage %q below ffmpeg minimum", stage)
			assert.LessOrEqual(t, value, 2.0, "stage %q above ffmpeg maximum", stage)
			product *= value
		}
		assert.InDelta(t, speed, product, 1e-9, "chain %q", chain)
	}
}

func TestDecodeVideoArgs(t *testing.T) {
	args := DecodeVideoArgs("clip.mp4")
	expected := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "clip.mp4",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}
	assert.Equal(t, expected, args)
}

func TestDecodeAudioArgs(t *testing.T) {
	args := DecodeAudioArgs("clip.mp4", 44100, 2, 1.0)
	expected := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "clip.mp4",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "2",
		"-ar", "44100",
		"-af", "atempo=1",
		"pipe:1",
	}
	assert.Equal(t, expected, args)
}

func TestDecodeAudioArgsSpeedChain(t *testing.T) {
	args := DecodeAudioArgs("pipe:0", 48000, 1, 4.0)
	assert.Contains(t, args, "atempo=2,atempo=2")
	assert.Contains(t, args, "pipe:0")
}

func TestDisplayArgs(t *testing.T) {
	args := DisplayArgs(1280, 720, 29.97, "demo")
	expected := []string{
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", "1280x720",
		"-framerate", "29.97",
		"-i", "-",
		"-window_title", "demo",
		"-fflags", "nobuffer",
		"-flags", "low_delay",
	}
	assert.Equal(t, expected, args)
}

func TestEncodeArgsVideoOnly(t *testing.T) {
	cfg := EncoderConfig{
		OutputFile: "out.mp4",
		Width:      640,
		Height:     480,
	}
	cfg.applyDefaults()

	args := EncodeArgs(cfg, nil)
	expected := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", "640x480",
		"-r", "30",
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"out.mp4",
	}
	assert.Equal(t, expected, args)
}

func TestEncodeArgsWithAudio(t *testing.T) {
	cfg := EncoderConfig{
		OutputFile:  "out.mp4",
		Width:       640,
		Height:      480,
		RecordAudio: true,
	}
	cfg.applyDefaults()

	audioInput, err := MicInputArgs("linux", "")
	require.NoError(t, err)

	args := EncodeArgs(cfg, audioInput)
	assert.Contains(t, args, "pulse")
	assert.Contains(t, args, "-shortest")
	assert.Contains(t, args, "aac")
	assert.Equal(t, "out.mp4", args[len(args)-1], "output file must come last")
}

func TestMicInputArgs(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		device    string
		expected  []string
		expectErr bool
	}{
		{
			name:     "linux_default",
			goos:     "linux",
			expected: []string{"-f", "pulse", "-i", "default"},
		},
		{
			name:     "linux_custom_device",
			goos:     "linux",
			device:   "alsa_input.usb",
			expected: []string{"-f", "pulse", "-i", "alsa_input.usb"},
		},
		{
			name:     "darwin_default",
			goos:     "darwin",
			expected: []string{"-f", "avfoundation", "-i", ":0"},
		},
		{
			name:     "windows_default",
			goos:     "windows",
			expected: []string{"-f", "dshow", "-i", "audio=Microphone"},
		},
		{
			name:      "unsupported_os",
			goos:      "plan9",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := MicInputArgs(tt.goos, tt.device)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, args)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, args)
			}
		})
	}
}

func TestEncoderConfigDefaults(t *testing.T) {
	cfg := EncoderConfig{OutputFile: "out.mp4", Width: 100, Height: 100}
	cfg.applyDefaults()

	assert.Equal(t, 30, cfg.FrameRate)
	assert.Equal(t, "libx264", cfg.VideoCodec)
	assert.Equal(t, "yuv420p", cfg.PixelFormat)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 2, cfg.Channels)
	assert.Equal(t, "aac", cfg.AudioCodec)
}

func TestEncoderConfigDefaultsPreserveExplicit(t *testing.T) {
	cfg := EncoderConfig{
		OutputFile:  "out.webm",
		Width:       100,
		Height:      100,
		FrameRate:   60,
		VideoCodec:  "libvpx-vp9",
		PixelFormat: "yuv444p",
		SampleRate:  48000,
		Channels:    1,
		AudioCodec:  "libopus",
	}
	cfg.applyDefaults()

	assert.Equal(t, 60, cfg.FrameRate)
	assert.Equal(t, "libvpx-vp9", cfg.VideoCodec)
	assert.Equal(t, "yuv444p", cfg.PixelFormat)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 1, cfg.Channels)
	assert.Equal(t, "libopus", cfg.AudioCodec)
}
