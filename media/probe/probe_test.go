package probe

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faakharhzb/pgplayer/media"
)

// sampleReport mirrors the shape of ffprobe's JSON output for a typical
// mp4 with one h264 video stream and one aac audio stream.
const sampleReport = `{
	"streams": [
		{
			"index": 0,
			"codec_name": "h264",
			"codec_type": "video",
			"width": 1280,
			"height": 720,
			"coded_width": 1280,
			"coded_height": 720,
			"pix_fmt": "yuv420p",
			"avg_frame_rate": "30000/1001",
			"r_frame_rate": "30000/1001",
			"duration": "10.010000"
		},
		{
			"index": 1,
			"codec_name": "aac",
			"codec_type": "audio",
			"sample_rate": "44100",
			"channels": 2,
			"channel_layout": "stereo",
			"avg_frame_rate": "0/0",
			"r_frame_rate": "0/0",
			"duration": "10.008000"
		}
	],
	"format": {
		"filename": "clip.mp4",
		"format_name": "mov,mp4,m4a,3gp,3g2,mj2",
		"duration": "10.010000",
		"bit_rate": "1205959"
	}
}`

func parseSample(t *testing.T) *Info {
	t.Helper()
	var info Info
	require.NoError(t, json.Unmarshal([]byte(sampleReport), &info))
	return &info
}

func TestInfoParsing(t *testing.T) {
	info := parseSample(t)

	require.Len(t, info.Streams, 2)
	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", info.Format.FormatName)
	assert.Equal(t, 10.01, info.DurationSeconds())
}

func TestInfoStreamSelection(t *testing.T) {
	info := parseSample(t)

	video := info.VideoStream()
	require.NotNil(t, video)
	assert.Equal(t, 0, video.Index)
	assert.Equal(t, "h264", video.CodecName)
	assert.Equal(t, 1280, video.PixelWidth())
	assert.Equal(t, 720, video.PixelHeight())

	audio := info.AudioStream()
	require.NotNil(t, audio)
	assert.Equal(t, 1, audio.Index)
	assert.Equal(t, 2, audio.Channels)

	rate, err := audio.SampleRateHz()
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
}

func TestInfoMissingStreams(t *testing.T) {
	info := &Info{}
	assert.Nil(t, info.VideoStream())
	assert.Nil(t, info.AudioStream())
	assert.Equal(t, 0.0, info.DurationSeconds())
}

func TestStreamFrameRate(t *testing.T) {
	tests := []struct {
		name      string
		stream    Stream
		expected  float64
		expectErr bool
	}{
		{
			name:     "integer_fraction",
			stream:   Stream{AvgFrameRate: "30/1"},
			expected: 30.0,
		},
		{
			name:     "ntsc_fraction",
			stream:   Stream{AvgFrameRate: "30000/1001"},
			expected: 30000.0 / 1001.0,
		},
		{
			name:     "plain_number",
			stream:   Stream{AvgFrameRate: "25"},
			expected: 25.0,
		},
		{
			name:     "falls_back_to_r_frame_rate",
			stream:   Stream{AvgFrameRate: "0/0", RFrameRate: "24/1"},
			expected: 24.0,
		},
		{
			name:      "no_rate_at_all",
			stream:    Stream{},
			expectErr: true,
		},
		{
			name:      "zero_denominator",
			stream:    Stream{AvgFrameRate: "30/0"},
			expectErr: true,
		},
		{
			name:      "garbage",
			stream:    Stream{AvgFrameRate: "abc/def"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := tt.stream.FrameRate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.InDelta(t, tt.expected, rate, 1e-9)
			}
		})
	}
}

func TestStreamSampleRateErrors(t *testing.T) {
	_, err := (&Stream{}).SampleRateHz()
	assert.Error(t, err)

	_, err = (&Stream{SampleRate: "fast"}).SampleRateHz()
	assert.Error(t, err)
}

func TestStreamDimensionFallback(t *testing.T) {
	s := &Stream{Width: 640, Height: 480}
	assert.Equal(t, 640, s.PixelWidth(), "should fall back to display width")
	assert.Equal(t, 480, s.PixelHeight(), "should fall back to display height")

	s = &Stream{Width: 640, Height: 480, CodedWidth: 1920, CodedHeight: 1080}
	assert.Equal(t, 1920, s.PixelWidth())
	assert.Equal(t, 1080, s.PixelHeight())
}

func TestNewWithBinary(t *testing.T) {
	assert.Equal(t, DefaultBinary, NewWithBinary("").binary)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", NewWithBinary("/opt/ffmpeg/bin/ffprobe").binary)
	assert.Equal(t, DefaultBinary, New().binary)
}

func TestProbeMissingFile(t *testing.T) {
	_, err := New().Probe(context.Background(), "/nonexistent/path/clip.mp4")
	assert.ErrorIs(t, err, media.ErrSourceNotFound)
}

func TestProbeBytesEmpty(t *testing.T) {
	_, err := New().ProbeBytes(context.Background(), nil)
	assert.ErrorIs(t, err, media.ErrEmptySource)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, isRemote("https://example.com/clip.mp4"))
	assert.True(t, isRemote("rtsp://camera.local/stream"))
	assert.False(t, isRemote("clip.mp4"))
	assert.False(t, isRemote("/videos/clip.mp4"))
}
