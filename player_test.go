package pgplayer

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faakharhzb/pgplayer/media"
	"github.com/faakharhzb/pgplayer/media/probe"
)

// testProbeInfo builds the probe report of a 640x360 30fps clip,
// optionally with a stereo audio stream.
func testProbeInfo(hasAudio bool) *probe.Info {
	info := &probe.Info{
		Format: probe.Format{Duration: "10.000000"},
		Streams: []probe.Stream{
			{
				Index:        0,
				CodecType:    "video",
				Width:        640,
				Height:       360,
				CodedWidth:   640,
				CodedHeight:  360,
				AvgFrameRate: "30/1",
			},
		},
	}
	if hasAudio {
		info.Streams = append(info.Streams, probe.Stream{
			Index:      1,
			CodecType:  "audio",
			SampleRate: "44100",
			Channels:   2,
		})
	}
	return info
}

// testPlayer builds a player directly from a synthetic probe report so
// no external process runs.
func testPlayer(t *testing.T, hasAudio bool, opts *Options) *Player {
	t.Helper()
	p, err := newPlayer("clip.mp4", nil, opts.normalize(), testProbeInfo(hasAudio))
	require.NoError(t, err)
	return p
}

func TestNewRejectsEmptySource(t *testing.T) {
	player, err := New("", nil)
	assert.ErrorIs(t, err, ErrEmptySource)
	assert.Nil(t, player)
}

func TestNewFromBytesRejectsEmptyData(t *testing.T) {
	player, err := NewFromBytes(nil, nil)
	assert.ErrorIs(t, err, ErrEmptySource)
	assert.Nil(t, player)
}

func TestNewPlayerCapturesProbeMetadata(t *testing.T) {
	p := testPlayer(t, true, nil)

	assert.Equal(t, 640, p.Width())
	assert.Equal(t, 360, p.Height())
	width, height := p.Size()
	assert.Equal(t, 640, width)
	assert.Equal(t, 360, height)
	assert.InDelta(t, 30.0, p.FPS(), 0.001)
	assert.InDelta(t, 10.0, p.Duration(), 0.001)
	assert.True(t, p.HasAudio())
	assert.Equal(t, "clip.mp4", p.Source())
	assert.Equal(t, StateIdle, p.State())
	assert.NoError(t, p.Err())
}

func TestNewPlayerWithoutAudioStream(t *testing.T) {
	p := testPlayer(t, false, nil)
	assert.False(t, p.HasAudio())
}

func TestNewPlayerRequiresVideoStream(t *testing.T) {
	info := &probe.Info{
		Streams: []probe.Stream{
			{Index: 0, CodecType: "audio", SampleRate: "44100", Channels: 2},
		},
	}

	player, err := newPlayer("audio.mp3", nil, NewOptions().normalize(), info)
	assert.ErrorIs(t, err, ErrNoVideoStream)
	assert.Nil(t, player)
}

func TestNewPlayerRejectsInvalidDimensions(t *testing.T) {
	info := &probe.Info{
		Streams: []probe.Stream{
			{Index: 0, CodecType: "video", AvgFrameRate: "30/1"},
		},
	}

	player, err := newPlayer("clip.mp4", nil, NewOptions().normalize(), info)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	assert.Nil(t, player)
}

func TestNewPlayerRequiresFrameRate(t *testing.T) {
	info := &probe.Info{
		Streams: []probe.Stream{
			{Index: 0, CodecType: "video", Width: 640, Height: 360},
		},
	}

	player, err := newPlayer("clip.mp4", nil, NewOptions().normalize(), info)
	assert.Error(t, err)
	assert.Nil(t, player)
}

func TestNewPlayerRejectsZeroFrameRate(t *testing.T) {
	// Still-image and attachment streams probe with a valid but zero
	// avg_frame_rate; the parse succeeds, so the player must reject the
	// value itself before it reaches the pacing math.
	tests := []struct {
		name string
		rate string
	}{
		{"zero_over_one", "0/1"},
		{"plain_zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &probe.Info{
				Streams: []probe.Stream{
					{
						Index:        0,
						CodecType:    "video",
						Width:        640,
						Height:       360,
						AvgFrameRate: tt.rate,
					},
				},
			}

			player, err := newPlayer("clip.mp4", nil, NewOptions().normalize(), info)
			assert.ErrorIs(t, err, ErrNoFrameRate)
			assert.Nil(t, player)
		})
	}
}

func TestPlayerVolumeControls(t *testing.T) {
	p := testPlayer(t, true, &Options{Volume: 0.5})

	assert.Equal(t, 0.5, p.Volume())

	p.SetVolume(0.8)
	assert.Equal(t, 0.8, p.Volume())

	p.SetVolume(2.0)
	assert.Equal(t, 1.0, p.Volume())

	assert.Equal(t, 1.0, p.IncreaseVolume(0.1))
	assert.InDelta(t, 0.7, p.DecreaseVolume(0.3), 0.0001)
	assert.Equal(t, 0.0, p.DecreaseVolume(5.0))
}

func TestPlayerSpeedControls(t *testing.T) {
	p := testPlayer(t, false, nil)

	assert.Equal(t, 1.0, p.Speed())

	p.SetSpeed(2.0)
	assert.Equal(t, 2.0, p.Speed())

	p.SetSpeed(100.0)
	assert.Equal(t, MaxSpeed, p.Speed())

	p.SetSpeed(0.0001)
	assert.Equal(t, MinSpeed, p.Speed())

	assert.InDelta(t, 0.6, p.IncreaseSpeed(0.5), 0.0001)
	assert.Equal(t, MinSpeed, p.DecreaseSpeed(10.0))
}

func TestPlayerMuteBeforeStart(t *testing.T) {
	p := testPlayer(t, true, nil)

	assert.False(t, p.Muted())
	p.SetMuted(true)
	assert.True(t, p.Muted())
	p.SetMuted(false)
	assert.False(t, p.Muted())
}

func TestPlayerFrameSlot(t *testing.T) {
	p := testPlayer(t, false, nil)

	// Before any decode the slot holds a blank frame that is not fresh.
	frame, fresh := p.Frame()
	require.NotNil(t, frame)
	assert.False(t, fresh)
	assert.Equal(t, 640, frame.Bounds().Dx())
	assert.Equal(t, 360, frame.Bounds().Dy())

	published := image.NewRGBA(image.Rect(0, 0, 640, 360))
	p.publishFrame(published)

	frame, fresh = p.Frame()
	assert.True(t, fresh)
	assert.Same(t, published, frame)

	// A second read of the same frame is stale.
	_, fresh = p.Frame()
	assert.False(t, fresh)

	assert.Equal(t, uint64(1), p.Stats().FramesDelivered)
}

func TestPlayerFrameScaled(t *testing.T) {
	p := testPlayer(t, false, nil)
	p.publishFrame(image.NewRGBA(image.Rect(0, 0, 640, 360)))

	scaled, fresh, err := p.FrameScaled(320, 180)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, 320, scaled.Bounds().Dx())
	assert.Equal(t, 180, scaled.Bounds().Dy())

	// Scaling consumes freshness like Frame does.
	_, fresh, err = p.FrameScaled(320, 180)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestSyncFramePolicy(t *testing.T) {
	tests := []struct {
		name      string
		pts       float64
		clockNow  float64
		speed     float64
		want      frameAction
		wantDelay float64
	}{
		{"on_time_delivers", 1.0, 1.0, 1.0, frameDeliver, 0},
		{"slightly_late_delivers", 1.0, 1.1, 1.0, frameDeliver, -0.1},
		{"at_late_threshold_delivers", 0, 0.2, 1.0, frameDeliver, -0.2},
		{"late_beyond_threshold_drops", 0, 0.3, 1.0, frameDrop, -0.3},
		{"early_waits", 0.1, 0, 1.0, frameWait, 0.1},
		{"one_quantum_ahead_delivers", 0.005, 0, 1.0, frameDeliver, 0.005},
		{"speed_shrinks_lead_to_quantum", 0.02, 0, 4.0, frameDeliver, 0.005},
		{"same_lead_at_normal_speed_waits", 0.02, 0, 1.0, frameWait, 0.02},
		{"speed_shrinks_lag_within_threshold", 0, 0.3, 2.0, frameDeliver, -0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, delay := syncFrame(tt.pts, tt.clockNow, tt.speed)

			assert.Equal(t, tt.want, action)
			assert.InDelta(t, tt.wantDelay, delay, 0.0001)
		})
	}
}

func TestPlayerFrameScaledRejectsInvalidSize(t *testing.T) {
	p := testPlayer(t, false, nil)

	_, _, err := p.FrameScaled(0, 180)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestPlayerSetPausedBeforeStartIsNoop(t *testing.T) {
	p := testPlayer(t, false, nil)

	p.SetPaused(true)
	assert.False(t, p.Paused())
	assert.Equal(t, StateIdle, p.State())
}

func TestPlayerStopBeforeStart(t *testing.T) {
	p := testPlayer(t, false, nil)

	p.Stop()
	assert.Equal(t, StateStopped, p.State())

	err := p.Start()
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPlayerStopIsIdempotent(t *testing.T) {
	p := testPlayer(t, false, nil)

	p.Stop()
	p.Stop()
	assert.Equal(t, StateStopped, p.State())
}

func TestPlayerStateChangeCallback(t *testing.T) {
	p := testPlayer(t, false, nil)

	changes := make(chan [2]media.State, 4)
	p.OnStateChange(func(oldState, newState media.State) {
		changes <- [2]media.State{oldState, newState}
	})

	p.setState(media.StatePlaying)

	select {
	case change := <-changes:
		assert.Equal(t, media.StateIdle, change[0])
		assert.Equal(t, media.StatePlaying, change[1])
	case <-time.After(time.Second):
		t.Fatal("state change callback never fired")
	}

	// Setting the same state again must not fire the callback.
	p.setState(media.StatePlaying)
	select {
	case <-changes:
		t.Fatal("callback fired for a no-op transition")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlayerFinishedCallback(t *testing.T) {
	p := testPlayer(t, false, nil)

	finished := make(chan struct{}, 1)
	p.OnFinished(func() {
		finished <- struct{}{}
	})

	p.doneMu.Lock()
	p.activeStreams = 1
	p.doneMu.Unlock()

	p.streamDone()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("finished callback never fired")
	}
	assert.Equal(t, StateFinished, p.State())
}

func TestPlayerFinishedWaitsForAllStreams(t *testing.T) {
	p := testPlayer(t, true, nil)

	p.doneMu.Lock()
	p.activeStreams = 2
	p.doneMu.Unlock()

	p.streamDone()
	assert.NotEqual(t, StateFinished, p.State())

	p.streamDone()
	assert.Equal(t, StateFinished, p.State())
}

func TestPlayerStopAfterFinishKeepsFinishedState(t *testing.T) {
	p := testPlayer(t, false, nil)

	p.doneMu.Lock()
	p.activeStreams = 1
	p.doneMu.Unlock()
	p.streamDone()
	require.Equal(t, StateFinished, p.State())

	p.Stop()
	assert.Equal(t, StateFinished, p.State())
}
