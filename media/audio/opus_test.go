package audio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faakharhzb/pgplayer/media"
)

func TestNewOpusFileSourceMissing(t *testing.T) {
	source, err := NewOpusFileSource("/nonexistent/path/audio.opus")

	assert.Nil(t, source)
	assert.ErrorIs(t, err, media.ErrSourceNotFound)
}

func TestNewOpusSourceInvalidHeader(t *testing.T) {
	source, err := NewOpusSource(bytes.NewReader([]byte("not an ogg stream")))

	assert.Nil(t, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ogg header")
}

func TestOpusSourceOutputFormat(t *testing.T) {
	source := &OpusFileSource{}

	assert.Equal(t, 48000, source.GetSampleRate())
	assert.Equal(t, 1, source.GetChannels())
}

func TestOpusSourceReadChunkContract(t *testing.T) {
	source := &OpusFileSource{
		pending: []int16{1, 2, 3},
		eof:     true,
	}
	buf := make([]int16, 2)

	n, err := source.ReadChunk(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int16{1, 2}, buf[:n])

	// The final partial chunk arrives without an error.
	n, err = source.ReadChunk(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int16(3), buf[0])

	// Only then does the stream report its end.
	_, err = source.ReadChunk(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpusSourceReadChunkEmptyBuffer(t *testing.T) {
	source := &OpusFileSource{}

	_, err := source.ReadChunk(nil)

	assert.Error(t, err)
}

func TestOpusSourceCloseIdempotent(t *testing.T) {
	source := &OpusFileSource{}

	require.NoError(t, source.Close())
	require.NoError(t, source.Close())
}
