package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		width     int
		height    int
		expectErr bool
	}{
		{name: "hd", input: "1280x720", width: 1280, height: 720},
		{name: "small", input: "64x48", width: 64, height: 48},
		{name: "missing_separator", input: "1280720", expectErr: true},
		{name: "non_numeric_width", input: "wx720", expectErr: true},
		{name: "non_numeric_height", input: "1280xh", expectErr: true},
		{name: "zero_width", input: "0x720", expectErr: true},
		{name: "negative_height", input: "1280x-720", expectErr: true},
		{name: "empty", input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			width, height, err := parseSize(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, width)
			assert.Equal(t, tt.height, height)
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	for _, expected := range []string{"play", "record", "probe", "version"} {
		assert.True(t, names[expected], "command %q not registered", expected)
	}
}

func TestPlayCommandFlags(t *testing.T) {
	cmd := NewPlayCommand()

	for _, flag := range []string{"volume", "speed", "loop", "mute", "no-display", "no-audio"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q not registered", flag)
	}
}
