// Package config loads the pgplayer tool configuration from defaults,
// environment variables, and an optional config.yaml.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var v *viper.Viper

func init() {
	v = viper.New()

	// Set default values
	v.SetDefault("ffmpeg.binary", "")
	v.SetDefault("ffprobe.binary", "")
	v.SetDefault("ffplay.binary", "")
	v.SetDefault("playback.volume", 1.0)
	v.SetDefault("playback.speed", 1.0)
	v.SetDefault("playback.sample_rate", 44100)
	v.SetDefault("playback.channels", 2)
	v.SetDefault("log.level", "info")

	// Environment variables
	v.AutomaticEnv()
	v.BindEnv("ffmpeg.binary", "PGPLAYER_FFMPEG")
	v.BindEnv("ffprobe.binary", "PGPLAYER_FFPROBE")
	v.BindEnv("ffplay.binary", "PGPLAYER_FFPLAY")
	v.BindEnv("playback.volume", "PGPLAYER_VOLUME")
	v.BindEnv("playback.speed", "PGPLAYER_SPEED")
	v.BindEnv("playback.sample_rate", "PGPLAYER_SAMPLE_RATE")
	v.BindEnv("playback.channels", "PGPLAYER_CHANNELS")
	v.BindEnv("log.level", "PGPLAYER_LOG_LEVEL")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths := []string{
		".",
		"$HOME/.pgplayer",
		"/etc/pgplayer",
	}
	for _, path := range configPaths {
		v.AddConfigPath(os.ExpandEnv(path))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Sprintf("Fatal error reading config file: %s", err))
		}
		// Config file not found; defaults and environment apply.
	}
}

// GetFFmpegBinary returns the configured ffmpeg executable, or empty
// for the PATH default.
func GetFFmpegBinary() string {
	return v.GetString("ffmpeg.binary")
}

// GetFFprobeBinary returns the configured ffprobe executable, or empty
// for the PATH default.
func GetFFprobeBinary() string {
	return v.GetString("ffprobe.binary")
}

// GetFFplayBinary returns the configured ffplay executable, or empty
// for the PATH default.
func GetFFplayBinary() string {
	return v.GetString("ffplay.binary")
}

// GetDefaultVolume returns the default playback volume.
func GetDefaultVolume() float64 {
	return v.GetFloat64("playback.volume")
}

// GetDefaultSpeed returns the default playback speed.
func GetDefaultSpeed() float64 {
	return v.GetFloat64("playback.speed")
}

// GetSampleRate returns the PCM sample rate for audio playback.
func GetSampleRate() int {
	return v.GetInt("playback.sample_rate")
}

// GetChannels returns the channel count for audio playback.
func GetChannels() int {
	return v.GetInt("playback.channels")
}

// GetLogLevel returns the default log level name.
func GetLogLevel() string {
	return v.GetString("log.level")
}
