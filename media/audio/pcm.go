// Package audio provides PCM processing and speaker output for
// pgplayer.
//
// This package handles the audio half of playback: converting the raw
// little-endian PCM produced by the decode pipeline into samples,
// applying effects such as volume control, resampling where stream and
// device rates differ, and feeding the speaker.
//
// The playback pipeline:
//
//	PCM bytes → samples → effects (volume) → Sink → speaker
//
// Speaker output uses gopxl/beep; Ogg/Opus sources can also be decoded
// natively with pion/opus, skipping the external decode process.
package audio

// BytesToSamples converts little-endian 16-bit PCM bytes to samples.
// A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// SamplesToBytes converts samples to little-endian 16-bit PCM bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	return data
}

// SamplesDuration returns the seconds of audio that count interleaved
// samples represent at the given rate and channel layout.
func SamplesDuration(count, sampleRate, channels int) float64 {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := count / channels
	return float64(frames) / float64(sampleRate)
}

// BytesDuration returns the seconds of audio that count bytes of 16-bit
// PCM represent at the given rate and channel layout.
func BytesDuration(count, sampleRate, channels int) float64 {
	return SamplesDuration(count/2, sampleRate, channels)
}
