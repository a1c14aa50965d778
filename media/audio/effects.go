// Package audio provides PCM processing and speaker output for
// pgplayer.
//
// This file implements the effects applied between decode and playback.
// Volume control is the one effect the player always installs; the
// chain accepts others.
package audio

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Effect defines the interface for audio processing effects.
//
// Effects process PCM audio samples in-place or return new samples.
// They can be chained together and must be safe for use from the
// playback goroutine while control methods run elsewhere.
type Effect interface {
	// Process applies the effect to PCM audio samples
	Process(samples []int16) ([]int16, error)

	// GetName returns a human-readable name for the effect
	GetName() string

	// Close releases any resources used by the effect
	Close() error
}

// ClampVolume restricts a volume value to the valid [0.0, 1.0] range.
// Out-of-range values are clamped rather than rejected, so nudging the
// volume past its limits is always safe.
func ClampVolume(volume float64) float64 {
	if volume < 0.0 {
		return 0.0
	}
	if volume > 1.0 {
		return 1.0
	}
	return volume
}

// VolumeEffect implements playback volume control.
//
// Applies a linear multiplier in [0.0, 1.0] with clip protection when
// converting back to int16. 0.0 is silence, 1.0 leaves samples
// untouched. Safe for concurrent use.
type VolumeEffect struct {
	mu     sync.RWMutex
	volume float64
}

// NewVolumeEffect creates a volume effect. The initial volume is
// clamped to [0.0, 1.0].
func NewVolumeEffect(volume float64) *VolumeEffect {
	clamped := ClampVolume(volume)

	logrus.WithFields(logrus.Fields{
		"function": "NewVolumeEffect",
		"volume":   clamped,
	}).Debug("Creating volume effect")

	return &VolumeEffect{
		volume: clamped,
	}
}

// Process applies the current volume to audio samples in place.
//
// The volume factor never exceeds 1.0, so scaled samples always stay
// inside the int16 range. Full volume passes samples through untouched.
func (v *VolumeEffect) Process(samples []int16) ([]int16, error) {
	if len(samples) == 0 {
		return samples, nil
	}

	volume := v.GetVolume()
	if volume == 1.0 {
		return samples, nil
	}

	for i, sample := range samples {
		samples[i] = int16(float64(sample) * volume)
	}
	return samples, nil
}

// SetVolume updates the volume, clamping to [0.0, 1.0].
func (v *VolumeEffect) SetVolume(volume float64) {
	clamped := ClampVolume(volume)

	v.mu.Lock()
	v.volume = clamped
	v.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "VolumeEffect.SetVolume",
		"volume":   clamped,
	}).Debug("Volume updated")
}

// GetVolume returns the current volume.
func (v *VolumeEffect) GetVolume() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.volume
}

// GetName returns the effect name for debugging and logging.
func (v *VolumeEffect) GetName() string {
	return fmt.Sprintf("Volume(%.2f)", v.GetVolume())
}

// Close releases effect resources (no-op for volume).
func (v *VolumeEffect) Close() error {
	return nil
}

// Chain applies a sequence of effects in order.
//
// Processing stops at the first failing effect. Safe for concurrent
// use.
type Chain struct {
	mu      sync.Mutex
	effects []Effect
}

// NewChain creates an empty effect chain.
func NewChain() *Chain {
	return &Chain{
		effects: make([]Effect, 0),
	}
}

// Add appends an effect to the end of the chain.
func (c *Chain) Add(effect Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "Chain.Add",
		"effect_name": effect.GetName(),
		"position":    len(c.effects),
	}).Debug("Adding effect to chain")

	c.effects = append(c.effects, effect)
}

// Process runs samples through every effect in order.
//
// Returns the first error encountered, identifying the failing effect.
func (c *Chain) Process(samples []int16) ([]int16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := samples
	for i, effect := range c.effects {
		processed, err := effect.Process(current)
		if err != nil {
			return nil, fmt.Errorf("effect %d (%s) failed: %w", i, effect.GetName(), err)
		}
		current = processed
	}
	return current, nil
}

// Names returns the names of all effects in the chain.
func (c *Chain) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(c.effects))
	for i, effect := range c.effects {
		names[i] = effect.GetName()
	}
	return names
}

// Close closes every effect and empties the chain.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for i, effect := range c.effects {
		if err := effect.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("effect %d (%s) close failed: %w", i, effect.GetName(), err)
		}
	}
	c.effects = c.effects[:0]
	return firstErr
}
