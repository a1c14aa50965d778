// Package video provides video frame handling for pgplayer.
//
// This file implements a synthetic frame source producing SMPTE-style
// color bars with a moving marker block. Used by the recording demo
// and by tests that need video frames without decoding a file.
package video

import (
	"fmt"
	"image"

	"github.com/faakharhzb/pgplayer/media"
)

// SMPTE color bars: 7 vertical stripes
var barColors = [7][3]uint8{
	{192, 192, 192}, // Gray
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
}

// blockStep is how many pixels the marker block advances per frame.
const blockStep = 4

// Pattern generates color bar frames with a marker block that sweeps
// across the bottom of the image, so motion and timing stay visible in
// recordings.
type Pattern struct {
	width  int
	height int
	fps    float64
}

// NewPattern creates a pattern generator.
//
// Parameters:
//   - width: Frame width in pixels
//   - height: Frame height in pixels
//   - fps: Frame rate used to derive timestamps
//
// Returns:
//   - *Pattern: New pattern generator
//   - error: Any error caused by invalid dimensions or frame rate
func NewPattern(width, height int, fps float64) (*Pattern, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate: %f", fps)
	}
	return &Pattern{width: width, height: height, fps: fps}, nil
}

// Width returns the generated frame width.
func (p *Pattern) Width() int { return p.width }

// Height returns the generated frame height.
func (p *Pattern) Height() int { return p.height }

// Frame renders the frame at the given index.
//
// The timestamp is index/fps; the marker block position advances with
// the index and wraps at the right edge.
func (p *Pattern) Frame(index int) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))

	barWidth := p.width / len(barColors)
	if barWidth < 1 {
		barWidth = 1
	}

	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			barIdx := x / barWidth
			if barIdx >= len(barColors) {
				barIdx = len(barColors) - 1
			}
			i := img.PixOffset(x, y)
			img.Pix[i] = barColors[barIdx][0]
			img.Pix[i+1] = barColors[barIdx][1]
			img.Pix[i+2] = barColors[barIdx][2]
			img.Pix[i+3] = 0xFF
		}
	}

	p.drawMarker(img, index)

	return &Frame{
		Image:    img,
		PTS:      float64(index) / p.fps,
		Duration: 1 / p.fps,
	}
}

// drawMarker paints the white sweep block along the bottom edge.
func (p *Pattern) drawMarker(img *image.RGBA, index int) {
	size := p.height / 8
	if size < 1 {
		size = 1
	}
	travel := p.width - size
	if travel <= 0 {
		return
	}

	left := (index * blockStep) % travel
	if left < 0 {
		left += travel
	}
	top := p.height - size

	for y := top; y < p.height; y++ {
		for x := left; x < left+size; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = 0xFF
			img.Pix[i+1] = 0xFF
			img.Pix[i+2] = 0xFF
			img.Pix[i+3] = 0xFF
		}
	}
}
