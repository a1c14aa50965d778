// Package video provides video frame handling for pgplayer.
//
// This file defines the decoded frame type and the conversion from
// packed RGB24 decoder output into the RGBA surfaces the rest of the
// player works with.
package video

import (
	"fmt"
	"image"

	"github.com/faakharhzb/pgplayer/media"
)

// Frame is one decoded video frame.
//
// The image is always an RGBA surface with its origin at (0, 0). PTS
// and Duration are in seconds of media time.
type Frame struct {
	Image    *image.RGBA
	PTS      float64
	Duration float64
}

// NewFrameRGB24 builds a frame from packed RGB24 pixel data.
//
// The buffer must hold exactly width*height*3 bytes, the layout ffmpeg
// produces for rawvideo rgb24 output. Alpha is set fully opaque.
//
// Parameters:
//   - buf: Packed RGB24 pixel data
//   - width: Frame width in pixels
//   - height: Frame height in pixels
//   - pts: Presentation timestamp in seconds
//
// Returns:
//   - *Frame: New frame holding an RGBA copy of the pixels
//   - error: Any error caused by invalid dimensions or buffer size
func NewFrameRGB24(buf []byte, width, height int, pts float64) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, width, height)
	}
	if len(buf) != width*height*3 {
		return nil, fmt.Errorf("rgb24 buffer size mismatch: got %d, want %d", len(buf), width*height*3)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	si := 0
	for di := 0; di < len(img.Pix); di += 4 {
		img.Pix[di] = buf[si]
		img.Pix[di+1] = buf[si+1]
		img.Pix[di+2] = buf[si+2]
		img.Pix[di+3] = 0xFF
		si += 3
	}

	return &Frame{Image: img, PTS: pts}, nil
}

// RGBABytes returns the frame pixels as packed RGBA bytes.
//
// Dense images at the origin are returned without copying; anything
// else is repacked row by row. The result must be treated as
// read-only when it aliases the image.
func RGBABytes(img *image.RGBA) []byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if img.Stride == 4*width && bounds.Min == (image.Point{}) && len(img.Pix) == 4*width*height {
		return img.Pix
	}

	packed := make([]byte, 4*width*height)
	for y := 0; y < height; y++ {
		row := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(packed[y*4*width:(y+1)*4*width], img.Pix[row:row+4*width])
	}
	return packed
}
