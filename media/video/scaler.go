// Package video provides video frame handling for pgplayer.
//
// This file implements frame scaling so callers can request surfaces
// at a different resolution than the source video.
package video

import (
	"fmt"
	"image"

	"github.com/faakharhzb/pgplayer/media"
)

// Scaler provides video frame scaling functionality.
//
// Implements RGBA frame scaling using bilinear interpolation for
// smooth resizing at arbitrary target dimensions.
type Scaler struct {
	// No fields needed for stateless scaling operations
}

// NewScaler creates a new video frame scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// Scale resizes an RGBA image to the specified dimensions.
//
// Uses bilinear interpolation across all four channels. When the
// target matches the source size a copy is returned.
//
// Parameters:
//   - img: Source image to scale
//   - targetWidth: Target width in pixels
//   - targetHeight: Target height in pixels
//
// Returns:
//   - *image.RGBA: Scaled image
//   - error: Any error that occurred during scaling
func (s *Scaler) Scale(img *image.RGBA, targetWidth, targetHeight int) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("source image cannot be nil")
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", media.ErrInvalidDimensions, targetWidth, targetHeight)
	}

	bounds := img.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()
	if srcWidth == 0 || srcHeight == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	// If dimensions are the same, return a copy
	if srcWidth == targetWidth && srcHeight == targetHeight {
		dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
		for y := 0; y < srcHeight; y++ {
			row := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*srcWidth], img.Pix[row:row+4*srcWidth])
		}
		return dst, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))

	// Calculate scaling ratios
	xRatio := float64(srcWidth) / float64(targetWidth)
	yRatio := float64(srcHeight) / float64(targetHeight)

	// Bilinear interpolation
	for y := 0; y < targetHeight; y++ {
		srcY := float64(y) * yRatio
		y1 := int(srcY)
		y2 := y1 + 1
		if y2 >= srcHeight {
			y2 = srcHeight - 1
		}
		fy := srcY - float64(y1)

		for x := 0; x < targetWidth; x++ {
			srcX := float64(x) * xRatio
			x1 := int(srcX)
			x2 := x1 + 1
			if x2 >= srcWidth {
				x2 = srcWidth - 1
			}
			fx := srcX - float64(x1)

			p11 := img.PixOffset(bounds.Min.X+x1, bounds.Min.Y+y1)
			p12 := img.PixOffset(bounds.Min.X+x2, bounds.Min.Y+y1)
			p21 := img.PixOffset(bounds.Min.X+x1, bounds.Min.Y+y2)
			p22 := img.PixOffset(bounds.Min.X+x2, bounds.Min.Y+y2)

			di := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				top := float64(img.Pix[p11+c])*(1-fx) + float64(img.Pix[p12+c])*fx
				bottom := float64(img.Pix[p21+c])*(1-fx) + float64(img.Pix[p22+c])*fx
				pixel := top*(1-fy) + bottom*fy

				dst.Pix[di+c] = byte(pixel + 0.5) // Round to nearest
			}
		}
	}

	return dst, nil
}

// GetScaleFactors calculates the scaling factors for given dimensions.
//
// Utility function to determine how much a frame will be scaled.
//
// Parameters:
//   - srcWidth, srcHeight: Source frame dimensions
//   - dstWidth, dstHeight: Target frame dimensions
//
// Returns:
//   - xFactor: Horizontal scaling factor
//   - yFactor: Vertical scaling factor
func (s *Scaler) GetScaleFactors(srcWidth, srcHeight, dstWidth, dstHeight int) (xFactor, yFactor float64) {
	xFactor = float64(dstWidth) / float64(srcWidth)
	yFactor = float64(dstHeight) / float64(srcHeight)
	return
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight int) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}
