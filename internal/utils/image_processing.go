package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// DownscaleToFit shrinks img so that its longer side is at most maxSide and
// returns the factor applied. Images that already fit, or maxSide <= 0, are
// returned unchanged with a factor of 1.
func DownscaleToFit(img image.Image, maxSide int) (image.Image, float64) {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxSide <= 0 || longest <= maxSide {
		return img, 1
	}
	scale := float64(maxSide) / float64(longest)
	w := max(int(float64(b.Dx())*scale+0.5), 1)
	h := max(int(float64(b.Dy())*scale+0.5), 1)
	return imaging.Resize(img, w, h, imaging.Box), scale
}

// Luminance returns an 8-bit grayscale buffer of img, row-major with stride width.
func Luminance(img image.Image) ([]uint8, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "luminance", Err: errors.New("input image is nil")}
	}
	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := make([]uint8, w*h)
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := range w {
			out[y*w+x] = row[x*4]
		}
	}
	return out, w, h, nil
}

// EnhanceForOCR returns a contrast-stretched, lightly sharpened copy of img.
func EnhanceForOCR(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 40)
	return imaging.Sharpen(out, 0.8)
}
