package recognizer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/cardscan/internal/mempool"
	"github.com/MeKo-Tech/cardscan/internal/onnx"
	"github.com/disintegration/imaging"
)

// ResizeForRecognition scales img to targetHeight keeping its aspect ratio,
// clamps the width to maxWidth (if > 0) and right-pads with black to a
// multiple of padToMultiple (if > 0).
func ResizeForRecognition(img image.Image, targetHeight, maxWidth, padToMultiple int) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if targetHeight <= 0 {
		return nil, fmt.Errorf("invalid target height: %d", targetHeight)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("input image is empty")
	}

	newW := max(int(float64(b.Dx())*float64(targetHeight)/float64(b.Dy())), 1)
	if maxWidth > 0 && newW > maxWidth {
		newW = maxWidth
	}
	resized := imaging.Resize(img, newW, targetHeight, imaging.Lanczos)

	outW := newW
	if padToMultiple > 0 && newW%padToMultiple != 0 {
		outW = newW + padToMultiple - newW%padToMultiple
	}
	if outW == newW {
		return resized, nil
	}
	canvas := imaging.New(outW, targetHeight, color.Black)
	return imaging.Paste(canvas, resized, image.Pt(0, 0)), nil
}

// normalizeForRecognition converts img to an NCHW RGB tensor scaled to
// [-1, 1]. The backing buffer comes from mempool; return it with
// mempool.PutFloat32 once the tensor is no longer used.
func normalizeForRecognition(img *image.NRGBA) (onnx.Tensor, []float32, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	plane := w * h
	buf := mempool.GetFloat32(3 * plane)
	for y := range h {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := range w {
			i := y*w + x
			for c := range 3 {
				buf[c*plane+i] = (float32(row[x*4+c])/255 - 0.5) / 0.5
			}
		}
	}
	ten, err := onnx.NewImageTensor(buf, 3, h, w)
	if err != nil {
		mempool.PutFloat32(buf)
		return onnx.Tensor{}, nil, err
	}
	return ten, buf, nil
}
