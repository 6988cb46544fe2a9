// Package frame provides the packed BGRA frame type and the sources that
// feed frames into a scan pipeline.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/MeKo-Tech/cardscan/internal/mempool"
)

// ErrNoSource is returned when a capture source cannot be opened.
var ErrNoSource = errors.New("frame: no capture source")

// bytesPerPixel of the packed BGRA layout.
const bytesPerPixel = 4

// Frame is a packed 32-bit BGRA pixel buffer. It implements image.Image
// with non-premultiplied alpha.
type Frame struct {
	Pix       []byte
	Width     int
	Height    int
	Stride    int
	Seq       uint64
	Timestamp time.Time

	pooled bool
}

// FromBGRA wraps an existing BGRA buffer without copying.
func FromBGRA(pix []byte, width, height, stride int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if stride < width*bytesPerPixel {
		return nil, fmt.Errorf("stride %d too small for width %d", stride, width)
	}
	if need := stride*(height-1) + width*bytesPerPixel; len(pix) < need {
		return nil, fmt.Errorf("buffer holds %d bytes, need %d", len(pix), need)
	}
	return &Frame{Pix: pix, Width: width, Height: height, Stride: stride, Timestamp: time.Now()}, nil
}

// FromImage copies img into a pooled BGRA frame. Call Release when done.
func FromImage(img image.Image) (*Frame, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("input image is empty")
	}
	w, h := b.Dx(), b.Dy()
	f := &Frame{
		Pix:       mempool.GetBytes(w * h * bytesPerPixel),
		Width:     w,
		Height:    h,
		Stride:    w * bytesPerPixel,
		Timestamp: time.Now(),
		pooled:    true,
	}

	if src, ok := img.(*image.NRGBA); ok {
		for y := range h {
			in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			out := f.Pix[y*f.Stride:]
			for x := range w {
				i := x * bytesPerPixel
				out[i], out[i+1], out[i+2], out[i+3] = in[i+2], in[i+1], in[i], in[i+3]
			}
		}
		return f, nil
	}
	for y := range h {
		out := f.Pix[y*f.Stride:]
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := x * bytesPerPixel
			out[i], out[i+1], out[i+2], out[i+3] = c.B, c.G, c.R, c.A
		}
	}
	return f, nil
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.NRGBA{}
	}
	i := y*f.Stride + x*bytesPerPixel
	p := f.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
}

// Size returns the frame size in pixels.
func (f *Frame) Size() image.Point { return image.Pt(f.Width, f.Height) }

// ToNRGBA converts the frame into a new RGBA-ordered image.
func (f *Frame) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(f.Bounds())
	for y := range f.Height {
		in := f.Pix[y*f.Stride:]
		row := out.Pix[y*out.Stride:]
		for x := range f.Width {
			i := x * bytesPerPixel
			row[i], row[i+1], row[i+2], row[i+3] = in[i+2], in[i+1], in[i], in[i+3]
		}
	}
	return out
}

// Release hands a pooled buffer back to the pool. The frame must not be
// used afterwards. Frames wrapping caller memory are left untouched.
func (f *Frame) Release() {
	if f == nil || !f.pooled {
		return
	}
	mempool.PutBytes(f.Pix)
	f.Pix = nil
	f.pooled = false
}
