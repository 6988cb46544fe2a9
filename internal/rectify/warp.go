package rectify

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/disintegration/imaging"
)

// warpPerspective samples the quadrilateral srcQuad of src into a dstW x dstH
// image using the inverse homography and bilinear interpolation. srcQuad is
// given in buffer coordinates, clockwise from the top-left.
func warpPerspective(src image.Image, srcQuad [4]geometry.Point, dstW, dstH int, workers int) (*image.NRGBA, bool) {
	if dstW <= 0 || dstH <= 0 {
		return nil, false
	}

	dstQuad := [4]geometry.Point{
		{X: 0, Y: 0},
		{X: float64(dstW - 1), Y: 0},
		{X: float64(dstW - 1), Y: float64(dstH - 1)},
		{X: 0, Y: float64(dstH - 1)},
	}
	h, ok := computeHomography(dstQuad, srcQuad)
	if !ok {
		return nil, false
	}

	// Work on a zero-origin NRGBA copy so rows can be indexed directly.
	in := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > dstH {
		workers = dstH
	}
	rows := make(chan int, dstH)
	for y := range dstH {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				off := y * out.Stride
				for x := range dstW {
					sx, sy, ok := applyHomography(h, float64(x), float64(y))
					if !ok {
						continue
					}
					bilinearSample(in, sx, sy, out.Pix[off+x*4:off+x*4+4])
				}
			}
		}()
	}
	wg.Wait()
	return out, true
}

// bilinearSample writes the interpolated pixel at (x, y) into px. Points
// outside the image stay opaque black.
func bilinearSample(src *image.NRGBA, x, y float64, px []uint8) {
	b := src.Bounds()
	if x < 0 || y < 0 || x > float64(b.Dx()-1) || y > float64(b.Dy()-1) || math.IsNaN(x) || math.IsNaN(y) {
		px[0], px[1], px[2], px[3] = 0, 0, 0, 255
		return
	}
	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, b.Dx()-1), min(y0+1, b.Dy()-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	i00 := y0*src.Stride + x0*4
	i10 := y0*src.Stride + x1*4
	i01 := y1*src.Stride + x0*4
	i11 := y1*src.Stride + x1*4
	for c := range 4 {
		top := lerp(float64(src.Pix[i00+c]), float64(src.Pix[i10+c]), fx)
		bot := lerp(float64(src.Pix[i01+c]), float64(src.Pix[i11+c]), fx)
		px[c] = uint8(lerp(top, bot, fy) + 0.5)
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
