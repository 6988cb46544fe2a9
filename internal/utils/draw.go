package utils

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/MeKo-Tech/cardscan/internal/geometry"
)

// OverlayStyle describes the card outline drawn over a frame.
type OverlayStyle struct {
	Color        color.RGBA
	Opacity      float64
	LineWidth    float64
	CornerRadius float64
}

// DefaultOverlayStyle is a red rounded outline at 75% opacity.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		Color:        color.RGBA{R: 255, A: 255},
		Opacity:      0.75,
		LineWidth:    5,
		CornerRadius: 10,
	}
}

// DrawRoundedRect blends a rounded rectangle outline into dst. The stroke
// lies inside rect.
func DrawRoundedRect(dst *image.RGBA, rect geometry.Rect, style OverlayStyle) {
	if rect.Empty() {
		return
	}
	cx := rect.X + rect.Width/2
	cy := rect.Y + rect.Height/2
	hx, hy := rect.Width/2, rect.Height/2
	radius := math.Min(style.CornerRadius, math.Min(hx, hy))
	lw := math.Max(style.LineWidth, 1)

	area := rect.ToImageRect().Intersect(dst.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			d := roundedRectDistance(float64(x)+0.5-cx, float64(y)+0.5-cy, hx, hy, radius)
			if d > 0 || d <= -lw {
				continue
			}
			blendPixel(dst, x, y, style.Color, style.Opacity)
		}
	}
}

// roundedRectDistance is the signed distance from (px, py), relative to the
// center, to a rounded rectangle with half extents hx, hy. Negative inside.
func roundedRectDistance(px, py, hx, hy, r float64) float64 {
	qx := math.Abs(px) - (hx - r)
	qy := math.Abs(py) - (hy - r)
	outside := math.Hypot(math.Max(qx, 0), math.Max(qy, 0))
	inside := math.Min(math.Max(qx, qy), 0)
	return outside + inside - r
}

func blendPixel(dst *image.RGBA, x, y int, c color.RGBA, alpha float64) {
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	p[0] = uint8(float64(p[0])*(1-alpha) + float64(c.R)*alpha + 0.5)
	p[1] = uint8(float64(p[1])*(1-alpha) + float64(c.G)*alpha + 0.5)
	p[2] = uint8(float64(p[2])*(1-alpha) + float64(c.B)*alpha + 0.5)
	p[3] = 255
}

// FillPolygon fills a closed polygon (image coordinates) using even-odd
// scanlines sampled at pixel centers.
func FillPolygon(dst *image.RGBA, pts []geometry.Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	b := dst.Bounds()
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	y0 := max(int(math.Floor(minY)), b.Min.Y)
	y1 := min(int(math.Ceil(maxY)), b.Max.Y)

	xs := make([]float64, 0, len(pts))
	for y := y0; y < y1; y++ {
		sy := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			a, c := pts[i], pts[(i+1)%len(pts)]
			if (a.Y <= sy) == (c.Y <= sy) {
				continue
			}
			xs = append(xs, a.X+(sy-a.Y)*(c.X-a.X)/(c.Y-a.Y))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			from := max(int(math.Ceil(xs[i]-0.5)), b.Min.X)
			to := min(int(math.Floor(xs[i+1]-0.5)), b.Max.X-1)
			for x := from; x <= to; x++ {
				dst.Set(x, y, col)
			}
		}
	}
}

// DrawPolygon draws connected line segments and closes the polygon.
func DrawPolygon(dst *image.RGBA, pts []geometry.Point, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	ip := make([]image.Point, len(pts))
	for i, p := range pts {
		ip[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	for i := range ip {
		drawLine(dst, ip[i], ip[(i+1)%len(ip)], col, thickness)
	}
}

// drawLine draws a line between two points using a simple Bresenham variant.
func drawLine(dst *image.RGBA, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	dx := abs(b.X - x0)
	dy := -abs(b.Y - y0)
	sx, sy := sign(b.X-x0), sign(b.Y-y0)
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == b.X && y0 == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawThickPoint(dst *image.RGBA, x, y int, col color.Color, thickness int) {
	r := (max(thickness, 1) - 1) / 2
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
