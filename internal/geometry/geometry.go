// Package geometry holds the coordinate types shared by detection,
// rectification and overlay presentation.
//
// Two coordinate spaces are in play. Video space is the space the detector
// reports in: origin at the bottom-left of the frame, y growing upwards,
// normalized to [0,1]. Display space is the space overlays are drawn in:
// pixels with the origin at the top-left. ToPixelQuad scales video space
// into pixels without flipping and is what rectification consumes.
// ToDisplayRect scales and flips and is what overlays consume.
package geometry

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an image extent in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SizeOf returns the pixel extent of b.
func SizeOf(b image.Rectangle) Size {
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Rect is an axis-aligned rectangle. Whether it is normalized or in pixels
// depends on where it came from.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the far edge along y.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// ToImageRect rounds a pixel rectangle to integer image coordinates.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.MaxX())), int(math.Round(r.MaxY())),
	)
}

// Quad is a card outline in normalized video space.
type Quad struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`
}

// Points returns the corners clockwise starting at the top-left.
func (q Quad) Points() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// BoundingBox returns the normalized axis-aligned bounds of the quad.
// Y is the lowest edge in video space.
func (q Quad) BoundingBox() Rect {
	return boundsOf(q.Points())
}

// PixelQuad is a Quad scaled to pixels. It stays in video space.
type PixelQuad struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`
}

// Points returns the corners clockwise starting at the top-left.
func (q PixelQuad) Points() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// ToPixelQuad scales a normalized quad by the image size. It never flips:
// the result addresses the same video space the detector reported in.
func ToPixelQuad(q Quad, size Size) PixelQuad {
	scale := func(p Point) Point {
		return Point{X: p.X * size.Width, Y: p.Y * size.Height}
	}
	return PixelQuad{
		TopLeft:     scale(q.TopLeft),
		TopRight:    scale(q.TopRight),
		BottomRight: scale(q.BottomRight),
		BottomLeft:  scale(q.BottomLeft),
	}
}

// ToDisplayRect converts a normalized video-space box into a pixel
// rectangle with a top-left origin, ready for overlay drawing.
func ToDisplayRect(box Rect, size Size) Rect {
	return Rect{
		X:      box.X * size.Width,
		Y:      size.Height - box.MaxY()*size.Height,
		Width:  box.Width * size.Width,
		Height: box.Height * size.Height,
	}
}

// EdgeLengths returns the top, right, bottom and left edge lengths.
func (q PixelQuad) EdgeLengths() (top, right, bottom, left float64) {
	return dist(q.TopLeft, q.TopRight),
		dist(q.TopRight, q.BottomRight),
		dist(q.BottomRight, q.BottomLeft),
		dist(q.BottomLeft, q.TopLeft)
}

// AspectRatio is the longer over the shorter mean edge length. It returns
// 0 for a quad with a zero-length side pair.
func (q PixelQuad) AspectRatio() float64 {
	top, right, bottom, left := q.EdgeLengths()
	w := (top + bottom) / 2
	h := (left + right) / 2
	if w <= 0 || h <= 0 {
		return 0
	}
	if w < h {
		w, h = h, w
	}
	return w / h
}

// Area returns the absolute polygon area of the quad.
func (q PixelQuad) Area() float64 {
	pts := q.Points()
	return math.Abs(PolygonArea(pts[:]))
}

// IsConvex reports whether all turns along the outline go the same way.
// Quads with a zero-length edge or a straight angle are not convex.
func (q PixelQuad) IsConvex() bool {
	pts := q.Points()
	sign := 0.0
	for i := range pts {
		c := cross(pts[i], pts[(i+1)%4], pts[(i+2)%4])
		if c == 0 {
			return false
		}
		if sign == 0 {
			sign = c
			continue
		}
		if (c > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

// HasCollinearCorners reports whether any three corners lie within eps
// pixels of a common line. Coincident corners count as collinear.
func (q PixelQuad) HasCollinearCorners(eps float64) bool {
	pts := q.Points()
	for skip := range pts {
		tri := make([]Point, 0, 3)
		for i, p := range pts {
			if i != skip {
				tri = append(tri, p)
			}
		}
		for i := range tri {
			p := tri[i]
			a := tri[(i+1)%3]
			b := tri[(i+2)%3]
			if perpendicularDistance(p, a, b) <= eps {
				return true
			}
		}
	}
	return false
}

// BoundingBox returns the pixel bounds of the quad in video space.
func (q PixelQuad) BoundingBox() Rect {
	return boundsOf(q.Points())
}

func boundsOf(pts [4]Point) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// QuadFromImagePoints converts four corners given in image coordinates
// (top-left origin, y down) of an image of the given size into a
// normalized video-space quad. The corners are ordered first.
func QuadFromImagePoints(pts []Point, size Size) Quad {
	tl, tr, br, bl := OrderCorners(pts)
	norm := func(p Point) Point {
		return Point{X: p.X / size.Width, Y: 1 - p.Y/size.Height}
	}
	return Quad{
		TopLeft:     norm(tl),
		TopRight:    norm(tr),
		BottomRight: norm(br),
		BottomLeft:  norm(bl),
	}
}
