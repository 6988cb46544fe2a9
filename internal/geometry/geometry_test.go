package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuad() Quad {
	return Quad{
		TopLeft:     Point{0.1, 0.8},
		TopRight:    Point{0.9, 0.8},
		BottomRight: Point{0.9, 0.3},
		BottomLeft:  Point{0.1, 0.3},
	}
}

func TestToPixelQuad_ScalesWithoutFlip(t *testing.T) {
	pq := ToPixelQuad(testQuad(), Size{Width: 1000, Height: 500})

	assert.InDelta(t, 100, pq.TopLeft.X, 1e-9)
	assert.InDelta(t, 400, pq.TopLeft.Y, 1e-9)
	assert.InDelta(t, 900, pq.TopRight.X, 1e-9)
	assert.InDelta(t, 400, pq.TopRight.Y, 1e-9)
	assert.InDelta(t, 900, pq.BottomRight.X, 1e-9)
	assert.InDelta(t, 150, pq.BottomRight.Y, 1e-9)
	assert.InDelta(t, 100, pq.BottomLeft.X, 1e-9)
	assert.InDelta(t, 150, pq.BottomLeft.Y, 1e-9)
}

func TestToDisplayRect_Flips(t *testing.T) {
	size := Size{Width: 1000, Height: 500}
	box := testQuad().BoundingBox()
	require.InDelta(t, 0.3, box.Y, 1e-9)
	require.InDelta(t, 0.5, box.Height, 1e-9)

	r := ToDisplayRect(box, size)
	assert.InDelta(t, 100, r.X, 1e-9)
	// top of the card is at 0.8 in video space, i.e. 0.2*H from the display top
	assert.InDelta(t, 100, r.Y, 1e-9)
	assert.InDelta(t, 800, r.Width, 1e-9)
	assert.InDelta(t, 250, r.Height, 1e-9)
}

func TestPixelAndDisplayConversionsDiffer(t *testing.T) {
	size := Size{Width: 640, Height: 480}
	q := testQuad()
	pixelBox := ToPixelQuad(q, size).BoundingBox()
	displayBox := ToDisplayRect(q.BoundingBox(), size)

	assert.InDelta(t, pixelBox.X, displayBox.X, 1e-9)
	assert.InDelta(t, pixelBox.Width, displayBox.Width, 1e-9)
	assert.InDelta(t, pixelBox.Height, displayBox.Height, 1e-9)
	assert.NotEqual(t, pixelBox.Y, displayBox.Y)
	assert.InDelta(t, size.Height, pixelBox.MaxY()+displayBox.Y, 1e-9)
}

func TestPixelQuad_AspectRatioAndArea(t *testing.T) {
	pq := ToPixelQuad(testQuad(), Size{Width: 1000, Height: 500})
	assert.InDelta(t, 800.0/250.0, pq.AspectRatio(), 1e-9)
	assert.InDelta(t, 800*250, pq.Area(), 1e-6)
	assert.True(t, pq.IsConvex())
	assert.False(t, pq.HasCollinearCorners(1))
}

func TestPixelQuad_Degenerate(t *testing.T) {
	collinear := PixelQuad{
		TopLeft:     Point{0, 100},
		TopRight:    Point{50, 100},
		BottomRight: Point{100, 100},
		BottomLeft:  Point{0, 0},
	}
	assert.True(t, collinear.HasCollinearCorners(1))
	assert.False(t, collinear.IsConvex())

	coincident := PixelQuad{
		TopLeft:     Point{0, 100},
		TopRight:    Point{0, 100},
		BottomRight: Point{100, 0},
		BottomLeft:  Point{0, 0},
	}
	assert.True(t, coincident.HasCollinearCorners(1))

	var zero PixelQuad
	assert.Zero(t, zero.Area())
	assert.Zero(t, zero.AspectRatio())
}

func TestPixelQuad_IsConvexRejectsBowtie(t *testing.T) {
	bowtie := PixelQuad{
		TopLeft:     Point{0, 100},
		TopRight:    Point{100, 0},
		BottomRight: Point{100, 100},
		BottomLeft:  Point{0, 0},
	}
	assert.False(t, bowtie.IsConvex())
}

func TestQuadFromImagePoints(t *testing.T) {
	size := Size{Width: 200, Height: 100}
	pts := []Point{{180, 90}, {20, 10}, {20, 90}, {180, 10}}
	q := QuadFromImagePoints(pts, size)

	assert.InDelta(t, 0.1, q.TopLeft.X, 1e-9)
	assert.InDelta(t, 0.9, q.TopLeft.Y, 1e-9)
	assert.InDelta(t, 0.9, q.TopRight.X, 1e-9)
	assert.InDelta(t, 0.9, q.TopRight.Y, 1e-9)
	assert.InDelta(t, 0.9, q.BottomRight.X, 1e-9)
	assert.InDelta(t, 0.1, q.BottomRight.Y, 1e-9)
	assert.InDelta(t, 0.1, q.BottomLeft.X, 1e-9)
	assert.InDelta(t, 0.1, q.BottomLeft.Y, 1e-9)
}

func TestRectHelpers(t *testing.T) {
	r := Rect{X: 1.4, Y: 2.6, Width: 10, Height: 5}
	assert.InDelta(t, 11.4, r.MaxX(), 1e-9)
	assert.InDelta(t, 7.6, r.MaxY(), 1e-9)
	assert.False(t, r.Empty())
	assert.True(t, Rect{}.Empty())
	assert.Equal(t, image.Rect(1, 3, 11, 8), r.ToImageRect())
	assert.Equal(t, Size{Width: 4, Height: 3}, SizeOf(image.Rect(1, 1, 5, 4)))
}
