// Package rectify warps a tilted card outline into an upright image.
package rectify

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/cardscan/internal/geometry"
)

// ErrDegenerateQuad is returned for outlines that cannot be warped.
var ErrDegenerateQuad = errors.New("rectify: degenerate quad")

// Config holds configuration for perspective correction.
type Config struct {
	MinArea          float64 // Minimum quad area in source pixels
	CollinearEpsilon float64 // Corners closer than this (pixels) to a common line are collinear
	Workers          int     // Row workers for sampling (0 = NumCPU)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		MinArea:          64,
		CollinearEpsilon: 1.0,
		Workers:          0,
	}
}

// Rectifier performs perspective correction at the source resolution.
type Rectifier struct {
	cfg Config
}

// New creates a rectifier.
func New(cfg Config) *Rectifier {
	return &Rectifier{cfg: cfg}
}

// Validate checks that q can be warped.
func (r *Rectifier) Validate(q geometry.PixelQuad) error {
	for _, p := range q.Points() {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: non-finite corner", ErrDegenerateQuad)
		}
	}
	if area := q.Area(); area < r.cfg.MinArea || area == 0 {
		return fmt.Errorf("%w: area %.1f below %.1f", ErrDegenerateQuad, area, r.cfg.MinArea)
	}
	if q.HasCollinearCorners(r.cfg.CollinearEpsilon) {
		return fmt.Errorf("%w: collinear corners", ErrDegenerateQuad)
	}
	if !q.IsConvex() {
		return fmt.Errorf("%w: not convex", ErrDegenerateQuad)
	}
	return nil
}

// OutputSize returns the rectified size for q: the longer of each pair of
// opposing edges, so the card is never downscaled.
func OutputSize(q geometry.PixelQuad) (int, int) {
	top, right, bottom, left := q.EdgeLengths()
	w := int(math.Round(math.Max(top, bottom)))
	h := int(math.Round(math.Max(left, right)))
	return max(w, 1), max(h, 1)
}

// Rectify maps the quad q of img onto an axis-aligned image. q is in video
// space (origin bottom-left) and in pixels of img.
func (r *Rectifier) Rectify(img image.Image, q geometry.PixelQuad) (image.Image, error) {
	if img == nil {
		return nil, errors.New("rectify: input image is nil")
	}
	if img.Bounds().Empty() {
		return nil, errors.New("rectify: input image is empty")
	}
	if err := r.Validate(q); err != nil {
		return nil, err
	}

	height := float64(img.Bounds().Dy())
	toBuffer := func(p geometry.Point) geometry.Point {
		return geometry.Point{X: p.X, Y: height - p.Y}
	}
	src := [4]geometry.Point{
		toBuffer(q.TopLeft),
		toBuffer(q.TopRight),
		toBuffer(q.BottomRight),
		toBuffer(q.BottomLeft),
	}

	w, h := OutputSize(q)
	out, ok := warpPerspective(img, src, w, h, r.cfg.Workers)
	if !ok {
		return nil, fmt.Errorf("%w: singular homography", ErrDegenerateQuad)
	}
	slog.Debug("Rectified card", "width", w, "height", h)
	return out, nil
}
