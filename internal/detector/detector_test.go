package detector

import (
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New(DefaultConfig())
	require.NoError(t, err)
	return d
}

// toImage converts a normalized video-space point into frame pixels with a
// top-left origin.
func toImage(p geometry.Point, size geometry.Size) geometry.Point {
	return geometry.Point{X: p.X * size.Width, Y: (1 - p.Y) * size.Height}
}

func assertCorners(t *testing.T, want [4]geometry.Point, got geometry.Quad, size geometry.Size, tol float64) {
	t.Helper()
	for i, p := range got.Points() {
		ip := toImage(p, size)
		assert.InDelta(t, want[i].X, ip.X, tol, "corner %d x", i)
		assert.InDelta(t, want[i].Y, ip.Y, tol, "corner %d y", i)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, 1.3, cfg.MinAspectRatio, 1e-9)
	assert.InDelta(t, 1.8, cfg.MaxAspectRatio, 1e-9)
	assert.InDelta(t, 0.4, cfg.MinSize, 1e-9)
	assert.Equal(t, 1, cfg.MaxObservations)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min aspect below one", func(c *Config) { c.MinAspectRatio = 0.5 }},
		{"inverted band", func(c *Config) { c.MaxAspectRatio = 1.1 }},
		{"zero size", func(c *Config) { c.MinSize = 0 }},
		{"size above one", func(c *Config) { c.MinSize = 1.5 }},
		{"no observations", func(c *Config) { c.MaxObservations = 0 }},
		{"negative radius", func(c *Config) { c.ClosingRadius = -1 }},
		{"fill ratio", func(c *Config) { c.MinFillRatio = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
			_, err := New(cfg)
			require.Error(t, err)
		})
	}
}

func TestDetect_UprightCard(t *testing.T) {
	spec := testutil.DefaultCardSpec()
	spec.Angle = 0
	img, corners := testutil.GenerateCardFrame(spec)
	size := geometry.SizeOf(img.Bounds())

	cand, ok := newDetector(t).Detect(img)
	require.True(t, ok)
	assertCorners(t, corners, cand.Quad, size, 1.5)
	assert.InDelta(t, 1.0, cand.Confidence, 0.05)

	box := cand.BoundingBox
	assert.InDelta(t, 149.0/640, box.X, 0.01)
	assert.InDelta(t, 342.0/640, box.Width, 0.01)
	assert.InDelta(t, 216.0/480, box.Height, 0.01)
}

func TestDetect_TiltedCard(t *testing.T) {
	spec := testutil.DefaultCardSpec()
	spec.Angle = 10
	img, corners := testutil.GenerateCardFrame(spec)
	size := geometry.SizeOf(img.Bounds())

	cand, ok := newDetector(t).Detect(img)
	require.True(t, ok)
	assertCorners(t, corners, cand.Quad, size, 4)

	pq := geometry.ToPixelQuad(cand.Quad, size)
	assert.InDelta(t, float64(spec.CardWidth)/float64(spec.CardHeight), pq.AspectRatio(), 0.05)
	assert.Greater(t, cand.Quad.TopLeft.Y, cand.Quad.BottomLeft.Y, "video space has y up")
}

func TestDetect_DarkCardOnLightBackground(t *testing.T) {
	spec := testutil.DefaultCardSpec()
	spec.Background = color.NRGBA{R: 240, G: 240, B: 235, A: 255}
	spec.CardColor = color.NRGBA{R: 25, G: 40, B: 90, A: 255}
	spec.TextColor = color.White
	img, corners := testutil.GenerateCardFrame(spec)

	cand, ok := newDetector(t).Detect(img)
	require.True(t, ok)
	assertCorners(t, corners, cand.Quad, geometry.SizeOf(img.Bounds()), 4)
}

func TestDetect_LargeFrameIsDownscaled(t *testing.T) {
	spec := testutil.DefaultCardSpec()
	spec.FrameWidth, spec.FrameHeight = 1280, 960
	spec.CardWidth, spec.CardHeight = 684, 432
	spec.CenterX, spec.CenterY = 640, 480
	spec.Angle = 0
	img, corners := testutil.GenerateCardFrame(spec)

	cand, ok := newDetector(t).Detect(img)
	require.True(t, ok)
	assertCorners(t, corners, cand.Quad, geometry.SizeOf(img.Bounds()), 4)
}

func TestDetect_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testutil.CardSpec)
	}{
		{"too small", func(s *testutil.CardSpec) { s.CardWidth, s.CardHeight = 120, 76 }},
		{"longer side below min size", func(s *testutil.CardSpec) {
			s.CardWidth, s.CardHeight, s.Angle, s.Lines = 180, 114, 0, nil
		}},
		{"square", func(s *testutil.CardSpec) { s.CardWidth, s.CardHeight = 260, 260 }},
		{"too elongated", func(s *testutil.CardSpec) { s.CardWidth, s.CardHeight = 500, 200 }},
		{"no contrast", func(s *testutil.CardSpec) { s.CardColor = s.Background; s.Lines = nil }},
		{"touches border", func(s *testutil.CardSpec) { s.CenterX = 150; s.Angle = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testutil.DefaultCardSpec()
			tt.mutate(&spec)
			img, _ := testutil.GenerateCardFrame(spec)

			_, ok := newDetector(t).Detect(img)
			assert.False(t, ok)
		})
	}
}

// MinSize bounds the longer mean side: 0.4 of 480 is 192 pixels.
func TestDetect_MinSizeBoundary(t *testing.T) {
	frameFor := func(w, h int) image.Image {
		spec := testutil.DefaultCardSpec()
		spec.CardWidth, spec.CardHeight, spec.Angle, spec.Lines = w, h, 0, nil
		img, _ := testutil.GenerateCardFrame(spec)
		return img
	}

	// shorter side 152 is below 192, longer side 240 is above
	c, ok := newDetector(t).Detect(frameFor(240, 152))
	require.True(t, ok)
	pq := geometry.ToPixelQuad(c.Quad, geometry.Size{Width: 640, Height: 480})
	assert.InDelta(t, 240.0/152.0, pq.AspectRatio(), 0.08)

	_, ok = newDetector(t).Detect(frameFor(180, 114))
	assert.False(t, ok)

	cfg := DefaultConfig()
	cfg.MinSize = 0.3
	d, err := New(cfg)
	require.NoError(t, err)
	_, ok = d.Detect(frameFor(180, 114))
	assert.True(t, ok, "the same card passes once the limit drops below its longer side")
}

func TestDetect_EmptyInputs(t *testing.T) {
	d := newDetector(t)

	_, ok := d.Detect(nil)
	assert.False(t, ok)

	_, ok = d.Detect(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.False(t, ok)

	_, ok = d.Detect(imaging.New(320, 240, color.Gray{Y: 128}))
	assert.False(t, ok)
}

func TestDetectAll_RespectsMaxObservations(t *testing.T) {
	spec := testutil.DefaultCardSpec()
	spec.Angle = 0
	spec.Lines = nil
	spec.CenterX = 420
	img, _ := testutil.GenerateCardFrame(spec)

	// A second, smaller card in the lower left corner.
	frame := imaging.Overlay(img, imaging.New(200, 126, spec.CardColor), image.Pt(20, 300), 1.0)

	cfg := DefaultConfig()
	cfg.MinSize = 0.3
	cfg.MaxObservations = 2
	d, err := New(cfg)
	require.NoError(t, err)
	assert.Len(t, d.DetectAll(frame), 2)

	cfg.MaxObservations = 1
	d, err = New(cfg)
	require.NoError(t, err)
	assert.Len(t, d.DetectAll(frame), 1)
}

func TestSuppressOverlaps(t *testing.T) {
	a := Candidate{Confidence: 0.9, BoundingBox: geometry.Rect{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.3}}
	b := Candidate{Confidence: 0.8, BoundingBox: geometry.Rect{X: 0.11, Y: 0.1, Width: 0.5, Height: 0.3}}
	c := Candidate{Confidence: 0.7, BoundingBox: geometry.Rect{X: 0.6, Y: 0.6, Width: 0.3, Height: 0.2}}

	kept := suppressOverlaps([]Candidate{a, b, c}, 0.5)
	require.Len(t, kept, 2)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-9)
	assert.InDelta(t, 0.7, kept[1].Confidence, 1e-9)
}
