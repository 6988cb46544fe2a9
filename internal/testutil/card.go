package testutil

import (
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CardSpec describes a synthetic camera frame showing a single card.
type CardSpec struct {
	FrameWidth  int
	FrameHeight int
	CardWidth   int
	CardHeight  int
	CenterX     float64 // Card center in frame pixels
	CenterY     float64
	Angle       float64 // Counter-clockwise rotation in degrees
	Background  color.Color
	CardColor   color.Color
	TextColor   color.Color
	Lines       []string // Printed top to bottom on the card
}

// DefaultCardSpec returns a 640x480 frame with a slightly tilted ID-1 shaped card.
func DefaultCardSpec() CardSpec {
	return CardSpec{
		FrameWidth:  640,
		FrameHeight: 480,
		CardWidth:   342,
		CardHeight:  216,
		CenterX:     320,
		CenterY:     240,
		Angle:       6,
		Background:  color.NRGBA{R: 30, G: 30, B: 35, A: 255},
		CardColor:   color.NRGBA{R: 235, G: 235, B: 240, A: 255},
		TextColor:   color.Black,
		Lines:       []string{"4111 1111 1111 1111", "12/28", "JANE DOE"},
	}
}

// GenerateCardFrame renders spec and returns the frame together with the
// card corners in image coordinates (top-left origin), clockwise from the
// card's own top-left.
func GenerateCardFrame(spec CardSpec) (*image.NRGBA, [4]geometry.Point) {
	frame := imaging.New(spec.FrameWidth, spec.FrameHeight, spec.Background)

	card := imaging.New(spec.CardWidth, spec.CardHeight, spec.CardColor)
	drawCardText(card, spec)

	rotated := card
	if spec.Angle != 0 {
		rotated = imaging.Rotate(card, spec.Angle, color.Transparent)
	}
	rw, rh := rotated.Bounds().Dx(), rotated.Bounds().Dy()
	pos := image.Pt(int(math.Round(spec.CenterX-float64(rw)/2)), int(math.Round(spec.CenterY-float64(rh)/2)))
	frame = imaging.Overlay(frame, rotated, pos, 1.0)

	cx := float64(pos.X) + float64(rw)/2
	cy := float64(pos.Y) + float64(rh)/2
	rad := spec.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	hw, hh := float64(spec.CardWidth)/2, float64(spec.CardHeight)/2
	corner := func(dx, dy float64) geometry.Point {
		return geometry.Point{X: cx + dx*cos + dy*sin, Y: cy - dx*sin + dy*cos}
	}
	return frame, [4]geometry.Point{
		corner(-hw, -hh),
		corner(hw, -hh),
		corner(hw, hh),
		corner(-hw, hh),
	}
}

// CardQuad returns the normalized video-space outline of the card in spec.
func CardQuad(spec CardSpec) geometry.Quad {
	_, corners := GenerateCardFrame(spec)
	return geometry.QuadFromImagePoints(corners[:], geometry.Size{
		Width:  float64(spec.FrameWidth),
		Height: float64(spec.FrameHeight),
	})
}

func drawCardText(card *image.NRGBA, spec CardSpec) {
	if len(spec.Lines) == 0 {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: card, Src: image.NewUniform(spec.TextColor), Face: face}
	lineHeight := face.Metrics().Height.Ceil() * 2
	y := spec.CardHeight/2 - len(spec.Lines)*lineHeight/2 + lineHeight
	for _, line := range spec.Lines {
		d.Dot = fixed.P(spec.CardWidth/10, y)
		d.DrawString(line)
		y += lineHeight
	}
}

// SaveFrame writes img as PNG below dir and returns the path.
func SaveFrame(t *testing.T, img image.Image, dir, name string) string {
	t.Helper()

	require.NoError(t, EnsureDir(dir))
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path), "Failed to save frame %s", path)
	return path
}

// MeanColor averages the pixels of img inside r.
func MeanColor(img image.Image, r image.Rectangle) color.NRGBA {
	r = r.Intersect(img.Bounds())
	var sr, sg, sb, n float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			sr += float64(c.R)
			sg += float64(c.G)
			sb += float64(c.B)
			n++
		}
	}
	if n == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: 255}
}
