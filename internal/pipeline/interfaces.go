package pipeline

import (
	"context"
	"image"

	"github.com/MeKo-Tech/cardscan/internal/detector"
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/frame"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
)

// FrameSource delivers frames one at a time. Next returns io.EOF when the
// stream ends.
type FrameSource interface {
	Next(ctx context.Context) (*frame.Frame, error)
}

// RectangleFinder locates the best card outline in a frame.
type RectangleFinder interface {
	Detect(img image.Image) (detector.Candidate, bool)
}

// Rectifier warps the outlined region of img into an upright image. q is in
// video space and pixels of img.
type Rectifier interface {
	Rectify(img image.Image, q geometry.PixelQuad) (image.Image, error)
}

// TextRecognizer reads text lines from a rectified card.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]fields.TextLine, error)
}

// AckFunc acknowledges a presented result. Calling it more than once is safe.
type AckFunc func()

// Presenter receives overlay updates and results. Implementations must not
// block the caller.
type Presenter interface {
	// ShowOverlay draws the card outline; rect is in display pixels with a
	// top-left origin.
	ShowOverlay(rect geometry.Rect)
	ClearOverlay()
	PresentResult(result fields.ScanResult, ack AckFunc)
}

// NopPresenter discards overlays and acknowledges every result at once.
type NopPresenter struct{}

func (NopPresenter) ShowOverlay(geometry.Rect) {}

func (NopPresenter) ClearOverlay() {}

func (NopPresenter) PresentResult(_ fields.ScanResult, ack AckFunc) { ack() }
