// Package detector finds card-shaped quadrilaterals in video frames.
package detector

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sort"

	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/mempool"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

const (
	minContrast        = 24.0 // gray levels between Otsu class means
	minComponentPixels = 64
	overlapIoU         = 0.5
)

// Candidate is a card outline found in one frame. Quad and BoundingBox are
// normalized video-space coordinates.
type Candidate struct {
	Quad        geometry.Quad `json:"quad"`
	Confidence  float64       `json:"confidence"`
	BoundingBox geometry.Rect `json:"bounding_box"`
}

// Detector locates rectangles with a configured aspect ratio band.
type Detector struct {
	cfg Config
}

// New creates a detector after validating cfg.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect returns the best candidate in img. The second result is false
// when nothing card-shaped is visible.
func (d *Detector) Detect(img image.Image) (Candidate, bool) {
	cands := d.DetectAll(img)
	if len(cands) == 0 {
		return Candidate{}, false
	}
	return cands[0], true
}

// DetectAll returns up to MaxObservations candidates, best first.
func (d *Detector) DetectAll(img image.Image) []Candidate {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	size := geometry.SizeOf(img.Bounds())
	small, _ := utils.DownscaleToFit(img, d.cfg.MaxImageSize)
	gray, w, h, err := utils.Luminance(small)
	if err != nil {
		slog.Debug("Detection skipped", "error", err)
		return nil
	}
	sx, sy := size.Width/float64(w), size.Height/float64(h)

	t := otsuThreshold(gray)
	if contrast(gray, t) < minContrast {
		return nil
	}

	mask := mempool.GetBool(w * h)
	defer mempool.PutBool(mask)

	var cands []Candidate
	for _, dark := range []bool{false, true} {
		binarize(gray, t, dark, mask)
		closeMask(mask, w, h, d.cfg.ClosingRadius)
		comps, labels := connectedComponents(mask, w, h)
		for _, c := range comps {
			if cand, ok := d.evaluate(labels, w, h, c, sx, sy, size); ok {
				cands = append(cands, cand)
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})
	cands = suppressOverlaps(cands, overlapIoU)
	if len(cands) > d.cfg.MaxObservations {
		cands = cands[:d.cfg.MaxObservations]
	}
	if len(cands) > 0 {
		slog.Debug("Card candidate found", "confidence", cands[0].Confidence, "threshold", t)
	}
	return cands
}

// evaluate fits a quad to component c and applies the shape filters.
func (d *Detector) evaluate(labels []int32, w, h int, c component, sx, sy float64, size geometry.Size) (Candidate, bool) {
	if c.touches || c.count < minComponentPixels {
		return Candidate{}, false
	}
	shorter := float64(min(w, h))
	if float64(max(c.width(), c.height())) < d.cfg.MinSize*shorter*0.5 {
		return Candidate{}, false
	}

	pts, spanArea := outline(labels, w, c)
	corners := geometry.ApproximateQuad(geometry.ConvexHull(pts))
	if len(corners) != 4 {
		return Candidate{}, false
	}
	quadArea := math.Abs(geometry.PolygonArea(corners))
	if quadArea == 0 {
		return Candidate{}, false
	}
	fill := spanArea / quadArea
	if fill < d.cfg.MinFillRatio {
		return Candidate{}, false
	}

	scaled := make([]geometry.Point, len(corners))
	for i, p := range corners {
		scaled[i] = geometry.Point{X: p.X * sx, Y: p.Y * sy}
	}
	quad := geometry.QuadFromImagePoints(scaled, size)
	pq := geometry.ToPixelQuad(quad, size)
	if !pq.IsConvex() {
		return Candidate{}, false
	}
	if ar := pq.AspectRatio(); ar < d.cfg.MinAspectRatio || ar > d.cfg.MaxAspectRatio {
		return Candidate{}, false
	}
	top, right, bottom, left := pq.EdgeLengths()
	longer := math.Max((top+bottom)/2, (left+right)/2)
	if longer < d.cfg.MinSize*math.Min(size.Width, size.Height) {
		return Candidate{}, false
	}

	return Candidate{
		Quad:        quad,
		Confidence:  math.Min(fill, 1),
		BoundingBox: quad.BoundingBox(),
	}, true
}

// suppressOverlaps keeps the first of any candidates whose bounding boxes
// overlap by more than iou. cands must be sorted best first.
func suppressOverlaps(cands []Candidate, iou float64) []Candidate {
	if len(cands) <= 1 {
		return cands
	}
	kept := cands[:0:0]
	for _, c := range cands {
		overlapping := false
		for _, k := range kept {
			if boxIoU(c.BoundingBox, k.BoundingBox) > iou {
				overlapping = true
				break
			}
		}
		if !overlapping {
			kept = append(kept, c)
		}
	}
	return kept
}

func boxIoU(a, b geometry.Rect) float64 {
	ix := math.Max(0, math.Min(a.MaxX(), b.MaxX())-math.Max(a.X, b.X))
	iy := math.Max(0, math.Min(a.MaxY(), b.MaxY())-math.Max(a.Y, b.Y))
	inter := ix * iy
	union := a.Width*a.Height + b.Width*b.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
