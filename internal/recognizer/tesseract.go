//go:build tesseract

package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"
	"sync"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// cardWhitelist covers the characters printed on the front of a card.
const cardWhitelist = "0123456789/- ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TesseractRecognizer reads text lines through libtesseract.
type TesseractRecognizer struct {
	cfg    Config
	client *gosseract.Client
	mu     sync.Mutex
}

func newTesseract(cfg Config) (Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.TesseractLanguage); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetWhitelist(cardWhitelist); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract whitelist: %w", err)
	}
	mode := gosseract.PSM_SPARSE_TEXT
	if cfg.Mode == ModeAccurate {
		mode = gosseract.PSM_AUTO
	}
	if err := client.SetPageSegMode(mode); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract page mode: %w", err)
	}
	return &TesseractRecognizer{cfg: cfg, client: client}, nil
}

// Recognize returns the text lines tesseract finds in img.
func (r *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) ([]fields.TextLine, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	scale := 1
	src := img
	if r.cfg.Mode == ModeAccurate {
		scale = 2
		b := img.Bounds()
		src = imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.CatmullRom)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("encode for tesseract: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("tesseract image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognize: %w", err)
	}

	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].Box.Min.Y < boxes[j].Box.Min.Y })
	origin := img.Bounds().Min
	lines := make([]fields.TextLine, 0, len(boxes))
	for _, b := range boxes {
		box := image.Rect(b.Box.Min.X/scale, b.Box.Min.Y/scale, b.Box.Max.X/scale, b.Box.Max.Y/scale).Add(origin)
		lines = append(lines, fields.TextLine{Text: b.Word, Confidence: b.Confidence / 100, Box: box})
	}
	return finishLines(lines, r.cfg), nil
}

// Close releases the tesseract client.
func (r *TesseractRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}
