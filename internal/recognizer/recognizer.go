// Package recognizer turns a rectified card image into top-1 text lines.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/onnx"
)

// Mode trades latency for accuracy.
type Mode string

const (
	ModeAccurate Mode = "accurate"
	ModeFast     Mode = "fast"
)

// Backend names.
const (
	BackendONNX      = "onnx"
	BackendTesseract = "tesseract"
)

// ErrNoBackend is returned when the requested backend was not compiled in.
var ErrNoBackend = errors.New("recognizer backend not available in this build")

// Config holds configuration for text recognition.
type Config struct {
	Backend            string
	Mode               Mode
	ModelPath          string // ONNX recognition model
	DictPath           string // Character dictionary for the model
	ImageHeight        int    // Model input height
	MaxWidth           int    // Optional width clamp (0 = none)
	PadWidthMultiple   int    // Right-pad strips to this multiple
	NumThreads         int    // ONNX intra-op threads (0 = default)
	Language           string // Post-processing language rules
	TesseractLanguage  string
	QuantizeConfidence bool // Map probabilities onto coarse levels
	GPU                onnx.GPUConfig
}

// DefaultConfig returns the accurate ONNX configuration.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendONNX,
		Mode:               ModeAccurate,
		ImageHeight:        48,
		PadWidthMultiple:   8,
		Language:           "en",
		TesseractLanguage:  "eng",
		QuantizeConfidence: true,
		GPU:                onnx.DefaultGPUConfig(),
	}
}

// ResolvePaths fills empty model and dictionary paths from modelsDir.
func (c *Config) ResolvePaths(modelsDir string) {
	if c.ModelPath == "" {
		c.ModelPath = models.RecognitionModelPath(modelsDir)
	}
	if c.DictPath == "" {
		c.DictPath = models.DictionaryPath(modelsDir)
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendONNX, BackendTesseract:
	default:
		return fmt.Errorf("unknown recognizer backend %q", c.Backend)
	}
	switch c.Mode {
	case ModeAccurate, ModeFast:
	default:
		return fmt.Errorf("unknown recognition mode %q", c.Mode)
	}
	if c.ImageHeight < 0 || c.MaxWidth < 0 || c.PadWidthMultiple < 0 || c.NumThreads < 0 {
		return errors.New("recognizer sizes and thread count must not be negative")
	}
	return c.GPU.Validate()
}

// Engine recognizes text lines in an image. Engines are used from a
// single goroutine at a time.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]fields.TextLine, error)
	Close() error
}

// New creates the engine selected by cfg.Backend.
func New(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendTesseract:
		return newTesseract(cfg)
	default:
		r, err := NewONNX(cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// QuantizeConfidence maps a probability onto the levels 0, 0.3, 0.5 and 1.
// Only confident reads reach 1.0, which is what the strict classifier
// threshold expects.
func QuantizeConfidence(p float64) float64 {
	switch {
	case p >= 0.95:
		return 1
	case p >= 0.8:
		return 0.5
	case p >= 0.5:
		return 0.3
	default:
		return 0
	}
}

// finishLines cleans text, drops empty lines and normalizes confidences.
func finishLines(lines []fields.TextLine, cfg Config) []fields.TextLine {
	opts := DefaultCleanOptions()
	opts.Language = cfg.Language
	out := lines[:0]
	for _, l := range lines {
		l.Text = PostProcessText(l.Text, opts)
		if l.Text == "" {
			continue
		}
		l.Confidence = math.Max(0, math.Min(1, l.Confidence))
		if cfg.QuantizeConfidence {
			l.Confidence = QuantizeConfidence(l.Confidence)
		}
		out = append(out, l)
	}
	return out
}

func checkImage(img image.Image) error {
	if img == nil {
		return errors.New("input image is nil")
	}
	if img.Bounds().Empty() {
		return errors.New("input image is empty")
	}
	return nil
}
