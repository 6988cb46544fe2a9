package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/cardscan/internal/detector"
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/recognizer"
	"github.com/MeKo-Tech/cardscan/internal/rectify"
)

// Builder constructs a Scanner with fluent configuration. Components that
// are not injected are created from the config on Build.
type Builder struct {
	cfg        Config
	finder     RectangleFinder
	rectifier  Rectifier
	recognizer TextRecognizer
	presenter  Presenter
	logger     *slog.Logger
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithModelsDir sets the models directory used to resolve recognizer files.
func (b *Builder) WithModelsDir(dir string) *Builder {
	if dir != "" {
		b.cfg.ModelsDir = dir
	}
	return b
}

// WithRecognizerModelPath overrides the recognition model path directly.
func (b *Builder) WithRecognizerModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Recognizer.ModelPath = path
	}
	return b
}

// WithDictionaryPath overrides the dictionary path directly.
func (b *Builder) WithDictionaryPath(path string) *Builder {
	if path != "" {
		b.cfg.Recognizer.DictPath = path
	}
	return b
}

// WithRecognizerBackend selects "onnx" or "tesseract".
func (b *Builder) WithRecognizerBackend(backend string) *Builder {
	if backend != "" {
		b.cfg.Recognizer.Backend = backend
	}
	return b
}

// WithRecognitionMode selects accurate or fast recognition.
func (b *Builder) WithRecognitionMode(mode recognizer.Mode) *Builder {
	if mode != "" {
		b.cfg.Recognizer.Mode = mode
	}
	return b
}

// WithThreads sets the recognizer intra-op thread count (if > 0).
func (b *Builder) WithThreads(n int) *Builder {
	if n > 0 {
		b.cfg.Recognizer.NumThreads = n
	}
	return b
}

// WithAspectRatioBand sets the accepted card aspect ratio band.
func (b *Builder) WithAspectRatioBand(minRatio, maxRatio float64) *Builder {
	b.cfg.Detector.MinAspectRatio = minRatio
	b.cfg.Detector.MaxAspectRatio = maxRatio
	return b
}

// WithMinSize sets the minimum card size relative to the frame's shorter side.
func (b *Builder) WithMinSize(size float64) *Builder {
	b.cfg.Detector.MinSize = size
	return b
}

// WithMinConfidence sets the line confidence needed for classification.
func (b *Builder) WithMinConfidence(c float64) *Builder {
	b.cfg.MinConfidence = c
	return b
}

// WithHolderName toggles capturing the card holder name.
func (b *Builder) WithHolderName(enabled bool) *Builder {
	b.cfg.CaptureHolderName = enabled
	return b
}

// WithReleaseMode selects when the gate reopens after a result.
func (b *Builder) WithReleaseMode(mode ReleaseMode) *Builder {
	if mode != "" {
		b.cfg.ReleaseMode = mode
	}
	return b
}

// WithWarmupIterations sets the number of recognizer warmup runs.
func (b *Builder) WithWarmupIterations(n int) *Builder {
	if n >= 0 {
		b.cfg.WarmupIterations = n
	}
	return b
}

// WithFinder injects a rectangle finder.
func (b *Builder) WithFinder(f RectangleFinder) *Builder {
	b.finder = f
	return b
}

// WithRectifier injects a rectifier.
func (b *Builder) WithRectifier(r Rectifier) *Builder {
	b.rectifier = r
	return b
}

// WithRecognizer injects a text recognizer. The scanner does not close
// injected recognizers.
func (b *Builder) WithRecognizer(r TextRecognizer) *Builder {
	b.recognizer = r
	return b
}

// WithPresenter sets the presenter. Defaults to NopPresenter.
func (b *Builder) WithPresenter(p Presenter) *Builder {
	b.presenter = p
	return b
}

// WithLogger sets the logger. Defaults to slog.Default().
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Config returns the current configuration.
func (b *Builder) Config() Config { return b.cfg }

type warmer interface {
	Warmup(iterations int) error
}

// Build validates the configuration, creates missing components and starts
// the recognition worker.
func (b *Builder) Build() (*Scanner, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	finder := b.finder
	if finder == nil {
		d, err := detector.New(b.cfg.Detector)
		if err != nil {
			return nil, fmt.Errorf("failed to create detector: %w", err)
		}
		finder = d
	}

	rect := b.rectifier
	if rect == nil {
		rect = rectify.New(b.cfg.Rectifier)
	}

	var owned recognizer.Engine
	rec := b.recognizer
	if rec == nil {
		rcfg := b.cfg.Recognizer
		rcfg.ResolvePaths(b.cfg.ModelsDir)
		eng, err := recognizer.New(rcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create recognizer: %w", err)
		}
		if w, ok := eng.(warmer); ok && b.cfg.WarmupIterations > 0 {
			if err := w.Warmup(b.cfg.WarmupIterations); err != nil {
				_ = eng.Close()
				return nil, err
			}
		}
		rec, owned = eng, eng
	}

	presenter := b.presenter
	if presenter == nil {
		presenter = NopPresenter{}
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scanner{
		finder:      finder,
		rectifier:   rect,
		recognizer:  rec,
		owned:       owned,
		presenter:   presenter,
		classifier:  &fields.Classifier{MinConfidence: b.cfg.MinConfidence, CaptureHolderName: b.cfg.CaptureHolderName},
		releaseMode: b.cfg.ReleaseMode,
		logger:      logger,
		gate:        NewGate(),
		jobs:        make(chan job, 1),
		done:        make(chan struct{}),
		ctx:         context.Background(),
	}
	go s.worker()
	return s, nil
}
