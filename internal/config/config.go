package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/cardscan/internal/detector"
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/onnx"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
	"github.com/MeKo-Tech/cardscan/internal/recognizer"
	"github.com/MeKo-Tech/cardscan/internal/rectify"
)

// LogLevels lists the accepted log_level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns the configuration with every component default.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	rect := rectify.DefaultConfig()
	rec := recognizer.DefaultConfig()
	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  "info",
		Verbose:   false,
		Detector: DetectorConfig{
			MinAspectRatio:  det.MinAspectRatio,
			MaxAspectRatio:  det.MaxAspectRatio,
			MinSize:         det.MinSize,
			MaxObservations: det.MaxObservations,
			MaxImageSize:    det.MaxImageSize,
			ClosingRadius:   det.ClosingRadius,
			MinFillRatio:    det.MinFillRatio,
		},
		Rectifier: RectifierConfig{
			MinArea:          rect.MinArea,
			CollinearEpsilon: rect.CollinearEpsilon,
		},
		Recognizer: RecognizerConfig{
			Backend:            rec.Backend,
			Mode:               string(rec.Mode),
			ImageHeight:        rec.ImageHeight,
			MaxWidth:           rec.MaxWidth,
			PadWidthMultiple:   rec.PadWidthMultiple,
			NumThreads:         rec.NumThreads,
			Language:           rec.Language,
			TesseractLanguage:  rec.TesseractLanguage,
			QuantizeConfidence: rec.QuantizeConfidence,
		},
		Classifier: ClassifierConfig{
			MinConfidence:     fields.DefaultMinConfidence,
			CaptureHolderName: false,
		},
		Pipeline: PipelineConfig{
			ReleaseMode: string(pipeline.ReleaseOnAck),
		},
		Source: SourceConfig{
			FPS:   30,
			Watch: false,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxFrameMB:      16,
			ShutdownTimeout: 10,
		},
		GPU: GPUConfig{
			Enabled: false,
			Device:  0,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !slices.Contains(LogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level %q (valid: %s)", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	if err := c.ToDetectorConfig().Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if c.Rectifier.MinArea < 0 || c.Rectifier.CollinearEpsilon < 0 {
		return errors.New("rectifier: min_area and collinear_epsilon must not be negative")
	}
	if err := c.ToRecognizerConfig().Validate(); err != nil {
		return fmt.Errorf("recognizer: %w", err)
	}
	if err := c.ToPipelineConfig().Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if c.Source.FPS < 0 {
		return fmt.Errorf("source fps must not be negative, got %v", c.Source.FPS)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxFrameMB < 1 {
		return fmt.Errorf("server max_frame_mb must be positive, got %d", c.Server.MaxFrameMB)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server shutdown_timeout must not be negative, got %d", c.Server.ShutdownTimeout)
	}
	return nil
}

// ToPipelineConfig converts the loaded settings into a pipeline.Config.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if c.ModelsDir != "" {
		cfg.ModelsDir = models.GetModelsDir(c.ModelsDir)
	}
	cfg.Detector = c.ToDetectorConfig()
	cfg.Rectifier = c.ToRectifierConfig()
	cfg.Recognizer = c.ToRecognizerConfig()
	cfg.MinConfidence = c.Classifier.MinConfidence
	cfg.CaptureHolderName = c.Classifier.CaptureHolderName
	cfg.ReleaseMode = pipeline.ReleaseMode(c.Pipeline.ReleaseMode)
	cfg.WarmupIterations = c.Pipeline.WarmupIterations
	return cfg
}

// ToDetectorConfig converts to detector.Config.
func (c *Config) ToDetectorConfig() detector.Config {
	return detector.Config{
		MinAspectRatio:  c.Detector.MinAspectRatio,
		MaxAspectRatio:  c.Detector.MaxAspectRatio,
		MinSize:         c.Detector.MinSize,
		MaxObservations: c.Detector.MaxObservations,
		MaxImageSize:    c.Detector.MaxImageSize,
		ClosingRadius:   c.Detector.ClosingRadius,
		MinFillRatio:    c.Detector.MinFillRatio,
	}
}

// ToRectifierConfig converts to rectify.Config.
func (c *Config) ToRectifierConfig() rectify.Config {
	cfg := rectify.DefaultConfig()
	cfg.MinArea = c.Rectifier.MinArea
	cfg.CollinearEpsilon = c.Rectifier.CollinearEpsilon
	return cfg
}

// ToRecognizerConfig converts to recognizer.Config. Model paths stay empty
// unless configured; the pipeline resolves them from the models directory.
func (c *Config) ToRecognizerConfig() recognizer.Config {
	cfg := recognizer.DefaultConfig()
	cfg.Backend = c.Recognizer.Backend
	cfg.Mode = recognizer.Mode(c.Recognizer.Mode)
	cfg.ModelPath = c.Recognizer.ModelPath
	cfg.DictPath = c.Recognizer.DictPath
	cfg.ImageHeight = c.Recognizer.ImageHeight
	cfg.MaxWidth = c.Recognizer.MaxWidth
	cfg.PadWidthMultiple = c.Recognizer.PadWidthMultiple
	cfg.NumThreads = c.Recognizer.NumThreads
	cfg.Language = c.Recognizer.Language
	cfg.TesseractLanguage = c.Recognizer.TesseractLanguage
	cfg.QuantizeConfidence = c.Recognizer.QuantizeConfidence
	cfg.GPU = c.ToGPUConfig()
	return cfg
}

// ToGPUConfig converts to onnx.GPUConfig.
func (c *Config) ToGPUConfig() onnx.GPUConfig {
	cfg := onnx.DefaultGPUConfig()
	cfg.UseGPU = c.GPU.Enabled
	cfg.DeviceID = c.GPU.Device
	cfg.GPUMemLimit = c.GPU.MemoryLimit
	return cfg
}
