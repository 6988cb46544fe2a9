package pipeline

import (
	"fmt"

	"github.com/MeKo-Tech/cardscan/internal/detector"
	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/recognizer"
	"github.com/MeKo-Tech/cardscan/internal/rectify"
)

// ReleaseMode selects when the gate reopens after a complete result.
type ReleaseMode string

const (
	// ReleaseOnAck reopens the gate when the presenter acknowledges the result.
	ReleaseOnAck ReleaseMode = "ack"
	// ReleaseImmediate reopens the gate before the result is presented.
	ReleaseImmediate ReleaseMode = "immediate"
)

// Config holds configuration for the scan pipeline and its components.
type Config struct {
	ModelsDir         string
	Detector          detector.Config
	Rectifier         rectify.Config
	Recognizer        recognizer.Config
	MinConfidence     float64
	CaptureHolderName bool
	ReleaseMode       ReleaseMode
	WarmupIterations  int // optional warmup runs of the recognizer
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir:     models.GetModelsDir(""),
		Detector:      detector.DefaultConfig(),
		Rectifier:     rectify.DefaultConfig(),
		Recognizer:    recognizer.DefaultConfig(),
		MinConfidence: fields.DefaultMinConfidence,
		ReleaseMode:   ReleaseOnAck,
	}
}

// Validate checks the pipeline level settings and the detector config.
func (c Config) Validate() error {
	switch c.ReleaseMode {
	case ReleaseOnAck, ReleaseImmediate:
	default:
		return fmt.Errorf("invalid release mode %q (want %q or %q)", c.ReleaseMode, ReleaseOnAck, ReleaseImmediate)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if c.WarmupIterations < 0 {
		return fmt.Errorf("warmup iterations must not be negative, got %d", c.WarmupIterations)
	}
	return c.Detector.Validate()
}
