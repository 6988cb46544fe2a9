package detector

import (
	"errors"
	"fmt"
)

// Config holds the search constraints for card outlines.
type Config struct {
	MinAspectRatio  float64 // Longer over shorter side, lower bound
	MaxAspectRatio  float64 // Upper bound
	MinSize         float64 // Longer mean quad side relative to the frame's shorter dimension
	MaxObservations int     // Candidates returned by DetectAll
	MaxImageSize    int     // Frames are downscaled to this longer side before analysis (0 = never)
	ClosingRadius   int     // Radius of the square closing kernel (0 disables closing)
	MinFillRatio    float64 // Minimum share of the quad covered by the component
}

// DefaultConfig returns the band for ID-1 cards (ratio ~1.586).
func DefaultConfig() Config {
	return Config{
		MinAspectRatio:  1.3,
		MaxAspectRatio:  1.8,
		MinSize:         0.4,
		MaxObservations: 1,
		MaxImageSize:    640,
		ClosingRadius:   1,
		MinFillRatio:    0.85,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.MinAspectRatio < 1 {
		return fmt.Errorf("min aspect ratio must be >= 1, got %.2f", c.MinAspectRatio)
	}
	if c.MaxAspectRatio < c.MinAspectRatio {
		return fmt.Errorf("max aspect ratio %.2f below min %.2f", c.MaxAspectRatio, c.MinAspectRatio)
	}
	if c.MinSize <= 0 || c.MinSize > 1 {
		return fmt.Errorf("min size must be in (0,1], got %.2f", c.MinSize)
	}
	if c.MaxObservations < 1 {
		return errors.New("max observations must be at least 1")
	}
	if c.MaxImageSize < 0 || c.ClosingRadius < 0 {
		return errors.New("max image size and closing radius must not be negative")
	}
	if c.MinFillRatio < 0 || c.MinFillRatio > 1 {
		return fmt.Errorf("min fill ratio must be in [0,1], got %.2f", c.MinFillRatio)
	}
	return nil
}
