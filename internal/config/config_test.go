package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
	"github.com/MeKo-Tech/cardscan/internal/recognizer"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, models.DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, recognizer.BackendONNX, cfg.Recognizer.Backend)
	assert.Equal(t, string(pipeline.ReleaseOnAck), cfg.Pipeline.ReleaseMode)
	assert.InDelta(t, 1.0, cfg.Classifier.MinConfidence, 1e-9)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"aspect band", func(c *Config) { c.Detector.MinAspectRatio = 2; c.Detector.MaxAspectRatio = 1.5 }, "detector"},
		{"negative min area", func(c *Config) { c.Rectifier.MinArea = -1 }, "rectifier"},
		{"backend", func(c *Config) { c.Recognizer.Backend = "magic" }, "recognizer"},
		{"mode", func(c *Config) { c.Recognizer.Mode = "slow" }, "recognizer"},
		{"release mode", func(c *Config) { c.Pipeline.ReleaseMode = "never" }, "pipeline"},
		{"min confidence", func(c *Config) { c.Classifier.MinConfidence = 1.5 }, "pipeline"},
		{"fps", func(c *Config) { c.Source.FPS = -1 }, "fps"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"frame size", func(c *Config) { c.Server.MaxFrameMB = 0 }, "max_frame_mb"},
		{"shutdown", func(c *Config) { c.Server.ShutdownTimeout = -3 }, "shutdown_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAcceptsUpperCaseLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "DEBUG"
	assert.NoError(t, cfg.Validate())
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelsDir = "/opt/models"
	cfg.Detector.MinSize = 0.3
	cfg.Classifier.MinConfidence = 0.5
	cfg.Classifier.CaptureHolderName = true
	cfg.Pipeline.ReleaseMode = string(pipeline.ReleaseImmediate)
	cfg.Pipeline.WarmupIterations = 2
	cfg.Recognizer.Mode = string(recognizer.ModeFast)
	cfg.Recognizer.ModelPath = "/tmp/rec.onnx"
	cfg.GPU.Enabled = true
	cfg.GPU.Device = 1

	pc := cfg.ToPipelineConfig()
	require.NoError(t, pc.Validate())
	assert.Equal(t, "/opt/models", pc.ModelsDir)
	assert.InDelta(t, 0.3, pc.Detector.MinSize, 1e-9)
	assert.InDelta(t, 0.5, pc.MinConfidence, 1e-9)
	assert.True(t, pc.CaptureHolderName)
	assert.Equal(t, pipeline.ReleaseImmediate, pc.ReleaseMode)
	assert.Equal(t, 2, pc.WarmupIterations)
	assert.Equal(t, recognizer.ModeFast, pc.Recognizer.Mode)
	assert.Equal(t, "/tmp/rec.onnx", pc.Recognizer.ModelPath)
	assert.Empty(t, pc.Recognizer.DictPath)
	assert.True(t, pc.Recognizer.GPU.UseGPU)
	assert.Equal(t, 1, pc.Recognizer.GPU.DeviceID)
}

func TestToRectifierConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rectifier.MinArea = 100
	rc := cfg.ToRectifierConfig()
	assert.InDelta(t, 100.0, rc.MinArea, 1e-9)
	assert.InDelta(t, cfg.Rectifier.CollinearEpsilon, rc.CollinearEpsilon, 1e-9)
}
