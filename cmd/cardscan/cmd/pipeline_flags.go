package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/config"
)

// addDetectorFlags registers the card outline search flags.
func addDetectorFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("min-aspect", 1.3, "minimum accepted card aspect ratio")
	cmd.Flags().Float64("max-aspect", 1.8, "maximum accepted card aspect ratio")
	cmd.Flags().Float64("min-size", 0.4, "minimum longer card side as a fraction of the shorter frame side (0..1]")
}

// addRecognizerFlags registers text recognition and classification flags.
func addRecognizerFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "onnx", "recognizer backend: onnx or tesseract")
	cmd.Flags().String("mode", "accurate", "recognition mode: accurate or fast")
	cmd.Flags().String("rec-model", "", "override recognition model path (defaults to models dir)")
	cmd.Flags().String("dict", "", "override recognition dictionary path")
	cmd.Flags().Int("threads", 0, "ONNX Runtime intra-op threads (0 = default)")
	cmd.Flags().Float64("min-confidence", 1.0, "minimum line confidence for classification (0..1)")
	cmd.Flags().Bool("holder-name", false, "also capture the card holder name")
	cmd.Flags().Bool("gpu", false, "enable GPU acceleration using CUDA")
	cmd.Flags().Int("gpu-device", 0, "CUDA device ID to use")
}

// addPipelineFlags registers everything a scan session needs.
func addPipelineFlags(cmd *cobra.Command) {
	addDetectorFlags(cmd)
	addRecognizerFlags(cmd)
	cmd.Flags().String("release-mode", "ack", "when to accept the next card after a result: ack or immediate")
	cmd.Flags().Int("warmup", 0, "recognizer warmup iterations before the first frame")
}

// resolveConfig returns the loaded configuration with every changed flag
// of cmd applied on top, validated.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := GetConfig()
	f := cmd.Flags()

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"min-aspect", func() { cfg.Detector.MinAspectRatio, _ = f.GetFloat64("min-aspect") }},
		{"max-aspect", func() { cfg.Detector.MaxAspectRatio, _ = f.GetFloat64("max-aspect") }},
		{"min-size", func() { cfg.Detector.MinSize, _ = f.GetFloat64("min-size") }},
		{"backend", func() { cfg.Recognizer.Backend, _ = f.GetString("backend") }},
		{"mode", func() { cfg.Recognizer.Mode, _ = f.GetString("mode") }},
		{"rec-model", func() { cfg.Recognizer.ModelPath, _ = f.GetString("rec-model") }},
		{"dict", func() { cfg.Recognizer.DictPath, _ = f.GetString("dict") }},
		{"threads", func() { cfg.Recognizer.NumThreads, _ = f.GetInt("threads") }},
		{"min-confidence", func() { cfg.Classifier.MinConfidence, _ = f.GetFloat64("min-confidence") }},
		{"holder-name", func() { cfg.Classifier.CaptureHolderName, _ = f.GetBool("holder-name") }},
		{"gpu", func() { cfg.GPU.Enabled, _ = f.GetBool("gpu") }},
		{"gpu-device", func() { cfg.GPU.Device, _ = f.GetInt("gpu-device") }},
		{"release-mode", func() { cfg.Pipeline.ReleaseMode, _ = f.GetString("release-mode") }},
		{"warmup", func() { cfg.Pipeline.WarmupIterations, _ = f.GetInt("warmup") }},
		{"fps", func() { cfg.Source.FPS, _ = f.GetFloat64("fps") }},
		{"watch", func() { cfg.Source.Watch, _ = f.GetBool("watch") }},
		{"host", func() { cfg.Server.Host, _ = f.GetString("host") }},
		{"port", func() { cfg.Server.Port, _ = f.GetInt("port") }},
		{"cors-origin", func() { cfg.Server.CORSOrigin, _ = f.GetString("cors-origin") }},
		{"max-frame-size", func() { cfg.Server.MaxFrameMB, _ = f.GetInt("max-frame-size") }},
		{"shutdown-timeout", func() { cfg.Server.ShutdownTimeout, _ = f.GetInt("shutdown-timeout") }},
	}
	for _, o := range overrides {
		if f.Changed(o.flag) {
			o.apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
