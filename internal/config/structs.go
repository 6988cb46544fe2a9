//nolint:lll
package config

// Config is the complete cardscan configuration, loaded from cardscan.yaml,
// CARDSCAN_* environment variables and command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detector   DetectorConfig   `mapstructure:"detector" yaml:"detector" json:"detector"`
	Rectifier  RectifierConfig  `mapstructure:"rectifier" yaml:"rectifier" json:"rectifier"`
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier" json:"classifier"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Frame source for the scan command
	Source SourceConfig `mapstructure:"source" yaml:"source" json:"source"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// GPU configuration
	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// DetectorConfig contains card outline search settings.
type DetectorConfig struct {
	MinAspectRatio  float64 `mapstructure:"min_aspect_ratio" yaml:"min_aspect_ratio" json:"min_aspect_ratio"`
	MaxAspectRatio  float64 `mapstructure:"max_aspect_ratio" yaml:"max_aspect_ratio" json:"max_aspect_ratio"`
	MinSize         float64 `mapstructure:"min_size" yaml:"min_size" json:"min_size"`
	MaxObservations int     `mapstructure:"max_observations" yaml:"max_observations" json:"max_observations"`
	MaxImageSize    int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
	ClosingRadius   int     `mapstructure:"closing_radius" yaml:"closing_radius" json:"closing_radius"`
	MinFillRatio    float64 `mapstructure:"min_fill_ratio" yaml:"min_fill_ratio" json:"min_fill_ratio"`
}

// RectifierConfig contains perspective correction settings.
type RectifierConfig struct {
	MinArea          float64 `mapstructure:"min_area" yaml:"min_area" json:"min_area"`
	CollinearEpsilon float64 `mapstructure:"collinear_epsilon" yaml:"collinear_epsilon" json:"collinear_epsilon"`
}

// RecognizerConfig contains text recognition settings.
type RecognizerConfig struct {
	Backend            string `mapstructure:"backend" yaml:"backend" json:"backend"`
	Mode               string `mapstructure:"mode" yaml:"mode" json:"mode"`
	ModelPath          string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	DictPath           string `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	ImageHeight        int    `mapstructure:"image_height" yaml:"image_height" json:"image_height"`
	MaxWidth           int    `mapstructure:"max_width" yaml:"max_width" json:"max_width"`
	PadWidthMultiple   int    `mapstructure:"pad_width_multiple" yaml:"pad_width_multiple" json:"pad_width_multiple"`
	NumThreads         int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	Language           string `mapstructure:"language" yaml:"language" json:"language"`
	TesseractLanguage  string `mapstructure:"tesseract_language" yaml:"tesseract_language" json:"tesseract_language"`
	QuantizeConfidence bool   `mapstructure:"quantize_confidence" yaml:"quantize_confidence" json:"quantize_confidence"`
}

// ClassifierConfig contains field classification settings.
type ClassifierConfig struct {
	MinConfidence     float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	CaptureHolderName bool    `mapstructure:"capture_holder_name" yaml:"capture_holder_name" json:"capture_holder_name"`
}

// PipelineConfig contains scan session settings.
type PipelineConfig struct {
	ReleaseMode      string `mapstructure:"release_mode" yaml:"release_mode" json:"release_mode"`
	WarmupIterations int    `mapstructure:"warmup_iterations" yaml:"warmup_iterations" json:"warmup_iterations"`
}

// SourceConfig contains directory replay settings.
type SourceConfig struct {
	FPS   float64 `mapstructure:"fps" yaml:"fps" json:"fps"`
	Watch bool    `mapstructure:"watch" yaml:"watch" json:"watch"`
}

// ServerConfig contains WebSocket server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxFrameMB      int    `mapstructure:"max_frame_mb" yaml:"max_frame_mb" json:"max_frame_mb"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit uint64 `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}
