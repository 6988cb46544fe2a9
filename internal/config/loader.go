package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "cardscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CARDSCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	// Use the global viper instance to ensure flag bindings work
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on a private viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from the search paths, environment variables and
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	return l.load("", true)
}

// LoadWithoutValidation is Load without the validation step.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.load("", false)
}

// LoadWithFile loads configuration from a specific file path. An empty path
// falls back to the search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	return l.load(configFile, true)
}

// LoadWithFileWithoutValidation is LoadWithFile without the validation step.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile, false)
}

func (l *Loader) load(configFile string, validate bool) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing file in the search paths is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if validate {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &config, nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// CARDSCAN_SERVER_PORT maps to server.port
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	for key, value := range defaultValues() {
		l.v.SetDefault(key, value)
	}
}

// defaultValues flattens DefaultConfig into viper keys.
func defaultValues() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"models_dir": d.ModelsDir,
		"log_level":  d.LogLevel,
		"verbose":    d.Verbose,

		"detector.min_aspect_ratio": d.Detector.MinAspectRatio,
		"detector.max_aspect_ratio": d.Detector.MaxAspectRatio,
		"detector.min_size":         d.Detector.MinSize,
		"detector.max_observations": d.Detector.MaxObservations,
		"detector.max_image_size":   d.Detector.MaxImageSize,
		"detector.closing_radius":   d.Detector.ClosingRadius,
		"detector.min_fill_ratio":   d.Detector.MinFillRatio,

		"rectifier.min_area":          d.Rectifier.MinArea,
		"rectifier.collinear_epsilon": d.Rectifier.CollinearEpsilon,

		"recognizer.backend":             d.Recognizer.Backend,
		"recognizer.mode":                d.Recognizer.Mode,
		"recognizer.model_path":          d.Recognizer.ModelPath,
		"recognizer.dict_path":           d.Recognizer.DictPath,
		"recognizer.image_height":        d.Recognizer.ImageHeight,
		"recognizer.max_width":           d.Recognizer.MaxWidth,
		"recognizer.pad_width_multiple":  d.Recognizer.PadWidthMultiple,
		"recognizer.num_threads":         d.Recognizer.NumThreads,
		"recognizer.language":            d.Recognizer.Language,
		"recognizer.tesseract_language":  d.Recognizer.TesseractLanguage,
		"recognizer.quantize_confidence": d.Recognizer.QuantizeConfidence,

		"classifier.min_confidence":      d.Classifier.MinConfidence,
		"classifier.capture_holder_name": d.Classifier.CaptureHolderName,

		"pipeline.release_mode":      d.Pipeline.ReleaseMode,
		"pipeline.warmup_iterations": d.Pipeline.WarmupIterations,

		"source.fps":   d.Source.FPS,
		"source.watch": d.Source.Watch,

		"server.host":             d.Server.Host,
		"server.port":             d.Server.Port,
		"server.cors_origin":      d.Server.CORSOrigin,
		"server.max_frame_mb":     d.Server.MaxFrameMB,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,

		"gpu.enabled":      d.GPU.Enabled,
		"gpu.device":       d.GPU.Device,
		"gpu.memory_limit": d.GPU.MemoryLimit,
	}
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes the defaults to filename (cardscan.yaml
// when empty).
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoaderWithViper(viper.New())
	loader.setDefaults()
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(configDir, "cardscan"))
	} else if homeErr == nil {
		paths = append(paths, filepath.Join(home, ".config", "cardscan"))
	}
	return append(paths, "/etc/cardscan")
}
