// Package models resolves the on-disk locations of recognition models and
// dictionaries.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// RecognitionMobile is the default CRNN text recognition model.
	RecognitionMobile = "PP-OCRv5_mobile_rec.onnx"
	// DictionaryPPOCRKeysV1 is the character dictionary for RecognitionMobile.
	DictionaryPPOCRKeysV1 = "ppocr_keys_v1.txt"

	TypeRecognition  = "recognition"
	TypeDictionaries = "dictionaries"
	VariantMobile    = "mobile"

	// DefaultModelsDir is used when nothing else is configured.
	DefaultModelsDir = "models"
	// EnvModelsDir overrides the models directory.
	EnvModelsDir = "CARDSCAN_MODELS_DIR"
)

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root (go.mod not found)")
		}
		dir = parent
	}
}

// GetModelsDir returns the models directory.
// Priority: explicit modelsDir, environment variable, project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if env := os.Getenv(EnvModelsDir); env != "" {
		return env
	}
	if root, err := findProjectRoot(); err == nil {
		return filepath.Join(root, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// ResolveModelPath prefers the organized layout (<dir>/<type>[/<variant>]/<file>)
// and falls back to a flat layout.
func ResolveModelPath(modelsDir, modelType, variant, filename string) string {
	base := GetModelsDir(modelsDir)
	if modelType != "" {
		organized := filepath.Join(base, modelType, variant, filename)
		if _, err := os.Stat(organized); err == nil {
			return organized
		}
	}
	return filepath.Join(base, filename)
}

// RecognitionModelPath returns the path of the default recognition model.
func RecognitionModelPath(modelsDir string) string {
	return ResolveModelPath(modelsDir, TypeRecognition, VariantMobile, RecognitionMobile)
}

// DictionaryPath returns the path of the default dictionary.
func DictionaryPath(modelsDir string) string {
	return ResolveModelPath(modelsDir, TypeDictionaries, "", DictionaryPPOCRKeysV1)
}

// ValidateModelExists checks that a model file exists.
func ValidateModelExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", path)
	}
	return nil
}
