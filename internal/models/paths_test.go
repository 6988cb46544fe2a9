package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelsDir_Priority(t *testing.T) {
	assert.Equal(t, "/explicit", GetModelsDir("/explicit"))

	t.Setenv(EnvModelsDir, "/from/env")
	assert.Equal(t, "/from/env", GetModelsDir(""))
}

func TestResolveModelPath_OrganizedThenFlat(t *testing.T) {
	dir := t.TempDir()

	flat := RecognitionModelPath(dir)
	assert.Equal(t, filepath.Join(dir, RecognitionMobile), flat)

	organized := filepath.Join(dir, TypeRecognition, VariantMobile, RecognitionMobile)
	require.NoError(t, os.MkdirAll(filepath.Dir(organized), 0o750))
	require.NoError(t, os.WriteFile(organized, []byte("onnx"), 0o600))
	assert.Equal(t, organized, RecognitionModelPath(dir))

	assert.Equal(t, filepath.Join(dir, DictionaryPPOCRKeysV1), DictionaryPath(dir))
}

func TestValidateModelExists(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, ValidateModelExists(filepath.Join(dir, "missing.onnx")))

	p := filepath.Join(dir, "m.onnx")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	require.NoError(t, ValidateModelExists(p))
}
