package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageTensor(t *testing.T) {
	ten, err := NewImageTensor(make([]float32, 3*4*5), 3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4, 5}, ten.Shape)
	assert.Equal(t, 60, ten.Elements())

	_, err = NewImageTensor(nil, 3, 4, 5)
	require.Error(t, err)
	_, err = NewImageTensor(make([]float32, 10), 3, 4, 5)
	require.Error(t, err)
	_, err = NewImageTensor(make([]float32, 0), 0, 4, 5)
	require.Error(t, err)

	assert.Equal(t, 0, Tensor{}.Elements())
}

func TestGPUConfigValidate(t *testing.T) {
	require.NoError(t, DefaultGPUConfig().Validate())

	cfg := DefaultGPUConfig()
	cfg.UseGPU = true
	require.NoError(t, cfg.Validate())

	cfg.DeviceID = -1
	require.Error(t, cfg.Validate())

	cfg.DeviceID = 0
	cfg.ArenaExtendStrategy = "always"
	require.Error(t, cfg.Validate())
}

func TestCUDASettings(t *testing.T) {
	cfg := GPUConfig{UseGPU: true, DeviceID: 1, GPUMemLimit: 1 << 30}
	s := cfg.cudaSettings()
	assert.Equal(t, "1", s["device_id"])
	assert.Equal(t, "1073741824", s["gpu_mem_limit"])
	assert.NotContains(t, s, "arena_extend_strategy")
}

func TestLibraryName(t *testing.T) {
	for goos, want := range map[string]string{
		"linux":   "libonnxruntime.so",
		"darwin":  "libonnxruntime.dylib",
		"windows": "onnxruntime.dll",
	} {
		got, err := libraryName(goos)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := libraryName("plan9")
	require.Error(t, err)
}

func TestCandidatePaths(t *testing.T) {
	t.Setenv(EnvLibraryPath, "/custom/libonnxruntime.so")

	cpu := candidatePaths(false, "/proj", "libonnxruntime.so")
	assert.Equal(t, "/custom/libonnxruntime.so", cpu[0])
	assert.Equal(t, filepath.Join("/proj", "onnxruntime", "lib", "libonnxruntime.so"), cpu[len(cpu)-1])
	for _, p := range cpu {
		assert.NotContains(t, p, "gpu")
	}

	gpu := candidatePaths(true, "/proj", "libonnxruntime.so")
	assert.Contains(t, gpu[1], "gpu")
	assert.Len(t, gpu, len(cpu)+2)
}

func TestFindProjectRoot(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o600))

	root, err := findProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}
