package utils

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("frame.PNG"))
	assert.True(t, IsSupportedImage("/tmp/a.jpeg"))
	assert.True(t, IsSupportedImage("b.bmp"))
	assert.False(t, IsSupportedImage("doc.pdf"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "frame.png")
	img := imaging.New(12, 7, color.NRGBA{R: 10, G: 200, B: 30, A: 255})

	require.NoError(t, SaveImage(img, path))

	loaded, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 12, meta.Width)
	assert.Equal(t, 7, meta.Height)
	assert.Equal(t, path, meta.Path)
	assert.Positive(t, meta.SizeBytes)

	r, g, b, _ := loaded.At(3, 3).RGBA()
	assert.Equal(t, []uint32{10, 200, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestLoadImage_Errors(t *testing.T) {
	_, _, err := LoadImage("")
	require.Error(t, err)

	_, _, err = LoadImage("card.gif")
	require.Error(t, err)

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o600))
	_, _, err = LoadImage(bad)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestDecodeImage_Empty(t *testing.T) {
	_, _, err := DecodeImage(nil)
	require.Error(t, err)
}

func TestSaveImage_Nil(t *testing.T) {
	require.Error(t, SaveImage(nil, filepath.Join(t.TempDir(), "x.png")))
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o750))

	got, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png")}, got)

	_, err = ListImages(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
