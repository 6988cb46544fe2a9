package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImage_BGRALayout(t *testing.T) {
	img := imaging.New(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	f, err := FromImage(img)
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, 3, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.Equal(t, 12, f.Stride)
	assert.Equal(t, []byte{30, 20, 10, 255}, f.Pix[0:4])
	assert.Equal(t, []byte{50, 100, 200, 128}, f.Pix[f.Stride+8:f.Stride+12])
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 128}, f.At(2, 1))
}

func TestFromImage_GenericAndOffset(t *testing.T) {
	gray := image.NewGray(image.Rect(4, 4, 6, 6))
	gray.SetGray(5, 5, color.Gray{Y: 77})

	f, err := FromImage(gray)
	require.NoError(t, err)
	defer f.Release()

	assert.Equal(t, image.Rect(0, 0, 2, 2), f.Bounds())
	assert.Equal(t, color.NRGBA{R: 77, G: 77, B: 77, A: 255}, f.At(1, 1))
}

func TestFromImage_Errors(t *testing.T) {
	_, err := FromImage(nil)
	require.Error(t, err)

	_, err = FromImage(image.NewNRGBA(image.Rect(0, 0, 0, 3)))
	require.Error(t, err)
}

func TestFromBGRA(t *testing.T) {
	pix := make([]byte, 2*16)
	pix[16], pix[17], pix[18], pix[19] = 1, 2, 3, 4

	f, err := FromBGRA(pix, 3, 2, 16)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 3, G: 2, B: 1, A: 4}, f.At(0, 1))
	assert.Equal(t, color.NRGBA{}, f.At(5, 5))

	// Release leaves caller memory alone.
	f.Release()
	assert.NotNil(t, f.Pix)

	_, err = FromBGRA(pix, 0, 2, 16)
	require.Error(t, err)
	_, err = FromBGRA(pix, 5, 2, 16)
	require.Error(t, err)
	_, err = FromBGRA(pix[:20], 3, 2, 16)
	require.Error(t, err)
}

func TestToNRGBA_RoundTrip(t *testing.T) {
	src := imaging.New(5, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	src.SetNRGBA(4, 3, color.NRGBA{R: 250, G: 9, B: 8, A: 255})

	f, err := FromImage(src)
	require.NoError(t, err)
	defer f.Release()

	out := f.ToNRGBA()
	assert.Equal(t, src.Pix, out.Pix)
	assert.Equal(t, color.NRGBAModel, f.ColorModel())
}
