package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskFrom(rows ...string) ([]bool, int, int) {
	h := len(rows)
	w := len(rows[0])
	m := make([]bool, w*h)
	for y, r := range rows {
		for x, ch := range r {
			m[y*w+x] = ch == '#'
		}
	}
	return m, w, h
}

func TestOtsuThreshold_Bimodal(t *testing.T) {
	gray := make([]uint8, 0, 200)
	for range 100 {
		gray = append(gray, 40)
	}
	for range 100 {
		gray = append(gray, 200)
	}
	th := otsuThreshold(gray)
	assert.GreaterOrEqual(t, th, uint8(40))
	assert.Less(t, th, uint8(200))
	assert.InDelta(t, 160, contrast(gray, th), 1e-9)
}

func TestOtsuThreshold_Degenerate(t *testing.T) {
	assert.Equal(t, uint8(127), otsuThreshold(nil))

	uniform := []uint8{90, 90, 90, 90}
	assert.InDelta(t, 0, contrast(uniform, otsuThreshold(uniform)), 1e-9)
}

func TestBinarize_Polarity(t *testing.T) {
	gray := []uint8{10, 100, 200}
	mask := make([]bool, 3)

	binarize(gray, 100, false, mask)
	assert.Equal(t, []bool{false, false, true}, mask)

	binarize(gray, 100, true, mask)
	assert.Equal(t, []bool{true, true, false}, mask)
}

func TestCloseMask_BridgesGap(t *testing.T) {
	mask, w, h := maskFrom(
		".........",
		".........",
		"..##.##..",
		"..##.##..",
		".........",
		".........",
	)
	closeMask(mask, w, h, 1)

	want, _, _ := maskFrom(
		".........",
		".........",
		"..#####..",
		"..#####..",
		".........",
		".........",
	)
	assert.Equal(t, want, mask)
}

func TestCloseMask_ZeroRadius(t *testing.T) {
	mask, w, h := maskFrom("#.#")
	closeMask(mask, w, h, 0)
	assert.Equal(t, []bool{true, false, true}, mask)
}

func TestConnectedComponents(t *testing.T) {
	mask, w, h := maskFrom(
		"##....",
		"##..#.",
		"....#.",
		"......",
	)
	comps, labels := connectedComponents(mask, w, h)
	require.Len(t, comps, 2)

	assert.Equal(t, 4, comps[0].count)
	assert.True(t, comps[0].touches)
	assert.Equal(t, 2, comps[1].count)
	assert.False(t, comps[1].touches)
	assert.Equal(t, 1, comps[1].width())
	assert.Equal(t, 2, comps[1].height())
	assert.Equal(t, comps[1].label, labels[1*w+4])
	assert.Equal(t, int32(0), labels[3*w+5])
}

func TestConnectedComponents_DiagonalIsSeparate(t *testing.T) {
	mask, w, h := maskFrom(
		"#.",
		".#",
	)
	comps, _ := connectedComponents(mask, w, h)
	assert.Len(t, comps, 2)
}

func TestOutline_SpanArea(t *testing.T) {
	mask, w, h := maskFrom(
		"......",
		".###..",
		".#.##.",
		"......",
	)
	comps, labels := connectedComponents(mask, w, h)
	require.Len(t, comps, 1)

	pts, area := outline(labels, w, comps[0])
	assert.Len(t, pts, 8)
	// Row spans include the interior hole: 3 + 4.
	assert.InDelta(t, 7, area, 1e-9)
}
