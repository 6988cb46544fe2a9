package recognizer

import (
	"image"

	"github.com/MeKo-Tech/cardscan/internal/utils"
)

const (
	inkDelta      = 48   // gray levels between ink and the dominant background
	minLineHeight = 6    // pixels
	maxRowGap     = 1    // rows without ink tolerated inside a line
	solidRowRatio = 0.9  // rows this inked are edges or bars, not text
	linePadding   = 3    // pixels added around each strip
	minRowInkFrac = 0.01 // share of a row that must be ink
)

// SegmentLines splits a rectified card into horizontal text strips using
// the row projection profile of pixels that differ from the dominant
// background level. Strips are returned top to bottom in img coordinates.
func SegmentLines(img image.Image) []image.Rectangle {
	gray, w, h, err := utils.Luminance(img)
	if err != nil || w == 0 || h == 0 {
		return nil
	}
	bg := dominantLevel(gray)
	ink := func(v uint8) bool {
		d := int(v) - int(bg)
		return d > inkDelta || d < -inkDelta
	}

	rowInk := make([]int, h)
	for y := range h {
		n := 0
		for _, v := range gray[y*w : (y+1)*w] {
			if ink(v) {
				n++
			}
		}
		rowInk[y] = n
	}
	minInk := max(2, int(float64(w)*minRowInkFrac))
	isText := func(y int) bool {
		return rowInk[y] >= minInk && float64(rowInk[y]) < solidRowRatio*float64(w)
	}

	var strips []image.Rectangle
	for y := 0; y < h; {
		if !isText(y) {
			y++
			continue
		}
		top, bottom, gap := y, y, 0
		for y++; y < h && gap <= maxRowGap; y++ {
			if isText(y) {
				bottom, gap = y, 0
			} else {
				gap++
			}
		}
		if bottom-top+1 < minLineHeight {
			continue
		}
		left, right := columnExtent(gray, w, top, bottom, ink)
		if left > right {
			continue
		}
		r := image.Rect(left-linePadding, top-linePadding, right+1+linePadding, bottom+1+linePadding)
		strips = append(strips, r.Intersect(image.Rect(0, 0, w, h)).Add(img.Bounds().Min))
	}
	return strips
}

// columnExtent returns the first and last inked column between rows top and bottom.
func columnExtent(gray []uint8, w, top, bottom int, ink func(uint8) bool) (int, int) {
	left, right := w, -1
	for y := top; y <= bottom; y++ {
		row := gray[y*w : (y+1)*w]
		for x := 0; x < left; x++ {
			if ink(row[x]) {
				left = x
				break
			}
		}
		for x := w - 1; x > right; x-- {
			if ink(row[x]) {
				right = x
				break
			}
		}
	}
	return left, right
}

// dominantLevel returns the most frequent gray level, smoothed over a
// window of five levels.
func dominantLevel(gray []uint8) uint8 {
	var hist [256]int
	for _, v := range gray {
		hist[v]++
	}
	best, level := -1, 0
	for i := range 256 {
		s := 0
		for k := max(i-2, 0); k <= min(i+2, 255); k++ {
			s += hist[k]
		}
		if s > best {
			best, level = s, i
		}
	}
	return uint8(level)
}
