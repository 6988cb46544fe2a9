package detector

import "github.com/MeKo-Tech/cardscan/internal/mempool"

// closeMask applies a morphological closing (dilate then erode) with a
// square kernel of the given radius. It bridges the thin gaps glare and
// print leave in a card's outline. The result replaces mask in place.
func closeMask(mask []bool, w, h, radius int) {
	if radius <= 0 {
		return
	}
	tmp := mempool.GetBool(w * h)
	defer mempool.PutBool(tmp)

	dilateMask(mask, tmp, w, h, radius)
	erodeMask(tmp, mask, w, h, radius)
}

// dilateMask sets dst to true wherever any pixel of src within radius is set.
// Rows and columns are processed separately.
func dilateMask(src, dst []bool, w, h, radius int) {
	row := mempool.GetBool(w * h)
	defer mempool.PutBool(row)

	for y := range h {
		for x := range w {
			v := false
			for k := max(x-radius, 0); k <= min(x+radius, w-1) && !v; k++ {
				v = src[y*w+k]
			}
			row[y*w+x] = v
		}
	}
	for y := range h {
		for x := range w {
			v := false
			for k := max(y-radius, 0); k <= min(y+radius, h-1) && !v; k++ {
				v = row[k*w+x]
			}
			dst[y*w+x] = v
		}
	}
}

// erodeMask keeps a pixel only if every pixel of src within radius is set.
// Pixels outside the image count as set so shapes at the border do not shrink.
func erodeMask(src, dst []bool, w, h, radius int) {
	row := mempool.GetBool(w * h)
	defer mempool.PutBool(row)

	for y := range h {
		for x := range w {
			v := true
			for k := max(x-radius, 0); k <= min(x+radius, w-1) && v; k++ {
				v = src[y*w+k]
			}
			row[y*w+x] = v
		}
	}
	for y := range h {
		for x := range w {
			v := true
			for k := max(y-radius, 0); k <= min(y+radius, h-1) && v; k++ {
				v = row[k*w+x]
			}
			dst[y*w+x] = v
		}
	}
}
