package detector

// otsuThreshold picks the gray level that maximizes between-class variance
// of an 8-bit image. Pixels > t belong to the bright class.
func otsuThreshold(gray []uint8) uint8 {
	if len(gray) == 0 {
		return 127
	}
	var hist [256]int
	for _, v := range gray {
		hist[v]++
	}

	total := float64(len(gray))
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}

	var sumB, wB, best float64
	threshold := 0
	for t := range 256 {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = t
		}
	}
	return uint8(threshold)
}

// binarize fills mask with the pixels above t, or at or below t when dark
// is set.
func binarize(gray []uint8, t uint8, dark bool, mask []bool) {
	for i, v := range gray {
		mask[i] = (v > t) != dark
	}
}

// contrast is the difference of the class means on either side of t.
func contrast(gray []uint8, t uint8) float64 {
	var lo, hi, nlo, nhi float64
	for _, v := range gray {
		if v > t {
			hi += float64(v)
			nhi++
		} else {
			lo += float64(v)
			nlo++
		}
	}
	if nlo == 0 || nhi == 0 {
		return 0
	}
	return hi/nhi - lo/nlo
}
