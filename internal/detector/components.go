package detector

import "github.com/MeKo-Tech/cardscan/internal/geometry"

// component holds the statistics of one 4-connected region of a mask.
type component struct {
	label   int32
	count   int
	minX    int
	minY    int
	maxX    int
	maxY    int
	touches bool // reaches the image border
}

func (c component) width() int  { return c.maxX - c.minX + 1 }
func (c component) height() int { return c.maxY - c.minY + 1 }

// connectedComponents labels the 4-connected regions of mask. Labels start
// at 1; 0 marks background.
func connectedComponents(mask []bool, w, h int) ([]component, []int32) {
	labels := make([]int32, w*h)
	var comps []component
	queue := make([]int, 0, 1024)
	next := int32(1)

	for start, set := range mask {
		if !set || labels[start] != 0 {
			continue
		}
		c := component{label: next, minX: w, minY: h, maxX: -1, maxY: -1}
		labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			c.count++
			c.minX, c.maxX = min(c.minX, x), max(c.maxX, x)
			c.minY, c.maxY = min(c.minY, y), max(c.maxY, y)
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				c.touches = true
			}
			if x > 0 && mask[i-1] && labels[i-1] == 0 {
				labels[i-1] = next
				queue = append(queue, i-1)
			}
			if x < w-1 && mask[i+1] && labels[i+1] == 0 {
				labels[i+1] = next
				queue = append(queue, i+1)
			}
			if y > 0 && mask[i-w] && labels[i-w] == 0 {
				labels[i-w] = next
				queue = append(queue, i-w)
			}
			if y < h-1 && mask[i+w] && labels[i+w] == 0 {
				labels[i+w] = next
				queue = append(queue, i+w)
			}
		}
		comps = append(comps, c)
		next++
	}
	return comps, labels
}

// outline returns the pixel-corner points of the leftmost and rightmost
// pixel of every row of c, together with the area covered by those row
// spans. The convex hull of the points encloses the component exactly.
func outline(labels []int32, w int, c component) ([]geometry.Point, float64) {
	pts := make([]geometry.Point, 0, c.height()*4)
	var spanArea float64
	for y := c.minY; y <= c.maxY; y++ {
		row := labels[y*w : (y+1)*w]
		left, right := -1, -1
		for x := c.minX; x <= c.maxX; x++ {
			if row[x] == c.label {
				left = x
				break
			}
		}
		if left < 0 {
			continue
		}
		for x := c.maxX; x >= left; x-- {
			if row[x] == c.label {
				right = x
				break
			}
		}
		fy := float64(y)
		l, r := float64(left), float64(right+1)
		pts = append(pts,
			geometry.Point{X: l, Y: fy},
			geometry.Point{X: l, Y: fy + 1},
			geometry.Point{X: r, Y: fy},
			geometry.Point{X: r, Y: fy + 1},
		)
		spanArea += r - l
	}
	return pts, spanArea
}
