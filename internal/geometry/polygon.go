package geometry

import (
	"math"
	"sort"
)

// PolygonArea returns the signed shoelace area. It is positive for
// counter-clockwise order in a y-up space.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var s float64
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return s / 2
}

// Perimeter returns the length of the closed outline.
func Perimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	var s float64
	for i := range pts {
		s += dist(pts[i], pts[(i+1)%len(pts)])
	}
	return s
}

// SimplifyPolygon reduces a closed polygon with the Douglas-Peucker
// algorithm. The outline is split at the vertex farthest from the first one
// so that both halves keep their true corners.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	far, farDist := 0, -1.0
	for i := 1; i < n; i++ {
		if d := dist(pts[0], pts[i]); d > farDist {
			far, farDist = i, d
		}
	}
	ring := make([]Point, n+1)
	copy(ring, pts)
	ring[n] = pts[0]

	keep := make([]bool, n+1)
	keep[0], keep[far] = true, true
	dpSimplify(ring, 0, far, epsilon, keep)
	dpSimplify(ring, far, n, epsilon, keep)

	out := make([]Point, 0, n)
	for i := range n {
		if keep[i] {
			out = append(out, ring[i])
		}
	}
	return out
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

// perpendicularDistance is the distance from p to the line through a and b,
// or to a when a and b coincide.
func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	return num / math.Hypot(vx, vy)
}

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull in CCW order (y-up) without
// duplicating the first point at the end.
func ConvexHull(pts []Point) []Point {
	if len(pts) <= 1 {
		return append([]Point(nil), pts...)
	}
	p := make([]Point, len(pts))
	copy(p, pts)
	sort.Slice(p, func(i, j int) bool {
		if p[i].X != p[j].X {
			return p[i].X < p[j].X
		}
		return p[i].Y < p[j].Y
	})
	p = removeDuplicatePoints(p)
	if len(p) <= 1 {
		return p
	}
	lower := halfHull(p, 1)
	upper := halfHull(p, -1)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func removeDuplicatePoints(p []Point) []Point {
	q := p[:1]
	for _, pt := range p[1:] {
		last := q[len(q)-1]
		if pt.X != last.X || pt.Y != last.Y {
			q = append(q, pt)
		}
	}
	return q
}

// halfHull walks the sorted points forwards (dir 1) or backwards (dir -1).
func halfHull(p []Point, dir int) []Point {
	h := make([]Point, 0, len(p))
	i, end := 0, len(p)
	if dir < 0 {
		i, end = len(p)-1, -1
	}
	for ; i != end; i += dir {
		pt := p[i]
		for len(h) >= 2 && cross(h[len(h)-2], h[len(h)-1], pt) <= 0 {
			h = h[:len(h)-1]
		}
		h = append(h, pt)
	}
	return h
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// MinimumAreaRectangle computes the minimum-area enclosing rectangle with
// rotating calipers over the convex hull. Returns 4 points in hull order,
// or nil when fewer than three distinct points are given.
func MinimumAreaRectangle(pts []Point) []Point {
	hull := ConvexHull(pts)
	if len(hull) < 3 {
		return nil
	}
	bestArea := math.Inf(1)
	var bestU, bestV Point
	var bestMinS, bestMaxS, bestMinT, bestMaxT float64
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		l := dist(a, b)
		if l == 0 {
			continue
		}
		ux, uy := (b.X-a.X)/l, (b.Y-a.Y)/l
		vx, vy := -uy, ux
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			minS, maxS = math.Min(minS, s), math.Max(maxS, s)
			minT, maxT = math.Min(minT, t), math.Max(maxT, t)
		}
		if area := (maxS - minS) * (maxT - minT); area < bestArea {
			bestArea = area
			bestU = Point{ux, uy}
			bestV = Point{vx, vy}
			bestMinS, bestMaxS, bestMinT, bestMaxT = minS, maxS, minT, maxT
		}
	}
	corner := func(s, t float64) Point {
		return Point{X: bestU.X*s + bestV.X*t, Y: bestU.Y*s + bestV.Y*t}
	}
	return []Point{
		corner(bestMinS, bestMinT),
		corner(bestMaxS, bestMinT),
		corner(bestMaxS, bestMaxT),
		corner(bestMinS, bestMaxT),
	}
}

// ApproximateQuad reduces a convex outline to four corners. It raises the
// Douglas-Peucker tolerance from 1% to 10% of the perimeter until exactly
// four vertices remain and falls back to the minimum-area rectangle.
func ApproximateQuad(hull []Point) []Point {
	if len(hull) < 4 {
		return MinimumAreaRectangle(hull)
	}
	per := Perimeter(hull)
	for frac := 0.01; frac <= 0.1; frac += 0.01 {
		simplified := SimplifyPolygon(hull, per*frac)
		if len(simplified) == 4 {
			return simplified
		}
		if len(simplified) < 4 {
			break
		}
	}
	return MinimumAreaRectangle(hull)
}

// OrderCorners sorts four corners given in image coordinates (y down) into
// top-left, top-right, bottom-right and bottom-left.
func OrderCorners(pts []Point) (tl, tr, br, bl Point) {
	if len(pts) == 0 {
		return
	}
	tl, tr, br, bl = pts[0], pts[0], pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}
	return tl, tr, br, bl
}
