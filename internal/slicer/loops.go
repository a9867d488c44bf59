package slicer

import (
	"github.com/Faultbox/isomesh/pkg/math"
)

// Loops is the loop buffer of one slice. Loop i occupies
// Verts[Starts[i]:Starts[i+1]] and repeats its first vertex at the end.
type Loops struct {
	Verts  []math.Vec2
	Starts []int
}

// Len returns the number of loops.
func (l *Loops) Len() int {
	if len(l.Starts) == 0 {
		return 0
	}
	return len(l.Starts) - 1
}

// Loop returns loop i including the closing vertex.
func (l *Loops) Loop(i int) []math.Vec2 {
	return l.Verts[l.Starts[i]:l.Starts[i+1]]
}

// Ring returns loop i without the closing vertex.
func (l *Loops) Ring(i int) []math.Vec2 {
	return l.Verts[l.Starts[i] : l.Starts[i+1]-1]
}

// Reset empties the buffer and keeps its storage.
func (l *Loops) Reset() {
	l.Verts = l.Verts[:0]
	l.Starts = append(l.Starts[:0], 0)
}

func (l *Loops) begin() int {
	if len(l.Starts) == 0 {
		l.Starts = append(l.Starts, 0)
	}
	return len(l.Verts)
}

// push appends v unless it repeats the previous vertex of the open loop.
// Zero length segments appear where the field is exactly the iso value at
// a lattice point.
func (l *Loops) push(v math.Vec2) {
	if n := len(l.Verts); n > l.Starts[len(l.Starts)-1] && l.Verts[n-1] == v {
		return
	}
	l.Verts = append(l.Verts, v)
}

// end closes the loop opened at mark. Loops with fewer than three distinct
// vertices enclose nothing and are dropped.
func (l *Loops) end(mark int) {
	if n := len(l.Verts); n-mark > 1 && l.Verts[n-1] == l.Verts[mark] {
		l.Verts = l.Verts[:n-1]
	}
	if len(l.Verts)-mark < 3 {
		l.Verts = l.Verts[:mark]
		return
	}
	l.Verts = append(l.Verts, l.Verts[mark])
	l.Starts = append(l.Starts, len(l.Verts))
}

// loopShape summarizes a ring for matching across slices.
type loopShape struct {
	area     float64
	lo, hi   math.Vec2
	centroid math.Vec2
}

func describe(ring []math.Vec2) loopShape {
	s := loopShape{area: signedArea(ring), lo: ring[0], hi: ring[0]}
	var cx, cy float64
	for _, v := range ring {
		s.lo.X, s.lo.Y = min(s.lo.X, v.X), min(s.lo.Y, v.Y)
		s.hi.X, s.hi.Y = max(s.hi.X, v.X), max(s.hi.Y, v.Y)
		cx += float64(v.X)
		cy += float64(v.Y)
	}
	n := float64(len(ring))
	s.centroid = math.Vec2{X: float32(cx / n), Y: float32(cy / n)}
	return s
}

// ccw reports whether the ring winds counter-clockwise, which is the case
// for outer boundaries. Holes wind clockwise.
func (s loopShape) ccw() bool {
	return s.area >= 0
}

func (s loopShape) overlaps(o loopShape) bool {
	return s.lo.X <= o.hi.X && o.lo.X <= s.hi.X && s.lo.Y <= o.hi.Y && o.lo.Y <= s.hi.Y
}

// signedArea is the shoelace area, positive for counter-clockwise rings.
func signedArea(ring []math.Vec2) float64 {
	var a float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		a += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}
	return a / 2
}
