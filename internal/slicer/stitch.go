package slicer

import (
	"cmp"
	"slices"

	"github.com/Faultbox/isomesh/pkg/math"
	"github.com/Faultbox/isomesh/pkg/stl"
)

// emitter forwards triangles to the sink and counts them.
type emitter struct {
	sink  stl.Sink
	walls int
	caps  int
}

func (e *emitter) triangle(a, b, c math.Vec3) error {
	return e.sink.WriteTriangle(stl.NewTriangle(a, b, c))
}

// pairing is the result of matching the loops of two adjacent slices.
type pairing struct {
	pairs    [][2]int
	prevUsed []bool
	curUsed  []bool
}

// match pairs loops of the previous and current slice one to one. Only
// loops with the same winding and overlapping bounds are candidates;
// closer centroids win.
func match(prev, cur *Loops) pairing {
	ps := make([]loopShape, prev.Len())
	for i := range ps {
		ps[i] = describe(prev.Ring(i))
	}
	cs := make([]loopShape, cur.Len())
	for i := range cs {
		cs[i] = describe(cur.Ring(i))
	}

	type candidate struct {
		p, c int
		d    float32
	}
	var cands []candidate
	for p := range ps {
		for c := range cs {
			if ps[p].ccw() == cs[c].ccw() && ps[p].overlaps(cs[c]) {
				cands = append(cands, candidate{p: p, c: c, d: ps[p].centroid.Distance(cs[c].centroid)})
			}
		}
	}
	slices.SortFunc(cands, func(a, b candidate) int {
		if r := cmp.Compare(a.d, b.d); r != 0 {
			return r
		}
		if r := cmp.Compare(a.p, b.p); r != 0 {
			return r
		}
		return cmp.Compare(a.c, b.c)
	})

	m := pairing{prevUsed: make([]bool, len(ps)), curUsed: make([]bool, len(cs))}
	for _, cd := range cands {
		if m.prevUsed[cd.p] || m.curUsed[cd.c] {
			continue
		}
		m.prevUsed[cd.p], m.curUsed[cd.c] = true, true
		m.pairs = append(m.pairs, [2]int{cd.p, cd.c})
	}
	return m
}

// nearest returns the index of the ring vertex closest to p.
func nearest(ring []math.Vec2, p math.Vec2) int {
	best, bestD := 0, ring[0].Distance(p)
	for i, v := range ring[1:] {
		if d := v.Distance(p); d < bestD {
			best, bestD = i+1, d
		}
	}
	return best
}

// wall joins ring prev at z0 to ring cur at z1 with a closed triangle
// strip. At each step the strip advances on the ring whose new diagonal
// is shorter, so the rings may differ in length. Both rings keep the solid
// on their left, which makes every triangle face away from it.
func (e *emitter) wall(prev, cur []math.Vec2, z0, z1 float32) error {
	n, m := len(prev), len(cur)
	r := nearest(cur, prev[0])
	P := func(i int) math.Vec3 { return prev[i%n].Vec3(z0) }
	C := func(j int) math.Vec3 { return cur[(r+j)%m].Vec3(z1) }

	for i, j := 0, 0; i < n || j < m; {
		advancePrev := j == m || (i < n && P(i+1).Distance(C(j)) <= P(i).Distance(C(j+1)))
		var err error
		if advancePrev {
			err = e.triangle(P(i), P(i+1), C(j))
			i++
		} else {
			err = e.triangle(P(i), C(j+1), C(j))
			j++
		}
		if err != nil {
			return err
		}
		e.walls++
	}
	return nil
}

// capLoop closes ring at height z. Triangles follow the ring's winding, which
// faces +z for an outer boundary; bottom caps are flipped.
func (e *emitter) capLoop(ring []math.Vec2, z float32, bottom bool) error {
	for _, t := range earClip(ring) {
		a, b, c := ring[t[0]].Vec3(z), ring[t[1]].Vec3(z), ring[t[2]].Vec3(z)
		if bottom {
			b, c = c, b
		}
		if err := e.triangle(a, b, c); err != nil {
			return err
		}
		e.caps++
	}
	return nil
}

// earClip triangulates a simple polygon. Triangles keep the polygon's
// winding. If no ear can be found, which only happens for self touching
// rings, the remainder is fanned.
func earClip(ring []math.Vec2) [][3]int {
	idx := make([]int, len(ring))
	for i := range idx {
		idx[i] = i
	}
	var sign float32 = 1
	if signedArea(ring) < 0 {
		sign = -1
	}

	tris := make([][3]int, 0, len(ring)-2)
	for len(idx) > 3 {
		clipped := false
		for k := range idx {
			a, b, c := idx[(k+len(idx)-1)%len(idx)], idx[k], idx[(k+1)%len(idx)]
			if isEar(ring, idx, a, b, c, sign) {
				tris = append(tris, [3]int{a, b, c})
				idx = slices.Delete(idx, k, k+1)
				clipped = true
				break
			}
		}
		if !clipped {
			for k := 1; k+1 < len(idx); k++ {
				tris = append(tris, [3]int{idx[0], idx[k], idx[k+1]})
			}
			return tris
		}
	}
	if len(idx) == 3 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris
}

func isEar(ring []math.Vec2, idx []int, a, b, c int, sign float32) bool {
	pa, pb, pc := ring[a], ring[b], ring[c]
	if pb.Sub(pa).Cross(pc.Sub(pb))*sign <= 0 {
		return false
	}
	for _, q := range idx {
		if q == a || q == b || q == c {
			continue
		}
		pq := ring[q]
		if pq == pa || pq == pb || pq == pc {
			continue
		}
		if pb.Sub(pa).Cross(pq.Sub(pa))*sign >= 0 &&
			pc.Sub(pb).Cross(pq.Sub(pb))*sign >= 0 &&
			pa.Sub(pc).Cross(pq.Sub(pc))*sign >= 0 {
			return false
		}
	}
	return true
}
