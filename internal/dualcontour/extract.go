package dualcontour

import (
	"context"

	"github.com/Faultbox/isomesh/internal/compact"
	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/pkg/math"
	"github.com/Faultbox/isomesh/pkg/sdf"
)

// EdgeCrossing is where the surface crosses one lattice edge.
type EdgeCrossing struct {
	Position math.Vec3
	Normal   math.Vec3
	Valid    bool
}

// Vertex is the dual vertex placed inside one active cell.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
}

// edgeFinder locates surface crossings on lattice edges.
type edgeFinder struct {
	grid       Grid
	field      sdf.Field
	samples    []float32
	refine     int
	normalStep float32
}

// crossing returns the crossing on the edge from lattice point p0 toward
// +axis, or an invalid record if the edge has no sign change.
func (ef *edgeFinder) crossing(p0 [3]int, axis int) EdgeCrossing {
	g := ef.grid
	i0 := g.pointIndex(p0)
	f0 := ef.samples[i0] - g.IsoValue
	f1 := ef.samples[i0+g.pointStride(axis)] - g.IsoValue
	if (f0 < 0) == (f1 < 0) {
		return EdgeCrossing{}
	}
	a := g.pointAt(p0)
	b := g.pointAt(add(p0, unit(axis)))
	pos := a.Lerp(b, ef.locate(a, b, f0, f1))
	return EdgeCrossing{
		Position: pos,
		Normal:   sdf.Normal(ef.field, pos, ef.normalStep),
		Valid:    true,
	}
}

// locate finds the iso crossing parameter on segment ab by linear
// interpolation, refined with regula falsi steps against the field.
func (ef *edgeFinder) locate(a, b math.Vec3, fa, fb float32) float32 {
	tLo, tHi := float32(0), float32(1)
	fLo, fHi := fa, fb
	t := fa / (fa - fb)
	for s := 0; s < ef.refine; s++ {
		ft := ef.field.Evaluate(a.Lerp(b, t)) - ef.grid.IsoValue
		if ft == 0 {
			break
		}
		if (ft < 0) == (fLo < 0) {
			tLo, fLo = t, ft
		} else {
			tHi, fHi = t, ft
		}
		t = tLo + fLo*(tHi-tLo)/(fLo-fHi)
	}
	return min(max(t, 0), 1)
}

// findCrossings computes the crossings on the three forward edges (from
// the min corner) of every active cell. Record 3*d+axis belongs to dense
// cell d.
func findCrossings(ctx context.Context, p *kernel.Pool, ef *edgeFinder, cells compact.Result) ([]EdgeCrossing, error) {
	crossings := make([]EdgeCrossing, 3*int(cells.Count))
	err := p.Dispatch(ctx, int(cells.Count), func(d int) {
		cell := ef.grid.cellCoords(int(cells.Index[d]))
		for axis := 0; axis < 3; axis++ {
			crossings[3*d+axis] = ef.crossing(cell, axis)
		}
	})
	if err != nil {
		return nil, err
	}
	return crossings, nil
}

// vertexPlacer solves one QEF per active cell.
type vertexPlacer struct {
	ef        *edgeFinder
	cells     compact.Result
	denseOf   []int32
	crossings []EdgeCrossing
}

// edgeCorners are the (u, v) offsets of the four cell edges parallel to an axis.
var edgeCorners = [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// crossingAt returns the crossing on the edge from p0 toward +axis. The
// edge is owned by the cell whose min corner is p0; owners past the far
// grid faces have no record, so their edges are computed here.
func (vp *vertexPlacer) crossingAt(p0 [3]int, axis int) EdgeCrossing {
	g := vp.ef.grid
	dims := g.cellDims()
	if p0[0] < dims[0] && p0[1] < dims[1] && p0[2] < dims[2] {
		d := vp.denseOf[g.cellIndex(p0)]
		if d < 0 {
			return EdgeCrossing{}
		}
		return vp.crossings[3*int(d)+axis]
	}
	return vp.ef.crossing(p0, axis)
}

// place fills vertices[d] for every active cell and reports which cells
// produced a vertex.
func (vp *vertexPlacer) place(ctx context.Context, p *kernel.Pool) ([]Vertex, []bool, error) {
	n := int(vp.cells.Count)
	vertices := make([]Vertex, n)
	solved := make([]bool, n)
	g := vp.ef.grid

	err := p.DispatchRange(ctx, n, func(lo, hi int) {
		var solver qefSolver
		for d := lo; d < hi; d++ {
			cell := g.cellCoords(int(vp.cells.Index[d]))
			var q QEF
			var normal math.Vec3
			for axis := 0; axis < 3; axis++ {
				u, v := (axis+1)%3, (axis+2)%3
				for _, off := range edgeCorners {
					p0 := cell
					p0[u] += off[0]
					p0[v] += off[1]
					x := vp.crossingAt(p0, axis)
					if !x.Valid {
						continue
					}
					q.Add(x.Position, x.Normal)
					normal = normal.Add(x.Normal)
				}
			}
			// A flagged cell always has a sign change on some edge; skip
			// rather than solve an empty system if that ever fails.
			if q.Count == 0 {
				continue
			}
			cellMin := g.pointAt(cell)
			cellMax := g.pointAt(add(cell, [3]int{1, 1, 1}))
			vertices[d] = Vertex{
				Position: solver.solve(&q, cellMin, cellMax),
				Normal:   normal.Normalize(),
			}
			solved[d] = true
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return vertices, solved, nil
}
