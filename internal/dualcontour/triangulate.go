package dualcontour

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/internal/compact"
	"github.com/Faultbox/isomesh/internal/kernel"
)

// quadBuilder connects the dual vertices of the four cells around each
// sign-changing lattice edge. Every active cell owns the three edges
// leaving its min corner, so each edge is considered exactly once.
type quadBuilder struct {
	grid    Grid
	samples []float32
	cells   compact.Result
	denseOf []int32
	solved  []bool
}

// quad returns the dense vertex ids around the edge from cell's min corner
// along axis, counter-clockwise seen from outside the solid.
func (qb *quadBuilder) quad(cell [3]int, axis int) (q [4]uint32, ok bool) {
	g := qb.grid
	u, v := (axis+1)%3, (axis+2)%3
	if cell[u] == 0 || cell[v] == 0 {
		return q, false
	}
	i0 := g.pointIndex(cell)
	in0 := qb.samples[i0] < g.IsoValue
	in1 := qb.samples[i0+g.pointStride(axis)] < g.IsoValue
	if in0 == in1 {
		return q, false
	}

	eu, ev := unit(u), unit(v)
	around := [4][3]int{sub(sub(cell, eu), ev), sub(cell, ev), cell, sub(cell, eu)}
	for n, c := range around {
		d := qb.denseOf[g.cellIndex(c)]
		if d < 0 || !qb.solved[d] {
			return q, false
		}
		q[n] = uint32(d)
	}
	// The ring runs counter-clockwise around +axis; flip it when the solid
	// lies on the far end of the edge so the face points outward.
	if !in0 {
		q[1], q[3] = q[3], q[1]
	}
	return q, true
}

// triangulate emits two triangles per quad. A first pass counts triangles
// per cell, compaction turns the counts into write offsets, and a second
// pass writes every cell's triangles into its own slot range.
func (qb *quadBuilder) triangulate(ctx context.Context, p *kernel.Pool) ([]uint32, error) {
	n := int(qb.cells.Count)
	counts := make([]uint32, n)
	err := p.Dispatch(ctx, n, func(d int) {
		cell := qb.grid.cellCoords(int(qb.cells.Index[d]))
		for axis := 0; axis < 3; axis++ {
			if _, ok := qb.quad(cell, axis); ok {
				counts[d] += 2
			}
		}
	})
	if err != nil {
		return nil, err
	}

	offsets, total, err := compact.Offsets(ctx, p, counts)
	if err != nil {
		return nil, errors.Wrap(err, "triangle offsets")
	}
	if uint64(total) > uint64(maxTrianglesPerCell)*uint64(n) {
		return nil, errors.Wrapf(ErrTriangleOverflow, "%d triangles for %d cells", total, n)
	}

	indices := make([]uint32, 3*int(total))
	err = p.Dispatch(ctx, n, func(d int) {
		cell := qb.grid.cellCoords(int(qb.cells.Index[d]))
		out := indices[3*int(offsets[d]) : 3*int(offsets[d]+counts[d])]
		for axis := 0; axis < 3; axis++ {
			q, ok := qb.quad(cell, axis)
			if !ok {
				continue
			}
			copy(out, []uint32{q[0], q[1], q[2], q[0], q[2], q[3]})
			out = out[6:]
		}
	})
	if err != nil {
		return nil, err
	}
	return indices, nil
}
