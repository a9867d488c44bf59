package dualcontour

import (
	"context"

	"github.com/Faultbox/isomesh/internal/compact"
	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/pkg/sdf"
)

// cornerOffsets lists the eight corners of a cell relative to its min corner.
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

// Sample evaluates the field at every lattice point of g.
func Sample(ctx context.Context, p *kernel.Pool, g Grid, f sdf.Field) ([]float32, error) {
	samples := make([]float32, g.Points())
	err := p.DispatchRange(ctx, len(samples), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			samples[i] = f.Evaluate(g.pointAt(g.pointCoords(i)))
		}
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// Classify flags every cell whose corner samples are not all on the same
// side of the iso value. Such a cell may contain surface; a cell with
// uniform corners never contributes a vertex.
func Classify(ctx context.Context, p *kernel.Pool, g Grid, samples []float32) (*compact.Bitset, error) {
	active := compact.NewBitset(g.Cells())
	var corner [8]int
	for c, off := range cornerOffsets {
		corner[c] = g.pointIndex(off)
	}
	err := p.DispatchRange(ctx, g.Cells(), func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			base := g.pointIndex(g.cellCoords(idx))
			inside := samples[base] < g.IsoValue
			for _, off := range corner[1:] {
				if (samples[base+off] < g.IsoValue) != inside {
					active.Set(idx)
					break
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}
