package slicer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/internal/compact"
	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/pkg/math"
	"github.com/Faultbox/isomesh/pkg/sdf"
)

// Segment is one boundary piece inside a cell, directed so that the solid
// lies on its left. StartKey and EndKey identify the lattice edges its
// endpoints sit on.
type Segment struct {
	Start, End       math.Vec2
	StartKey, EndKey uint32
}

// crossing is an iso crossing on one cell edge.
type crossing struct {
	key  uint32
	pos  math.Vec2
	exit bool
}

// squares holds the per-slice buffers of the marching squares step. They
// are sized once for the largest possible slice and reused.
type squares struct {
	params   Params
	samples  []float32
	cases    []uint8
	active   *compact.Bitset
	segments []Segment
}

func newSquares(p Params) *squares {
	return &squares{
		params:   p,
		samples:  make([]float32, p.Width*p.Height),
		cases:    make([]uint8, p.Cells()),
		active:   compact.NewBitset(p.Cells()),
		segments: make([]Segment, p.MaxSegments()),
	}
}

func (s *squares) point(i, j int) math.Vec2 {
	return math.Vec2{
		X: s.params.Offset.X + float32(i)*s.params.CellSize,
		Y: s.params.Offset.Y + float32(j)*s.params.CellSize,
	}
}

func (s *squares) inside(i, j int) bool {
	return s.samples[j*s.params.Width+i] < s.params.IsoValue
}

// horizontalKey identifies the edge from (i,j) to (i+1,j); verticalKey the
// edge from (i,j) to (i,j+1).
func (s *squares) horizontalKey(i, j int) uint32 {
	return uint32(j*(s.params.Width-1) + i)
}

func (s *squares) verticalKey(i, j int) uint32 {
	return uint32(s.params.Height*(s.params.Width-1) + j*s.params.Width + i)
}

// interpolate places the crossing between lattice points a and b. Callers
// always pass the lower point first so both cells sharing an edge compute
// bit-identical positions.
func (s *squares) interpolate(ai, aj, bi, bj int) math.Vec2 {
	va := s.samples[aj*s.params.Width+ai]
	vb := s.samples[bj*s.params.Width+bi]
	t := (s.params.IsoValue - va) / (vb - va)
	return s.point(ai, aj).Lerp(s.point(bi, bj), t)
}

// sample evaluates the field at every lattice point of the slice at z.
func (s *squares) sample(ctx context.Context, p *kernel.Pool, f sdf.Field, z float32) error {
	w := s.params.Width
	return p.DispatchRange(ctx, len(s.samples), func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			s.samples[idx] = f.Evaluate(s.point(idx%w, idx/w).Vec3(z))
		}
	})
}

// classify records each cell's corner case and flags the mixed ones.
// Bit c of a case is set when corner c is inside; corners run
// counter-clockwise from (i,j).
func (s *squares) classify(ctx context.Context, p *kernel.Pool) error {
	s.active.Reset()
	cw := s.params.Width - 1
	return p.DispatchRange(ctx, len(s.cases), func(lo, hi int) {
		for c := lo; c < hi; c++ {
			i, j := c%cw, c/cw
			var cs uint8
			if s.inside(i, j) {
				cs |= 1
			}
			if s.inside(i+1, j) {
				cs |= 2
			}
			if s.inside(i+1, j+1) {
				cs |= 4
			}
			if s.inside(i, j+1) {
				cs |= 8
			}
			s.cases[c] = cs
			if cs != 0 && cs != 15 {
				s.active.Set(c)
			}
		}
	})
}

// edgeCrossings lists the crossings of cell (i,j) in counter-clockwise
// edge order: bottom, right, top, left.
func (s *squares) edgeCrossings(i, j int, cs uint8, out *[4]crossing) int {
	n := 0
	for e := 0; e < 4; e++ {
		a := cs&(1<<e) != 0
		b := cs&(1<<((e+1)%4)) != 0
		if a == b {
			continue
		}
		var x crossing
		switch e {
		case 0:
			x = crossing{key: s.horizontalKey(i, j), pos: s.interpolate(i, j, i+1, j)}
		case 1:
			x = crossing{key: s.verticalKey(i+1, j), pos: s.interpolate(i+1, j, i+1, j+1)}
		case 2:
			x = crossing{key: s.horizontalKey(i, j+1), pos: s.interpolate(i, j+1, i+1, j+1)}
		case 3:
			x = crossing{key: s.verticalKey(i, j), pos: s.interpolate(i, j, i, j+1)}
		}
		// Walking counter-clockwise, leaving the solid is an exit.
		x.exit = a
		out[n] = x
		n++
	}
	return n
}

// emit writes the segments of cell (i,j) to dst and returns how many it
// wrote. An exit crossing is joined to the following entry when the cell
// centre is inside, which keeps the solid connected across a saddle, and
// to the preceding entry otherwise.
func (s *squares) emit(i, j int, cs uint8, dst []Segment) int {
	var xs [4]crossing
	n := s.edgeCrossings(i, j, cs, &xs)

	connect := true
	if n == 4 {
		w := s.params.Width
		centre := (s.samples[j*w+i] + s.samples[j*w+i+1] + s.samples[(j+1)*w+i+1] + s.samples[(j+1)*w+i]) / 4
		connect = centre < s.params.IsoValue
	}

	written := 0
	for x := 0; x < n; x++ {
		if !xs[x].exit {
			continue
		}
		y := (x + 1) % n
		if !connect {
			y = (x + n - 1) % n
		}
		dst[written] = Segment{Start: xs[x].pos, End: xs[y].pos, StartKey: xs[x].key, EndKey: xs[y].key}
		written++
	}
	return written
}

func segmentsFor(cs uint8) uint32 {
	switch cs {
	case 0, 15:
		return 0
	case 5, 10:
		return 2
	default:
		return 1
	}
}

// contour runs marching squares over the sampled slice and returns its
// segments. The count is only known after the offsets pass, which is where
// the capacity check happens.
func (s *squares) contour(ctx context.Context, p *kernel.Pool) ([]Segment, error) {
	if err := s.classify(ctx, p); err != nil {
		return nil, err
	}
	cells, err := compact.CompactBits(ctx, p, s.active)
	if err != nil {
		return nil, err
	}

	counts := make([]uint32, cells.Count)
	if err := p.Dispatch(ctx, len(counts), func(d int) {
		counts[d] = segmentsFor(s.cases[cells.Index[d]])
	}); err != nil {
		return nil, err
	}
	offsets, total, err := compact.Offsets(ctx, p, counts)
	if err != nil {
		return nil, err
	}
	if int(total) > len(s.segments) {
		return nil, errors.Wrapf(ErrSegmentOverflow, "%d segments, capacity %d", total, len(s.segments))
	}

	cw := s.params.Width - 1
	err = p.Dispatch(ctx, len(counts), func(d int) {
		c := int(cells.Index[d])
		s.emit(c%cw, c/cw, s.cases[c], s.segments[offsets[d]:offsets[d]+counts[d]])
	})
	if err != nil {
		return nil, err
	}
	return s.segments[:total], nil
}
