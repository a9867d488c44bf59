// Package slicer extracts a closed surface slice by slice with bounded
// memory. Each slice is contoured with marching squares, its segments are
// linked into loops through a hash table, and the loops of adjacent slices
// are joined by side walls. Loops that have no partner are capped.
package slicer

import (
	stdmath "math"

	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/pkg/math"
)

var (
	ErrInvalidParams     = errors.New("slicer: invalid parameters")
	ErrHashTableTooSmall = errors.New("slicer: hash table too small for segment count")
	ErrSegmentOverflow   = errors.New("slicer: segment count exceeds buffer capacity")
	ErrUnclosedLoop      = errors.New("slicer: contour does not close inside the slice window")
)

// maxLoad is the number of segments a hash bucket may carry on average.
const maxLoad = 4

// Params describe the slice stack of one export run. Every slice is a
// Width x Height lattice of samples CellSize apart; slice k lies at
// Offset.Z + k*ZStep.
type Params struct {
	Width, Height int
	CellSize      float32
	ZStep         float32
	SliceCount    int
	Offset        math.Vec3
	IsoValue      float32
	// HashSize is the number of hash buckets used to link segments.
	// Zero sizes the table from the slice resolution.
	HashSize int
}

// Validate rejects parameters that cannot be contoured.
func (p Params) Validate() error {
	if p.Width < 2 || p.Height < 2 {
		return errors.Wrapf(ErrInvalidParams, "resolution %dx%d", p.Width, p.Height)
	}
	if uint64(p.Width)*uint64(p.Height) > stdmath.MaxInt32/2 {
		return errors.Wrapf(ErrInvalidParams, "resolution %dx%d exceeds the index range", p.Width, p.Height)
	}
	if !finitePositive(p.CellSize) {
		return errors.Wrapf(ErrInvalidParams, "cell size %v", p.CellSize)
	}
	if !finitePositive(p.ZStep) {
		return errors.Wrapf(ErrInvalidParams, "z step %v", p.ZStep)
	}
	if p.SliceCount < 1 {
		return errors.Wrapf(ErrInvalidParams, "slice count %d", p.SliceCount)
	}
	if p.HashSize < 0 {
		return errors.Wrapf(ErrInvalidParams, "hash size %d", p.HashSize)
	}
	if p.HashSize > 0 && p.HashSize*maxLoad < p.MaxSegments() {
		return errors.Wrapf(ErrHashTableTooSmall, "%d buckets for up to %d segments", p.HashSize, p.MaxSegments())
	}
	return nil
}

// Cells returns the number of marching-squares cells in a slice.
func (p Params) Cells() int {
	return (p.Width - 1) * (p.Height - 1)
}

// MaxSegments is the segment capacity of a slice: two per cell.
func (p Params) MaxSegments() int {
	return 2 * p.Cells()
}

// Buckets returns the hash table size, deriving it when HashSize is zero.
// The derived size keeps the load at or below maxLoad for every slice.
func (p Params) Buckets() int {
	if p.HashSize > 0 {
		return p.HashSize
	}
	n := 1
	for n*maxLoad < p.MaxSegments() {
		n <<= 1
	}
	return n
}

// Z returns the height of slice k.
func (p Params) Z(k int) float32 {
	return p.Offset.Z + float32(k)*p.ZStep
}

func finitePositive(v float32) bool {
	return v > 0 && !stdmath.IsInf(float64(v), 0)
}
