// Package dualcontour extracts a triangle mesh from a signed-distance field
// by dual contouring: one vertex per active cell, placed by minimizing a
// quadratic error function over the surface crossings on the cell's edges.
package dualcontour

import (
	stdmath "math"

	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/pkg/math"
)

// Grid errors.
var (
	ErrInvalidGrid      = errors.New("dualcontour: invalid grid")
	ErrTriangleOverflow = errors.New("dualcontour: triangle count exceeds buffer capacity")
)

// maxTrianglesPerCell is two triangles for each of the three edges a cell owns.
const maxTrianglesPerCell = 6

// Grid is the sampling lattice of one export run. It has NX*NY*NZ cells and
// (NX+1)*(NY+1)*(NZ+1) lattice points; lattice point (0,0,0) sits at Offset.
type Grid struct {
	NX, NY, NZ int
	VoxelSize  float32
	Offset     math.Vec3
	IsoValue   float32
}

// Validate rejects grids that cannot be meshed.
func (g Grid) Validate() error {
	if g.NX < 1 || g.NY < 1 || g.NZ < 1 {
		return errors.Wrapf(ErrInvalidGrid, "dimensions %dx%dx%d", g.NX, g.NY, g.NZ)
	}
	if !(g.VoxelSize > 0) || stdmath.IsInf(float64(g.VoxelSize), 0) {
		return errors.Wrapf(ErrInvalidGrid, "voxel size %v", g.VoxelSize)
	}
	points := uint64(g.NX+1) * uint64(g.NY+1) * uint64(g.NZ+1)
	if points > stdmath.MaxInt32 {
		return errors.Wrapf(ErrInvalidGrid, "%d lattice points exceed the index range", points)
	}
	return nil
}

// Cells returns the number of cells.
func (g Grid) Cells() int {
	return g.NX * g.NY * g.NZ
}

// Points returns the number of lattice points.
func (g Grid) Points() int {
	return (g.NX + 1) * (g.NY + 1) * (g.NZ + 1)
}

// Max returns the world position of the far lattice corner.
func (g Grid) Max() math.Vec3 {
	return g.Point(g.NX, g.NY, g.NZ)
}

// Point returns the world position of lattice point (i, j, k).
func (g Grid) Point(i, j, k int) math.Vec3 {
	return g.Offset.Add(math.Vec3{X: float32(i), Y: float32(j), Z: float32(k)}.Scale(g.VoxelSize))
}

func (g Grid) cellIndex(c [3]int) int {
	return (c[2]*g.NY+c[1])*g.NX + c[0]
}

func (g Grid) cellCoords(idx int) [3]int {
	i := idx % g.NX
	idx /= g.NX
	return [3]int{i, idx % g.NY, idx / g.NY}
}

func (g Grid) pointIndex(c [3]int) int {
	return (c[2]*(g.NY+1)+c[1])*(g.NX+1) + c[0]
}

func (g Grid) pointCoords(idx int) [3]int {
	i := idx % (g.NX + 1)
	idx /= g.NX + 1
	return [3]int{i, idx % (g.NY + 1), idx / (g.NY + 1)}
}

// pointStride is the index distance between lattice neighbours along axis.
func (g Grid) pointStride(axis int) int {
	switch axis {
	case 0:
		return 1
	case 1:
		return g.NX + 1
	default:
		return (g.NX + 1) * (g.NY + 1)
	}
}

func (g Grid) cellDims() [3]int {
	return [3]int{g.NX, g.NY, g.NZ}
}

func (g Grid) pointAt(c [3]int) math.Vec3 {
	return g.Point(c[0], c[1], c[2])
}

// unit returns the lattice offset of one step along axis.
func unit(axis int) [3]int {
	var u [3]int
	u[axis] = 1
	return u
}

func add(a, b [3]int) [3]int {
	return [3]int{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub(a, b [3]int) [3]int {
	return [3]int{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}
