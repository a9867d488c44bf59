package dualcontour

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/isomesh/pkg/math"
)

// eigenCutoff drops eigen directions whose eigenvalue is below this
// fraction of the largest one. It corresponds to a singular value ratio
// of 0.1 for the crossing-normal matrix.
const eigenCutoff = 0.01

// QEF accumulates surface-plane constraints for one cell. Each crossing
// contributes the plane through its position with its normal. Add and
// Merge are order independent.
type QEF struct {
	ATA   [6]float64 // symmetric normal matrix: xx, xy, xz, yy, yz, zz
	ATb   [3]float64
	BTb   float64
	Mass  [3]float64 // sum of crossing positions
	Count int
}

// Add accumulates the plane through p with normal n.
func (q *QEF) Add(p, n math.Vec3) {
	nx, ny, nz := float64(n.X), float64(n.Y), float64(n.Z)
	px, py, pz := float64(p.X), float64(p.Y), float64(p.Z)
	d := nx*px + ny*py + nz*pz

	q.ATA[0] += nx * nx
	q.ATA[1] += nx * ny
	q.ATA[2] += nx * nz
	q.ATA[3] += ny * ny
	q.ATA[4] += ny * nz
	q.ATA[5] += nz * nz
	q.ATb[0] += nx * d
	q.ATb[1] += ny * d
	q.ATb[2] += nz * d
	q.BTb += d * d
	q.Mass[0] += px
	q.Mass[1] += py
	q.Mass[2] += pz
	q.Count++
}

// Merge adds every constraint of o into q.
func (q *QEF) Merge(o QEF) {
	for i := range q.ATA {
		q.ATA[i] += o.ATA[i]
	}
	for i := range q.ATb {
		q.ATb[i] += o.ATb[i]
		q.Mass[i] += o.Mass[i]
	}
	q.BTb += o.BTb
	q.Count += o.Count
}

// MassPoint returns the centroid of the accumulated crossings.
func (q *QEF) MassPoint() math.Vec3 {
	if q.Count == 0 {
		return math.Vec3{}
	}
	c := 1 / float64(q.Count)
	return math.Vec3{X: float32(q.Mass[0] * c), Y: float32(q.Mass[1] * c), Z: float32(q.Mass[2] * c)}
}

// Error returns the sum of squared plane distances of x.
func (q *QEF) Error(x math.Vec3) float64 {
	v := [3]float64{float64(x.X), float64(x.Y), float64(x.Z)}
	a := q.matrix()
	var xAx, xb float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			xAx += v[r] * a[r][c] * v[c]
		}
		xb += v[r] * q.ATb[r]
	}
	return xAx - 2*xb + q.BTb
}

func (q *QEF) matrix() [3][3]float64 {
	a := q.ATA
	return [3][3]float64{
		{a[0], a[1], a[2]},
		{a[1], a[3], a[4]},
		{a[2], a[4], a[5]},
	}
}

// Solve returns the point minimizing the accumulated plane error, clamped
// to the box [lo, hi]. Directions the constraints leave undetermined (flat
// or single-plane cells) stay at the mass point. ok is false when nothing
// was accumulated.
func (q *QEF) Solve(lo, hi math.Vec3) (x math.Vec3, ok bool) {
	if q.Count == 0 {
		return math.Vec3{}, false
	}
	var s qefSolver
	return s.solve(q, lo, hi), true
}

// qefSolver keeps the linear algebra workspace so one goroutine can solve
// many cells without reallocating it.
type qefSolver struct {
	sym  *mat.SymDense
	eig  mat.EigenSym
	vecs mat.Dense
	vals []float64
}

func (s *qefSolver) solve(q *QEF, lo, hi math.Vec3) math.Vec3 {
	c := q.MassPoint()
	cx, cy, cz := float64(c.X), float64(c.Y), float64(c.Z)
	a := q.matrix()

	// Solve A y = ATb - A c for the offset y from the mass point.
	var rhs [3]float64
	for r := 0; r < 3; r++ {
		rhs[r] = q.ATb[r] - (a[r][0]*cx + a[r][1]*cy + a[r][2]*cz)
	}

	if s.sym == nil {
		s.sym = mat.NewSymDense(3, nil)
	}
	for r := 0; r < 3; r++ {
		for col := r; col < 3; col++ {
			s.sym.SetSym(r, col, a[r][col])
		}
	}
	if !s.eig.Factorize(s.sym, true) {
		return c.Clamp(lo, hi)
	}
	s.vals = s.eig.Values(s.vals)
	s.eig.VectorsTo(&s.vecs)

	maxVal := 0.0
	for _, v := range s.vals {
		maxVal = max(maxVal, v)
	}
	if maxVal <= 0 {
		return c.Clamp(lo, hi)
	}

	var y [3]float64
	for e, val := range s.vals {
		if val < eigenCutoff*maxVal {
			continue
		}
		var proj float64
		for r := 0; r < 3; r++ {
			proj += s.vecs.At(r, e) * rhs[r]
		}
		proj /= val
		for r := 0; r < 3; r++ {
			y[r] += proj * s.vecs.At(r, e)
		}
	}

	x := math.Vec3{X: float32(cx + y[0]), Y: float32(cy + y[1]), Z: float32(cz + y[2])}
	return x.Clamp(lo, hi)
}
