package sdf

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/isomesh/pkg/math"
)

// Union is the set of points inside any of its fields.
type Union []Field

// Evaluate implements Field. An empty union is empty space.
func (u Union) Evaluate(p math.Vec3) float32 {
	d := math32.Inf(1)
	for _, f := range u {
		d = math32.Min(d, f.Evaluate(p))
	}
	return d
}

// Intersection is the set of points inside all of its fields.
type Intersection []Field

// Evaluate implements Field.
func (in Intersection) Evaluate(p math.Vec3) float32 {
	d := math32.Inf(-1)
	for _, f := range in {
		d = math32.Max(d, f.Evaluate(p))
	}
	return d
}

// Difference removes Sub from Base.
type Difference struct {
	Base Field
	Sub  Field
}

// Evaluate implements Field.
func (d Difference) Evaluate(p math.Vec3) float32 {
	return math32.Max(d.Base.Evaluate(p), -d.Sub.Evaluate(p))
}

// SmoothUnion blends its fields with a polynomial smooth minimum of radius K.
type SmoothUnion struct {
	Fields []Field
	K      float32
}

// Evaluate implements Field.
func (s SmoothUnion) Evaluate(p math.Vec3) float32 {
	if len(s.Fields) == 0 {
		return math32.Inf(1)
	}
	d := s.Fields[0].Evaluate(p)
	for _, f := range s.Fields[1:] {
		d = smin(d, f.Evaluate(p), s.K)
	}
	return d
}

func smin(a, b, k float32) float32 {
	if k <= 0 {
		return math32.Min(a, b)
	}
	h := math32.Max(k-math32.Abs(a-b), 0) / k
	return math32.Min(a, b) - h*h*k/4
}

// Transform places a field with an affine matrix built from a rotation, a
// uniform scale and a translation. Points are mapped back through the
// inverse and distances scaled up again, so the result stays a true SDF.
type Transform struct {
	field Field
	inv   math.Mat4
	scale float32
}

// NewTransform returns f placed by m. It reports false when m cannot be
// inverted.
func NewTransform(f Field, m math.Mat4) (Transform, bool) {
	inv, ok := m.Inverse()
	if !ok {
		return Transform{}, false
	}
	return Transform{field: f, inv: inv, scale: m.TransformDirection(math.Vec3{X: 1}).Length()}, true
}

// Evaluate implements Field.
func (t Transform) Evaluate(p math.Vec3) float32 {
	return t.field.Evaluate(t.inv.TransformPoint(p)) * t.scale
}
