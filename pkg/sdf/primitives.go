package sdf

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/isomesh/pkg/math"
)

// Sphere is a ball around Center.
type Sphere struct {
	Center math.Vec3
	Radius float32
}

// Evaluate implements Field.
func (s Sphere) Evaluate(p math.Vec3) float32 {
	return p.Distance(s.Center) - s.Radius
}

// Gradient implements Gradienter.
func (s Sphere) Gradient(p math.Vec3) math.Vec3 {
	return p.Sub(s.Center).Normalize()
}

// Box is an axis-aligned box with half extents HalfSize.
type Box struct {
	Center   math.Vec3
	HalfSize math.Vec3
}

// Evaluate implements Field.
func (b Box) Evaluate(p math.Vec3) float32 {
	q := p.Sub(b.Center).Abs().Sub(b.HalfSize)
	outside := q.Max(math.Vec3{}).Length()
	inside := math32.Min(math32.Max(q.X, math32.Max(q.Y, q.Z)), 0)
	return outside + inside
}

// Torus lies in the XY plane around Center.
type Torus struct {
	Center math.Vec3
	Major  float32 // distance from the centre to the tube centre
	Minor  float32 // tube radius
}

// Evaluate implements Field.
func (t Torus) Evaluate(p math.Vec3) float32 {
	d := p.Sub(t.Center)
	ring := math32.Hypot(d.X, d.Y) - t.Major
	return math32.Hypot(ring, d.Z) - t.Minor
}

// Cylinder is a capped cylinder along Z.
type Cylinder struct {
	Center math.Vec3
	Radius float32
	Height float32
}

// Evaluate implements Field.
func (c Cylinder) Evaluate(p math.Vec3) float32 {
	d := p.Sub(c.Center)
	dr := math32.Hypot(d.X, d.Y) - c.Radius
	dz := math32.Abs(d.Z) - c.Height/2
	outside := math32.Hypot(math32.Max(dr, 0), math32.Max(dz, 0))
	return outside + math32.Min(math32.Max(dr, dz), 0)
}

// Plane is the half space below a plane: points with Dot(Normal) < Offset are inside.
type Plane struct {
	Normal math.Vec3
	Offset float32
}

// Evaluate implements Field.
func (pl Plane) Evaluate(p math.Vec3) float32 {
	return p.Dot(pl.Normal.Normalize()) - pl.Offset
}
