// Package sdf defines signed-distance fields and a small library of
// primitives and combinators for building them.
//
// A field is negative inside the solid and positive outside. Every Field
// must be pure and safe for concurrent use: mesh extraction evaluates it
// from many goroutines at once.
package sdf

import (
	"github.com/Faultbox/isomesh/pkg/math"
)

// Field evaluates a signed distance at a point.
type Field interface {
	Evaluate(p math.Vec3) float32
}

// FieldFunc adapts a plain function to Field.
type FieldFunc func(p math.Vec3) float32

// Evaluate calls f(p).
func (f FieldFunc) Evaluate(p math.Vec3) float32 {
	return f(p)
}

// Gradienter is implemented by fields with an analytic gradient.
type Gradienter interface {
	Gradient(p math.Vec3) math.Vec3
}

// Constant returns a field with the same value everywhere.
func Constant(v float32) Field {
	return FieldFunc(func(math.Vec3) float32 { return v })
}

// Gradient estimates the field gradient at p by central differences with
// step h. Fields implementing Gradienter are asked directly.
func Gradient(f Field, p math.Vec3, h float32) math.Vec3 {
	if g, ok := f.(Gradienter); ok {
		return g.Gradient(p)
	}
	dx := f.Evaluate(math.Vec3{X: p.X + h, Y: p.Y, Z: p.Z}) - f.Evaluate(math.Vec3{X: p.X - h, Y: p.Y, Z: p.Z})
	dy := f.Evaluate(math.Vec3{X: p.X, Y: p.Y + h, Z: p.Z}) - f.Evaluate(math.Vec3{X: p.X, Y: p.Y - h, Z: p.Z})
	dz := f.Evaluate(math.Vec3{X: p.X, Y: p.Y, Z: p.Z + h}) - f.Evaluate(math.Vec3{X: p.X, Y: p.Y, Z: p.Z - h})
	return math.Vec3{X: dx, Y: dy, Z: dz}.Scale(1 / (2 * h))
}

// Normal returns the unit surface normal at p (the normalized gradient).
func Normal(f Field, p math.Vec3, h float32) math.Vec3 {
	return Gradient(f, p, h).Normalize()
}
