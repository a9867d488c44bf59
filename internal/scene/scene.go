// Package scene builds signed distance fields from the scene section of
// the configuration.
package scene

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/internal/config"
	"github.com/Faultbox/isomesh/pkg/math"
	"github.com/Faultbox/isomesh/pkg/sdf"
)

var ErrInvalidScene = errors.New("scene: invalid description")

// Build returns the field described by cfg.
func Build(cfg config.SceneConfig) (sdf.Field, error) {
	if len(cfg.Shapes) == 0 {
		return nil, errors.Wrap(ErrInvalidScene, "no shapes")
	}
	fields := make([]sdf.Field, len(cfg.Shapes))
	for i, sc := range cfg.Shapes {
		f, err := Shape(sc)
		if err != nil {
			return nil, errors.Wrapf(err, "shape %d", i)
		}
		fields[i] = f
	}
	if len(fields) == 1 {
		return fields[0], nil
	}

	switch cfg.Op {
	case "", "union":
		return sdf.Union(fields), nil
	case "intersection":
		return sdf.Intersection(fields), nil
	case "difference":
		return sdf.Difference{Base: fields[0], Sub: sdf.Union(fields[1:])}, nil
	case "smooth_union":
		if !(cfg.Smoothness > 0) {
			return nil, errors.Wrapf(ErrInvalidScene, "smoothness %v", cfg.Smoothness)
		}
		return sdf.SmoothUnion{Fields: fields, K: cfg.Smoothness}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidScene, "unknown op %q", cfg.Op)
	}
}

// Shape returns the primitive described by sc, placed by its rotation and
// scale. Primitives are centred at the origin before placement; Center is
// the translation.
func Shape(sc config.ShapeConfig) (sdf.Field, error) {
	var f sdf.Field
	switch sc.Type {
	case "sphere":
		if !(sc.Radius > 0) {
			return nil, errors.Wrapf(ErrInvalidScene, "sphere radius %v", sc.Radius)
		}
		f = sdf.Sphere{Radius: sc.Radius}
	case "box":
		size := vec(sc.Size)
		if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
			return nil, errors.Wrapf(ErrInvalidScene, "box size %v", sc.Size)
		}
		f = sdf.Box{HalfSize: size.Scale(0.5)}
	case "torus":
		if !(sc.Minor > 0 && sc.Major > sc.Minor) {
			return nil, errors.Wrapf(ErrInvalidScene, "torus radii %v/%v", sc.Major, sc.Minor)
		}
		f = sdf.Torus{Major: sc.Major, Minor: sc.Minor}
	case "cylinder":
		if !(sc.Radius > 0 && sc.Height > 0) {
			return nil, errors.Wrapf(ErrInvalidScene, "cylinder radius %v height %v", sc.Radius, sc.Height)
		}
		f = sdf.Cylinder{Radius: sc.Radius, Height: sc.Height}
	case "plane":
		n := vec(sc.Normal)
		if n.Length() == 0 {
			return nil, errors.Wrap(ErrInvalidScene, "plane without normal")
		}
		f = sdf.Plane{Normal: n, Offset: sc.Offset}
	default:
		return nil, errors.Wrapf(ErrInvalidScene, "unknown shape type %q", sc.Type)
	}

	m := math.Translate(vec(sc.Center))
	if sc.Rotate != nil {
		axis := vec(sc.Rotate.Axis)
		if axis.Length() == 0 {
			return nil, errors.Wrap(ErrInvalidScene, "rotation without axis")
		}
		m = m.Mul(math.QuatFromAxisAngle(axis, sc.Rotate.Angle*math32.Pi/180).ToMat4())
	}
	if sc.Scale != 0 {
		if !(sc.Scale > 0) {
			return nil, errors.Wrapf(ErrInvalidScene, "scale %v", sc.Scale)
		}
		m = m.Mul(math.Scale(math.Splat(sc.Scale)))
	}
	if m == math.Identity() {
		return f, nil
	}
	t, ok := sdf.NewTransform(f, m)
	if !ok {
		return nil, errors.Wrap(ErrInvalidScene, "placement cannot be inverted")
	}
	return t, nil
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
