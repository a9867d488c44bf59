// Package stl reads and writes binary STL meshes.
//
// Binary layout: an 80-byte header, a little-endian uint32 triangle count,
// then one 50-byte record per triangle (normal, three vertices as float32
// triples, and a uint16 attribute byte count that is always zero).
package stl

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/pkg/math"
)

// Binary STL layout sizes.
const (
	HeaderSize = 80
	CountSize  = 4
	RecordSize = 50
)

// STL errors.
var (
	ErrNotSeekable       = errors.New("stl: output is not seekable")
	ErrTooManyTriangles  = errors.New("stl: triangle count exceeds uint32")
	ErrWriterClosed      = errors.New("stl: writer is closed")
	ErrTruncatedSTLData  = errors.New("stl: truncated data")
	ErrCountMismatch     = errors.New("stl: triangle count does not match data length")
	ErrUnsupportedFormat = errors.New("stl: ASCII STL is not supported")
)

// Triangle is one STL facet. Vertices are counter-clockwise seen from
// outside, matching Normal.
type Triangle struct {
	Normal math.Vec3
	V      [3]math.Vec3
}

// NewTriangle builds a facet and derives its normal from the winding.
// Degenerate triangles get a zero normal.
func NewTriangle(a, b, c math.Vec3) Triangle {
	return Triangle{
		Normal: b.Sub(a).Cross(c.Sub(a)).Normalize(),
		V:      [3]math.Vec3{a, b, c},
	}
}

// SignedVolume returns the signed volume of the tetrahedron spanned by the
// triangle and the origin. Summed over a closed, outward-wound mesh it
// gives the enclosed volume.
func (t Triangle) SignedVolume() float64 {
	a, b, c := t.V[0], t.V[1], t.V[2]
	ax, ay, az := float64(a.X), float64(a.Y), float64(a.Z)
	bx, by, bz := float64(b.X), float64(b.Y), float64(b.Z)
	cx, cy, cz := float64(c.X), float64(c.Y), float64(c.Z)
	return (ax*(by*cz-bz*cy) - ay*(bx*cz-bz*cx) + az*(bx*cy-by*cx)) / 6
}

// Volume sums the signed volume of all triangles.
func Volume(tris []Triangle) float64 {
	var v float64
	for _, t := range tris {
		v += t.SignedVolume()
	}
	return v
}

// Sink consumes triangles as they are produced.
type Sink interface {
	WriteTriangle(t Triangle) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(t Triangle) error

// WriteTriangle calls f(t).
func (f SinkFunc) WriteTriangle(t Triangle) error {
	return f(t)
}

// Collector is an in-memory Sink.
type Collector struct {
	Triangles []Triangle
}

// WriteTriangle appends t.
func (c *Collector) WriteTriangle(t Triangle) error {
	c.Triangles = append(c.Triangles, t)
	return nil
}
