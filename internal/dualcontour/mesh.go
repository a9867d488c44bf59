package dualcontour

import (
	"github.com/Faultbox/isomesh/pkg/stl"
)

// Mesh is an indexed triangle mesh. Indices holds three vertex ids per
// triangle.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns triangle i as an STL facet. Faces too small to have a
// normal of their own use the mean of their vertex normals.
func (m *Mesh) Triangle(i int) stl.Triangle {
	a := m.Vertices[m.Indices[3*i]]
	b := m.Vertices[m.Indices[3*i+1]]
	c := m.Vertices[m.Indices[3*i+2]]
	t := stl.NewTriangle(a.Position, b.Position, c.Position)
	if t.Normal.Length() == 0 {
		t.Normal = a.Normal.Add(b.Normal).Add(c.Normal).Normalize()
	}
	return t
}

// Volume returns the enclosed volume by the divergence theorem.
func (m *Mesh) Volume() float64 {
	var v float64
	for i := 0; i < m.TriangleCount(); i++ {
		v += m.Triangle(i).SignedVolume()
	}
	return v
}

// Emit streams every triangle to sink in index order.
func (m *Mesh) Emit(sink stl.Sink) error {
	for i := 0; i < m.TriangleCount(); i++ {
		if err := sink.WriteTriangle(m.Triangle(i)); err != nil {
			return err
		}
	}
	return nil
}
