package stl

import (
	"bytes"
	"encoding/binary"
	stdmath "math"
	"os"

	"github.com/pkg/errors"

	"github.com/Faultbox/isomesh/pkg/math"
)

// Mesh is a parsed binary STL file.
type Mesh struct {
	Header    string
	Triangles []Triangle
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() (lo, hi math.Vec3) {
	if len(m.Triangles) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	lo, hi = m.Triangles[0].V[0], m.Triangles[0].V[0]
	for _, t := range m.Triangles {
		for _, v := range t.V {
			lo = lo.Min(v)
			hi = hi.Max(v)
		}
	}
	return lo, hi
}

// Volume returns the enclosed volume of the mesh.
func (m *Mesh) Volume() float64 {
	return Volume(m.Triangles)
}

// Parse decodes a binary STL file from raw bytes.
func Parse(data []byte) (*Mesh, error) {
	if len(data) < HeaderSize+CountSize {
		return nil, ErrTruncatedSTLData
	}
	count := binary.LittleEndian.Uint32(data[HeaderSize:])
	body := data[HeaderSize+CountSize:]

	if uint64(len(body)) != uint64(count)*RecordSize {
		if bytes.HasPrefix(data, []byte("solid")) {
			return nil, ErrUnsupportedFormat
		}
		if uint64(len(body)) < uint64(count)*RecordSize {
			return nil, errors.Wrapf(ErrTruncatedSTLData, "want %d triangles, have %d bytes", count, len(body))
		}
		return nil, errors.Wrapf(ErrCountMismatch, "header says %d triangles, have %d bytes", count, len(body))
	}

	mesh := &Mesh{
		Header:    string(bytes.TrimRight(data[:HeaderSize], "\x00 ")),
		Triangles: make([]Triangle, count),
	}
	for i := range mesh.Triangles {
		rec := body[i*RecordSize:]
		t := &mesh.Triangles[i]
		t.Normal = readVec(rec[0:])
		for v := 0; v < 3; v++ {
			t.V[v] = readVec(rec[12+12*v:])
		}
	}
	return mesh, nil
}

// ParseFile parses a binary STL file from disk.
func ParseFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(data)
}

func readVec(b []byte) math.Vec3 {
	return math.Vec3{
		X: stdmath.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: stdmath.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: stdmath.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}
