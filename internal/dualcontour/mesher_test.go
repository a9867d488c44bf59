package dualcontour

import (
	"context"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/pkg/math"
	"github.com/Faultbox/isomesh/pkg/sdf"
	"github.com/Faultbox/isomesh/pkg/stl"
)

func cubeGrid(n int, half float32) Grid {
	return Grid{
		NX: n, NY: n, NZ: n,
		VoxelSize: 2 * half / float32(n),
		Offset:    math.Splat(-half),
	}
}

func newTestMesher(workers int) *Mesher {
	return NewMesher(kernel.NewPool(workers), Options{RefineSteps: 4})
}

// assertClosed checks that every directed edge is matched by its reverse,
// which holds for a closed, consistently wound surface.
func assertClosed(t *testing.T, m *Mesh) {
	t.Helper()
	edges := make(map[[2]uint32]int)
	for i := 0; i < len(m.Indices); i += 3 {
		for e := 0; e < 3; e++ {
			a, b := m.Indices[i+e], m.Indices[i+(e+1)%3]
			edges[[2]uint32{a, b}]++
		}
	}
	for e, n := range edges {
		rev := edges[[2]uint32{e[1], e[0]}]
		if rev != n {
			t.Fatalf("edge %v used %d times, reverse %d times", e, n, rev)
		}
	}
}

func TestMesh_SphereVolume(t *testing.T) {
	const r = 1.0
	mesh, stats, err := newTestMesher(4).Mesh(context.Background(), cubeGrid(32, 1.5), sdf.Sphere{Radius: r})
	require.NoError(t, err)
	require.Greater(t, mesh.TriangleCount(), 0)
	assert.Equal(t, mesh.TriangleCount(), stats.Triangles)
	assert.Greater(t, stats.ActiveCells, 0)
	assert.Equal(t, stats.ActiveCells, stats.Vertices)

	want := 4.0 / 3.0 * gomath.Pi * r * r * r
	assert.InDelta(t, want, mesh.Volume(), want*0.03)
	assertClosed(t, mesh)

	for _, v := range mesh.Vertices {
		assert.InDelta(t, r, v.Position.Length(), 0.02)
	}
}

func TestMesh_DeterministicAcrossWorkerCounts(t *testing.T) {
	f := sdf.Torus{Major: 0.8, Minor: 0.3}
	a, _, err := newTestMesher(1).Mesh(context.Background(), cubeGrid(24, 1.3), f)
	require.NoError(t, err)
	b, _, err := newTestMesher(8).Mesh(context.Background(), cubeGrid(24, 1.3), f)
	require.NoError(t, err)
	assert.Equal(t, a.Indices, b.Indices)
	assert.Equal(t, a.Vertices, b.Vertices)
}

func TestMesh_BoxKeepsSharpCorners(t *testing.T) {
	box := sdf.Box{HalfSize: math.Splat(0.7)}
	g := Grid{NX: 21, NY: 21, NZ: 21, VoxelSize: 0.1, Offset: math.Splat(-1.05)}
	mesh, _, err := newTestMesher(4).Mesh(context.Background(), g, box)
	require.NoError(t, err)

	assert.InDelta(t, 1.4*1.4*1.4, mesh.Volume(), 0.01*1.4*1.4*1.4)
	assertClosed(t, mesh)

	corner := math.Splat(0.7)
	best := float32(gomath.Inf(1))
	for _, v := range mesh.Vertices {
		best = min(best, v.Position.Distance(corner))
	}
	assert.Less(t, best, float32(0.01), "no vertex reconstructs the box corner")
}

func TestMesh_UniformFieldProducesNothing(t *testing.T) {
	for _, v := range []float32{1, -1} {
		mesh, stats, err := newTestMesher(2).Mesh(context.Background(), cubeGrid(8, 1), sdf.Constant(v))
		require.NoError(t, err)
		assert.Equal(t, 0, stats.ActiveCells)
		assert.Equal(t, 0, mesh.TriangleCount())

		var sink stl.Collector
		require.NoError(t, mesh.Emit(&sink))
		assert.Empty(t, sink.Triangles)
	}
}

func TestClassify_UniformField(t *testing.T) {
	g := cubeGrid(6, 1)
	p := kernel.NewPool(2)
	samples, err := Sample(context.Background(), p, g, sdf.Constant(3))
	require.NoError(t, err)
	active, err := Classify(context.Background(), p, g, samples)
	require.NoError(t, err)
	assert.Equal(t, 0, active.Count())
}

func TestClassify_PlaneFlagsOneLayer(t *testing.T) {
	// A plane between lattice layers z=2 and z=3 crosses exactly one layer of cells.
	g := Grid{NX: 4, NY: 5, NZ: 6, VoxelSize: 1}
	p := kernel.NewPool(2)
	samples, err := Sample(context.Background(), p, g, sdf.Plane{Normal: math.Vec3{Z: 1}, Offset: 2.5})
	require.NoError(t, err)
	active, err := Classify(context.Background(), p, g, samples)
	require.NoError(t, err)
	assert.Equal(t, 4*5, active.Count())
	for i := 0; i < g.Cells(); i++ {
		assert.Equal(t, g.cellCoords(i)[2] == 2, active.Get(i), "cell %v", g.cellCoords(i))
	}
}

func TestMesh_EmitWindingMatchesNormals(t *testing.T) {
	mesh, _, err := newTestMesher(2).Mesh(context.Background(), cubeGrid(16, 1.5), sdf.Sphere{Radius: 1})
	require.NoError(t, err)

	var sink stl.Collector
	require.NoError(t, mesh.Emit(&sink))
	require.Len(t, sink.Triangles, mesh.TriangleCount())
	for _, tri := range sink.Triangles {
		centroid := tri.V[0].Add(tri.V[1]).Add(tri.V[2]).Scale(1.0 / 3)
		assert.Greater(t, tri.Normal.Dot(centroid), float32(0), "facet normal points inward")
	}
}

func TestGrid_Validate(t *testing.T) {
	valid := cubeGrid(4, 1)
	require.NoError(t, valid.Validate())

	cases := map[string]Grid{
		"zero dimension": {NX: 0, NY: 1, NZ: 1, VoxelSize: 1},
		"zero voxel":     {NX: 1, NY: 1, NZ: 1},
		"negative voxel": {NX: 1, NY: 1, NZ: 1, VoxelSize: -1},
		"NaN voxel":      {NX: 1, NY: 1, NZ: 1, VoxelSize: float32(gomath.NaN())},
		"too large":      {NX: 4096, NY: 4096, NZ: 4096, VoxelSize: 1},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, g.Validate(), ErrInvalidGrid)
			_, _, err := newTestMesher(1).Mesh(context.Background(), g, sdf.Constant(1))
			assert.ErrorIs(t, err, ErrInvalidGrid)
		})
	}
}
