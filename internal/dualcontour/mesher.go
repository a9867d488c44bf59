package dualcontour

import (
	"context"

	"go.uber.org/zap"

	"github.com/Faultbox/isomesh/internal/compact"
	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/pkg/sdf"
)

// Options tune a Mesher.
type Options struct {
	// RefineSteps is the number of regula falsi iterations applied to each
	// edge crossing after linear interpolation.
	RefineSteps int
	// NormalStep is the central-difference step for crossing normals,
	// as a fraction of the voxel size. Zero selects 0.01.
	NormalStep float32
	Logger     *zap.Logger
	Observe    kernel.StageObserver
}

// Stats describes one meshing run.
type Stats struct {
	ActiveCells int
	Vertices    int
	Triangles   int
}

// Mesher runs the dual contouring pipeline:
// sample -> classify -> compact -> crossings -> vertices -> triangulate.
type Mesher struct {
	pool *kernel.Pool
	opts Options
}

// NewMesher returns a Mesher dispatching on pool.
func NewMesher(pool *kernel.Pool, opts Options) *Mesher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NormalStep <= 0 {
		opts.NormalStep = 0.01
	}
	return &Mesher{pool: pool, opts: opts}
}

// Mesh extracts the iso surface of f over g. All intermediate buffers
// belong to this call.
func (m *Mesher) Mesh(ctx context.Context, g Grid, f sdf.Field) (*Mesh, Stats, error) {
	if err := g.Validate(); err != nil {
		return nil, Stats{}, err
	}
	log := m.opts.Logger.With(zap.String("pipeline", "dualcontour"))

	var (
		samples   []float32
		active    *compact.Bitset
		cells     compact.Result
		denseOf   []int32
		crossings []EdgeCrossing
		vertices  []Vertex
		solved    []bool
		indices   []uint32
		ef        *edgeFinder
	)

	err := m.pool.Sequence(ctx, log, m.opts.Observe,
		kernel.Stage{Name: "sample", Run: func(ctx context.Context, p *kernel.Pool) (err error) {
			samples, err = Sample(ctx, p, g, f)
			return err
		}},
		kernel.Stage{Name: "classify", Run: func(ctx context.Context, p *kernel.Pool) (err error) {
			active, err = Classify(ctx, p, g, samples)
			return err
		}},
		kernel.Stage{Name: "compact", Run: func(ctx context.Context, p *kernel.Pool) (err error) {
			cells, err = compact.CompactBits(ctx, p, active)
			if err != nil {
				return err
			}
			denseOf = make([]int32, g.Cells())
			if err := p.Dispatch(ctx, len(denseOf), func(i int) { denseOf[i] = -1 }); err != nil {
				return err
			}
			return p.Dispatch(ctx, int(cells.Count), func(d int) { denseOf[cells.Index[d]] = int32(d) })
		}},
		kernel.Stage{Name: "crossings", Run: func(ctx context.Context, p *kernel.Pool) (err error) {
			ef = &edgeFinder{
				grid:       g,
				field:      f,
				samples:    samples,
				refine:     m.opts.RefineSteps,
				normalStep: m.opts.NormalStep * g.VoxelSize,
			}
			crossings, err = findCrossings(ctx, p, ef, cells)
			return err
		}},
		kernel.Stage{Name: "vertices", Run: func(ctx context.Context, p *kernel.Pool) (err error) {
			vp := &vertexPlacer{ef: ef, cells: cells, denseOf: denseOf, crossings: crossings}
			vertices, solved, err = vp.place(ctx, p)
			return err
		}},
		kernel.Stage{Name: "triangulate", Run: func(ctx context.Context, p *kernel.Pool) (err error) {
			qb := &quadBuilder{grid: g, samples: samples, cells: cells, denseOf: denseOf, solved: solved}
			indices, err = qb.triangulate(ctx, p)
			return err
		}},
	)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{ActiveCells: int(cells.Count), Triangles: len(indices) / 3}
	for _, ok := range solved {
		if ok {
			stats.Vertices++
		}
	}
	log.Debug("mesh extracted",
		zap.Int("active_cells", stats.ActiveCells),
		zap.Int("vertices", stats.Vertices),
		zap.Int("triangles", stats.Triangles))
	return &Mesh{Vertices: vertices, Indices: indices}, stats, nil
}
