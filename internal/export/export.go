// Package export turns a field into an STL file with one of the two
// meshing backends.
package export

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/isomesh/internal/config"
	"github.com/Faultbox/isomesh/internal/dualcontour"
	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/internal/metrics"
	"github.com/Faultbox/isomesh/internal/slicer"
	"github.com/Faultbox/isomesh/pkg/math"
	"github.com/Faultbox/isomesh/pkg/sdf"
	"github.com/Faultbox/isomesh/pkg/stl"
)

// Backend names a meshing pipeline.
type Backend string

const (
	// DualContour meshes the whole volume at once and keeps sharp features.
	DualContour Backend = "dualcontour"
	// Slicer streams the surface slice by slice in bounded memory.
	Slicer Backend = "slicer"
)

var ErrInvalidConfig = errors.New("export: invalid configuration")

// Options configure one export.
type Options struct {
	Backend     Backend
	Workers     int
	Header      string
	Grid        dualcontour.Grid
	RefineSteps int
	Slicer      slicer.Params

	Logger  *zap.Logger
	Metrics *metrics.Collectors
}

// FromConfig maps the configuration onto Options.
func FromConfig(cfg *config.Config) Options {
	g, s := cfg.Grid, cfg.Slicer
	return Options{
		Backend: Backend(cfg.Export.Backend),
		Workers: cfg.Export.Workers,
		Header:  cfg.Export.Header,
		Grid: dualcontour.Grid{
			NX: g.NX, NY: g.NY, NZ: g.NZ,
			VoxelSize: g.VoxelSize,
			Offset:    vec(g.Offset),
			IsoValue:  g.IsoValue,
		},
		RefineSteps: g.RefineSteps,
		Slicer: slicer.Params{
			Width:      s.Width,
			Height:     s.Height,
			CellSize:   s.CellSize,
			ZStep:      s.ZStep,
			SliceCount: s.SliceCount,
			Offset:     vec(s.Offset),
			IsoValue:   s.IsoValue,
			HashSize:   s.HashSize,
		},
	}
}

// Validate rejects options before anything is computed or written.
func (o Options) Validate() error {
	if o.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers %d", o.Workers)
	}
	if len(o.Header) > stl.HeaderSize {
		return errors.Wrapf(ErrInvalidConfig, "header is %d bytes, limit %d", len(o.Header), stl.HeaderSize)
	}
	if o.RefineSteps < 0 {
		return errors.Wrapf(ErrInvalidConfig, "refine steps %d", o.RefineSteps)
	}
	switch o.Backend {
	case DualContour:
		return o.Grid.Validate()
	case Slicer:
		return o.Slicer.Validate()
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown backend %q", o.Backend)
	}
}

// Result summarizes an export.
type Result struct {
	Backend     Backend
	Triangles   uint32
	ActiveCells int
	Vertices    int
	Segments    int
	Loops       int
	Elapsed     time.Duration
}

// Export meshes f and writes binary STL to out, which must be seekable.
// On error the bytes written to out are not a valid STL file.
func Export(ctx context.Context, o Options, f sdf.Field, out io.Writer) (Result, error) {
	if err := o.Validate(); err != nil {
		return Result{}, err
	}
	w, err := stl.NewWriter(out, o.Header)
	if err != nil {
		return Result{}, err
	}
	return o.run(ctx, f, w)
}

// ExportFile meshes f into a new file at path. A failed export removes the
// partial file.
func ExportFile(ctx context.Context, o Options, f sdf.Field, path string) (Result, error) {
	if err := o.Validate(); err != nil {
		return Result{}, err
	}
	w, err := stl.Create(path, o.Header)
	if err != nil {
		return Result{}, err
	}
	res, err := o.run(ctx, f, w)
	if err != nil {
		_ = os.Remove(path)
	}
	return res, err
}

func (o Options) run(ctx context.Context, f sdf.Field, w *stl.Writer) (Result, error) {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("backend", string(o.Backend)))

	var observe kernel.StageObserver
	if o.Metrics != nil {
		observe = o.Metrics.Observer(string(o.Backend))
	}

	start := time.Now()
	pool := kernel.NewPool(o.Workers)
	res := Result{Backend: o.Backend}

	var err error
	switch o.Backend {
	case DualContour:
		err = o.dualContour(ctx, pool, f, w, log, observe, &res)
	case Slicer:
		err = o.slice(ctx, pool, f, w, log, observe, &res)
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	res.Triangles = w.Count()
	res.Elapsed = time.Since(start)

	if o.Metrics != nil {
		o.Metrics.RunDone(string(o.Backend), err)
	}
	if err != nil {
		log.Error("export failed", zap.Error(err))
		return res, err
	}
	if o.Metrics != nil {
		o.Metrics.ActiveCells.Add(float64(res.ActiveCells))
		o.Metrics.Segments.Add(float64(res.Segments))
		o.Metrics.Loops.Add(float64(res.Loops))
		o.Metrics.TrianglesWritten.WithLabelValues(string(o.Backend)).Add(float64(res.Triangles))
	}
	log.Info("export done",
		zap.Uint32("triangles", res.Triangles),
		zap.Int("workers", pool.Workers()),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (o Options) dualContour(ctx context.Context, pool *kernel.Pool, f sdf.Field, w *stl.Writer, log *zap.Logger, observe kernel.StageObserver, res *Result) error {
	m := dualcontour.NewMesher(pool, dualcontour.Options{
		RefineSteps: o.RefineSteps,
		Logger:      log,
		Observe:     observe,
	})
	mesh, stats, err := m.Mesh(ctx, o.Grid, f)
	if err != nil {
		return err
	}
	res.ActiveCells, res.Vertices = stats.ActiveCells, stats.Vertices
	return errors.Wrap(mesh.Emit(w), "emit mesh")
}

func (o Options) slice(ctx context.Context, pool *kernel.Pool, f sdf.Field, w *stl.Writer, log *zap.Logger, observe kernel.StageObserver, res *Result) error {
	c := slicer.NewContourer(pool, o.Slicer, slicer.Options{Logger: log, Observe: observe})
	stats, err := c.Run(ctx, f, w)
	res.Segments, res.Loops = stats.Segments, stats.Loops
	return err
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
