package slicer

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/isomesh/internal/kernel"
	"github.com/Faultbox/isomesh/pkg/sdf"
	"github.com/Faultbox/isomesh/pkg/stl"
)

// State is the step a Contourer is in for the current slice.
type State int

const (
	Slicing State = iota
	Linking
	Stitching
)

func (s State) String() string {
	switch s {
	case Slicing:
		return "slice"
	case Linking:
		return "link"
	case Stitching:
		return "stitch"
	default:
		return "unknown"
	}
}

// Options tune a Contourer.
type Options struct {
	Logger  *zap.Logger
	Observe kernel.StageObserver
}

// Stats describes one contouring run.
type Stats struct {
	Slices    int
	Segments  int
	Loops     int
	Walls     int
	Caps      int
	Triangles int
}

// Contourer streams the surface of a field to a triangle sink one slice at
// a time. Only the loops of the current and previous slice are resident.
type Contourer struct {
	pool   *kernel.Pool
	params Params
	opts   Options
}

// NewContourer returns a Contourer for params dispatching on pool.
func NewContourer(pool *kernel.Pool, params Params, opts Options) *Contourer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Contourer{pool: pool, params: params, opts: opts}
}

// Run contours f and writes every triangle to sink as soon as it exists.
// A failed run leaves the sink with a partial, invalid surface.
func (c *Contourer) Run(ctx context.Context, f sdf.Field, sink stl.Sink) (Stats, error) {
	if err := c.params.Validate(); err != nil {
		return Stats{}, err
	}
	log := c.opts.Logger.With(zap.String("pipeline", "slicer"))
	log.Debug("contouring",
		zap.Int("width", c.params.Width),
		zap.Int("height", c.params.Height),
		zap.Int("slices", c.params.SliceCount),
		zap.Int("buckets", c.params.Buckets()))

	sq := newSquares(c.params)
	ln := newLinker(c.params.Buckets(), c.params.MaxSegments())
	em := &emitter{sink: sink}
	prev, cur := &Loops{}, &Loops{}
	prev.Reset()

	var stats Stats
	last := c.params.SliceCount - 1
	for k := 0; k <= last; k++ {
		z := c.params.Z(k)
		var segs []Segment
		cur.Reset()

		err := c.pool.Sequence(ctx, nil, c.opts.Observe,
			kernel.Stage{Name: Slicing.String(), Run: func(ctx context.Context, p *kernel.Pool) (err error) {
				if err := sq.sample(ctx, p, f, z); err != nil {
					return err
				}
				segs, err = sq.contour(ctx, p)
				return err
			}},
			kernel.Stage{Name: Linking.String(), Run: func(ctx context.Context, p *kernel.Pool) error {
				if err := ln.build(ctx, p, segs); err != nil {
					return err
				}
				return ln.link(segs, cur)
			}},
			kernel.Stage{Name: Stitching.String(), Run: func(ctx context.Context, p *kernel.Pool) error {
				return c.stitch(em, prev, cur, k)
			}},
		)
		if err != nil {
			return stats, errors.Wrapf(err, "slice %d", k)
		}

		stats.Slices++
		stats.Segments += len(segs)
		stats.Loops += cur.Len()
		if cur.Len() > 0 {
			log.Debug("slice done", zap.Int("slice", k), zap.Int("segments", len(segs)), zap.Int("loops", cur.Len()))
		}
		prev, cur = cur, prev
	}

	stats.Walls, stats.Caps = em.walls, em.caps
	stats.Triangles = em.walls + em.caps
	log.Debug("contoured",
		zap.Int("segments", stats.Segments),
		zap.Int("loops", stats.Loops),
		zap.Int("triangles", stats.Triangles))
	return stats, nil
}

// stitch emits the walls between slice k-1 and slice k and the caps of
// loops that start or end here.
func (c *Contourer) stitch(em *emitter, prev, cur *Loops, k int) error {
	z := c.params.Z(k)
	if k == 0 {
		for i := 0; i < cur.Len(); i++ {
			if err := em.capLoop(cur.Ring(i), z, true); err != nil {
				return err
			}
		}
	} else {
		zp := c.params.Z(k - 1)
		m := match(prev, cur)
		for _, pr := range m.pairs {
			if err := em.wall(prev.Ring(pr[0]), cur.Ring(pr[1]), zp, z); err != nil {
				return err
			}
		}
		for i, used := range m.prevUsed {
			if !used {
				if err := em.capLoop(prev.Ring(i), zp, false); err != nil {
					return err
				}
			}
		}
		for i, used := range m.curUsed {
			if !used {
				if err := em.capLoop(cur.Ring(i), z, true); err != nil {
					return err
				}
			}
		}
	}
	if k == c.params.SliceCount-1 {
		for i := 0; i < cur.Len(); i++ {
			if err := em.capLoop(cur.Ring(i), z, false); err != nil {
				return err
			}
		}
	}
	return nil
}
