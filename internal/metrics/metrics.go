// Package metrics exposes export pipeline counters to prometheus.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Faultbox/isomesh/internal/kernel"
)

const namespace = "isomesh"

// Collectors is one set of export metrics on its own registry.
type Collectors struct {
	Registry *prometheus.Registry

	StageDuration    *prometheus.HistogramVec
	ActiveCells      prometheus.Counter
	Segments         prometheus.Counter
	Loops            prometheus.Counter
	TrianglesWritten *prometheus.CounterVec
	Runs             *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of one pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"pipeline", "stage"}),
		ActiveCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "active_cells_total",
			Help:      "Grid cells straddling the surface.",
		}),
		Segments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Marching squares segments produced.",
		}),
		Loops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loops_total",
			Help:      "Closed contour loops linked.",
		}),
		TrianglesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triangles_written_total",
			Help:      "Triangles written to the output.",
		}, []string{"pipeline"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Export runs by pipeline and outcome.",
		}, []string{"pipeline", "status"}),
	}
	c.Registry.MustRegister(c.StageDuration, c.ActiveCells, c.Segments, c.Loops, c.TrianglesWritten, c.Runs)
	return c
}

// Observer records stage durations of one pipeline.
func (c *Collectors) Observer(pipeline string) kernel.StageObserver {
	return func(stage string, d time.Duration) {
		c.StageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
	}
}

// RunDone counts a finished run.
func (c *Collectors) RunDone(pipeline string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Runs.WithLabelValues(pipeline, status).Inc()
}

// WriteTextfile writes the registry in the text exposition format, for
// the node exporter textfile collector.
func (c *Collectors) WriteTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, c.Registry), "write metrics to %s", path)
}
