package config

import "github.com/spf13/pflag"

// Flags are the command-line overrides of a Config. Only flags that were
// set on the command line override file values.
type Flags struct {
	fs *pflag.FlagSet

	config          string
	debug           bool
	backend         string
	output          string
	workers         int
	resolution      int
	voxelSize       float32
	hashSize        int
	logFile         string
	metricsTextfile string
}

// BindFlags registers the config flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.config, "config", "c", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVarP(&f.backend, "backend", "b", "", "Meshing backend: dualcontour or slicer")
	fs.StringVarP(&f.output, "output", "o", "", "Output STL path")
	fs.IntVarP(&f.workers, "workers", "j", 0, "Parallel workers (0 uses every CPU)")
	fs.IntVarP(&f.resolution, "resolution", "r", 0, "Cells along each axis")
	fs.Float32Var(&f.voxelSize, "voxel", 0, "Voxel size in world units")
	fs.IntVar(&f.hashSize, "hash-size", 0, "Slicer hash table buckets (0 derives it)")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&f.metricsTextfile, "metrics-textfile", "", "Write prometheus metrics to this file after the run")
	return f
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.changed("debug") && f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.changed("backend") {
		cfg.Export.Backend = f.backend
	}
	if f.changed("output") {
		cfg.Export.Output = f.output
	}
	if f.changed("workers") {
		cfg.Export.Workers = f.workers
	}
	if f.changed("resolution") {
		r := f.resolution
		cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ = r, r, r
		cfg.Slicer.Width, cfg.Slicer.Height, cfg.Slicer.SliceCount = r+1, r+1, r+1
	}
	if f.changed("voxel") {
		cfg.Grid.VoxelSize = f.voxelSize
		cfg.Slicer.CellSize = f.voxelSize
		cfg.Slicer.ZStep = f.voxelSize
	}
	if f.changed("hash-size") {
		cfg.Slicer.HashSize = f.hashSize
	}
	if f.changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
	if f.changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.metricsTextfile
	}
}
