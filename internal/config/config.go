// Package config handles export configuration loading and management.
package config

// Config holds all export settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Grid    GridConfig    `yaml:"grid"`
	Slicer  SlicerConfig  `yaml:"slicer"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ExportConfig selects the meshing backend and the output.
type ExportConfig struct {
	Backend string `yaml:"backend"` // "dualcontour" or "slicer"
	Output  string `yaml:"output"`
	Workers int    `yaml:"workers"` // 0 uses every CPU
	Header  string `yaml:"header"`  // STL header text, at most 80 bytes
}

// GridConfig holds the dual contouring lattice.
type GridConfig struct {
	NX          int        `yaml:"nx"`
	NY          int        `yaml:"ny"`
	NZ          int        `yaml:"nz"`
	VoxelSize   float32    `yaml:"voxel_size"`
	Offset      [3]float32 `yaml:"offset"`
	IsoValue    float32    `yaml:"iso_value"`
	RefineSteps int        `yaml:"refine_steps"`
}

// SlicerConfig holds the slice stack of the streaming backend.
type SlicerConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	CellSize   float32    `yaml:"cell_size"`
	ZStep      float32    `yaml:"z_step"`
	SliceCount int        `yaml:"slice_count"`
	Offset     [3]float32 `yaml:"offset"`
	IsoValue   float32    `yaml:"iso_value"`
	HashSize   int        `yaml:"hash_size"` // 0 derives the size from the resolution
}

// SceneConfig describes the solid as primitives combined by one operation.
type SceneConfig struct {
	Op         string        `yaml:"op"` // union, intersection, difference, smooth_union
	Smoothness float32       `yaml:"smoothness"`
	Shapes     []ShapeConfig `yaml:"shapes"`
}

// ShapeConfig is one primitive. Only the fields of its type are read.
type ShapeConfig struct {
	Type   string        `yaml:"type"` // sphere, box, torus, cylinder, plane
	Center [3]float32    `yaml:"center"`
	Radius float32       `yaml:"radius"`
	Size   [3]float32    `yaml:"size"`
	Major  float32       `yaml:"major"`
	Minor  float32       `yaml:"minor"`
	Height float32       `yaml:"height"`
	Normal [3]float32    `yaml:"normal"`
	Offset float32       `yaml:"offset"`
	Scale  float32       `yaml:"scale"`
	Rotate *RotateConfig `yaml:"rotate,omitempty"`
}

// RotateConfig is a rotation about Axis by Angle degrees.
type RotateConfig struct {
	Axis  [3]float32 `yaml:"axis"`
	Angle float32    `yaml:"angle"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds metrics output settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // prometheus text file written after a run
}

// Default returns a Config with sensible default values: a unit sphere
// meshed on a lattice that encloses it.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Backend: "dualcontour",
			Output:  "out.stl",
			Workers: 0,
			Header:  "isomesh",
		},
		Grid: GridConfig{
			NX:          64,
			NY:          64,
			NZ:          64,
			VoxelSize:   0.05,
			Offset:      [3]float32{-1.6, -1.6, -1.6},
			RefineSteps: 4,
		},
		Slicer: SlicerConfig{
			Width:      65,
			Height:     65,
			CellSize:   0.05,
			ZStep:      0.05,
			SliceCount: 65,
			Offset:     [3]float32{-1.6, -1.6, -1.6},
		},
		Scene: SceneConfig{
			Op: "union",
			Shapes: []ShapeConfig{
				{Type: "sphere", Radius: 1},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
