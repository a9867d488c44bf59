package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test export defaults
	if cfg.Export.Backend != "dualcontour" {
		t.Errorf("expected backend dualcontour, got %s", cfg.Export.Backend)
	}
	if cfg.Export.Output != "out.stl" {
		t.Errorf("expected output out.stl, got %s", cfg.Export.Output)
	}
	if cfg.Export.Workers != 0 {
		t.Errorf("expected workers 0, got %d", cfg.Export.Workers)
	}

	// Test grid defaults
	if cfg.Grid.NX != 64 || cfg.Grid.NY != 64 || cfg.Grid.NZ != 64 {
		t.Errorf("expected 64^3 grid, got %dx%dx%d", cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ)
	}
	if cfg.Grid.VoxelSize != 0.05 {
		t.Errorf("expected voxel size 0.05, got %f", cfg.Grid.VoxelSize)
	}

	// The default lattices must enclose the default unit sphere.
	if cfg.Grid.Offset[0] > -1 || cfg.Grid.Offset[0]+float32(cfg.Grid.NX)*cfg.Grid.VoxelSize < 1 {
		t.Errorf("default grid does not enclose the unit sphere")
	}
	if cfg.Slicer.Offset[2] > -1 || cfg.Slicer.Offset[2]+float32(cfg.Slicer.SliceCount-1)*cfg.Slicer.ZStep < 1 {
		t.Errorf("default slice stack does not enclose the unit sphere")
	}

	// Test scene defaults
	if len(cfg.Scene.Shapes) != 1 || cfg.Scene.Shapes[0].Type != "sphere" {
		t.Errorf("expected a single sphere, got %+v", cfg.Scene.Shapes)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if cfg.Metrics.Textfile != "" {
		t.Errorf("expected no metrics textfile, got %s", cfg.Metrics.Textfile)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
export:
  backend: slicer
  output: "part.stl"
  workers: 3

slicer:
  width: 101
  height: 81
  cell_size: 0.02
  z_step: 0.01
  slice_count: 200
  offset: [-1, -0.8, 0]
  hash_size: 4096

scene:
  op: difference
  shapes:
    - type: box
      size: [1, 1, 1]
    - type: cylinder
      radius: 0.3
      height: 3
      rotate:
        axis: [1, 0, 0]
        angle: 90

logging:
  level: "debug"
  log_file: "isomesh.log"

metrics:
  textfile: "/var/lib/node_exporter/isomesh.prom"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Export.Backend != "slicer" {
		t.Errorf("expected backend slicer, got %s", cfg.Export.Backend)
	}
	if cfg.Export.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Export.Workers)
	}
	if cfg.Export.Header != "isomesh" {
		t.Errorf("expected default header to survive, got %q", cfg.Export.Header)
	}

	if cfg.Slicer.Width != 101 || cfg.Slicer.Height != 81 {
		t.Errorf("expected 101x81 slices, got %dx%d", cfg.Slicer.Width, cfg.Slicer.Height)
	}
	if cfg.Slicer.Offset != [3]float32{-1, -0.8, 0} {
		t.Errorf("unexpected slicer offset %v", cfg.Slicer.Offset)
	}
	if cfg.Slicer.HashSize != 4096 {
		t.Errorf("expected hash size 4096, got %d", cfg.Slicer.HashSize)
	}

	// Grid section untouched by the file
	if cfg.Grid.NX != 64 {
		t.Errorf("expected default grid, got nx=%d", cfg.Grid.NX)
	}

	if cfg.Scene.Op != "difference" {
		t.Errorf("expected op difference, got %s", cfg.Scene.Op)
	}
	if len(cfg.Scene.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(cfg.Scene.Shapes))
	}
	cyl := cfg.Scene.Shapes[1]
	if cyl.Type != "cylinder" || cyl.Rotate == nil || cyl.Rotate.Angle != 90 {
		t.Errorf("unexpected cylinder %+v", cyl)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/isomesh.prom" {
		t.Errorf("unexpected metrics textfile %s", cfg.Metrics.Textfile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
grid:
  nx: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/isomesh.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Change into an empty temp directory
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create isomesh.yaml in current directory
	if err := os.WriteFile(FileName, []byte("grid:\n  nx: 8\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find isomesh.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "no flags keeps defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Grid.NX != 64 || cfg.Export.Backend != "dualcontour" {
					t.Errorf("defaults changed: %+v", cfg.Export)
				}
			},
		},
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "backend and output",
			args: []string{"-b", "slicer", "-o", "mesh.stl"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.Backend != "slicer" {
					t.Errorf("expected backend slicer, got %s", cfg.Export.Backend)
				}
				if cfg.Export.Output != "mesh.stl" {
					t.Errorf("expected output mesh.stl, got %s", cfg.Export.Output)
				}
			},
		},
		{
			name: "resolution sets both backends",
			args: []string{"--resolution", "32"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Grid.NX != 32 || cfg.Grid.NY != 32 || cfg.Grid.NZ != 32 {
					t.Errorf("expected 32^3 grid, got %dx%dx%d", cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ)
				}
				if cfg.Slicer.Width != 33 || cfg.Slicer.Height != 33 || cfg.Slicer.SliceCount != 33 {
					t.Errorf("expected 33 samples per axis, got %+v", cfg.Slicer)
				}
			},
		},
		{
			name: "voxel sets every spacing",
			args: []string{"--voxel", "0.25"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Grid.VoxelSize != 0.25 || cfg.Slicer.CellSize != 0.25 || cfg.Slicer.ZStep != 0.25 {
					t.Errorf("expected spacing 0.25, got %+v %+v", cfg.Grid, cfg.Slicer)
				}
			},
		},
		{
			name: "explicit zero workers overrides",
			args: []string{"--workers", "0", "--hash-size", "0"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.Workers != 0 || cfg.Slicer.HashSize != 0 {
					t.Errorf("expected zero overrides, got %+v", cfg.Export)
				}
			},
		},
		{
			name: "output files",
			args: []string{"--log-file", "run.log", "--metrics-textfile", "run.prom"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
				}
				if cfg.Metrics.Textfile != "run.prom" {
					t.Errorf("expected metrics textfile run.prom, got %s", cfg.Metrics.Textfile)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags := BindFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			// Apply flags to default config
			cfg := Default()
			flags.apply(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
grid:
  nx: 40
  voxel_size: 0.1
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flags to override the config file
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := BindFlags(fs)
	if err := fs.Parse([]string{"--config", configPath, "--resolution", "20"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	// Load config
	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Resolution should be from flag (20), not file (40)
	if cfg.Grid.NX != 20 {
		t.Errorf("expected nx 20 from flag, got %d", cfg.Grid.NX)
	}

	// Voxel size should be from file since no flag override
	if cfg.Grid.VoxelSize != 0.1 {
		t.Errorf("expected voxel size 0.1 from file, got %f", cfg.Grid.VoxelSize)
	}
}

func TestLoadNilFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Export.Backend != "dualcontour" {
		t.Errorf("expected defaults, got backend %s", cfg.Export.Backend)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Export.Backend = "slicer"
	cfg.Scene.Shapes = append(cfg.Scene.Shapes, ShapeConfig{Type: "torus", Major: 1, Minor: 0.2})
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Export.Backend != "slicer" {
		t.Errorf("expected backend slicer, got %s", loaded.Export.Backend)
	}
	if len(loaded.Scene.Shapes) != 2 || loaded.Scene.Shapes[1].Minor != 0.2 {
		t.Errorf("unexpected shapes after reload: %+v", loaded.Scene.Shapes)
	}
}
