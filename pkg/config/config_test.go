package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/spool/pkg/export"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("units: mm\nworkers: 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Units != export.Millimeter || cfg.Workers != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MeshCells != 200 || cfg.Tolerances.Radius != 0.01 || cfg.LogLevel != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	tol := cfg.Tolerance(cfg.Units)
	if math.Abs(tol.Radius-0.254) > 1e-12 || math.Abs(tol.Position-2.54) > 1e-12 {
		t.Errorf("scaled tolerance = %+v", tol)
	}
}

func TestParseEvalTimeout(t *testing.T) {
	cfg, err := Parse([]byte("eval_timeout: 250ms\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EvalTimeout != 250*time.Millisecond {
		t.Errorf("eval_timeout = %s", cfg.EvalTimeout)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad units", "units: cubits\n"},
		{"negative tolerance", "tolerances: {radius: -1}\n"},
		{"inverted tolerances", "tolerances: {radius: 0.5, position: 0.1}\n"},
		{"too coarse", "mesh_cells: 4\n"},
		{"not yaml", "units: [\n"},
		{"negative timeout", "eval_timeout: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadResolution(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "spool.yaml")
	want := Default()
	want.Units = export.Millimeter
	want.OutputDir = "out"
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Units != export.Millimeter || got.OutputDir != "out" {
		t.Errorf("Load = %+v", got)
	}

	t.Setenv(EnvPath, path)
	got, err = Load("")
	if err != nil || got.OutputDir != "out" {
		t.Errorf("Load via %s = %+v, %v", EnvPath, got, err)
	}

	t.Setenv(EnvPath, filepath.Join(dir, "missing.yaml"))
	if _, err := Load(""); err == nil {
		t.Error("missing file named by the environment should fail")
	}

	t.Setenv(EnvPath, "")
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(dir)
	got, err = Load("")
	if err != nil || got.Units != export.Inch {
		t.Errorf("Load without a file = %+v, %v", got, err)
	}
}
