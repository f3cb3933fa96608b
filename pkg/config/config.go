// Package config loads spool's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/chazu/spool/pkg/classify"
	"github.com/chazu/spool/pkg/export"
	"github.com/chazu/spool/pkg/fitting"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "SPOOL_CONFIG"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "spool.yaml"

// Tolerances are the classifier tolerances in inches. They are scaled with
// the model when millimeters are requested.
type Tolerances struct {
	Radius    float64 `yaml:"radius"`
	Position  float64 `yaml:"position"`
	Adjacency float64 `yaml:"adjacency"`
}

// Config is the full configuration. Zero fields take defaults.
type Config struct {
	Units        export.Units `yaml:"units"`
	Tolerances   Tolerances   `yaml:"tolerances"`
	OutputDir    string       `yaml:"output_dir"`
	MeshCells    int          `yaml:"mesh_cells"`
	Workers      int          `yaml:"workers"`
	ManifestPath string       `yaml:"manifest"`
	MetricsFile  string       `yaml:"metrics_file,omitempty"`
	LogLevel     string       `yaml:"log_level"`
	Development  bool         `yaml:"development"`
	Telemetry    bool         `yaml:"telemetry"`

	// EvalTimeout bounds one catalog script evaluation; zero means the
	// engine default.
	EvalTimeout time.Duration `yaml:"eval_timeout,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Units: export.Inch,
		Tolerances: Tolerances{
			Radius:    fitting.DefaultTolerance.Radius,
			Position:  fitting.DefaultTolerance.Position,
			Adjacency: classify.DefaultAdjacency,
		},
		OutputDir: ".",
		MeshCells: 200,
		Workers:   runtime.NumCPU(),
		LogLevel:  "info",
	}
}

// applyDefaults fills zero fields from Default.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Tolerances.Radius == 0 {
		c.Tolerances.Radius = d.Tolerances.Radius
	}
	if c.Tolerances.Position == 0 {
		c.Tolerances.Position = d.Tolerances.Position
	}
	if c.Tolerances.Adjacency == 0 {
		c.Tolerances.Adjacency = d.Tolerances.Adjacency
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.MeshCells == 0 {
		c.MeshCells = d.MeshCells
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate rejects values no generation could use.
func (c *Config) Validate() error {
	switch {
	case c.Tolerances.Radius <= 0 || c.Tolerances.Position <= 0 || c.Tolerances.Adjacency <= 0:
		return fmt.Errorf("tolerances must be positive: %+v", c.Tolerances)
	case c.Tolerances.Position < c.Tolerances.Radius:
		return fmt.Errorf("position tolerance %g tighter than radius tolerance %g", c.Tolerances.Position, c.Tolerances.Radius)
	case c.MeshCells < 16:
		return fmt.Errorf("mesh_cells %d below 16", c.MeshCells)
	case c.Workers < 1:
		return fmt.Errorf("workers %d below 1", c.Workers)
	case c.EvalTimeout < 0:
		return fmt.Errorf("eval_timeout %s is negative", c.EvalTimeout)
	}
	return nil
}

// Tolerance returns the classifier tolerance in u.
func (c *Config) Tolerance(u export.Units) fitting.Tolerance {
	return fitting.Tolerance{Radius: c.Tolerances.Radius, Position: c.Tolerances.Position}.Scale(u.PerInch())
}

// Parse decodes YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the config at path. An empty path means $SPOOL_CONFIG, then
// spool.yaml in the working directory; when neither exists the defaults are
// returned. A path given explicitly must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
