package config

import (
	"errors"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration errors. They are fatal before any search
// iteration runs.
var ErrInvalid = errors.New("config: invalid")

// Config holds every tunable consumed by the solver core.
type Config struct {
	// Objective weights. Alpha dominates so raising utilization (fewer
	// vehicles) beats distance; Beta breaks ties by distance.
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`

	// Physical constraints.
	SupportRatio  float64 `yaml:"support_ratio"`     // minimum supported base area, (0,1]
	GridPrecision int64   `yaml:"grid_precision_mm"` // height map cell size

	// Search budgets.
	MaxIterations int `yaml:"max_iterations"`
	MaxRuntimeSec int `yaml:"max_runtime_sec"`

	// Simulated annealing.
	StartTemp   float64 `yaml:"start_temp"`
	CoolingRate float64 `yaml:"cooling_rate"`

	// Adaptive operator weights.
	SegmentSize int     `yaml:"segment_size"` // iterations per weight update
	WeightDecay float64 `yaml:"weight_decay"` // reaction factor, [0,1)

	// Destroy operators remove between RemovalMin and RemovalMax of the
	// customers each iteration.
	RemovalMin float64 `yaml:"removal_min"`
	RemovalMax float64 `yaml:"removal_max"`

	EnableCache bool `yaml:"enable_cache"`
	Workers     int  `yaml:"workers"` // 0 means GOMAXPROCS
}

// Default returns the stock tuning.
func Default() Config {
	return Config{
		Alpha:         100000,
		Beta:          1,
		SupportRatio:  1.0,
		GridPrecision: 1,
		MaxIterations: 5000,
		MaxRuntimeSec: 3600,
		StartTemp:     100,
		CoolingRate:   0.9995,
		SegmentSize:   100,
		WeightDecay:   0.8,
		RemovalMin:    0.1,
		RemovalMax:    0.4,
		EnableCache:   true,
	}
}

// Load reads a YAML file over the defaults. An empty path returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unusable tunables before the search starts.
func (c Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}
	if c.Alpha < 0 {
		return fail("alpha must be >= 0, got %v", c.Alpha)
	}
	if c.Beta < 0 {
		return fail("beta must be >= 0, got %v", c.Beta)
	}
	if c.SupportRatio <= 0 || c.SupportRatio > 1 {
		return fail("support_ratio must be in (0,1], got %v", c.SupportRatio)
	}
	if c.GridPrecision <= 0 {
		return fail("grid_precision_mm must be > 0, got %d", c.GridPrecision)
	}
	if c.MaxIterations <= 0 && c.MaxRuntimeSec <= 0 {
		return fail("either max_iterations or max_runtime_sec must be set")
	}
	if c.StartTemp <= 0 {
		return fail("start_temp must be > 0, got %v", c.StartTemp)
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return fail("cooling_rate must be in (0,1), got %v", c.CoolingRate)
	}
	if c.SegmentSize <= 0 {
		return fail("segment_size must be > 0, got %d", c.SegmentSize)
	}
	if c.WeightDecay < 0 || c.WeightDecay >= 1 {
		return fail("weight_decay must be in [0,1), got %v", c.WeightDecay)
	}
	if c.RemovalMin <= 0 || c.RemovalMax > 1 || c.RemovalMin > c.RemovalMax {
		return fail("removal range must satisfy 0 < min <= max <= 1, got [%v,%v]", c.RemovalMin, c.RemovalMax)
	}
	if c.Workers < 0 {
		return fail("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}
