// Package config holds the engine and viewer settings, loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Growth configures the coarse-grid search.
type Growth struct {
	// BlockSize is the coarse grid step in pixels.
	BlockSize int `yaml:"block_size"`
	// DefaultDepth is the ring index shown right after a stroke is released.
	DefaultDepth int `yaml:"default_depth"`
	// InteriorSteps is the number of fixed-batch steps that fill the painted area.
	InteriorSteps int `yaml:"interior_steps"`
	// PeripheralScale controls how fast batches grow past the interior phase.
	PeripheralScale float64 `yaml:"peripheral_scale"`
}

// Training configures sampling and the random forest.
type Training struct {
	MaxPositives       int   `yaml:"max_positives"`
	MaxNegatives       int   `yaml:"max_negatives"`
	MinPositives       int   `yaml:"min_positives"`
	MinGrowthPositives int   `yaml:"min_growth_positives"`
	Trees              int   `yaml:"trees"`
	MaxDepth           int   `yaml:"max_depth"`
	MinLeaf            int   `yaml:"min_leaf"`
	Oversample         int   `yaml:"oversample"`
	Seed               int64 `yaml:"seed"`
}

// Cost configures the per-pixel traversal cost.
type Cost struct {
	ScorePower         float64 `yaml:"score_power"`
	ScorePowerStep     float64 `yaml:"score_power_step"`
	PositiveStrokeCost float64 `yaml:"positive_stroke_cost"`
}

// Labels configures the label layer policy.
type Labels struct {
	Lock          bool `yaml:"lock"`
	UndoDepth     int  `yaml:"undo_depth"`
	NoDataMinArea int  `yaml:"no_data_min_area"`
}

// Speculation configures background retraining.
type Speculation struct {
	Enabled bool `yaml:"enabled"`
}

// Image configures loading.
type Image struct {
	MaxPixels int `yaml:"max_pixels"`
}

// Session configures the interactive viewer.
type Session struct {
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	BrushDigit       int           `yaml:"brush_digit"`
}

// Config is the full configuration.
type Config struct {
	Growth      Growth      `yaml:"growth"`
	Training    Training    `yaml:"training"`
	Cost        Cost        `yaml:"cost"`
	Labels      Labels      `yaml:"labels"`
	Speculation Speculation `yaml:"speculation"`
	Image       Image       `yaml:"image"`
	Session     Session     `yaml:"session"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Growth: Growth{
			BlockSize:       4,
			DefaultDepth:    40,
			InteriorSteps:   20,
			PeripheralScale: 1.0,
		},
		Training: Training{
			MaxPositives:       4000,
			MaxNegatives:       8000,
			MinPositives:       30,
			MinGrowthPositives: 100,
			Trees:              30,
			MaxDepth:           16,
			MinLeaf:            1,
			Oversample:         50,
			Seed:               1,
		},
		Cost: Cost{
			ScorePower:         2.0,
			ScorePowerStep:     0.25,
			PositiveStrokeCost: 1e-5,
		},
		Labels: Labels{
			Lock:          true,
			UndoDepth:     10,
			NoDataMinArea: 3,
		},
		Speculation: Speculation{Enabled: true},
		Image:       Image{MaxPixels: 1 << 26},
		Session: Session{
			AutosaveInterval: 5 * time.Minute,
			BrushDigit:       4,
		},
	}
}

// Load reads a YAML file on top of the defaults. Fields absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Growth.BlockSize < 1 {
		errs = append(errs, errors.New("growth.block_size must be at least 1"))
	}
	if c.Growth.InteriorSteps < 1 {
		errs = append(errs, errors.New("growth.interior_steps must be at least 1"))
	}
	if c.Growth.DefaultDepth < c.Growth.InteriorSteps {
		errs = append(errs, errors.New("growth.default_depth must not be below growth.interior_steps"))
	}
	if c.Growth.PeripheralScale < 0 {
		errs = append(errs, errors.New("growth.peripheral_scale must not be negative"))
	}
	if c.Training.MaxPositives < c.Training.MinPositives || c.Training.MinPositives < 1 {
		errs = append(errs, errors.New("training.max_positives must be at least training.min_positives, which must be positive"))
	}
	if c.Training.MaxNegatives < 2 {
		errs = append(errs, errors.New("training.max_negatives must be at least 2"))
	}
	if c.Training.Trees < 1 {
		errs = append(errs, errors.New("training.trees must be at least 1"))
	}
	if c.Cost.ScorePower <= 0 {
		errs = append(errs, errors.New("cost.score_power must be positive"))
	}
	if c.Cost.PositiveStrokeCost <= 0 {
		errs = append(errs, errors.New("cost.positive_stroke_cost must be positive"))
	}
	if c.Labels.UndoDepth < 1 {
		errs = append(errs, errors.New("labels.undo_depth must be at least 1"))
	}
	return errors.Join(errs...)
}
