package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataPath           string  `yaml:"data_path"`
	LabelColumn        int     `yaml:"label_column"`
	BatchSize          int     `yaml:"batch_size"`
	LearningRate       float64 `yaml:"learning_rate"`
	NoiseDim           int     `yaml:"noise_dim"`
	DataDim            int     `yaml:"data_dim"`
	NumClasses         int     `yaml:"num_classes"`
	Classes            []int   `yaml:"classes"`
	LayerWidth         int     `yaml:"layer_width"`
	Steps              int     `yaml:"steps"`
	CheckpointPrefix   string  `yaml:"checkpoint_prefix"`
	CheckpointInterval int     `yaml:"checkpoint_interval"`
	OutputDir          string  `yaml:"output_dir"`
	Seed               int64   `yaml:"seed"`
	LogEvery           int     `yaml:"log_every"`
	HistoryPath        string  `yaml:"history_path"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataPath    string
	Steps       int
	BatchSize   int
	Seed        int64
	LogEvery    int
	OutputDir   string
	HistoryPath string
}

// Load reads and validates a Config from YAML.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataPath != "" {
		c.DataPath = o.DataPath
	}
	if o.Steps > 0 {
		c.Steps = o.Steps
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.HistoryPath != "" {
		c.HistoryPath = o.HistoryPath
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataPath == "" {
		return errors.New("data_path must be set")
	}
	if c.LabelColumn < 0 {
		return fmt.Errorf("label_column must be >= 0 (got %d)", c.LabelColumn)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.NoiseDim <= 0 {
		return fmt.Errorf("noise_dim must be > 0 (got %d)", c.NoiseDim)
	}
	if c.DataDim <= 0 {
		return fmt.Errorf("data_dim must be > 0 (got %d)", c.DataDim)
	}
	if c.NumClasses <= 0 {
		return fmt.Errorf("num_classes must be > 0 (got %d)", c.NumClasses)
	}
	if len(c.Classes) != c.NumClasses {
		return fmt.Errorf("classes lists %d values, num_classes is %d", len(c.Classes), c.NumClasses)
	}
	if c.LayerWidth <= 0 {
		return fmt.Errorf("layer_width must be > 0 (got %d)", c.LayerWidth)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be > 0 (got %d)", c.Steps)
	}
	if c.CheckpointPrefix == "" {
		return errors.New("checkpoint_prefix must be set")
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint_interval must be > 0 (got %d)", c.CheckpointInterval)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must be set")
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return nil
}
