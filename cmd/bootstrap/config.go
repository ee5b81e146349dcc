package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/bootstrap/internal/synth"
	"github.com/born-ml/bootstrap/internal/train"
)

// Config is the training configuration file.
type Config struct {
	Data   synth.Config `yaml:"data"`
	Train  train.Config `yaml:"train"`
	Report string       `yaml:"report"`
}

func defaultConfig() Config {
	return Config{
		Data:  synth.DefaultConfig(),
		Train: train.DefaultConfig(),
	}
}

// loadConfig overlays the YAML file at path on the defaults. An empty path
// yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags overrides config values with the flags set on the command line.
func applyFlags(c *cli.Command, cfg *Config) {
	if c.IsSet("samples") {
		cfg.Data.Samples = samples
	}
	if c.IsSet("features") {
		cfg.Data.Features = features
	}
	if c.IsSet("classes") {
		cfg.Data.Classes = classes
	}
	if c.IsSet("noise") {
		cfg.Data.NoiseRate = noiseRate
	}
	if c.IsSet("seed") {
		cfg.Data.Seed = seed
	}
	if c.IsSet("beta") {
		cfg.Train.Loss.Beta = beta
	}
	if c.IsSet("hard") {
		cfg.Train.Loss.HardMode = hardMode
	}
	if c.IsSet("normalize") {
		cfg.Train.Loss.Normalize = normalize
	}
	if c.IsSet("ignore-label") {
		//nolint:gosec // G115: label values fit in int32
		cfg.Train.Loss = cfg.Train.Loss.WithIgnoreLabel(int32(ignoreLabel))
	}
	if c.IsSet("epochs") {
		cfg.Train.Epochs = epochs
	}
	if c.IsSet("lr") {
		cfg.Train.LearningRate = learnRate
	}
	if c.IsSet("report") {
		cfg.Report = reportPath
	}
}
