// Package synth generates labelled Gaussian-cluster datasets whose labels are
// corrupted at a known rate, for exercising noisy-label training.
package synth

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidConfig is returned by Generate for unusable settings.
var ErrInvalidConfig = errors.New("invalid dataset config")

// Config describes a synthetic dataset.
type Config struct {
	Samples  int `yaml:"samples"`
	Features int `yaml:"features"`
	Classes  int `yaml:"classes"`

	// Separation is the standard deviation of the class centres.
	Separation float64 `yaml:"separation"`

	// Spread is the standard deviation of samples around their centre.
	Spread float64 `yaml:"spread"`

	// NoiseRate is the probability that a label is replaced by a uniformly
	// chosen different class.
	NoiseRate float64 `yaml:"noise_rate"`

	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns a small, well separated 4-class problem with 30% label
// noise.
func DefaultConfig() Config {
	return Config{
		Samples:    600,
		Features:   8,
		Classes:    4,
		Separation: 3,
		Spread:     1,
		NoiseRate:  0.3,
		Seed:       1,
	}
}

// Validate checks that a dataset can be generated from c.
func (c Config) Validate() error {
	switch {
	case c.Samples <= 0:
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidConfig, c.Samples)
	case c.Features <= 0:
		return fmt.Errorf("%w: features must be positive, got %d", ErrInvalidConfig, c.Features)
	case c.Classes < 2:
		return fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidConfig, c.Classes)
	case c.Spread <= 0 || c.Separation <= 0:
		return fmt.Errorf("%w: spread and separation must be positive", ErrInvalidConfig)
	case c.NoiseRate < 0 || c.NoiseRate >= 1:
		return fmt.Errorf("%w: noise rate must be in [0, 1), got %v", ErrInvalidConfig, c.NoiseRate)
	}
	return nil
}

// Dataset is a generated sample set.
type Dataset struct {
	// X holds one sample per row.
	X *mat.Dense

	// Clean are the true classes, Noisy the corrupted ones used for training.
	Clean []int32
	Noisy []int32

	// Flipped counts the samples whose noisy label differs from the clean one.
	Flipped int
}

// Generate draws a dataset. Samples cycle through the classes so every class
// is equally represented. The same Config always yields the same dataset.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src := rand.NewSource(cfg.Seed)
	rng := rand.New(src)
	centre := distuv.Normal{Mu: 0, Sigma: cfg.Separation, Src: src}
	jitter := distuv.Normal{Mu: 0, Sigma: cfg.Spread, Src: src}
	flip := distuv.Bernoulli{P: cfg.NoiseRate, Src: src}

	centres := mat.NewDense(cfg.Classes, cfg.Features, nil)
	for c := 0; c < cfg.Classes; c++ {
		for f := 0; f < cfg.Features; f++ {
			centres.Set(c, f, centre.Rand())
		}
	}

	ds := &Dataset{
		X:     mat.NewDense(cfg.Samples, cfg.Features, nil),
		Clean: make([]int32, cfg.Samples),
		Noisy: make([]int32, cfg.Samples),
	}

	for i := 0; i < cfg.Samples; i++ {
		class := i % cfg.Classes
		for f := 0; f < cfg.Features; f++ {
			ds.X.Set(i, f, centres.At(class, f)+jitter.Rand())
		}

		//nolint:gosec // G115: class count < 2^31
		ds.Clean[i] = int32(class)
		ds.Noisy[i] = ds.Clean[i]
		if flip.Rand() == 1 {
			other := (class + 1 + rng.Intn(cfg.Classes-1)) % cfg.Classes
			//nolint:gosec // G115: class count < 2^31
			ds.Noisy[i] = int32(other)
			ds.Flipped++
		}
	}

	return ds, nil
}

// NoiseRate is the observed fraction of flipped labels.
func (d *Dataset) NoiseRate() float64 {
	return float64(d.Flipped) / float64(len(d.Clean))
}
