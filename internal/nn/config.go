package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/bootstrap/internal/autodiff/ops"
)

// BootstrapConfig holds the immutable settings of a BootstrapLoss.
//
// The yaml tags let callers embed it in their own configuration files.
type BootstrapConfig struct {
	// IgnoreLabel marks positions excluded from loss and gradient. Nil means
	// every position counts.
	IgnoreLabel *int32 `yaml:"ignore_label,omitempty"`

	// Normalize divides the loss by the number of non-ignored positions
	// instead of by the outer (batch) count.
	Normalize bool `yaml:"normalize"`

	// HardMode mixes in the one-hot predicted label instead of the predicted
	// probability vector.
	HardMode bool `yaml:"hard_mode"`

	// Beta weights the noisy label against the model's own prediction.
	// Expected in [0, 1]; values outside are accepted and logged.
	Beta float64 `yaml:"beta"`

	// Axis is the class axis of the score tensor. Negative values count from
	// the end.
	Axis int `yaml:"axis"`
}

// DefaultBootstrapConfig returns soft bootstrapping with beta 0.95 over axis 1,
// normalized by the number of valid positions.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Normalize: true,
		HardMode:  false,
		Beta:      0.95,
		Axis:      1,
	}
}

// WithIgnoreLabel returns a copy of c that ignores label.
func (c BootstrapConfig) WithIgnoreLabel(label int32) BootstrapConfig {
	c.IgnoreLabel = &label
	return c
}

// Validate rejects settings no computation can use.
func (c BootstrapConfig) Validate() error {
	if math.IsNaN(c.Beta) || math.IsInf(c.Beta, 0) {
		return fmt.Errorf("%w: beta must be finite, got %v", ErrInvalidConfig, c.Beta)
	}
	return nil
}

// Mode names the mixing mode for logs and reports.
func (c BootstrapConfig) Mode() string {
	if c.HardMode {
		return "hard"
	}
	return "soft"
}

func (c BootstrapConfig) params() ops.BootstrapParams {
	p := ops.BootstrapParams{
		Normalize: c.Normalize,
		HardMode:  c.HardMode,
		Beta:      c.Beta,
	}
	if c.IgnoreLabel != nil {
		p.HasIgnoreLabel = true
		p.IgnoreLabel = *c.IgnoreLabel
	}
	return p
}
