// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the bootstrapped cross-entropy loss for training
// classifiers on noisy labels.
//
// Example:
//
//	backend := cpu.New()
//	criterion, err := nn.NewBootstrapLoss(backend, nn.DefaultBootstrapConfig())
//	if err != nil {
//	    return err
//	}
//	loss, err := nn.BootstrapForward(criterion, scores, labels)
//	grad := nn.BootstrapBackward(criterion, float32(1))
package nn

import (
	"log/slog"

	"github.com/born-ml/bootstrap/internal/logger"
	"github.com/born-ml/bootstrap/internal/nn"
	"github.com/born-ml/bootstrap/internal/tensor"
)

// Errors returned by the loss.
var (
	ErrShapeMismatch = nn.ErrShapeMismatch
	ErrInvalidConfig = nn.ErrInvalidConfig
	ErrInvalidInput  = nn.ErrInvalidInput
)

// GradientRequestError is the panic value of a Backward call that asks for the
// label gradient.
type GradientRequestError = nn.GradientRequestError

// BootstrapConfig holds the loss settings.
type BootstrapConfig = nn.BootstrapConfig

// DefaultBootstrapConfig returns soft bootstrapping with beta 0.95, normalized.
func DefaultBootstrapConfig() BootstrapConfig {
	return nn.DefaultBootstrapConfig()
}

// BootstrapLoss is the bootstrapped softmax cross-entropy loss.
type BootstrapLoss[B tensor.Backend] = nn.BootstrapLoss[B]

// Option customizes a BootstrapLoss.
type Option = nn.Option

// ProbabilityProvider normalizes scores into probabilities.
type ProbabilityProvider = nn.ProbabilityProvider

// PredictionExtractor picks the most probable class.
type PredictionExtractor = nn.PredictionExtractor

// NewBootstrapLoss creates a bootstrap loss on backend.
func NewBootstrapLoss[B tensor.Backend](backend B, cfg BootstrapConfig, opts ...Option) (*BootstrapLoss[B], error) {
	return nn.NewBootstrapLoss(backend, cfg, opts...)
}

// WithProbabilityProvider replaces the backend's softmax.
func WithProbabilityProvider(p ProbabilityProvider) Option {
	return nn.WithProbabilityProvider(p)
}

// WithPredictionExtractor replaces the backend's argmax.
func WithPredictionExtractor(e PredictionExtractor) Option {
	return nn.WithPredictionExtractor(e)
}

// Logger is the structured logger accepted by WithLogger.
type Logger = logger.Logger

// NewLogger wraps an slog handler.
func NewLogger(h slog.Handler) Logger {
	return logger.New(h)
}

// WithLogger routes the layer's logs to l.
func WithLogger(l Logger) Option {
	return nn.WithLogger(l)
}

// BootstrapForward computes the loss of typed scores against typed labels.
func BootstrapForward[T tensor.Float, B tensor.Backend](
	l *BootstrapLoss[B],
	scores *tensor.Tensor[T, B],
	labels *tensor.Tensor[int32, B],
) (*tensor.Tensor[T, B], error) {
	return nn.BootstrapForward(l, scores, labels)
}

// BootstrapBackward returns the score gradient of the last forward pass,
// scaled by lossWeight.
func BootstrapBackward[T tensor.Float, B tensor.Backend](l *BootstrapLoss[B], lossWeight T) *tensor.Tensor[T, B] {
	return nn.BootstrapBackward(l, lossWeight)
}
