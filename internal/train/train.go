// Package train fits a linear softmax classifier with the bootstrap loss.
//
// The model is scores = X·W + b. Each step runs BootstrapLoss forward,
// recovers the score gradient from a gradient tape that watches the scores
// only, and applies full-batch gradient descent:
//
//	dW = Xᵀ·dScores
//	db = Σ_rows dScores
package train

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/bootstrap/internal/autodiff"
	"github.com/born-ml/bootstrap/internal/backend/cpu"
	"github.com/born-ml/bootstrap/internal/logger"
	"github.com/born-ml/bootstrap/internal/nn"
	"github.com/born-ml/bootstrap/internal/synth"
	"github.com/born-ml/bootstrap/internal/tensor"
)

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("invalid trainer config")

// Config controls a training run.
type Config struct {
	Epochs       int                `yaml:"epochs"`
	LearningRate float64            `yaml:"learning_rate"`
	LogEvery     int                `yaml:"log_every"`
	Loss         nn.BootstrapConfig `yaml:"loss"`
}

// DefaultConfig returns 200 epochs at learning rate 0.05 with the default loss.
func DefaultConfig() Config {
	return Config{
		Epochs:       200,
		LearningRate: 0.05,
		LogEvery:     20,
		Loss:         nn.DefaultBootstrapConfig(),
	}
}

// EpochStats summarizes one epoch.
type EpochStats struct {
	Epoch         int     `json:"epoch"`
	Loss          float64 `json:"loss"`
	NoisyAccuracy float64 `json:"noisy_accuracy"`
	CleanAccuracy float64 `json:"clean_accuracy"`
}

// Trainer holds the model parameters and the loss layer.
type Trainer struct {
	cfg     Config
	weights *mat.Dense
	bias    []float64
	backend *cpu.CPUBackend
	loss    *nn.BootstrapLoss[*cpu.CPUBackend]
	tape    *autodiff.GradientTape
	log     logger.Logger
}

// New creates a zero-initialized model for the given feature and class counts.
func New(features, classes int, cfg Config, log logger.Logger) (*Trainer, error) {
	if features <= 0 || classes < 2 {
		return nil, fmt.Errorf("%w: %d features, %d classes", ErrInvalidConfig, features, classes)
	}
	if cfg.Epochs <= 0 || cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("%w: epochs %d, learning rate %v", ErrInvalidConfig, cfg.Epochs, cfg.LearningRate)
	}
	if log == nil {
		log = logger.Discard()
	}

	// The trainer always feeds (batch, classes) scores.
	cfg.Loss.Axis = 1

	backend := cpu.New()
	loss, err := nn.NewBootstrapLoss(backend, cfg.Loss, nn.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create loss: %w", err)
	}

	return &Trainer{
		cfg:     cfg,
		weights: mat.NewDense(features, classes, nil),
		bias:    make([]float64, classes),
		backend: backend,
		loss:    loss,
		tape:    autodiff.NewGradientTape(),
		log:     log,
	}, nil
}

// Weights returns the weight matrix (features × classes).
func (t *Trainer) Weights() mat.Matrix {
	return t.weights
}

// Scores computes X·W + b.
func (t *Trainer) Scores(x mat.Matrix) *mat.Dense {
	var scores mat.Dense
	scores.Mul(x, t.weights)

	rows, _ := scores.Dims()
	for i := 0; i < rows; i++ {
		floats.Add(scores.RawRowView(i), t.bias)
	}
	return &scores
}

// Step runs one gradient-descent update on (x, labels) and returns the loss
// before the update.
func (t *Trainer) Step(x mat.Matrix, labels []int32) (float64, error) {
	rows, _ := x.Dims()
	if len(labels) != rows {
		return 0, fmt.Errorf("%w: %d samples, %d labels", nn.ErrShapeMismatch, rows, len(labels))
	}
	_, classes := t.weights.Dims()

	scores, err := tensor.FromSlice(t.Scores(x).RawMatrix().Data, tensor.Shape{rows, classes}, t.backend)
	if err != nil {
		return 0, err
	}
	target, err := tensor.FromSlice(labels, tensor.Shape{rows}, t.backend)
	if err != nil {
		return 0, err
	}

	t.tape.Clear()
	t.tape.Watch(scores.Raw())

	loss, err := nn.BootstrapForward(t.loss, scores, target)
	if err != nil {
		return 0, err
	}
	t.tape.Record(t.loss.Operation())

	seed, err := tensor.FromSlice([]float64{1}, tensor.Shape{1}, t.backend)
	if err != nil {
		return 0, err
	}
	grad := t.tape.Backward(seed.Raw())[scores.Raw()]

	dScores := mat.NewDense(rows, classes, grad.AsFloat64())
	var dW mat.Dense
	dW.Mul(x.T(), dScores)
	dW.Scale(t.cfg.LearningRate, &dW)
	t.weights.Sub(t.weights, &dW)

	for c := 0; c < classes; c++ {
		t.bias[c] -= t.cfg.LearningRate * floats.Sum(mat.Col(nil, c, dScores))
	}

	return loss.Data()[0], nil
}

// Predict returns the most probable class of every row of x.
func (t *Trainer) Predict(x mat.Matrix) []int32 {
	scores := t.Scores(x)
	rows, _ := scores.Dims()

	pred := make([]int32, rows)
	for i := range pred {
		//nolint:gosec // G115: class count < 2^31
		pred[i] = int32(floats.MaxIdx(scores.RawRowView(i)))
	}
	return pred
}

// Fit trains on ds.Noisy for cfg.Epochs epochs and returns per-epoch stats.
// Accuracy against ds.Clean shows how well the model sees through the noise.
func (t *Trainer) Fit(ctx context.Context, ds *synth.Dataset) ([]EpochStats, error) {
	history := make([]EpochStats, 0, t.cfg.Epochs)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}

		loss, err := t.Step(ds.X, ds.Noisy)
		if err != nil {
			return history, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		pred := t.Predict(ds.X)
		stats := EpochStats{
			Epoch:         epoch,
			Loss:          loss,
			NoisyAccuracy: Accuracy(pred, ds.Noisy),
			CleanAccuracy: Accuracy(pred, ds.Clean),
		}
		history = append(history, stats)

		if t.cfg.LogEvery > 0 && (epoch%t.cfg.LogEvery == 0 || epoch == t.cfg.Epochs) {
			t.log.Info("epoch",
				"epoch", epoch,
				"loss", stats.Loss,
				"noisy_acc", stats.NoisyAccuracy,
				"clean_acc", stats.CleanAccuracy,
			)
		}
	}

	return history, nil
}

// Accuracy is the fraction of positions where pred equals labels.
func Accuracy(pred, labels []int32) float64 {
	if len(labels) == 0 {
		return 0
	}
	correct := 0
	for i := range labels {
		if pred[i] == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}
