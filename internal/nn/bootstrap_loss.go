package nn

import (
	"fmt"

	"github.com/born-ml/bootstrap/internal/autodiff/ops"
	"github.com/born-ml/bootstrap/internal/logger"
	"github.com/born-ml/bootstrap/internal/tensor"
)

// ProbabilityProvider normalizes raw class scores into probabilities along dim.
type ProbabilityProvider interface {
	Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor
}

// PredictionExtractor returns the int32 index of the most probable class along
// dim, with the lowest index winning ties.
type PredictionExtractor interface {
	Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor
}

// Option customizes a BootstrapLoss.
type Option func(*options)

type options struct {
	softmax ProbabilityProvider
	argmax  PredictionExtractor
	log     logger.Logger
}

// WithProbabilityProvider replaces the backend's softmax.
func WithProbabilityProvider(p ProbabilityProvider) Option {
	return func(o *options) { o.softmax = p }
}

// WithPredictionExtractor replaces the backend's argmax.
func WithPredictionExtractor(e PredictionExtractor) Option {
	return func(o *options) { o.argmax = e }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// BootstrapLoss computes a softmax cross-entropy against a bootstrapped
// target: a blend of the (possibly wrong) label and the model's own
// prediction.
//
// Mathematical Formulation, per non-ignored position with noisy label n and
// predicted label p:
//
//	hard: w(k) = β·[k=n] + (1-β)·[k=p]
//	soft: w(k) = β·[k=n] + (1-β)·prob(k)
//	Loss = Σ -w(k)·log(prob(k)) / divisor
//
// Gradient (Backward), with the target held constant:
//
//	∂L/∂scores = (prob - w) · lossWeight / divisor
//
// divisor is the number of non-ignored positions when Normalize is set, the
// outer (batch) count otherwise.
//
// Usage:
//
//	criterion, err := nn.NewBootstrapLoss(backend, nn.DefaultBootstrapConfig())
//	loss, err := criterion.Forward(scores, labels)   // scores [N, C, ...], labels [N, ...]
//	grad := criterion.Backward(ones, []bool{true, false})
//
// A BootstrapLoss is not safe for concurrent use: each Forward overwrites the
// probabilities and predicted labels of the previous call.
type BootstrapLoss[B tensor.Backend] struct {
	backend B
	config  BootstrapConfig
	params  ops.BootstrapParams
	softmax ProbabilityProvider
	argmax  PredictionExtractor
	log     logger.Logger

	scoresShape tensor.Shape
	axis        int
	layout      tensor.Layout

	op        *ops.BootstrapLossOp
	prob      *tensor.RawTensor
	predicted *tensor.RawTensor
}

// NewBootstrapLoss creates a new bootstrap loss on backend.
//
// The backend's Softmax and Argmax serve as probability provider and
// prediction extractor unless replaced by options.
func NewBootstrapLoss[B tensor.Backend](backend B, cfg BootstrapConfig, opts ...Option) (*BootstrapLoss[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		softmax: backend,
		argmax:  backend,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	l := &BootstrapLoss[B]{
		backend: backend,
		config:  cfg,
		params:  cfg.params(),
		softmax: o.softmax,
		argmax:  o.argmax,
		log:     o.log.With("layer", "BootstrapLoss"),
	}

	if cfg.Beta < 0 || cfg.Beta > 1 {
		l.log.Warn("beta outside [0, 1]", "beta", cfg.Beta)
	}

	return l, nil
}

// Config returns the layer configuration.
func (l *BootstrapLoss[B]) Config() BootstrapConfig {
	return l.config
}

// Layout returns the (outer, class, inner) split computed by the last Setup.
func (l *BootstrapLoss[B]) Layout() tensor.Layout {
	return l.layout
}

// Setup resolves the class axis for scores and checks that labels hold one
// entry per (outer, inner) position. It fails with ErrShapeMismatch otherwise;
// the layer is unusable until a Setup succeeds.
func (l *BootstrapLoss[B]) Setup(scores, labels tensor.Shape) error {
	l.scoresShape = nil

	if len(scores) < 2 {
		return fmt.Errorf("%w: scores must have rank >= 2, got shape %v", ErrInvalidInput, scores)
	}
	axis, err := scores.CanonicalAxis(l.config.Axis)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	layout, err := tensor.LayoutAt(scores, axis)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if got := labels.NumElements(); got != layout.Positions() {
		return fmt.Errorf("%w: scores %v split at axis %d need %d labels (outer %d × inner %d), got %d",
			ErrShapeMismatch, scores, axis, layout.Positions(), layout.Outer, layout.Inner, got)
	}

	l.scoresShape = scores.Clone()
	l.axis = axis
	l.layout = layout

	l.log.Debug("setup",
		"scores", scores,
		"axis", axis,
		"layout", layout.String(),
		"mode", l.config.Mode(),
		"beta", l.config.Beta,
		"normalize", l.config.Normalize,
		"ignore_label", l.params.HasIgnoreLabel,
	)
	return nil
}

// Forward computes the loss of scores against the noisy labels.
//
// scores must be float32 or float64; labels must be int32. Setup runs again
// whenever the score shape changes. The returned loss is a one-element tensor
// of the score dtype. With Normalize set and every position ignored the loss
// is NaN. A failed Forward discards the state of the previous call, so
// Backward panics until the next successful Forward.
func (l *BootstrapLoss[B]) Forward(scores, labels *tensor.RawTensor) (*tensor.RawTensor, error) {
	l.op, l.prob, l.predicted = nil, nil, nil

	if !scores.DType().IsFloat() {
		return nil, fmt.Errorf("%w: scores dtype %s, want float32 or float64", ErrInvalidInput, scores.DType())
	}
	if labels.DType() != tensor.Int32 {
		return nil, fmt.Errorf("%w: labels dtype %s, want int32", ErrInvalidInput, labels.DType())
	}
	if l.scoresShape == nil || !l.scoresShape.Equal(scores.Shape()) {
		if err := l.Setup(scores.Shape(), labels.Shape()); err != nil {
			return nil, err
		}
	} else if labels.NumElements() != l.layout.Positions() {
		return nil, fmt.Errorf("%w: need %d labels, got %d", ErrShapeMismatch, l.layout.Positions(), labels.NumElements())
	}

	l.prob = l.softmax.Softmax(scores, l.axis)
	l.predicted = l.argmax.Argmax(l.prob, l.axis)

	loss, count := ops.BootstrapForward(l.prob, labels, l.predicted, l.layout, l.params)
	if count == 0 && l.params.Normalize {
		l.log.Warn("every position ignored, normalized loss is NaN", "positions", l.layout.Positions())
	}

	l.op = ops.NewBootstrapLossOp(scores, labels, l.prob, l.predicted, loss, l.layout, l.params)
	return loss, nil
}

// Probabilities returns the probabilities computed by the last Forward, the
// optional second output of the layer. Callers must not modify it.
func (l *BootstrapLoss[B]) Probabilities() *tensor.RawTensor {
	return l.prob
}

// PredictedLabels returns the argmax labels computed by the last Forward.
func (l *BootstrapLoss[B]) PredictedLabels() *tensor.RawTensor {
	return l.predicted
}

// Backward returns the gradient of the last Forward's loss with respect to the
// scores, scaled by lossGrad[0].
//
// propagate[0] requests the score gradient; when false the result is nil.
// propagate[1] requests the label gradient, which does not exist: Backward
// panics with *GradientRequestError.
func (l *BootstrapLoss[B]) Backward(lossGrad *tensor.RawTensor, propagate []bool) *tensor.RawTensor {
	if len(propagate) > 1 && propagate[1] {
		panic(&GradientRequestError{Op: "BootstrapLoss", Input: 1})
	}
	if l.op == nil {
		panic("BootstrapLoss: Backward called before Forward")
	}
	return l.op.Backward(lossGrad, propagate)[0]
}

// Operation returns the operation recorded by the last Forward.
func (l *BootstrapLoss[B]) Operation() ops.Operation {
	if l.op == nil {
		return nil
	}
	return l.op
}

// BootstrapForward is the typed form of BootstrapLoss.Forward.
func BootstrapForward[T tensor.Float, B tensor.Backend](
	l *BootstrapLoss[B],
	scores *tensor.Tensor[T, B],
	labels *tensor.Tensor[int32, B],
) (*tensor.Tensor[T, B], error) {
	loss, err := l.Forward(scores.Raw(), labels.Raw())
	if err != nil {
		return nil, err
	}
	return tensor.New[T](loss, scores.Backend()), nil
}

// BootstrapBackward is the typed form of BootstrapLoss.Backward for the score
// input, with lossWeight as the incoming gradient.
func BootstrapBackward[T tensor.Float, B tensor.Backend](l *BootstrapLoss[B], lossWeight T) *tensor.Tensor[T, B] {
	grad, err := tensor.FromSlice([]T{lossWeight}, tensor.Shape{1}, l.backend)
	if err != nil {
		panic(err)
	}
	return tensor.New[T](l.Backward(grad.Raw(), []bool{true, false}), l.backend)
}
