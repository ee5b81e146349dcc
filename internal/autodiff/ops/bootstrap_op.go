package ops

import (
	"fmt"

	"github.com/born-ml/bootstrap/internal/tensor"
)

// GradientRequestError is the panic value raised when a caller asks for the
// gradient of an input that has none, such as a label tensor. It signals a
// graph-construction bug, not a data problem.
type GradientRequestError struct {
	Op    string
	Input int
}

func (e *GradientRequestError) Error() string {
	return fmt.Sprintf("%s cannot backpropagate to label input %d", e.Op, e.Input)
}

// BootstrapLossOp represents the bootstrapped cross-entropy operation.
//
// Forward:
//
//	Loss = Σ_positions Σ_k -w(k) * log(max(prob[k], MinProb)) / divisor
//
// Backward:
//
//	∂L/∂scores = lossWeight * (prob - w) / divisor
//
// Inputs are [scores, labels]. Probabilities and predicted labels are the
// ones computed for this forward pass.
type BootstrapLossOp struct {
	scores    *tensor.RawTensor
	labels    *tensor.RawTensor
	prob      *tensor.RawTensor
	predicted *tensor.RawTensor
	output    *tensor.RawTensor
	layout    tensor.Layout
	params    BootstrapParams
}

// NewBootstrapLossOp creates a new bootstrap loss operation.
func NewBootstrapLossOp(
	scores, labels, prob, predicted, output *tensor.RawTensor,
	layout tensor.Layout,
	params BootstrapParams,
) *BootstrapLossOp {
	return &BootstrapLossOp{
		scores:    scores,
		labels:    labels,
		prob:      prob,
		predicted: predicted,
		output:    output,
		layout:    layout,
		params:    params,
	}
}

// Inputs returns the input tensors.
func (op *BootstrapLossOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.scores, op.labels}
}

// Output returns the output tensor.
func (op *BootstrapLossOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to the scores.
//
// Requesting the label gradient panics with *GradientRequestError. When the
// score gradient is not requested nothing is allocated.
func (op *BootstrapLossOp) Backward(outputGrad *tensor.RawTensor, propagate []bool) []*tensor.RawTensor {
	if len(propagate) > 1 && propagate[1] {
		panic(&GradientRequestError{Op: "BootstrapLoss", Input: 1})
	}

	grads := make([]*tensor.RawTensor, 2)
	if len(propagate) == 0 || !propagate[0] {
		return grads
	}

	grad, err := tensor.NewRaw(op.scores.Shape(), op.scores.DType(), op.scores.Device())
	if err != nil {
		panic(err)
	}

	noisy := op.labels.AsInt32()
	predicted := op.predicted.AsInt32()

	switch op.scores.DType() {
	case tensor.Float32:
		BootstrapLossBackward(grad.AsFloat32(), op.prob.AsFloat32(), noisy, predicted,
			op.layout, op.params, outputGrad.AsFloat32()[0])
	case tensor.Float64:
		BootstrapLossBackward(grad.AsFloat64(), op.prob.AsFloat64(), noisy, predicted,
			op.layout, op.params, outputGrad.AsFloat64()[0])
	default:
		panic("BootstrapLossOp: backward only supports float32 and float64")
	}

	grads[0] = grad
	return grads
}

// BootstrapForward computes the loss as a one-element tensor of prob's dtype,
// along with the number of positions that contributed.
func BootstrapForward(
	prob, noisy, predicted *tensor.RawTensor,
	layout tensor.Layout,
	params BootstrapParams,
) (*tensor.RawTensor, int) {
	output, err := tensor.NewRaw(tensor.Shape{1}, prob.DType(), prob.Device())
	if err != nil {
		panic(err)
	}

	var count int
	switch prob.DType() {
	case tensor.Float32:
		output.AsFloat32()[0], count = BootstrapLossForward(prob.AsFloat32(), noisy.AsInt32(), predicted.AsInt32(), layout, params)
	case tensor.Float64:
		output.AsFloat64()[0], count = BootstrapLossForward(prob.AsFloat64(), noisy.AsInt32(), predicted.AsInt32(), layout, params)
	default:
		panic("BootstrapForward: only supports float32 and float64")
	}

	return output, count
}
