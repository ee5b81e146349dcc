// Package ops defines differentiable operations and their backward passes.
//
// Each operation records its inputs and output during the forward pass, and
// computes input gradients during the backward pass:
//   - BootstrapLossOp: bootstrapped softmax cross-entropy against a blend of
//     noisy labels and the model's own predictions
package ops

import "github.com/born-ml/bootstrap/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// propagate[i] reports whether the caller wants the gradient of input i;
	// the returned slice holds nil for inputs that were not requested.
	Backward(outputGrad *tensor.RawTensor, propagate []bool) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
