// Package autodiff runs reverse-mode differentiation over recorded operations.
package autodiff

import (
	"fmt"

	"github.com/born-ml/bootstrap/internal/autodiff/ops"
	"github.com/born-ml/bootstrap/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients of watched tensors during the backward pass.
//
// Only watched tensors and tensors produced by recorded operations receive
// gradients; every other operation input is backpropagated with
// propagate[i] = false, which is how label inputs stay out of the gradient.
//
// Usage:
//
//	tape := autodiff.NewGradientTape()
//	tape.Watch(scores.Raw())
//	loss, _ := criterion.Forward(scores.Raw(), labels.Raw())
//	tape.Record(criterion.Operation())
//	grads := tape.Backward(ones)
//	dScores := grads[scores.Raw()]
type GradientTape struct {
	operations []ops.Operation
	watched    map[*tensor.RawTensor]struct{}
}

// NewGradientTape creates an empty tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 8),
		watched:    make(map[*tensor.RawTensor]struct{}),
	}
}

// Watch marks t as a tensor whose gradient Backward should compute.
func (g *GradientTape) Watch(t *tensor.RawTensor) {
	g.watched[t] = struct{}{}
}

// Record adds an operation to the tape. Nil operations are ignored.
func (g *GradientTape) Record(op ops.Operation) {
	if op == nil {
		return
	}
	g.operations = append(g.operations, op)
}

// Clear removes all recorded operations and watched tensors.
func (g *GradientTape) Clear() {
	g.operations = g.operations[:0]
	clear(g.watched)
}

// NumOps returns the number of recorded operations.
func (g *GradientTape) NumOps() int {
	return len(g.operations)
}

// Backward walks the tape in reverse, seeding the last operation's output with
// outputGrad. It returns the accumulated gradient of every watched tensor and
// every intermediate output that received one.
func (g *GradientTape) Backward(outputGrad *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(g.operations) == 0 {
		return grads
	}

	needs := g.requiresGrad()
	grads[g.operations[len(g.operations)-1].Output()] = outputGrad

	for i := len(g.operations) - 1; i >= 0; i-- {
		op := g.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		inputs := op.Inputs()
		propagate := make([]bool, len(inputs))
		wanted := false
		for j, in := range inputs {
			_, propagate[j] = needs[in]
			wanted = wanted || propagate[j]
		}
		if !wanted {
			continue
		}

		for j, ig := range op.Backward(outGrad, propagate) {
			if j >= len(inputs) || ig == nil {
				continue
			}
			if existing, ok := grads[inputs[j]]; ok {
				grads[inputs[j]] = accumulate(existing, ig)
			} else {
				grads[inputs[j]] = ig
			}
		}
	}

	return grads
}

// requiresGrad returns the watched tensors plus every tensor that depends on
// one through the recorded operations.
func (g *GradientTape) requiresGrad() map[*tensor.RawTensor]struct{} {
	needs := make(map[*tensor.RawTensor]struct{}, len(g.watched))
	for t := range g.watched {
		needs[t] = struct{}{}
	}
	for _, op := range g.operations {
		for _, in := range op.Inputs() {
			if _, ok := needs[in]; ok {
				needs[op.Output()] = struct{}{}
				break
			}
		}
	}
	return needs
}

// accumulate returns a new tensor holding a + b. Neither operand is modified:
// operations may return their output gradient or each other's buffers.
func accumulate(a, b *tensor.RawTensor) *tensor.RawTensor {
	dst, src := a.Clone(), b
	if dst.DType() != src.DType() || dst.NumElements() != src.NumElements() {
		panic(fmt.Sprintf("autodiff: cannot accumulate %s%v into %s%v",
			src.DType(), src.Shape(), dst.DType(), dst.Shape()))
	}
	switch dst.DType() {
	case tensor.Float32:
		addInto(dst.AsFloat32(), src.AsFloat32())
	case tensor.Float64:
		addInto(dst.AsFloat64(), src.AsFloat64())
	default:
		panic(fmt.Sprintf("autodiff: unsupported gradient dtype %s", dst.DType()))
	}
	return dst
}

func addInto[T tensor.Float](dst, src []T) {
	for i := range dst {
		dst[i] += src[i]
	}
}
