// Package cpu implements the pure Go CPU backend: the softmax that turns class
// scores into probabilities and the argmax that turns probabilities into
// predicted labels.
package cpu

import (
	"github.com/born-ml/bootstrap/internal/tensor"
)

// CPUBackend implements tensor.Backend on the CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// reductionGroups visits the base offset of every slice along dim.
// dimStride is the distance between consecutive elements of a slice.
func reductionGroups(shape tensor.Shape, dim int, visit func(base, dimStride int)) {
	strides := shape.ComputeStrides()
	dimStride := strides[dim]

	numGroups := 1
	for i := range shape {
		if i != dim {
			numGroups *= shape[i]
		}
	}

	// Groups are enumerated in row-major order over the remaining axes, so the
	// n-th group matches the n-th element of the reduced output.
	for group := 0; group < numGroups; group++ {
		base := 0
		remaining := group
		for i := len(shape) - 1; i >= 0; i-- {
			if i == dim {
				continue
			}
			coord := remaining % shape[i]
			remaining /= shape[i]
			base += coord * strides[i]
		}
		visit(base, dimStride)
	}
}
