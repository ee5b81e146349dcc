package cpu

import (
	"fmt"

	"github.com/born-ml/bootstrap/internal/tensor"
)

// Argmax returns the index of the maximum value along the specified dimension.
// The result is an int32 tensor with dim removed. Ties resolve to the lowest
// index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim, err := shape.CanonicalAxis(dim)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
	}

	outShape := make(tensor.Shape, 0, len(shape)-1)
	for i := range shape {
		if i != dim {
			outShape = append(outShape, shape[i])
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Int32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		argmax(x.AsFloat32(), result.AsInt32(), shape, dim)
	case tensor.Float64:
		argmax(x.AsFloat64(), result.AsInt32(), shape, dim)
	case tensor.Int32:
		argmax(x.AsInt32(), result.AsInt32(), shape, dim)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func argmax[T tensor.DType](data []T, result []int32, shape tensor.Shape, dim int) {
	dimSize := shape[dim]
	out := 0

	reductionGroups(shape, dim, func(base, dimStride int) {
		maxVal := data[base]
		maxIdx := int32(0)
		for i := 1; i < dimSize; i++ {
			if v := data[base+i*dimStride]; v > maxVal {
				maxVal = v
				//nolint:gosec // G115: dimension size < 2^31
				maxIdx = int32(i)
			}
		}
		result[out] = maxIdx
		out++
	})
}
