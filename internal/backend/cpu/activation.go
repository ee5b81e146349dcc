package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/bootstrap/internal/tensor"
)

// Softmax applies softmax along dimension dim.
// The row maximum is subtracted before exponentiation for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	dim, err := x.Shape().CanonicalAxis(dim)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		softmax(result.AsFloat32(), x.AsFloat32(), x.Shape(), dim)
	case tensor.Float64:
		softmax(result.AsFloat64(), x.AsFloat64(), x.Shape(), dim)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

func softmax[T tensor.Float](dst, src []T, shape tensor.Shape, dim int) {
	dimSize := shape[dim]

	reductionGroups(shape, dim, func(base, dimStride int) {
		maxVal := T(math.Inf(-1))
		for i := 0; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > maxVal {
				maxVal = v
			}
		}

		var sum T
		for i := 0; i < dimSize; i++ {
			idx := base + i*dimStride
			e := T(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = e
			sum += e
		}

		for i := 0; i < dimSize; i++ {
			dst[base+i*dimStride] /= sum
		}
	})
}
