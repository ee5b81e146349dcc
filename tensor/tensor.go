// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the tensor types used by the bootstrap loss.
//
// The package defines:
//   - Tensor[T, B]: typed tensor bound to a backend
//   - RawTensor: untyped storage with shape and dtype
//   - Layout: the (outer, class, inner) split of a tensor around its class axis
//   - Backend: the softmax and argmax capabilities the loss depends on
//
// Example:
//
//	backend := cpu.New()
//	scores, _ := tensor.FromSlice([]float32{2, 0}, tensor.Shape{1, 2}, backend)
package tensor

import (
	"github.com/born-ml/bootstrap/internal/tensor"
)

// DType is a constraint for tensor element types: float32, float64, int32.
type DType = tensor.DType

// Float is a constraint for floating-point element types.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only supported device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Layout is the (outer, class, inner) split of a shape around its class axis.
type Layout = tensor.Layout

// LayoutAt splits shape around axis.
func LayoutAt(shape Shape, axis int) (Layout, error) {
	return tensor.LayoutAt(shape, axis)
}

// RawTensor is the untyped tensor storage shared by all backends.
type RawTensor = tensor.RawTensor

// NewRaw allocates a zeroed raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Backend provides the softmax and argmax operations.
type Backend = tensor.Backend

// Tensor is a typed tensor bound to backend B.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// FromSlice creates a tensor from data with the given shape.
//
// Example:
//
//	labels, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a zero-filled tensor.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Values returns the elements of r as a []T view.
func Values[T DType](r *RawTensor) []T {
	return tensor.Values[T](r)
}
