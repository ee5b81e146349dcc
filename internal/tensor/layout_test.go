package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutAt(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		axis  int
		want  Layout
	}{
		{"batch by classes", Shape{4, 10}, 1, Layout{Outer: 4, Classes: 10, Inner: 1}},
		{"NCHW", Shape{2, 3, 4, 5}, 1, Layout{Outer: 2, Classes: 3, Inner: 20}},
		{"last axis", Shape{2, 3, 4}, -1, Layout{Outer: 6, Classes: 4, Inner: 1}},
		{"first axis", Shape{5, 2}, 0, Layout{Outer: 1, Classes: 5, Inner: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LayoutAt(tt.shape, tt.axis)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.shape.NumElements(), got.Count())
		})
	}
}

func TestLayoutAtAxisOutOfRange(t *testing.T) {
	_, err := LayoutAt(Shape{2, 3}, 2)
	assert.Error(t, err)

	_, err = LayoutAt(Shape{2, 3}, -3)
	assert.Error(t, err)
}

func TestLayoutIndexMatchesStrides(t *testing.T) {
	shape := Shape{2, 3, 4}
	strides := shape.ComputeStrides()
	l, err := LayoutAt(shape, 1)
	require.NoError(t, err)

	for i := 0; i < l.Outer; i++ {
		for k := 0; k < l.Classes; k++ {
			for j := 0; j < l.Inner; j++ {
				want := i*strides[0] + k*strides[1] + j*strides[2]
				assert.Equal(t, want, l.Index(i, k, j))
			}
		}
	}

	assert.Equal(t, 12, l.Dim())
	assert.Equal(t, 8, l.Positions())
	assert.Equal(t, 5, l.LabelIndex(1, 1))
}

func TestShapeCount(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 1, s.Count(0, 0))
	assert.Equal(t, 6, s.Count(0, 2))
	assert.Equal(t, 4, s.Count(2, 3))
	assert.Equal(t, 24, s.NumElements())
}
