package tensor

import "fmt"

// Layout is a 3-axis view (outer, class, inner) over a flat row-major buffer.
//
// For a tensor of shape (N, C, H, W) split at axis 1:
//
//	Outer = N, Classes = C, Inner = H*W
//
// Element (i, k, j) lives at i*Classes*Inner + k*Inner + j, and the label for
// position (i, j) lives at i*Inner + j.
type Layout struct {
	Outer   int
	Classes int
	Inner   int
}

// LayoutAt splits shape around the class axis.
func LayoutAt(shape Shape, axis int) (Layout, error) {
	axis, err := shape.CanonicalAxis(axis)
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		Outer:   shape.Count(0, axis),
		Classes: shape[axis],
		Inner:   shape.Count(axis+1, len(shape)),
	}, nil
}

// Dim is the distance between consecutive outer positions.
func (l Layout) Dim() int {
	return l.Classes * l.Inner
}

// Index returns the flat offset of element (i, k, j).
func (l Layout) Index(i, k, j int) int {
	return i*l.Dim() + k*l.Inner + j
}

// LabelIndex returns the flat offset of position (i, j) in a label buffer.
func (l Layout) LabelIndex(i, j int) int {
	return i*l.Inner + j
}

// Positions is the number of (outer, inner) positions, i.e. the label count.
func (l Layout) Positions() int {
	return l.Outer * l.Inner
}

// Count is the number of elements in a score buffer with this layout.
func (l Layout) Count() int {
	return l.Outer * l.Classes * l.Inner
}

func (l Layout) String() string {
	return fmt.Sprintf("outer=%d classes=%d inner=%d", l.Outer, l.Classes, l.Inner)
}
