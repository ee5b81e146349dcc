package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/bootstrap/internal/tensor"
)

// MinProb is the floor applied to probabilities before taking the log
// (FLT_MIN, 2^-126). It keeps log(0) finite for both element types.
const MinProb = 0x1p-126

// BootstrapParams selects how the target distribution is mixed.
type BootstrapParams struct {
	HasIgnoreLabel bool
	IgnoreLabel    int32
	Normalize      bool
	HardMode       bool
	Beta           float64
}

// ignored reports whether a position with noisy label n is excluded.
func (p BootstrapParams) ignored(n int32) bool {
	return p.HasIgnoreLabel && n == p.IgnoreLabel
}

// TargetWeight is the bootstrapped target for class k at one position:
//
//	hard: beta*[k==noisy] + (1-beta)*[k==predicted]
//	soft: beta*[k==noisy] + (1-beta)*prob
//
// prob is the probability of class k at that position.
func TargetWeight[T tensor.Float](k int, noisy, predicted int32, prob T, hard bool, beta T) T {
	w := (1 - beta) * prob
	if hard {
		w = 0
		if int32(k) == predicted {
			w = 1 - beta
		}
	}
	if int32(k) == noisy {
		w += beta
	}
	return w
}

// BootstrapLossForward sums -w(k)*log(max(prob, MinProb)) over every class of
// every non-ignored position and normalizes the total.
//
// The divisor is the number of non-ignored positions when p.Normalize is set,
// otherwise l.Outer. With Normalize set and every position ignored the result
// is 0/0 = NaN; it is returned as is.
//
// It returns the loss and the number of positions that contributed.
func BootstrapLossForward[T tensor.Float](prob []T, noisy, predicted []int32, l tensor.Layout, p BootstrapParams) (T, int) {
	checkBuffers(len(prob), len(noisy), len(predicted), l)

	beta := T(p.Beta)
	floor := T(MinProb)
	var loss T
	count := 0

	for i := 0; i < l.Outer; i++ {
		for j := 0; j < l.Inner; j++ {
			n := noisy[l.LabelIndex(i, j)]
			if p.ignored(n) {
				continue
			}
			checkLabel(n, l.Classes)
			pred := predicted[l.LabelIndex(i, j)]

			for k := 0; k < l.Classes; k++ {
				pk := prob[l.Index(i, k, j)]
				w := TargetWeight(k, n, pred, pk, p.HardMode, beta)
				loss -= w * T(math.Log(float64(max(pk, floor))))
			}
			count++
		}
	}

	return loss / divisor[T](p.Normalize, count, l.Outer), count
}

// BootstrapLossBackward writes d(loss)/d(scores) into grad:
//
//	grad = scale * (prob - w)
//
// where scale = lossWeight/count (Normalize) or lossWeight/l.Outer, and rows of
// ignored positions are zero. The target w is treated as a constant.
//
// It returns the number of positions that contributed.
func BootstrapLossBackward[T tensor.Float](grad, prob []T, noisy, predicted []int32, l tensor.Layout, p BootstrapParams, lossWeight T) int {
	checkBuffers(len(prob), len(noisy), len(predicted), l)
	if len(grad) != len(prob) {
		panic(fmt.Sprintf("bootstrap loss: gradient has %d elements, probabilities %d", len(grad), len(prob)))
	}

	copy(grad, prob)
	beta := T(p.Beta)
	count := 0

	for i := 0; i < l.Outer; i++ {
		for j := 0; j < l.Inner; j++ {
			n := noisy[l.LabelIndex(i, j)]
			if p.ignored(n) {
				for k := 0; k < l.Classes; k++ {
					grad[l.Index(i, k, j)] = 0
				}
				continue
			}
			checkLabel(n, l.Classes)
			pred := predicted[l.LabelIndex(i, j)]

			for k := 0; k < l.Classes; k++ {
				idx := l.Index(i, k, j)
				grad[idx] -= TargetWeight(k, n, pred, prob[idx], p.HardMode, beta)
			}
			count++
		}
	}

	scale := lossWeight / divisor[T](p.Normalize, count, l.Outer)
	for i := range grad {
		grad[i] *= scale
	}

	return count
}

func divisor[T tensor.Float](normalize bool, count, outer int) T {
	if normalize {
		return T(count)
	}
	return T(outer)
}

func checkBuffers(probLen, noisyLen, predLen int, l tensor.Layout) {
	if probLen != l.Count() {
		panic(fmt.Sprintf("bootstrap loss: probabilities have %d elements, layout (%s) needs %d", probLen, l, l.Count()))
	}
	if noisyLen != l.Positions() || predLen != l.Positions() {
		panic(fmt.Sprintf("bootstrap loss: %d noisy and %d predicted labels, layout (%s) needs %d",
			noisyLen, predLen, l, l.Positions()))
	}
}

func checkLabel(n int32, classes int) {
	if n < 0 || int(n) >= classes {
		panic(fmt.Sprintf("bootstrap loss: label %d out of range [0, %d)", n, classes))
	}
}
