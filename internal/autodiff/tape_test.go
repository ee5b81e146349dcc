package autodiff_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bootstrap/internal/autodiff"
	"github.com/born-ml/bootstrap/internal/autodiff/ops"
	"github.com/born-ml/bootstrap/internal/backend/cpu"
	"github.com/born-ml/bootstrap/internal/tensor"
)

// scaleOp is y = c·x.
type scaleOp struct {
	c      float64
	x, out *tensor.RawTensor
}

func newScaleOp(t *testing.T, c float64, x *tensor.RawTensor) *scaleOp {
	t.Helper()
	out := x.Clone()
	for i, v := range x.AsFloat64() {
		out.AsFloat64()[i] = c * v
	}
	return &scaleOp{c: c, x: x, out: out}
}

func (op *scaleOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *scaleOp) Output() *tensor.RawTensor   { return op.out }

func (op *scaleOp) Backward(g *tensor.RawTensor, propagate []bool) []*tensor.RawTensor {
	if !propagate[0] {
		return []*tensor.RawTensor{nil}
	}
	dx := g.Clone()
	for i := range dx.AsFloat64() {
		dx.AsFloat64()[i] *= op.c
	}
	return []*tensor.RawTensor{dx}
}

func raw64(t *testing.T, shape tensor.Shape, data ...float64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat64(), data)
	return r
}

func rawInt32(t *testing.T, shape tensor.Shape, data ...int32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsInt32(), data)
	return r
}

// bootstrapOp records a soft bootstrap loss over scores of shape [2, 3].
func bootstrapOp(t *testing.T, scores *tensor.RawTensor) (*ops.BootstrapLossOp, *tensor.RawTensor) {
	t.Helper()
	backend := cpu.New()
	labels := rawInt32(t, tensor.Shape{2}, 0, 2)
	layout, err := tensor.LayoutAt(scores.Shape(), 1)
	require.NoError(t, err)

	params := ops.BootstrapParams{Normalize: true, Beta: 0.8}
	prob := backend.Softmax(scores, 1)
	predicted := backend.Argmax(prob, 1)
	loss, _ := ops.BootstrapForward(prob, labels, predicted, layout, params)
	return ops.NewBootstrapLossOp(scores, labels, prob, predicted, loss, layout, params), labels
}

func TestGradientTapeMatchesOperation(t *testing.T) {
	scores := raw64(t, tensor.Shape{2, 3}, 1, 0, -1, 0.5, 0.2, 2)
	op, labels := bootstrapOp(t, scores)

	tape := autodiff.NewGradientTape()
	tape.Watch(scores)
	tape.Record(op)
	require.Equal(t, 1, tape.NumOps())

	grads := tape.Backward(raw64(t, tensor.Shape{1}, 1))
	require.Contains(t, grads, scores)
	assert.NotContains(t, grads, labels)

	want := op.Backward(raw64(t, tensor.Shape{1}, 1), []bool{true, false})[0]
	assert.InDeltaSlice(t, want.AsFloat64(), grads[scores].AsFloat64(), 1e-12)
}

func TestGradientTapeChainRule(t *testing.T) {
	x := raw64(t, tensor.Shape{2, 3}, 0.5, 0, -0.5, 0.25, 0.1, 1)
	scale := newScaleOp(t, 2, x)
	op, _ := bootstrapOp(t, scale.Output())

	tape := autodiff.NewGradientTape()
	tape.Watch(x)
	tape.Record(scale)
	tape.Record(op)

	grads := tape.Backward(raw64(t, tensor.Shape{1}, 1))
	dScores := grads[scale.Output()].AsFloat64()
	dx := grads[x].AsFloat64()
	for i := range dx {
		assert.InDelta(t, 2*dScores[i], dx[i], 1e-12)
	}
}

// addOp is y = a + b.
type addOp struct {
	a, b, out *tensor.RawTensor
}

func newAddOp(a, b *tensor.RawTensor) *addOp {
	out := a.Clone()
	for i, v := range b.AsFloat64() {
		out.AsFloat64()[i] += v
	}
	return &addOp{a: a, b: b, out: out}
}

func (op *addOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *addOp) Output() *tensor.RawTensor   { return op.out }

func (op *addOp) Backward(g *tensor.RawTensor, propagate []bool) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, 2)
	for i, p := range propagate {
		if p {
			grads[i] = g.Clone()
		}
	}
	return grads
}

func TestGradientTapeAccumulates(t *testing.T) {
	x := raw64(t, tensor.Shape{3}, 1, 2, 3)
	a := newScaleOp(t, 2, x)
	b := newScaleOp(t, 5, x)
	sum := newAddOp(a.Output(), b.Output())

	tape := autodiff.NewGradientTape()
	tape.Watch(x)
	tape.Record(a)
	tape.Record(b)
	tape.Record(sum)

	grads := tape.Backward(raw64(t, tensor.Shape{3}, 1, 1, 1))
	assert.Equal(t, []float64{7, 7, 7}, grads[x].AsFloat64())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	tape.Record(b)
	grads = tape.Backward(raw64(t, tensor.Shape{3}, 1, 1, 1))
	assert.NotContains(t, grads, x, "Clear forgets watched tensors")
}

// forkOp is y = a + b, passing the output gradient through to both inputs
// without copying it.
type forkOp struct{ addOp }

func (op *forkOp) Backward(g *tensor.RawTensor, _ []bool) []*tensor.RawTensor {
	return []*tensor.RawTensor{g, g}
}

func TestGradientTapeAccumulateLeavesOperandsIntact(t *testing.T) {
	x := raw64(t, tensor.Shape{2}, 1, 2)
	fork := &forkOp{*newAddOp(x, x)}

	tape := autodiff.NewGradientTape()
	tape.Watch(x)
	tape.Record(fork)

	seed := raw64(t, tensor.Shape{2}, 1, 1)
	grads := tape.Backward(seed)
	assert.Equal(t, []float64{2, 2}, grads[x].AsFloat64())
	assert.Equal(t, []float64{1, 1}, seed.AsFloat64())
}

func TestGradientTapeUnwatchedInputs(t *testing.T) {
	scores := raw64(t, tensor.Shape{2, 3}, 1, 0, -1, 0.5, 0.2, 2)
	op, _ := bootstrapOp(t, scores)

	tape := autodiff.NewGradientTape()
	tape.Record(op)
	tape.Record(nil)
	assert.Equal(t, 1, tape.NumOps())

	grads := tape.Backward(raw64(t, tensor.Shape{1}, 1))
	assert.Len(t, grads, 1, "only the seed gradient")
	assert.NotContains(t, grads, scores)
}

func TestGradientTapeWatchedLabelsPanic(t *testing.T) {
	scores := raw64(t, tensor.Shape{2, 3}, 1, 0, -1, 0.5, 0.2, 2)
	op, labels := bootstrapOp(t, scores)

	tape := autodiff.NewGradientTape()
	tape.Watch(scores)
	tape.Watch(labels)
	tape.Record(op)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		var reqErr *ops.GradientRequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, 1, reqErr.Input)
	}()
	tape.Backward(raw64(t, tensor.Shape{1}, 1))
}

func TestGradientTapeEmpty(t *testing.T) {
	tape := autodiff.NewGradientTape()
	assert.Empty(t, tape.Backward(raw64(t, tensor.Shape{1}, 1)))
}
