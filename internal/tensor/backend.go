package tensor

// Backend defines what the bootstrap loss needs from a compute backend.
//
// Implementations:
//   - CPU: pure Go (internal/backend/cpu)
type Backend interface {
	// Softmax normalizes x along dim so every slice sums to 1.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Argmax returns the int32 index of the maximum along dim; the reduced
	// dimension is removed. Ties resolve to the lowest index.
	Argmax(x *RawTensor, dim int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
