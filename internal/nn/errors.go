package nn

import (
	"errors"

	"github.com/born-ml/bootstrap/internal/autodiff/ops"
)

var (
	// ErrShapeMismatch is returned when the label count differs from the
	// number of (outer, inner) positions of the scores.
	ErrShapeMismatch = errors.New("number of labels must match number of predictions")

	// ErrInvalidConfig is returned for configurations that cannot be used.
	ErrInvalidConfig = errors.New("invalid bootstrap loss config")

	// ErrInvalidInput is returned for inputs of the wrong rank or dtype.
	ErrInvalidInput = errors.New("invalid bootstrap loss input")
)

// GradientRequestError is the panic value of BootstrapLoss.Backward when the
// label gradient is requested.
type GradientRequestError = ops.GradientRequestError
