// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
package cpu

import (
	internalcpu "github.com/born-ml/bootstrap/internal/backend/cpu"
	"github.com/born-ml/bootstrap/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/bootstrap/backend/cpu"
//	    "github.com/born-ml/bootstrap/nn"
//	)
//
//	func main() {
//	    criterion, err := nn.NewBootstrapLoss(cpu.New(), nn.DefaultBootstrapConfig())
//	}
func New() *Backend {
	return internalcpu.New()
}
