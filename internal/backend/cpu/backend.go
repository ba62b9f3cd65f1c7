// Package cpu implements the CPU numeric kernels behind the autodiff backend.
//
// Matrix products go through gonum's blas32 implementation; row-wise kernels
// (softmax, log-sum-exp, broadcasting adds) are plain loops over the
// row-major [rows, cols] view of a tensor.
package cpu

import (
	"github.com/born-ml/gptlab/internal/parallel"
)

// CPUBackend runs tensor kernels on the host CPU.
type CPUBackend struct {
	par parallel.Config
}

// New creates a CPU backend that parallelizes across available cores.
func New() *CPUBackend {
	return &CPUBackend{par: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{par: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Parallel returns the parallel execution settings used for batched kernels.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}
