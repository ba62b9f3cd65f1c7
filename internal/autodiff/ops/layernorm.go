package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// LayerNormOp represents layer normalization over the last axis:
//
//	x̂ = (x - mean(x)) * rstd,  rstd = 1 / sqrt(var(x) + eps)
//	y = gamma * x̂ + beta
//
// Backward (per row of N features, with dx̂ = g * gamma):
//
//	grad_gamma = Σ_rows g * x̂
//	grad_beta  = Σ_rows g
//	grad_x     = rstd/N * (N*dx̂ - Σ dx̂ - x̂ * Σ(dx̂ * x̂))
type LayerNormOp struct {
	inputs []*tensor.Tensor // [x, gamma, beta]
	output *tensor.Tensor
	xHat   []float32 // normalized input, same layout as x
	rstd   []float32 // one reciprocal std per row
}

// NewLayerNormOp creates a new LayerNormOp from forward-pass intermediates.
func NewLayerNormOp(x, gamma, beta, output *tensor.Tensor, xHat, rstd []float32) *LayerNormOp {
	return &LayerNormOp{
		inputs: []*tensor.Tensor{x, gamma, beta},
		output: output,
		xHat:   xHat,
		rstd:   rstd,
	}
}

// Backward computes gradients for x, gamma and beta.
func (op *LayerNormOp) Backward(outputGrad *tensor.Tensor, _ *cpu.CPUBackend) []*tensor.Tensor {
	x, gamma, beta := op.inputs[0], op.inputs[1], op.inputs[2]
	rows, n := x.Shape().Rows()
	g := outputGrad.Data()
	gm := gamma.Data()

	gradX := make([]float32, len(g))
	gradGamma := make([]float32, n)
	gradBeta := make([]float32, n)
	dxHat := make([]float32, n)
	invN := 1 / float32(n)

	for r := 0; r < rows; r++ {
		off := r * n
		var sumD, sumDX float32
		for j := 0; j < n; j++ {
			gj := g[off+j]
			xh := op.xHat[off+j]
			gradGamma[j] += gj * xh
			gradBeta[j] += gj
			d := gj * gm[j]
			dxHat[j] = d
			sumD += d
			sumDX += d * xh
		}
		rs := op.rstd[r]
		for j := 0; j < n; j++ {
			gradX[off+j] = rs * invN * (float32(n)*dxHat[j] - sumD - op.xHat[off+j]*sumDX)
		}
	}

	return []*tensor.Tensor{grad(gradX, x), grad(gradGamma, gamma), grad(gradBeta, beta)}
}

// Inputs returns [x, gamma, beta].
func (op *LayerNormOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the normalized tensor.
func (op *LayerNormOp) Output() *tensor.Tensor {
	return op.output
}
