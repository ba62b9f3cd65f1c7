package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// CausalSoftmaxOp represents a lower-triangular masked softmax over the last
// axis of [..., T, T] attention scores.
//
// Forward (for row i of each T×T matrix):
//
//	s_ij = -Inf for j > i
//	softmax(s)_ij = exp(s_ij - max_j s_ij) / Σ_j exp(s_ij - max_j s_ij)
//
// Masked positions receive exactly zero weight.
//
// Backward:
//
//	∂L/∂s_ij = p_ij * (∂L/∂p_ij - Σ_k ∂L/∂p_ik * p_ik)
//
// Masked positions have p_ij = 0 and therefore zero gradient.
type CausalSoftmaxOp struct {
	input  *tensor.Tensor
	output *tensor.Tensor // Cached probabilities for the backward pass
}

// NewCausalSoftmaxOp creates a new CausalSoftmaxOp.
func NewCausalSoftmaxOp(input, output *tensor.Tensor) *CausalSoftmaxOp {
	return &CausalSoftmaxOp{input: input, output: output}
}

// CausalMask writes -Inf above the diagonal of every T×T matrix in scores.
func CausalMask(scores []float32, t int) {
	for off := 0; off < len(scores); off += t * t {
		for i := 0; i < t; i++ {
			row := scores[off+i*t : off+(i+1)*t]
			for j := i + 1; j < t; j++ {
				row[j] = tensor.NegInf
			}
		}
	}
}

// Backward computes the softmax Jacobian-vector product row by row.
func (op *CausalSoftmaxOp) Backward(outputGrad *tensor.Tensor, _ *cpu.CPUBackend) []*tensor.Tensor {
	cols := op.output.Dim(-1)
	p := op.output.Data()
	g := outputGrad.Data()
	gradIn := make([]float32, len(p))

	for off := 0; off < len(p); off += cols {
		var dot float32
		for j := off; j < off+cols; j++ {
			dot += g[j] * p[j]
		}
		for j := off; j < off+cols; j++ {
			gradIn[j] = p[j] * (g[j] - dot)
		}
	}

	return []*tensor.Tensor{grad(gradIn, op.input)}
}

// Inputs returns [scores].
func (op *CausalSoftmaxOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns the attention weights.
func (op *CausalSoftmaxOp) Output() *tensor.Tensor {
	return op.output
}
