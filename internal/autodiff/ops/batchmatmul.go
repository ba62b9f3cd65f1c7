package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// BatchMatMulOp represents per-example matrix products over the leading axes.
//
// a is [..., M, K]. Without transB, b is [..., K, N] and output = a @ b.
// With transB, b is [..., N, K] and output = a @ b^T, which is how attention
// forms query·key^T without materializing the transpose.
//
// Backward pass (no transpose):
//   - grad_a = outputGrad @ b^T
//   - grad_b = a^T @ outputGrad
//
// Backward pass (transB):
//   - grad_a = outputGrad @ b
//   - grad_b = outputGrad^T @ a
type BatchMatMulOp struct {
	inputs []*tensor.Tensor // [a, b]
	output *tensor.Tensor
	transB bool
}

// NewBatchMatMulOp creates a new BatchMatMulOp.
func NewBatchMatMulOp(a, b, output *tensor.Tensor, transB bool) *BatchMatMulOp {
	return &BatchMatMulOp{
		inputs: []*tensor.Tensor{a, b},
		output: output,
		transB: transB,
	}
}

// Backward computes gradients for both operands.
func (op *BatchMatMulOp) Backward(outputGrad *tensor.Tensor, backend *cpu.CPUBackend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	batch, m, k := a.Shape().Matrices()
	n := op.output.Dim(-1)
	g := outputGrad.Data()

	gradA := make([]float32, a.NumElements())
	gradB := make([]float32, b.NumElements())

	if op.transB {
		// a [M,K], b [N,K], g [M,N]
		backend.BatchGemm(batch, false, false, m, k, n, g, b.Data(), 0, gradA)
		backend.BatchGemm(batch, true, false, n, k, m, g, a.Data(), 0, gradB)
	} else {
		// a [M,K], b [K,N], g [M,N]
		backend.BatchGemm(batch, false, true, m, k, n, g, b.Data(), 0, gradA)
		backend.BatchGemm(batch, true, false, k, n, m, a.Data(), g, 0, gradB)
	}

	return []*tensor.Tensor{grad(gradA, a), grad(gradB, b)}
}

// Inputs returns [a, b].
func (op *BatchMatMulOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the batched product.
func (op *BatchMatMulOp) Output() *tensor.Tensor {
	return op.output
}
