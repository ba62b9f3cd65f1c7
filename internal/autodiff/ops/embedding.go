package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// EmbeddingOp represents an embedding lookup operation.
//
// Forward: output[i] = weight[indices[i]]
//
// Backward:
//
//	For each index i, accumulate grad_output[i] to grad_weight[indices[i]]
//	This is a scatter-add operation where gradients for the same index are summed.
//
// Example:
//
//	indices = [0, 1, 0]  // index 0 appears twice
//	grad_output = [[1,2], [3,4], [5,6]]
//	grad_weight[0] = [1,2] + [5,6] = [6,8]  // Accumulated!
//	grad_weight[1] = [3,4]
type EmbeddingOp struct {
	weight  *tensor.Tensor // Embedding weight [numEmbeddings, embeddingDim]
	indices []int32
	output  *tensor.Tensor // Output embeddings [..., embeddingDim]
}

// NewEmbeddingOp creates a new embedding operation.
func NewEmbeddingOp(weight *tensor.Tensor, indices []int32, output *tensor.Tensor) *EmbeddingOp {
	return &EmbeddingOp{
		weight:  weight,
		indices: indices,
		output:  output,
	}
}

// Inputs returns the weight. Indices are integers and carry no gradient.
func (op *EmbeddingOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.weight}
}

// Output returns the output tensor.
func (op *EmbeddingOp) Output() *tensor.Tensor {
	return op.output
}

// Backward scatter-adds output gradient rows into a zero weight gradient.
func (op *EmbeddingOp) Backward(outputGrad *tensor.Tensor, backend *cpu.CPUBackend) []*tensor.Tensor {
	dim := op.weight.Dim(1)
	gradWeight := make([]float32, op.weight.NumElements())
	g := outputGrad.Data()

	for i, idx := range op.indices {
		row := int(idx) * dim
		backend.AddInto(gradWeight[row:row+dim], g[i*dim:(i+1)*dim])
	}

	return []*tensor.Tensor{grad(gradWeight, op.weight)}
}
