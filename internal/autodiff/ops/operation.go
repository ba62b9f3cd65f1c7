// Package ops defines the differentiable operations recorded on the gradient tape.
//
// Each operation captures its inputs, its output and whatever forward-pass
// intermediates its backward pass needs:
//   - AddOp, AddSuffixOp: residual sums and broadcast embedding/bias adds
//   - ScaleOp: multiplication by a constant
//   - LinearOp: x @ W^T + b over the [rows, features] view of x
//   - BatchMatMulOp: per-example matrix products (attention scores and mixing)
//   - CausalSoftmaxOp: lower-triangular masked softmax over [.., T, T]
//   - ReLUOp, DropoutOp: element-wise activation and regularization
//   - EmbeddingOp: row gather with scatter-add backward
//   - LayerNormOp: fused normalization with learnable scale and shift
//   - CatOp: concatenation of head outputs along the feature axis
//   - CrossEntropyOp: fused log-softmax + NLL, averaged over rows
package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	// Implementations must not modify outputGrad.
	Backward(outputGrad *tensor.Tensor, backend *cpu.CPUBackend) []*tensor.Tensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}

// grad wraps kernel output in a tensor shaped like ref.
func grad(data []float32, ref *tensor.Tensor) *tensor.Tensor {
	t, err := tensor.FromSlice(data, ref.Shape())
	if err != nil {
		panic(err)
	}
	return t
}
