// Package nn implements the neural network modules of the gptlab model.
//
// This package provides the building blocks of a decoder-only transformer:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable tensor plus its latest gradient
//   - Linear, Embedding, LayerNorm, Dropout: basic layers
//   - Head, MultiHeadAttention: causal self-attention
//   - FeedForward, Block: position-wise MLP and the pre-norm transformer block
//
// Every module runs its forward pass through an *autodiff.Backend, so the
// operations are recorded on the backend's tape whenever it is recording.
package nn

import (
	"github.com/born-ml/gptlab/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules compose by holding other modules and concatenating their
// parameter lists.
type Module interface {
	// Forward computes the output of the module given an input tensor.
	//
	// Inputs are [T, C] or [B, T, C]; leading axes pass through unchanged.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Parameters returns all trainable parameters of this module,
	// including those of nested modules.
	Parameters() []*Parameter
}

// CollectParameters concatenates the parameters of several modules in order.
// Names are taken as they are, so composites Prefix each child first.
func CollectParameters(modules ...Module) []*Parameter {
	var params []*Parameter
	for _, m := range modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// AssignGrads stores the gradient of every parameter found in grads.
//
// Parameters that did not take part in the forward pass get a nil gradient.
func AssignGrads(params []*Parameter, grads map[*tensor.Tensor]*tensor.Tensor) {
	for _, p := range params {
		p.SetGrad(grads[p.Tensor()])
	}
}

// CountParameters returns the total number of scalar weights.
func CountParameters(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	return n
}
