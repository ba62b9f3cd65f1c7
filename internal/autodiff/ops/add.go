package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// AddOp represents element-wise addition of same-shaped tensors: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
type AddOp struct {
	inputs []*tensor.Tensor // [a, b]
	output *tensor.Tensor
}

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.Tensor) *AddOp {
	return &AddOp{
		inputs: []*tensor.Tensor{a, b},
		output: output,
	}
}

// Backward passes the output gradient through to both inputs.
func (op *AddOp) Backward(outputGrad *tensor.Tensor, _ *cpu.CPUBackend) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad, outputGrad}
}

// Inputs returns [a, b].
func (op *AddOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns a + b.
func (op *AddOp) Output() *tensor.Tensor {
	return op.output
}

// AddSuffixOp adds b, whose shape equals the trailing dimensions of a,
// to every leading slice of a.
//
// Backward pass:
//   - grad_a = outputGrad
//   - grad_b = outputGrad summed over the broadcast (leading) dimensions
type AddSuffixOp struct {
	inputs []*tensor.Tensor // [a, b]
	output *tensor.Tensor
}

// NewAddSuffixOp creates a new AddSuffixOp.
func NewAddSuffixOp(a, b, output *tensor.Tensor) *AddSuffixOp {
	return &AddSuffixOp{
		inputs: []*tensor.Tensor{a, b},
		output: output,
	}
}

// Backward reduces the gradient onto the broadcast operand.
func (op *AddSuffixOp) Backward(outputGrad *tensor.Tensor, backend *cpu.CPUBackend) []*tensor.Tensor {
	b := op.inputs[1]
	gradB := backend.SumToSuffix(outputGrad.Data(), b.NumElements())
	return []*tensor.Tensor{outputGrad, grad(gradB, b)}
}

// Inputs returns [a, b].
func (op *AddSuffixOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns a + broadcast(b).
func (op *AddSuffixOp) Output() *tensor.Tensor {
	return op.output
}
