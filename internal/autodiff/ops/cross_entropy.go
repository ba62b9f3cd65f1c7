package ops

import (
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// CrossEntropyOp represents the mean cross-entropy between logits and class ids.
//
// Forward, over the [rows, classes] view of the logits:
//
//	loss = (1/rows) Σ_r (logsumexp(logits_r) - logits_r[target_r])
//
// Backward:
//
//	∂L/∂logits_r = (softmax(logits_r) - onehot(target_r)) / rows
//
// The softmax is cached from the forward pass.
type CrossEntropyOp struct {
	logits  *tensor.Tensor
	targets []int32
	probs   []float32
	output  *tensor.Tensor // scalar [1]
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits *tensor.Tensor, targets []int32, probs []float32, output *tensor.Tensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		probs:   probs,
		output:  output,
	}
}

// Backward computes the logits gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.Tensor, _ *cpu.CPUBackend) []*tensor.Tensor {
	rows, classes := op.logits.Shape().Rows()
	scale := outputGrad.Item() / float32(rows)

	gradLogits := make([]float32, len(op.probs))
	for r := 0; r < rows; r++ {
		off := r * classes
		for j := 0; j < classes; j++ {
			gradLogits[off+j] = op.probs[off+j] * scale
		}
		gradLogits[off+int(op.targets[r])] -= scale
	}

	return []*tensor.Tensor{grad(gradLogits, op.logits)}
}

// Inputs returns [logits]. Targets are integers and carry no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.logits}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.Tensor {
	return op.output
}
