package autodiff

import (
	"github.com/born-ml/gptlab/internal/autodiff/ops"
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(loss, backend)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 256),
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	clear(t.operations)
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients of output with respect to every tensor that
// fed into it, by walking the tape in reverse.
//
// Algorithm:
//  1. Seed output with outputGrad (ones for a scalar loss)
//  2. Walk operations in reverse order
//  3. For each operation with an incoming gradient, apply its chain rule
//  4. Sum gradients when a tensor feeds several operations
//
// Returns a map from tensor to its accumulated gradient.
func (t *GradientTape) Backward(output, outputGrad *tensor.Tensor, backend *cpu.CPUBackend) map[*tensor.Tensor]*tensor.Tensor {
	grads := make(map[*tensor.Tensor]*tensor.Tensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads[output] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(outGrad, backend)
		t.accumulateGrads(op.Inputs(), inputGrads, grads, backend)
	}

	return grads
}

// accumulateGrads accumulates gradients for each input tensor.
//
// Gradients returned by an op may alias its output gradient, so sums are
// always written to a fresh tensor.
func (t *GradientTape) accumulateGrads(
	inputs []*tensor.Tensor,
	inputGrads []*tensor.Tensor,
	grads map[*tensor.Tensor]*tensor.Tensor,
	backend *cpu.CPUBackend,
) {
	for j, input := range inputs {
		if j >= len(inputGrads) || inputGrads[j] == nil {
			continue
		}
		inputGrad := inputGrads[j]
		if existing, ok := grads[input]; ok {
			sum, err := tensor.FromSlice(backend.Add(existing.Data(), inputGrad.Data()), input.Shape())
			if err != nil {
				panic(err)
			}
			grads[input] = sum
		} else {
			grads[input] = inputGrad
		}
	}
}
