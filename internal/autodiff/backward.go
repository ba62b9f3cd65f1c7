package autodiff

import (
	"fmt"

	"github.com/born-ml/gptlab/internal/tensor"
)

// Backward computes gradients of t using the backend's tape.
//
// The output gradient is seeded with ones, so for a scalar loss the result
// maps every contributing tensor to dLoss/dTensor.
//
// Example:
//
//	backend := autodiff.New(cpu.New(), seed)
//	backend.Tape().StartRecording()
//	logits, loss, _ := model.Forward(inputs, targets)
//	gradients := autodiff.Backward(loss, backend)
//	grad := gradients[param.Tensor()]
func Backward(t *tensor.Tensor, backend *Backend) map[*tensor.Tensor]*tensor.Tensor {
	tape := backend.Tape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if t == nil {
		panic(fmt.Sprintf("backward: nil output after %d recorded ops", tape.NumOps()))
	}
	return tape.Backward(t, tensor.Ones(t.Shape()), backend.Inner())
}
