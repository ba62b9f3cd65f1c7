// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - AdamW: Adam with decoupled weight decay
//   - SGD: Stochastic Gradient Descent with momentum
//
// Example usage:
//
//	optimizer := optim.NewAdamW(model.Parameters(), optim.AdamWConfig{LR: 1e-2})
//
//	backend.Tape().StartRecording()
//	_, loss, err := model.Forward(batch.Inputs, batch.Targets)
//	grads := autodiff.Backward(loss, backend)
//
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/born-ml/gptlab/internal/nn"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies gradient updates to all parameters in place.
	//
	// grads maps parameter tensors to their gradients, as returned by
	// autodiff.Backward. Parameters missing from grads are left untouched.
	Step(grads map[*tensor.Tensor]*tensor.Tensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient safely retrieves gradient for a parameter.
//
// Returns nil if no gradient is found (parameter wasn't part of computation graph).
func getGradient(param *nn.Parameter, grads map[*tensor.Tensor]*tensor.Tensor) []float32 {
	if param == nil {
		return nil
	}
	g, ok := grads[param.Tensor()]
	if !ok || g == nil {
		return nil
	}
	return g.Data()
}
