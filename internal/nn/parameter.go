package nn

import (
	"github.com/born-ml/gptlab/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// The tensor is created once at model construction and is only ever
// modified in place by an optimizer.
//
// Example:
//
//	weight := nn.NewParameter("head.query.weight", w)
//	grads := autodiff.Backward(loss, backend)
//	weight.SetGrad(grads[weight.Tensor()])
type Parameter struct {
	name   string         // Parameter name (e.g., "blocks.0.ffn.fc1.weight")
	tensor *tensor.Tensor // The parameter tensor
	grad   *tensor.Tensor // Gradient from the latest backward pass
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet (before backward pass).
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// Prefix renames params in place with a "prefix." namespace and returns
// them. Composite modules call it once, at construction.
func Prefix(prefix string, params []*Parameter) []*Parameter {
	for _, p := range params {
		p.name = prefix + "." + p.name
	}
	return params
}
