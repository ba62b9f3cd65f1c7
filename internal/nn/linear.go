package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [..., in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the optional bias vector with shape [out_features]
//   - y is the output tensor with shape [..., out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features], nil without bias
	backend     *autodiff.Backend
}

// NewLinear creates a new Linear layer drawing its weights from rng.
func NewLinear(inFeatures, outFeatures int, withBias bool, backend *autodiff.Backend, rng *rand.Rand) *Linear {
	weightShape := tensor.Shape{outFeatures, inFeatures}
	l := &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape, rng)),
		backend:     backend,
	}
	if withBias {
		l.bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}))
	}
	return l
}

// Forward computes x @ W.T + b over the last axis of input.
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	if input.Dim(-1) != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected %d input features, got shape %v", l.inFeatures, input.Shape()))
	}
	var bias *tensor.Tensor
	if l.bias != nil {
		bias = l.bias.Tensor()
	}
	return l.backend.Linear(input, l.weight.Tensor(), bias)
}

// Parameters returns [weight] or [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	if l.bias == nil {
		return []*Parameter{l.weight}
	}
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
