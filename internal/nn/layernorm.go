package nn

import (
	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/tensor"
)

// DefaultLayerNormEps is the variance epsilon used by NewLayerNorm.
const DefaultLayerNormEps = 1e-5

// LayerNorm normalizes over the last axis with learnable scale and shift:
//
//	y = (x - mean) / sqrt(var + eps) * gamma + beta
//
// Gamma starts at ones and beta at zeros.
type LayerNorm struct {
	gamma   *Parameter
	beta    *Parameter
	eps     float32
	backend *autodiff.Backend
}

// NewLayerNorm creates a LayerNorm over features values.
func NewLayerNorm(features int, backend *autodiff.Backend) *LayerNorm {
	return &LayerNorm{
		gamma:   NewParameter("gamma", Ones(tensor.Shape{features})),
		beta:    NewParameter("beta", Zeros(tensor.Shape{features})),
		eps:     DefaultLayerNormEps,
		backend: backend,
	}
}

// Forward normalizes x.
func (ln *LayerNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	return ln.backend.LayerNorm(x, ln.gamma.Tensor(), ln.beta.Tensor(), ln.eps)
}

// Parameters returns [gamma, beta].
func (ln *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{ln.gamma, ln.beta}
}
