package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Head is a single causal self-attention head.
//
//	q, k, v = x @ Wq.T, x @ Wk.T, x @ Wv.T         [..., T, head_size]
//	weights = softmax(mask(q @ k.T / sqrt(head_size)))
//	out     = dropout(weights) @ v
//
// Position i attends only to positions j <= i. Input may be [T, C] for a
// single sequence or [B, T, C] for a batch.
type Head struct {
	query    *Linear
	key      *Linear
	value    *Linear
	dropout  *Dropout
	headSize int
	scale    float32
	params   []*Parameter
	backend  *autodiff.Backend
}

// NewHead creates an attention head projecting nEmbd features to headSize.
func NewHead(nEmbd, headSize int, dropout float32, backend *autodiff.Backend, rng *rand.Rand) *Head {
	h := &Head{
		query:    NewLinear(nEmbd, headSize, false, backend, rng),
		key:      NewLinear(nEmbd, headSize, false, backend, rng),
		value:    NewLinear(nEmbd, headSize, false, backend, rng),
		dropout:  NewDropout(dropout, backend),
		headSize: headSize,
		scale:    float32(1 / math.Sqrt(float64(headSize))),
		backend:  backend,
	}
	Prefix("query", h.query.Parameters())
	Prefix("key", h.key.Parameters())
	Prefix("value", h.value.Parameters())
	h.params = CollectParameters(h.query, h.key, h.value)
	return h
}

// Forward returns the attended values of shape [..., T, head_size].
func (h *Head) Forward(x *tensor.Tensor) *tensor.Tensor {
	out, _ := h.ForwardWithWeights(x)
	return out
}

// ForwardWithWeights also returns the post-softmax attention weights
// [..., T, T], before dropout.
func (h *Head) ForwardWithWeights(x *tensor.Tensor) (out, weights *tensor.Tensor) {
	if r := len(x.Shape()); r != 2 && r != 3 {
		panic(fmt.Sprintf("Head.Forward: expected [T, C] or [B, T, C], got %v", x.Shape()))
	}
	q := h.query.Forward(x)
	k := h.key.Forward(x)
	v := h.value.Forward(x)

	scores := h.backend.Scale(h.backend.BatchMatMul(q, k, true), h.scale)
	weights = h.backend.CausalSoftmax(scores)
	out = h.backend.BatchMatMul(h.dropout.Forward(weights), v, false)
	return out, weights
}

// HeadSize returns the per-head feature width.
func (h *Head) HeadSize() int {
	return h.headSize
}

// Parameters returns the query, key and value weights.
func (h *Head) Parameters() []*Parameter {
	return slices.Clone(h.params)
}
