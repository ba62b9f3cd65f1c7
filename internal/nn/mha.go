package nn

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/tensor"
)

// MultiHeadAttention runs independent causal heads side by side.
//
// Architecture:
//
//	MHA(x) = Dropout(Concat(head_1(x), ..., head_h(x)) @ W_O.T + b_O)
//
// Each head has head_size = n_embd / num_heads, so the concatenation is
// n_embd wide again.
type MultiHeadAttention struct {
	heads   []*Head
	proj    *Linear
	dropout *Dropout
	params  []*Parameter
	backend *autodiff.Backend
}

// NewMultiHeadAttention creates numHeads heads over nEmbd features.
//
// Returns a *config.Error if nEmbd is not divisible by numHeads.
func NewMultiHeadAttention(nEmbd, numHeads int, dropout float32, backend *autodiff.Backend, rng *rand.Rand) (*MultiHeadAttention, error) {
	if numHeads <= 0 {
		return nil, &config.Error{Field: "num_heads", Reason: fmt.Sprintf("must be positive, got %d", numHeads)}
	}
	if nEmbd%numHeads != 0 {
		return nil, &config.Error{
			Field:  "num_heads",
			Reason: fmt.Sprintf("n_embd %d is not divisible by num_heads %d", nEmbd, numHeads),
		}
	}
	headSize := nEmbd / numHeads

	heads := make([]*Head, numHeads)
	for i := range heads {
		heads[i] = NewHead(nEmbd, headSize, dropout, backend, rng)
	}
	m := &MultiHeadAttention{
		heads:   heads,
		proj:    NewLinear(nEmbd, nEmbd, true, backend, rng),
		dropout: NewDropout(dropout, backend),
		backend: backend,
	}
	for i, h := range m.heads {
		m.params = append(m.params, Prefix(fmt.Sprintf("heads.%d", i), h.Parameters())...)
	}
	m.params = append(m.params, Prefix("proj", m.proj.Parameters())...)
	return m, nil
}

// Forward attends over x of shape [..., T, n_embd].
func (m *MultiHeadAttention) Forward(x *tensor.Tensor) *tensor.Tensor {
	outs := make([]*tensor.Tensor, len(m.heads))
	for i, h := range m.heads {
		outs[i] = h.Forward(x)
	}
	return m.dropout.Forward(m.proj.Forward(m.backend.Cat(outs...)))
}

// NumHeads returns the number of heads.
func (m *MultiHeadAttention) NumHeads() int {
	return len(m.heads)
}

// Heads returns the heads in concatenation order.
func (m *MultiHeadAttention) Heads() []*Head {
	return m.heads
}

// Parameters returns every head's weights followed by the projection.
func (m *MultiHeadAttention) Parameters() []*Parameter {
	return slices.Clone(m.params)
}
