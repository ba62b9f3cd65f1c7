package nn

import (
	"math/rand/v2"
	"slices"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Block implements a pre-norm transformer block.
//
// Architecture:
//
//	x → LayerNorm → MHA → + → LayerNorm → FFN → + → output
//	|__________________↑   |__________________↑
//	     (residual)             (residual)
type Block struct {
	ln1     *LayerNorm
	attn    *MultiHeadAttention
	ln2     *LayerNorm
	ffn     *FeedForward
	params  []*Parameter
	backend *autodiff.Backend
}

// NewBlock creates a block. It fails when nEmbd is not divisible by numHeads.
func NewBlock(nEmbd, numHeads int, dropout float32, backend *autodiff.Backend, rng *rand.Rand) (*Block, error) {
	attn, err := NewMultiHeadAttention(nEmbd, numHeads, dropout, backend, rng)
	if err != nil {
		return nil, err
	}
	b := &Block{
		ln1:     NewLayerNorm(nEmbd, backend),
		attn:    attn,
		ln2:     NewLayerNorm(nEmbd, backend),
		ffn:     NewFeedForward(nEmbd, dropout, backend, rng),
		backend: backend,
	}
	Prefix("ln1", b.ln1.Parameters())
	Prefix("attn", b.attn.Parameters())
	Prefix("ln2", b.ln2.Parameters())
	Prefix("ffn", b.ffn.Parameters())
	b.params = CollectParameters(b.ln1, b.attn, b.ln2, b.ffn)
	return b, nil
}

// Forward computes x + MHA(LN1(x)), then adds FFN(LN2(.)) to the result.
func (b *Block) Forward(x *tensor.Tensor) *tensor.Tensor {
	x = b.backend.Add(x, b.attn.Forward(b.ln1.Forward(x)))
	return b.backend.Add(x, b.ffn.Forward(b.ln2.Forward(x)))
}

// Parameters returns the block's parameters in forward order.
func (b *Block) Parameters() []*Parameter {
	return slices.Clone(b.params)
}
