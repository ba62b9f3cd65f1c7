package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices [batch, seq] -> embeddings [batch, seq, EmbedDim]
//   - Backward: gradients scatter-add to weight rows
//
// Example:
//
//	tok := nn.NewEmbedding(vocabSize, 32, backend, rng)
//	x := tok.Lookup(inputs)        // [B, T, 32]
//	p := pos.Positions(inputs.SeqLen()) // [T, 32]
type Embedding struct {
	weight   *Parameter // [NumEmbed, EmbedDim]
	numEmbed int
	embedDim int
	backend  *autodiff.Backend
}

// NewEmbedding creates an Embedding with weights drawn from N(0, 1).
func NewEmbedding(numEmbeddings, embeddingDim int, backend *autodiff.Backend, rng *rand.Rand) *Embedding {
	return &Embedding{
		weight:   NewParameter("weight", Normal(tensor.Shape{numEmbeddings, embeddingDim}, 1, rng)),
		numEmbed: numEmbeddings,
		embedDim: embeddingDim,
		backend:  backend,
	}
}

// Forward gathers the rows for ids laid out as lead; the result has shape
// lead + [EmbedDim].
func (e *Embedding) Forward(ids []int32, lead tensor.Shape) *tensor.Tensor {
	return e.backend.Embedding(e.weight.Tensor(), ids, lead)
}

// Lookup embeds a [batch, seq] token grid.
func (e *Embedding) Lookup(tokens *tensor.Tokens) *tensor.Tensor {
	return e.Forward(tokens.Data(), tokens.Shape())
}

// Positions embeds positions 0..t-1 into a [t, EmbedDim] tensor.
func (e *Embedding) Positions(t int) *tensor.Tensor {
	if t > e.numEmbed {
		panic(fmt.Sprintf("Embedding.Positions: %d positions exceed table size %d", t, e.numEmbed))
	}
	return e.Forward(tensor.Arange(t), tensor.Shape{t})
}

// Parameters returns [weight].
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.weight}
}

// Weight returns the embedding table.
func (e *Embedding) Weight() *Parameter {
	return e.weight
}

// NumEmbed returns the number of rows in the table.
func (e *Embedding) NumEmbed() int {
	return e.numEmbed
}

// EmbedDim returns the embedding width.
func (e *Embedding) EmbedDim() int {
	return e.embedDim
}
