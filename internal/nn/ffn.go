package nn

import (
	"math/rand/v2"
	"slices"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/tensor"
)

// FeedForward is the position-wise MLP of a transformer block:
//
//	FFN(x) = Dropout(ReLU(x @ W1.T + b1) @ W2.T + b2)
//
// The hidden layer is 4 * n_embd wide.
type FeedForward struct {
	fc1     *Linear
	fc2     *Linear
	dropout *Dropout
	params  []*Parameter
	backend *autodiff.Backend
}

// NewFeedForward creates a FeedForward over nEmbd features.
func NewFeedForward(nEmbd int, dropout float32, backend *autodiff.Backend, rng *rand.Rand) *FeedForward {
	hidden := 4 * nEmbd
	f := &FeedForward{
		fc1:     NewLinear(nEmbd, hidden, true, backend, rng),
		fc2:     NewLinear(hidden, nEmbd, true, backend, rng),
		dropout: NewDropout(dropout, backend),
		backend: backend,
	}
	Prefix("fc1", f.fc1.Parameters())
	Prefix("fc2", f.fc2.Parameters())
	f.params = CollectParameters(f.fc1, f.fc2)
	return f
}

// Forward applies the MLP independently at every position.
func (f *FeedForward) Forward(x *tensor.Tensor) *tensor.Tensor {
	h := f.backend.ReLU(f.fc1.Forward(x))
	return f.dropout.Forward(f.fc2.Forward(h))
}

// Parameters returns both layers' weights and biases.
func (f *FeedForward) Parameters() []*Parameter {
	return slices.Clone(f.params)
}
