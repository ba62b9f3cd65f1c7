package tensor

import (
	"math"
	"math/rand/v2"
)

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return New(shape)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float32) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Randn creates a tensor with values drawn from N(0, std²).
//
// The caller owns rng so that initialization stays reproducible.
func Randn(shape Shape, std float32, rng *rand.Rand) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = float32(rng.NormFloat64()) * std
	}
	return t
}

// Uniform creates a tensor with values drawn from U(-bound, bound).
func Uniform(shape Shape, bound float64, rng *rand.Rand) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	return t
}

// Arange returns the ids [0, n).
//
// Used to look up positional embeddings.
func Arange(n int) []int32 {
	ids := make([]int32, n)
	for i := range ids {
		ids[i] = int32(i) //nolint:gosec // n is bounded by the context window
	}
	return ids
}

// NegInf is float32 negative infinity, used by additive attention masks.
var NegInf = float32(math.Inf(-1))
