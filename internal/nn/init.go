package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/gptlab/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform(shape, bound, rng)
}

// Normal draws every element from N(0, std^2).
func Normal(shape tensor.Shape, std float32, rng *rand.Rand) *tensor.Tensor {
	return tensor.Randn(shape, std, rng)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape tensor.Shape) *tensor.Tensor {
	return tensor.Ones(shape)
}
