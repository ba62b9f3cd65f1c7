// Package generate provides autoregressive text generation for the gptlab
// language model.
//
// This package implements sampling strategies and the token-by-token
// decoding loop on top of any model that can score a context.
package generate

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// SamplingConfig configures the sampling strategy for text generation.
type SamplingConfig struct {
	// Temperature controls randomness. 0 = greedy, 1 = normal, >1 = more random.
	Temperature float32

	// TopK limits sampling to top K tokens. 0 = disabled.
	TopK int

	// TopP (nucleus sampling) limits to tokens with cumulative prob < P. 0 or 1 = disabled.
	TopP float32

	// Seed for reproducibility. -1 = random.
	Seed int64
}

// DefaultSamplingConfig samples straight from the softmax with a random seed.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Temperature: 1.0,
		TopK:        0,
		TopP:        1.0,
		Seed:        -1,
	}
}

// Sampler samples tokens from logits using configurable strategies.
type Sampler struct {
	config SamplingConfig
	src    *rand.PCG
}

// NewSampler creates a new sampler with the given configuration.
func NewSampler(config SamplingConfig) *Sampler {
	seed := uint64(config.Seed)
	if config.Seed < 0 {
		seed = rand.Uint64()
	}
	return &Sampler{
		config: config,
		src:    rand.NewPCG(seed, seed^0x853c49e6748fea9b),
	}
}

// Sample returns the next token ID from logits.
//
// The sampling process:
//  1. Apply temperature scaling
//  2. Apply Top-K filtering
//  3. Apply Top-P (nucleus) filtering
//  4. Sample from the categorical distribution (or argmax if temperature=0)
func (s *Sampler) Sample(logits []float32) int32 {
	logits = slices.Clone(logits)

	if s.config.Temperature == 0 {
		return argmax(logits)
	}
	if s.config.Temperature != 1.0 {
		for i := range logits {
			logits[i] /= s.config.Temperature
		}
	}

	if s.config.TopK > 0 && s.config.TopK < len(logits) {
		topKFilter(logits, s.config.TopK)
	}

	probs := softmax(logits)
	if p := float64(s.config.TopP); p > 0 && p < 1 {
		topPFilter(probs, p)
	}

	return int32(distuv.NewCategorical(probs, s.src).Rand()) //nolint:gosec // bounded by vocab size
}

// argmax returns the index of the maximum value.
func argmax(logits []float32) int32 {
	maxIdx := 0
	maxVal := logits[0]
	for i, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
			maxIdx = i + 1
		}
	}
	return int32(maxIdx) //nolint:gosec // bounded by vocab size
}

// topKFilter keeps only the k largest logits and sets the rest to -inf.
func topKFilter(logits []float32, k int) {
	sorted := slices.Clone(logits)
	slices.SortFunc(sorted, func(a, b float32) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	threshold := sorted[k-1]

	for i := range logits {
		if logits[i] < threshold {
			logits[i] = float32(math.Inf(-1))
		}
	}
}

// topPFilter zeroes the tail of probs outside the smallest set whose mass
// exceeds p. At least one token is always kept.
func topPFilter(probs []float64, p float64) {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case probs[a] > probs[b]:
			return -1
		case probs[a] < probs[b]:
			return 1
		}
		return a - b
	})

	cum := 0.0
	for rank, idx := range order {
		if cum > p && rank > 0 {
			probs[idx] = 0
			continue
		}
		cum += probs[idx]
	}
}

// softmax converts logits to probabilities; -inf entries get zero mass.
func softmax(logits []float32) []float64 {
	maxVal := math.Inf(-1)
	for _, v := range logits {
		maxVal = math.Max(maxVal, float64(v))
	}

	probs := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		if math.IsInf(float64(v), -1) {
			continue
		}
		probs[i] = math.Exp(float64(v) - maxVal)
		sum += probs[i]
	}
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}
	return probs
}
