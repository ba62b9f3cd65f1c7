// Package generate exposes autoregressive sampling for gptlab models.
//
// Example usage:
//
//	g := generate.New(m, generate.SamplingConfig{Temperature: 0.8, TopK: 20, Seed: 42})
//	ids, err := g.GenerateLength([]int32{0}, 500)
package generate

import (
	"github.com/born-ml/gptlab/internal/generate"
)

// SamplingConfig configures the sampling strategy.
//
// Parameters:
//   - Temperature: Controls randomness (0 = greedy, 1 = model distribution)
//   - TopK: Limits sampling to the K most likely tokens (0 = disabled)
//   - TopP: Nucleus sampling threshold (1.0 = disabled)
//   - Seed: Random seed for reproducibility (-1 = random)
type SamplingConfig = generate.SamplingConfig

// DefaultSamplingConfig samples straight from the softmax with a random seed.
func DefaultSamplingConfig() SamplingConfig {
	return generate.DefaultSamplingConfig()
}

// Sampler picks one token id from a logits row.
type Sampler = generate.Sampler

// NewSampler creates a new sampler with the given configuration.
func NewSampler(config SamplingConfig) *Sampler {
	return generate.NewSampler(config)
}

// Model is what a Generator needs from a language model.
type Model = generate.Model

// Generator extends a context one sampled token at a time.
type Generator = generate.Generator

// Stream is a lazy, single-use sequence of generated ids.
type Stream = generate.Stream

// Errors returned by generation.
var (
	ErrEmptyContext   = generate.ErrEmptyContext
	ErrStreamConsumed = generate.ErrStreamConsumed
	ErrLength         = generate.ErrLength
)

// New creates a generator for m.
//
// Example:
//
//	g := generate.New(m, generate.DefaultSamplingConfig())
//	stream, _ := g.Stream(context, 100)
//	for id := range stream.Tokens() {
//	    fmt.Print(tok.Decode([]int32{id}))
//	}
func New(m Model, config SamplingConfig) *Generator {
	return generate.New(m, config)
}
