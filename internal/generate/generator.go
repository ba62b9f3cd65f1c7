package generate

import (
	"errors"
	"fmt"
	"iter"

	"github.com/born-ml/gptlab/internal/tensor"
	"github.com/born-ml/gptlab/internal/tokenizer"
)

// Errors returned by the generator.
var (
	ErrEmptyContext   = errors.New("generation needs a non-empty context")
	ErrStreamConsumed = errors.New("stream already consumed")
	ErrLength         = errors.New("invalid generation length")
)

// Model is what the generator needs from a language model.
type Model interface {
	// NextTokenLogits scores the token following context, which is at most
	// BlockSize ids long.
	NextTokenLogits(context []int32) ([]float32, error)

	// BlockSize returns the maximum context the model attends over.
	BlockSize() int

	// VocabSize returns the vocabulary size.
	VocabSize() int
}

// Generator extends a context one sampled token at a time.
type Generator struct {
	model   Model
	sampler *Sampler
}

// New creates a generator for m.
func New(m Model, cfg SamplingConfig) *Generator {
	return &Generator{model: m, sampler: NewSampler(cfg)}
}

// Stream is a lazy sequence of n continuation tokens.
type Stream struct {
	g        *Generator
	context  []int32
	n        int
	consumed bool
	err      error
}

// Stream validates context and returns a stream of n new tokens.
func (g *Generator) Stream(context []int32, n int) (*Stream, error) {
	if len(context) == 0 {
		return nil, ErrEmptyContext
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative token count %d", ErrLength, n)
	}
	if err := tensor.CheckRange(context, g.model.VocabSize()); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return &Stream{g: g, context: append([]int32(nil), context...), n: n}, nil
}

// Tokens yields the new ids. Each step crops the running context to the
// model's block size, scores it and samples. A stream can be ranged over
// once; a failed step ends the sequence and is reported by Err.
func (s *Stream) Tokens() iter.Seq[int32] {
	return func(yield func(int32) bool) {
		if s.consumed {
			s.err = ErrStreamConsumed
			return
		}
		s.consumed = true

		blockSize := s.g.model.BlockSize()
		for range s.n {
			window := s.context
			if len(window) > blockSize {
				window = window[len(window)-blockSize:]
			}
			logits, err := s.g.model.NextTokenLogits(window)
			if err != nil {
				s.err = err
				return
			}
			next := s.g.sampler.Sample(logits)
			s.context = append(s.context, next)
			if !yield(next) {
				return
			}
		}
	}
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Generate returns context followed by n sampled ids.
func (g *Generator) Generate(context []int32, n int) ([]int32, error) {
	stream, err := g.Stream(context, n)
	if err != nil {
		return nil, err
	}
	out := make([]int32, 0, len(context)+n)
	out = append(out, context...)
	for id := range stream.Tokens() {
		out = append(out, id)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateLength returns exactly length ids, the context included.
func (g *Generator) GenerateLength(context []int32, length int) ([]int32, error) {
	if length < len(context) {
		return nil, fmt.Errorf("%w: length %d is shorter than context %d", ErrLength, length, len(context))
	}
	return g.Generate(context, length-len(context))
}

// GenerateText encodes prompt, appends n sampled tokens and decodes the
// whole sequence.
func (g *Generator) GenerateText(tok tokenizer.Tokenizer, prompt string, n int) (string, error) {
	context, err := tok.Encode(prompt)
	if err != nil {
		return "", err
	}
	ids, err := g.Generate(context, n)
	if err != nil {
		return "", err
	}
	return tok.Decode(ids)
}
