// Package data turns a token sequence into training batches.
//
// The sequence is split once into a leading train region and a trailing
// eval region. Each batch is a set of windows of block_size+1 consecutive
// tokens drawn uniformly, with replacement, from one region:
//
//	window  = region[off : off+block_size+1]
//	inputs  = window[0:block_size]
//	targets = window[1:block_size+1]
package data

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Split selects a region of the corpus.
type Split int

// Regions of the corpus.
const (
	Train Split = iota
	Eval
)

// String returns "train" or "eval".
func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Eval:
		return "eval"
	default:
		return fmt.Sprintf("Split(%d)", int(s))
	}
}

// Batch is one optimizer step's worth of windows.
//
// Targets.At(i, t) is the token following Inputs.At(i, t) in the corpus.
type Batch struct {
	Inputs  *tensor.Tokens
	Targets *tensor.Tokens
}

// Config controls how the sequence is split and windowed.
type Config struct {
	SplitRatio float64 // Fraction of tokens in the train region
	BlockSize  int     // Window length
	VocabSize  int     // Every id must be in [0, VocabSize)
	Seed       uint64  // Seed of the offset RNG
}

// Sampler draws random windows from the train and eval regions.
//
// It is not safe for concurrent use.
type Sampler struct {
	train     []int32
	eval      []int32
	blockSize int
	rng       *rand.Rand
}

// New validates tokens and cfg and splits the sequence.
//
// It returns a *config.Error for bad options, an error wrapping
// tensor.ErrTokenRange for out-of-vocabulary ids, and an
// *InsufficientDataError if either region cannot hold one window.
func New(tokens []int32, cfg Config) (*Sampler, error) {
	if cfg.SplitRatio <= 0 || cfg.SplitRatio >= 1 {
		return nil, &config.Error{Field: "train_val_split", Reason: fmt.Sprintf("must be in (0, 1), got %v", cfg.SplitRatio)}
	}
	if cfg.BlockSize <= 0 {
		return nil, &config.Error{Field: "block_size", Reason: fmt.Sprintf("must be positive, got %d", cfg.BlockSize)}
	}
	if cfg.VocabSize <= 0 {
		return nil, &config.Error{Field: "vocab_size", Reason: fmt.Sprintf("must be positive, got %d", cfg.VocabSize)}
	}
	if err := tensor.CheckRange(tokens, cfg.VocabSize); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	n := int(cfg.SplitRatio * float64(len(tokens)))
	s := &Sampler{
		train:     tokens[:n],
		eval:      tokens[n:],
		blockSize: cfg.BlockSize,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d)),
	}
	for _, split := range []Split{Train, Eval} {
		if l := len(s.region(split)); l < cfg.BlockSize+1 {
			return nil, &InsufficientDataError{Split: split, Length: l, Need: cfg.BlockSize + 1}
		}
	}
	return s, nil
}

// Batch draws batchSize windows from split.
func (s *Sampler) Batch(split Split, batchSize int) (*Batch, error) {
	if batchSize <= 0 {
		return nil, &config.Error{Field: "batch_size", Reason: fmt.Sprintf("must be positive, got %d", batchSize)}
	}
	if split != Train && split != Eval {
		return nil, fmt.Errorf("data: unknown split %v", split)
	}
	region := s.region(split)
	b := s.blockSize
	inputs := make([]int32, batchSize*b)
	targets := make([]int32, batchSize*b)
	for i := 0; i < batchSize; i++ {
		off := s.rng.IntN(len(region) - b)
		copy(inputs[i*b:(i+1)*b], region[off:off+b])
		copy(targets[i*b:(i+1)*b], region[off+1:off+b+1])
	}

	in, err := tensor.NewTokens(inputs, batchSize, b)
	if err != nil {
		return nil, err
	}
	tg, err := tensor.NewTokens(targets, batchSize, b)
	if err != nil {
		return nil, err
	}
	return &Batch{Inputs: in, Targets: tg}, nil
}

// Len returns the number of tokens in split.
func (s *Sampler) Len(split Split) int {
	return len(s.region(split))
}

// BlockSize returns the window length.
func (s *Sampler) BlockSize() int {
	return s.blockSize
}

func (s *Sampler) region(split Split) []int32 {
	if split == Eval {
		return s.eval
	}
	return s.train
}
