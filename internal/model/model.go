// Package model assembles the character-level language model from the nn
// building blocks.
//
// A variant selects how much of the architecture is present:
//
//	embedding        logits = TokEmb[V, V](idx)
//	linear           logits = LMHead(TokEmb(idx))
//	positional       x = TokEmb(idx) + PosEmb(t)
//	attention        ... + one causal Head of width n_embd
//	multi-attention  ... + MultiHeadAttention instead
//	computation      ... + FeedForward after attention
//	transformer      x = Blocks(TokEmb + PosEmb); logits = LMHead(LN(x))
//
// Every variant is built by New from the same component types.
package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/nn"
)

// LanguageModel maps token grids to next-token logits.
//
// It is not safe for concurrent use: the forward pass records on a shared
// tape, and training mutates parameters in place.
type LanguageModel struct {
	variant   string
	vocabSize int
	blockSize int
	backend   *autodiff.Backend

	tokEmb *nn.Embedding
	posEmb *nn.Embedding
	mixer  nn.Module // Head or MultiHeadAttention
	ffn    *nn.FeedForward
	blocks []*nn.Block
	lnF    *nn.LayerNorm
	lmHead *nn.Linear

	params []*nn.Parameter
}

// New builds the variant named by cfg.Variant with parameters drawn from a
// PCG source seeded with cfg.Seed. Dropout draws from cfg.Seed+1.
func New(cfg config.Config, vocabSize int) (*LanguageModel, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if vocabSize <= 0 {
		return nil, &config.Error{Field: "vocab_size", Reason: fmt.Sprintf("must be positive, got %d", vocabSize)}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xda3e39cb94b95bdb))
	backend := autodiff.New(cpu.New(), cfg.Seed+1)
	dropout := float32(cfg.Dropout)
	c := cfg.NEmbd

	m := &LanguageModel{
		variant:   cfg.Variant,
		vocabSize: vocabSize,
		blockSize: cfg.BlockSize,
		backend:   backend,
	}

	if cfg.Variant == config.VariantEmbedding {
		m.tokEmb = nn.NewEmbedding(vocabSize, vocabSize, backend, rng)
		m.collect()
		return m, nil
	}

	m.tokEmb = nn.NewEmbedding(vocabSize, c, backend, rng)
	if cfg.Variant != config.VariantLinear {
		m.posEmb = nn.NewEmbedding(cfg.BlockSize, c, backend, rng)
	}

	switch cfg.Variant {
	case config.VariantAttention:
		m.mixer = nn.NewHead(c, c, dropout, backend, rng)
	case config.VariantMultiAttention, config.VariantComputation:
		mha, err := nn.NewMultiHeadAttention(c, cfg.NumHeads, dropout, backend, rng)
		if err != nil {
			return nil, err
		}
		m.mixer = mha
		if cfg.Variant == config.VariantComputation {
			m.ffn = nn.NewFeedForward(c, dropout, backend, rng)
		}
	case config.VariantTransformer:
		for range cfg.NumLayers {
			block, err := nn.NewBlock(c, cfg.NumHeads, dropout, backend, rng)
			if err != nil {
				return nil, err
			}
			m.blocks = append(m.blocks, block)
		}
		m.lnF = nn.NewLayerNorm(c, backend)
	}

	m.lmHead = nn.NewLinear(c, vocabSize, true, backend, rng)
	m.collect()
	return m, nil
}

func (m *LanguageModel) collect() {
	m.params = nn.Prefix("tok_emb", m.tokEmb.Parameters())
	if m.posEmb != nil {
		m.params = append(m.params, nn.Prefix("pos_emb", m.posEmb.Parameters())...)
	}
	if m.mixer != nil {
		m.params = append(m.params, nn.Prefix("attn", m.mixer.Parameters())...)
	}
	if m.ffn != nil {
		m.params = append(m.params, nn.Prefix("ffn", m.ffn.Parameters())...)
	}
	for i, b := range m.blocks {
		m.params = append(m.params, nn.Prefix(fmt.Sprintf("blocks.%d", i), b.Parameters())...)
	}
	if m.lnF != nil {
		m.params = append(m.params, nn.Prefix("ln_f", m.lnF.Parameters())...)
	}
	if m.lmHead != nil {
		m.params = append(m.params, nn.Prefix("lm_head", m.lmHead.Parameters())...)
	}
}
