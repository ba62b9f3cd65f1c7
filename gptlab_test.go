package gptlab_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptlab"
	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/tokenizer"
)

const corpus = `First Citizen:
Before we proceed any further, hear me speak.

All:
Speak, speak.
`

func quickConfig() config.Config {
	cfg := config.Small()
	cfg.MaxIters = 20
	cfg.EvalInterval = 10
	cfg.EvalIters = 2
	cfg.BatchSize = 4
	return cfg
}

func encode(t *testing.T) (*tokenizer.CharTokenizer, []int32) {
	t.Helper()
	text := strings.Repeat(corpus, 10)
	tok := tokenizer.NewCharTokenizer(text)
	ids, err := tok.Encode(text)
	require.NoError(t, err)
	return tok, ids
}

func TestTrainAndGenerate(t *testing.T) {
	cfg := quickConfig()
	tok, ids := encode(t)

	m, err := gptlab.NewModel(cfg, tok.VocabSize())
	require.NoError(t, err)

	var steps []int
	res, err := gptlab.Train(m, cfg, ids, gptlab.ReporterFunc(func(r gptlab.Report) {
		steps = append(steps, r.Step)
	}))
	require.NoError(t, err)
	assert.Equal(t, 20, res.Steps)
	assert.Equal(t, []int{0, 10, 19}, steps)
	assert.Len(t, res.Reports, 3)

	text, err := gptlab.Generate(m, []int32{0}, 60, tok, 1337)
	require.NoError(t, err)
	assert.Equal(t, 60, len([]rune(text)))

	again, err := gptlab.Generate(m, []int32{0}, 60, tok, 1337)
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestTrain_InsufficientData(t *testing.T) {
	cfg := quickConfig()
	tok := tokenizer.NewCharTokenizer("abcdef")
	ids, err := tok.Encode("abcdef")
	require.NoError(t, err)

	m, err := gptlab.NewModel(cfg, tok.VocabSize())
	require.NoError(t, err)
	_, err = gptlab.Train(m, cfg, ids)
	assert.ErrorIs(t, err, gptlab.ErrInsufficientData)
}

func TestNewModel_InvalidConfig(t *testing.T) {
	cfg := quickConfig()
	cfg.NumHeads = 5
	_, err := gptlab.NewModel(cfg, 10)
	assert.ErrorIs(t, err, gptlab.ErrInvalidConfig)
}

func TestGenerate_Errors(t *testing.T) {
	cfg := quickConfig()
	tok, _ := encode(t)
	m, err := gptlab.NewModel(cfg, tok.VocabSize())
	require.NoError(t, err)

	_, err = gptlab.Generate(m, []int32{int32(tok.VocabSize())}, 10, tok, 1)
	assert.ErrorIs(t, err, gptlab.ErrTokenOutOfRange)
}

func TestTrain_EmptyVariantUsesDefault(t *testing.T) {
	cfg := quickConfig()
	cfg.Variant = ""
	cfg.MaxIters = 2
	tok, ids := encode(t)

	m, err := gptlab.NewModel(cfg, tok.VocabSize())
	require.NoError(t, err)
	assert.Equal(t, config.VariantTransformer, m.Variant())

	res, err := gptlab.Train(m, cfg, ids, gptlab.ReporterFunc(func(gptlab.Report) {}))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Steps)
}
