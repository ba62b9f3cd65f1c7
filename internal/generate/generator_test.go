package generate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/generate"
	"github.com/born-ml/gptlab/internal/model"
	"github.com/born-ml/gptlab/internal/tensor"
	"github.com/born-ml/gptlab/internal/tokenizer"
)

// fakeModel prefers (last+1) % vocab and records the longest context seen.
type fakeModel struct {
	vocab, block int
	maxSeen      int
	calls        int
	failAfter    int
}

func (f *fakeModel) NextTokenLogits(context []int32) ([]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, assert.AnError
	}
	f.maxSeen = max(f.maxSeen, len(context))
	logits := make([]float32, f.vocab)
	logits[(int(context[len(context)-1])+1)%f.vocab] = 2
	return logits, nil
}

func (f *fakeModel) BlockSize() int { return f.block }
func (f *fakeModel) VocabSize() int { return f.vocab }

func TestGenerate_Greedy(t *testing.T) {
	m := &fakeModel{vocab: 5, block: 3}
	g := generate.New(m, generate.SamplingConfig{Temperature: 0})

	ids, err := g.Generate([]int32{3}, 6)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 4, 0, 1, 2, 3, 4}, ids)
	assert.Equal(t, 3, m.maxSeen, "context is cropped to the block size")
}

func TestGenerate_CountsAndRange(t *testing.T) {
	m := &fakeModel{vocab: 65, block: 8}
	g := generate.New(m, generate.SamplingConfig{Temperature: 1, Seed: 3})

	for _, n := range []int{0, 1, 17} {
		ids, err := g.Generate([]int32{0, 1}, n)
		require.NoError(t, err)
		assert.Len(t, ids, 2+n)
		assert.NoError(t, tensor.CheckRange(ids, 65))
	}

	ids, err := g.GenerateLength([]int32{0}, 100)
	require.NoError(t, err)
	assert.Len(t, ids, 100)
	assert.Equal(t, int32(0), ids[0])
}

func TestGenerate_SeedReproducibility(t *testing.T) {
	m := &fakeModel{vocab: 65, block: 8}
	run := func(seed int64) []int32 {
		ids, err := generate.New(m, generate.SamplingConfig{Temperature: 1, Seed: seed}).Generate([]int32{0}, 50)
		require.NoError(t, err)
		return ids
	}

	assert.Equal(t, run(1), run(1))
	assert.NotEqual(t, run(1), run(2))
}

func TestGenerate_Errors(t *testing.T) {
	m := &fakeModel{vocab: 5, block: 3}
	g := generate.New(m, generate.DefaultSamplingConfig())

	_, err := g.Generate(nil, 3)
	assert.ErrorIs(t, err, generate.ErrEmptyContext)
	_, err = g.Generate([]int32{5}, 3)
	assert.ErrorIs(t, err, tensor.ErrTokenRange)
	_, err = g.Generate([]int32{1}, -1)
	assert.ErrorIs(t, err, generate.ErrLength)
	_, err = g.GenerateLength([]int32{1, 2, 3}, 2)
	assert.ErrorIs(t, err, generate.ErrLength)
}

func TestStream_LazyAndSingleUse(t *testing.T) {
	m := &fakeModel{vocab: 5, block: 4}
	g := generate.New(m, generate.SamplingConfig{Temperature: 0})

	stream, err := g.Stream([]int32{0}, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, m.calls, "nothing runs before iteration")

	var got []int32
	for id := range stream.Tokens() {
		got = append(got, id)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []int32{1, 2, 3}, got)
	assert.Equal(t, 3, m.calls)
	assert.NoError(t, stream.Err())

	for range stream.Tokens() {
		t.Fatal("a consumed stream yields nothing")
	}
	assert.ErrorIs(t, stream.Err(), generate.ErrStreamConsumed)
}

func TestStream_ReportsModelFailure(t *testing.T) {
	m := &fakeModel{vocab: 5, block: 4, failAfter: 2}
	g := generate.New(m, generate.SamplingConfig{Temperature: 0})

	stream, err := g.Stream([]int32{0}, 10)
	require.NoError(t, err)
	n := 0
	for range stream.Tokens() {
		n++
	}
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, stream.Err(), assert.AnError)

	_, err = generate.New(&fakeModel{vocab: 5, block: 4, failAfter: 1}, generate.DefaultSamplingConfig()).Generate([]int32{0}, 5)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGenerate_LanguageModel(t *testing.T) {
	tok := tokenizer.NewCharTokenizer("First Citizen: Before we proceed any further, hear me speak.")
	m, err := model.New(config.Small(), tok.VocabSize())
	require.NoError(t, err)
	m.Train()

	g := generate.New(m, generate.SamplingConfig{Temperature: 1, Seed: 1337})
	ids, err := g.GenerateLength([]int32{0}, 100)
	require.NoError(t, err)
	assert.Len(t, ids, 100)
	assert.True(t, m.Training(), "generation leaves the training mode untouched")

	text, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	again, err := generate.New(m, generate.SamplingConfig{Temperature: 1, Seed: 1337}).GenerateLength([]int32{0}, 100)
	require.NoError(t, err)
	assert.Equal(t, ids, again)
}

func TestGenerateText(t *testing.T) {
	tok := tokenizer.NewCharTokenizer("abcde")
	m := &fakeModel{vocab: tok.VocabSize(), block: 4}
	g := generate.New(m, generate.SamplingConfig{Temperature: 0})

	text, err := g.GenerateText(tok, "ab", 3)
	require.NoError(t, err)
	assert.Equal(t, "abcde", text)

	_, err = g.GenerateText(tok, "xyz", 3)
	assert.ErrorIs(t, err, tokenizer.ErrUnknownToken)
}
