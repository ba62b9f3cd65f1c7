package model

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/tensor"
)

const testVocab = 65

func testConfig(variant string) config.Config {
	cfg := config.Small()
	cfg.Variant = variant
	return cfg
}

func randomTokens(t *testing.T, batch, seqLen, vocab int, seed uint64) *tensor.Tokens {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	ids := make([]int32, batch*seqLen)
	for i := range ids {
		ids[i] = int32(rng.IntN(vocab))
	}
	tokens, err := tensor.NewTokens(ids, batch, seqLen)
	require.NoError(t, err)
	return tokens
}

func TestNew_AllVariants(t *testing.T) {
	for _, variant := range config.Variants() {
		t.Run(variant, func(t *testing.T) {
			m, err := New(testConfig(variant), testVocab)
			require.NoError(t, err)
			assert.Equal(t, variant, m.Variant())

			for _, seqLen := range []int{1, 5, 8} {
				inputs := randomTokens(t, 4, seqLen, testVocab, 1)
				targets := randomTokens(t, 4, seqLen, testVocab, 2)
				logits, loss, err := m.Forward(inputs, targets)
				require.NoError(t, err)
				assert.Equal(t, tensor.Shape{4, seqLen, testVocab}, logits.Shape())
				require.NotNil(t, loss)
				assert.True(t, loss.IsFinite())
				assert.GreaterOrEqual(t, loss.Item(), float32(0))
			}
		})
	}
}

func TestNew_DefaultsToTransformer(t *testing.T) {
	m, err := New(testConfig(""), testVocab)
	require.NoError(t, err)
	assert.Equal(t, config.VariantTransformer, m.Variant())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(config.VariantTransformer)
	cfg.NumHeads = 5
	_, err := New(cfg, testVocab)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = New(testConfig(config.VariantLinear), 0)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNew_ParameterLayout(t *testing.T) {
	m, err := New(testConfig(config.VariantTransformer), testVocab)
	require.NoError(t, err)

	params := m.Parameters()
	names := make(map[string]bool, len(params))
	for _, p := range params {
		assert.Falsef(t, names[p.Name()], "duplicate parameter %s", p.Name())
		names[p.Name()] = true
	}
	assert.True(t, names["tok_emb.weight"])
	assert.True(t, names["pos_emb.weight"])
	assert.True(t, names["blocks.2.attn.heads.3.query.weight"])
	assert.True(t, names["ln_f.gamma"])
	assert.True(t, names["lm_head.bias"])

	// tok 65*32 + pos 8*32 + 3 blocks + ln_f 64 + head 32*65+65
	block := 2*64 + 4*3*32*8 + 32*32 + 32 + 32*128 + 128 + 128*32 + 32
	want := 65*32 + 8*32 + 3*block + 64 + 32*65 + 65
	assert.Equal(t, want, m.NumParameters())
}

func TestNew_SeedDeterminesWeights(t *testing.T) {
	a, err := New(testConfig(config.VariantComputation), testVocab)
	require.NoError(t, err)
	b, err := New(testConfig(config.VariantComputation), testVocab)
	require.NoError(t, err)
	cfg := testConfig(config.VariantComputation)
	cfg.Seed++
	c, err := New(cfg, testVocab)
	require.NoError(t, err)

	pa, pb, pc := a.Parameters(), b.Parameters(), c.Parameters()
	assert.Equal(t, pa[0].Tensor().Data(), pb[0].Tensor().Data())
	assert.NotEqual(t, pa[0].Tensor().Data(), pc[0].Tensor().Data())
}

func TestForward_ContextTooLong(t *testing.T) {
	m, err := New(testConfig(config.VariantTransformer), testVocab)
	require.NoError(t, err)

	_, _, err = m.Forward(randomTokens(t, 2, 9, testVocab, 1), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContextLength))

	var ctxErr *ContextLengthError
	require.ErrorAs(t, err, &ctxErr)
	assert.Equal(t, 9, ctxErr.Length)
	assert.Equal(t, 8, ctxErr.BlockSize)
}

func TestForward_TokenOutOfRange(t *testing.T) {
	m, err := New(testConfig(config.VariantPositional), testVocab)
	require.NoError(t, err)

	bad, err := tensor.NewTokens([]int32{1, 2, 65}, 1, 3)
	require.NoError(t, err)
	good := randomTokens(t, 1, 3, testVocab, 3)

	_, _, err = m.Forward(bad, nil)
	assert.ErrorIs(t, err, ErrTokenOutOfRange)
	_, _, err = m.Forward(good, bad)
	assert.ErrorIs(t, err, ErrTokenOutOfRange)

	neg, err := tensor.NewTokens([]int32{-1}, 1, 1)
	require.NoError(t, err)
	_, _, err = m.Forward(neg, nil)
	assert.ErrorIs(t, err, ErrTokenOutOfRange)
}

func TestForward_TargetShapeMismatch(t *testing.T) {
	m, err := New(testConfig(config.VariantLinear), testVocab)
	require.NoError(t, err)

	_, _, err = m.Forward(randomTokens(t, 2, 4, testVocab, 1), randomTokens(t, 2, 3, testVocab, 2))
	assert.ErrorIs(t, err, ErrShape)
	_, _, err = m.Forward(nil, nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestForward_NoTargetsNoLoss(t *testing.T) {
	m, err := New(testConfig(config.VariantEmbedding), testVocab)
	require.NoError(t, err)

	logits, loss, err := m.Forward(randomTokens(t, 1, 4, testVocab, 1), nil)
	require.NoError(t, err)
	assert.Nil(t, loss)
	assert.Equal(t, tensor.Shape{1, 4, testVocab}, logits.Shape())
}

func TestForward_InitialLossNearUniform(t *testing.T) {
	m, err := New(testConfig(config.VariantTransformer), testVocab)
	require.NoError(t, err)
	m.Eval()

	_, loss, err := m.Forward(randomTokens(t, 32, 8, testVocab, 1), randomTokens(t, 32, 8, testVocab, 2))
	require.NoError(t, err)
	// Random init stays within a few nats of ln(65) = 4.17.
	assert.InDelta(t, math.Log(testVocab), float64(loss.Item()), 2.5)
}

func TestForward_CausalPrefixInvariance(t *testing.T) {
	m, err := New(testConfig(config.VariantTransformer), testVocab)
	require.NoError(t, err)
	m.Eval()

	full := randomTokens(t, 1, 8, testVocab, 5)
	prefix, err := tensor.NewTokens(full.Data()[:5], 1, 5)
	require.NoError(t, err)

	lf, _, err := m.Forward(full, nil)
	require.NoError(t, err)
	lp, _, err := m.Forward(prefix, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, lp.Data(), lf.Data()[:5*testVocab], 1e-4)
}

func TestForward_DropoutOnlyInTraining(t *testing.T) {
	m, err := New(testConfig(config.VariantTransformer), testVocab)
	require.NoError(t, err)
	inputs := randomTokens(t, 2, 8, testVocab, 1)

	m.Eval()
	assert.False(t, m.Training())
	a, _, err := m.Forward(inputs, nil)
	require.NoError(t, err)
	b, _, err := m.Forward(inputs, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Data(), b.Data())

	m.Train()
	c, _, err := m.Forward(inputs, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Data(), c.Data())
}

func TestForward_BackwardReachesEveryParameter(t *testing.T) {
	for _, variant := range config.Variants() {
		t.Run(variant, func(t *testing.T) {
			m, err := New(testConfig(variant), testVocab)
			require.NoError(t, err)
			backend := m.Backend()
			backend.Tape().StartRecording()
			defer backend.Tape().Clear()

			_, loss, err := m.Forward(randomTokens(t, 4, 8, testVocab, 1), randomTokens(t, 4, 8, testVocab, 2))
			require.NoError(t, err)
			grads := autodiff.Backward(loss, backend)
			for _, p := range m.Parameters() {
				g, ok := grads[p.Tensor()]
				require.Truef(t, ok, "%s has no gradient", p.Name())
				assert.True(t, g.IsFinite(), p.Name())
			}
		})
	}
}

func TestNextTokenLogits(t *testing.T) {
	m, err := New(testConfig(config.VariantTransformer), testVocab)
	require.NoError(t, err)
	m.Train()
	m.Backend().Tape().StartRecording()

	logits, err := m.NextTokenLogits([]int32{0, 5, 7})
	require.NoError(t, err)
	assert.Len(t, logits, testVocab)
	assert.True(t, m.Training(), "training mode is restored")
	assert.Equal(t, 0, m.Backend().Tape().NumOps(), "no ops are recorded")
	assert.True(t, m.Backend().Tape().IsRecording())

	again, err := m.NextTokenLogits([]int32{0, 5, 7})
	require.NoError(t, err)
	assert.Equal(t, logits, again, "eval mode is deterministic")

	_, err = m.NextTokenLogits(nil)
	assert.ErrorIs(t, err, ErrShape)
	_, err = m.NextTokenLogits(make([]int32, 9))
	assert.ErrorIs(t, err, ErrContextLength)
}
