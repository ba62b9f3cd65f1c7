package model

import (
	"fmt"
	"slices"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/nn"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Forward computes logits [B, T, V] for inputs [B, T].
//
// When targets is non-nil it must have the shape of inputs, and loss is the
// mean cross-entropy over all B*T positions as a [1] tensor; otherwise loss
// is nil. Operations are recorded on the backend tape while it is recording.
func (m *LanguageModel) Forward(inputs, targets *tensor.Tokens) (logits, loss *tensor.Tensor, err error) {
	if err := m.checkTokens(inputs); err != nil {
		return nil, nil, err
	}
	if targets != nil {
		if !targets.Shape().Equal(inputs.Shape()) {
			return nil, nil, fmt.Errorf("targets shape %v does not match inputs %v: %w", targets.Shape(), inputs.Shape(), ErrShape)
		}
		if err := targets.CheckRange(m.vocabSize); err != nil {
			return nil, nil, fmt.Errorf("targets: %w", err)
		}
	}

	logits = m.logits(inputs)
	if targets != nil {
		loss = m.backend.CrossEntropy(logits, targets.Data())
	}
	return logits, loss, nil
}

func (m *LanguageModel) checkTokens(inputs *tensor.Tokens) error {
	if inputs == nil {
		return fmt.Errorf("nil inputs: %w", ErrShape)
	}
	if t := inputs.SeqLen(); t > m.blockSize {
		return &ContextLengthError{Length: t, BlockSize: m.blockSize}
	}
	if err := inputs.CheckRange(m.vocabSize); err != nil {
		return fmt.Errorf("inputs: %w", err)
	}
	return nil
}

func (m *LanguageModel) logits(inputs *tensor.Tokens) *tensor.Tensor {
	b := m.backend
	x := m.tokEmb.Lookup(inputs)
	if m.lmHead == nil {
		return x
	}
	if m.posEmb != nil {
		x = b.AddSuffix(x, m.posEmb.Positions(inputs.SeqLen()))
	}
	if m.mixer != nil {
		x = m.mixer.Forward(x)
	}
	if m.ffn != nil {
		x = m.ffn.Forward(x)
	}
	for _, block := range m.blocks {
		x = block.Forward(x)
	}
	if m.lnF != nil {
		x = m.lnF.Forward(x)
	}
	return m.lmHead.Forward(x)
}

// NextTokenLogits returns the logits of the last position of context.
//
// It runs in eval mode with recording paused and restores both afterwards.
// Context longer than the block size returns a *ContextLengthError; callers
// that generate should crop first.
func (m *LanguageModel) NextTokenLogits(context []int32) ([]float32, error) {
	if len(context) == 0 {
		return nil, fmt.Errorf("empty context: %w", ErrShape)
	}
	seq, err := tensor.Sequence(context)
	if err != nil {
		return nil, err
	}

	wasTraining := m.backend.Training()
	m.backend.SetTraining(false)
	defer m.backend.SetTraining(wasTraining)

	var logits *tensor.Tensor
	m.backend.NoGrad(func() {
		logits, _, err = m.Forward(seq, nil)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := logits.Shape().Rows()
	return slices.Clone(logits.Row(rows - 1)), nil
}

// Train enables dropout.
func (m *LanguageModel) Train() {
	m.backend.SetTraining(true)
}

// Eval disables dropout.
func (m *LanguageModel) Eval() {
	m.backend.SetTraining(false)
}

// Training reports whether dropout is enabled.
func (m *LanguageModel) Training() bool {
	return m.backend.Training()
}

// NoGrad runs fn with tape recording paused.
func (m *LanguageModel) NoGrad(fn func()) {
	m.backend.NoGrad(fn)
}

// Backend returns the autodiff backend every layer records on.
func (m *LanguageModel) Backend() *autodiff.Backend {
	return m.backend
}

// Parameters returns every trainable parameter, named by module path.
func (m *LanguageModel) Parameters() []*nn.Parameter {
	return slices.Clone(m.params)
}

// NumParameters returns the number of scalar weights.
func (m *LanguageModel) NumParameters() int {
	return nn.CountParameters(m.params)
}

// BlockSize returns the maximum context length.
func (m *LanguageModel) BlockSize() int {
	return m.blockSize
}

// VocabSize returns the number of token ids.
func (m *LanguageModel) VocabSize() int {
	return m.vocabSize
}

// Variant returns the architecture variant.
func (m *LanguageModel) Variant() string {
	return m.variant
}
