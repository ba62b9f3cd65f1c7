package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharTokenizer_Vocabulary(t *testing.T) {
	tok := NewCharTokenizer("hello world")

	assert.Equal(t, 8, tok.VocabSize())
	assert.Equal(t, []rune(" dehlorw"), tok.Vocabulary())
}

func TestCharTokenizer_RoundTrip(t *testing.T) {
	corpus := "First Citizen:\nBefore we proceed any further, hear me speak."
	tok := NewCharTokenizer(corpus)

	tests := []struct {
		name string
		text string
	}{
		{name: "full corpus", text: corpus},
		{name: "substring", text: "hear me"},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := tok.Encode(tt.text)
			require.NoError(t, err)
			for _, id := range ids {
				assert.Less(t, int(id), tok.VocabSize())
			}
			text, err := tok.Decode(ids)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestCharTokenizer_Unicode(t *testing.T) {
	tok := NewCharTokenizer("naïve café")
	ids, err := tok.Encode("café")
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	text, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestCharTokenizer_Errors(t *testing.T) {
	tok := NewCharTokenizer("abc")

	_, err := tok.Encode("abd")
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, err = tok.Decode([]int32{0, 3})
	assert.ErrorIs(t, err, ErrTokenOutOfRange)

	_, err = tok.Decode([]int32{-1})
	assert.ErrorIs(t, err, ErrTokenOutOfRange)
}

func TestCharTokenizer_ImplementsTokenizer(t *testing.T) {
	var _ Tokenizer = NewCharTokenizer("x")
}
