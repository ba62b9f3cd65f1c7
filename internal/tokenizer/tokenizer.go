package tokenizer

import "errors"

// Errors returned by Encode and Decode.
var (
	ErrUnknownToken    = errors.New("character not in vocabulary")
	ErrTokenOutOfRange = errors.New("token id out of vocabulary range")
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int
}
