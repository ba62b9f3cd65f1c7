// Package tokenizer exposes the character-level vocabulary used by gptlab.
//
// Example usage:
//
//	tok := tokenizer.NewCharTokenizer(corpus)
//	ids, err := tok.Encode("hello")
//	text, err := tok.Decode(ids)
package tokenizer

import (
	"github.com/born-ml/gptlab/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// CharTokenizer maps each distinct character of a corpus to an id, in
// sorted code point order.
type CharTokenizer = tokenizer.CharTokenizer

// Errors returned by Encode and Decode.
var (
	ErrUnknownToken    = tokenizer.ErrUnknownToken
	ErrTokenOutOfRange = tokenizer.ErrTokenOutOfRange
)

// NewCharTokenizer builds the vocabulary of corpus.
func NewCharTokenizer(corpus string) *CharTokenizer {
	return tokenizer.NewCharTokenizer(corpus)
}
