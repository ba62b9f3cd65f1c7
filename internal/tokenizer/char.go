package tokenizer

import (
	"fmt"
	"slices"
	"strings"
)

// CharTokenizer maps every distinct rune of a corpus to its rank in code
// point order.
type CharTokenizer struct {
	itos []rune
	stoi map[rune]int32
}

// NewCharTokenizer builds the vocabulary of corpus.
func NewCharTokenizer(corpus string) *CharTokenizer {
	seen := make(map[rune]struct{})
	for _, r := range corpus {
		seen[r] = struct{}{}
	}
	itos := make([]rune, 0, len(seen))
	for r := range seen {
		itos = append(itos, r)
	}
	slices.Sort(itos)

	stoi := make(map[rune]int32, len(itos))
	for i, r := range itos {
		stoi[r] = int32(i)
	}
	return &CharTokenizer{itos: itos, stoi: stoi}
}

// Encode maps each rune of text to its id.
func (t *CharTokenizer) Encode(text string) ([]int32, error) {
	ids := make([]int32, 0, len(text))
	for i, r := range text {
		id, ok := t.stoi[r]
		if !ok {
			return nil, fmt.Errorf("encode %q at byte %d: %w", r, i, ErrUnknownToken)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Decode maps ids back to their runes.
func (t *CharTokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tokens))
	for i, id := range tokens {
		if id < 0 || int(id) >= len(t.itos) {
			return "", fmt.Errorf("decode position %d: id %d not in [0, %d): %w", i, id, len(t.itos), ErrTokenOutOfRange)
		}
		sb.WriteRune(t.itos[id])
	}
	return sb.String(), nil
}

// VocabSize returns the number of distinct runes.
func (t *CharTokenizer) VocabSize() int {
	return len(t.itos)
}

// Vocabulary returns the runes in id order.
func (t *CharTokenizer) Vocabulary() []rune {
	return slices.Clone(t.itos)
}
