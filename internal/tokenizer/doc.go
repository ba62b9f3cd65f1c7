// Package tokenizer converts between text and token ids.
//
// The only implementation is CharTokenizer: a closed vocabulary of the
// distinct runes of a training corpus, ordered by code point.
//
// Example usage:
//
//	tok := tokenizer.NewCharTokenizer(corpus)
//
//	ids, err := tok.Encode("To be")
//	if err != nil {
//	    return err
//	}
//
//	text, err := tok.Decode(ids)
//	if err != nil {
//	    return err
//	}
package tokenizer
