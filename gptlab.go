// Package gptlab trains small character-level GPT language models on a
// single CPU and samples text from them.
//
// A model is built from a config.Config preset, trained on a token sequence
// with AdamW and then asked to continue a context one token at a time:
//
//	cfg := config.Small()
//	tok := tokenizer.NewCharTokenizer(corpus)
//	ids, _ := tok.Encode(corpus)
//
//	m, err := gptlab.NewModel(cfg, tok.VocabSize())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := gptlab.Train(m, cfg, ids); err != nil {
//	    log.Fatal(err)
//	}
//	text, err := gptlab.Generate(m, []int32{0}, 500, tok, 1337)
package gptlab

import (
	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/data"
	"github.com/born-ml/gptlab/internal/generate"
	"github.com/born-ml/gptlab/internal/model"
	"github.com/born-ml/gptlab/internal/train"
)

// Config holds every hyperparameter of a run.
type Config = config.Config

// Model is a trainable GPT-style language model.
type Model = model.LanguageModel

// TrainResult summarizes a finished training run.
type TrainResult = train.Result

// Report is one evaluation of the train and eval losses.
type Report = train.Report

// Reporter receives evaluation reports during training.
type Reporter = train.Reporter

// ReporterFunc adapts a function to Reporter.
type ReporterFunc = train.ReporterFunc

// Decoder turns token ids back into text.
type Decoder interface {
	Decode(ids []int32) (string, error)
}

// Errors that can be matched with errors.Is.
var (
	ErrInvalidConfig        = config.ErrInvalid
	ErrInsufficientData     = data.ErrInsufficientData
	ErrContextLength        = model.ErrContextLength
	ErrTokenOutOfRange      = model.ErrTokenOutOfRange
	ErrNumericalInstability = train.ErrNumericalInstability
)

// NewModel builds the model variant named by cfg.Variant with parameters
// drawn from cfg.Seed.
func NewModel(cfg Config, vocabSize int) (*Model, error) {
	return model.New(cfg, vocabSize)
}

// Train splits tokens into train and eval regions and runs cfg.MaxIters
// optimizer steps on m. With no reporters, evaluations are logged.
func Train(m *Model, cfg Config, tokens []int32, reporters ...Reporter) (*TrainResult, error) {
	sampler, err := data.New(tokens, data.Config{
		SplitRatio: cfg.TrainValSplit,
		BlockSize:  cfg.BlockSize,
		VocabSize:  m.VocabSize(),
		Seed:       cfg.Seed + 2,
	})
	if err != nil {
		return nil, err
	}

	var opts []train.Option
	if len(reporters) > 0 {
		opts = append(opts, train.WithReporters(reporters...))
	}
	trainer, err := train.New(m, sampler, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return trainer.Run()
}

// Generate extends context until it holds length ids, sampling each one
// from the model's softmax with the given seed, and decodes the result.
func Generate(m *Model, context []int32, length int, dec Decoder, seed uint64) (string, error) {
	g := generate.New(m, generate.SamplingConfig{
		Temperature: 1,
		TopP:        1,
		Seed:        int64(seed & (1<<63 - 1)), //nolint:gosec // masked to a non-negative value
	})
	ids, err := g.GenerateLength(context, length)
	if err != nil {
		return "", err
	}
	return dec.Decode(ids)
}
