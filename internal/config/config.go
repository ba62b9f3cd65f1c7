// Package config holds the hyperparameters shared by the model, the batch
// sampler and the trainer.
//
// A Config starts from a named preset and may be overridden from YAML:
//
//	cfg, err := config.Load("run.yaml") // keys missing from the file keep preset values
//	if err != nil {
//	    return err
//	}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Model variants, from the bare bigram table up to the full transformer.
const (
	VariantEmbedding      = "embedding"
	VariantLinear         = "linear"
	VariantPositional     = "positional"
	VariantAttention      = "attention"
	VariantMultiAttention = "multi-attention"
	VariantComputation    = "computation"
	VariantTransformer    = "transformer"
)

// Optimizer names.
const (
	OptimizerAdamW = "adamw"
	OptimizerSGD   = "sgd"
)

// Preset names.
const (
	PresetSmall  = "small"
	PresetScaled = "scaled"
)

// Config is the full set of recognized options.
type Config struct {
	TrainValSplit float64 `yaml:"train_val_split"`
	BatchSize     int     `yaml:"batch_size"`
	BlockSize     int     `yaml:"block_size"`
	MaxIters      int     `yaml:"max_iters"`
	EvalInterval  int     `yaml:"eval_interval"`
	EvalIters     int     `yaml:"eval_iters"`
	LearningRate  float64 `yaml:"learning_rate"`
	WeightDecay   float64 `yaml:"weight_decay"`
	Optimizer     string  `yaml:"optimizer"`
	NEmbd         int     `yaml:"n_embd"`
	NumHeads      int     `yaml:"num_heads"`
	NumLayers     int     `yaml:"num_layers"`
	Dropout       float64 `yaml:"dropout"`
	Variant       string  `yaml:"variant"`
	Seed          uint64  `yaml:"seed"`
}

// Small returns the hyperparameters of the small character model.
func Small() Config {
	return Config{
		TrainValSplit: 0.9,
		BatchSize:     32,
		BlockSize:     8,
		MaxIters:      3000,
		EvalInterval:  300,
		EvalIters:     200,
		LearningRate:  1e-2,
		WeightDecay:   0.01,
		Optimizer:     OptimizerAdamW,
		NEmbd:         32,
		NumHeads:      4,
		NumLayers:     3,
		Dropout:       0.1,
		Variant:       VariantTransformer,
		Seed:          1337,
	}
}

// Scaled returns the hyperparameters of the scaled-up model.
func Scaled() Config {
	return Config{
		TrainValSplit: 0.9,
		BatchSize:     64,
		BlockSize:     256,
		MaxIters:      5000,
		EvalInterval:  200,
		EvalIters:     200,
		LearningRate:  3e-4,
		WeightDecay:   0.01,
		Optimizer:     OptimizerAdamW,
		NEmbd:         384,
		NumHeads:      6,
		NumLayers:     6,
		Dropout:       0.2,
		Variant:       VariantTransformer,
		Seed:          1337,
	}
}

// Preset returns the named preset.
func Preset(name string) (Config, error) {
	switch name {
	case PresetSmall, "":
		return Small(), nil
	case PresetScaled:
		return Scaled(), nil
	default:
		return Config{}, invalid("preset", "unknown preset %q (want %q or %q)", name, PresetSmall, PresetScaled)
	}
}

// Load reads a YAML file over the preset named by its optional "preset" key
// (default "small") and validates the result.
func Load(path string) (Config, error) {
	return LoadOver(path, PresetSmall)
}

// LoadOver is Load with fallback naming the preset used when the file has
// no "preset" key.
func LoadOver(path, fallback string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseOver(raw, fallback)
}

// Parse decodes YAML bytes the same way Load does.
func Parse(raw []byte) (Config, error) {
	return ParseOver(raw, PresetSmall)
}

// ParseOver decodes YAML bytes the same way LoadOver does.
func ParseOver(raw []byte, fallback string) (Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	name := head.Preset
	if name == "" {
		name = fallback
	}
	base, err := Preset(name)
	if err != nil {
		return Config{}, err
	}

	file := struct {
		Preset string `yaml:"preset"`
		Config `yaml:",inline"`
	}{Preset: head.Preset, Config: base}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg := file.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HeadSize returns n_embd / num_heads.
func (c Config) HeadSize() int {
	if c.NumHeads == 0 {
		return 0
	}
	return c.NEmbd / c.NumHeads
}

// WithDefaults returns c with unset optional fields filled in: an empty
// variant becomes the transformer and an empty optimizer AdamW.
func (c Config) WithDefaults() Config {
	if c.Variant == "" {
		c.Variant = VariantTransformer
	}
	if c.Optimizer == "" {
		c.Optimizer = OptimizerAdamW
	}
	return c
}

// Validate checks ranges and cross-field consistency.
func (c Config) Validate() error {
	switch {
	case c.TrainValSplit <= 0 || c.TrainValSplit >= 1:
		return invalid("train_val_split", "must be in (0, 1), got %v", c.TrainValSplit)
	case c.BatchSize <= 0:
		return invalid("batch_size", "must be positive, got %d", c.BatchSize)
	case c.BlockSize <= 0:
		return invalid("block_size", "must be positive, got %d", c.BlockSize)
	case c.MaxIters < 0:
		return invalid("max_iters", "must not be negative, got %d", c.MaxIters)
	case c.EvalInterval <= 0:
		return invalid("eval_interval", "must be positive, got %d", c.EvalInterval)
	case c.EvalIters <= 0:
		return invalid("eval_iters", "must be positive, got %d", c.EvalIters)
	case c.LearningRate <= 0:
		return invalid("learning_rate", "must be positive, got %v", c.LearningRate)
	case c.WeightDecay < 0:
		return invalid("weight_decay", "must not be negative, got %v", c.WeightDecay)
	case c.Optimizer != OptimizerAdamW && c.Optimizer != OptimizerSGD:
		return invalid("optimizer", "unknown optimizer %q", c.Optimizer)
	case c.NEmbd <= 0:
		return invalid("n_embd", "must be positive, got %d", c.NEmbd)
	case c.NumHeads <= 0:
		return invalid("num_heads", "must be positive, got %d", c.NumHeads)
	case c.NEmbd%c.NumHeads != 0:
		return invalid("num_heads", "n_embd %d is not divisible by num_heads %d", c.NEmbd, c.NumHeads)
	case c.NumLayers <= 0:
		return invalid("num_layers", "must be positive, got %d", c.NumLayers)
	case c.Dropout < 0 || c.Dropout >= 1:
		return invalid("dropout", "must be in [0, 1), got %v", c.Dropout)
	case !knownVariant(c.Variant):
		return invalid("variant", "unknown variant %q", c.Variant)
	}
	return nil
}

// Variants lists every model variant in order of capability.
func Variants() []string {
	return []string{
		VariantEmbedding,
		VariantLinear,
		VariantPositional,
		VariantAttention,
		VariantMultiAttention,
		VariantComputation,
		VariantTransformer,
	}
}

func knownVariant(v string) bool {
	return slices.Contains(Variants(), v)
}
