// Command gptlab trains a character-level language model on a text corpus
// and prints samples drawn before and after training.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/born-ml/gptlab"
	"github.com/born-ml/gptlab/generate"
	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/tokenizer"
)

const version = "v0.1.0-dev"

var (
	flagData      = flag.String("data", "", "Path of the training corpus (required).")
	flagPreset    = flag.String("preset", config.PresetSmall, "Hyperparameter preset: small or scaled.")
	flagConfig    = flag.String("config", "", "YAML file overriding the preset. A preset key in the file wins over -preset.")
	flagVariant   = flag.String("variant", "", "Model variant (default: the config's variant).")
	flagMaxTokens = flag.Int("max-new-tokens", 500, "Number of tokens to sample before and after training.")
	flagSeed      = flag.Int64("seed", -1, "Seed for parameters, batches and sampling (default: the config's seed).")
	flagTemp      = flag.Float64("temperature", 1.0, "Sampling temperature (0 = greedy).")
	flagTopK      = flag.Int("top-k", 0, "Top-k sampling (0 = disabled).")
	flagVersion   = flag.Bool("version", false, "Print the version and exit.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *flagVersion {
		fmt.Printf("gptlab %s\n", version)
		return
	}
	if *flagData == "" {
		flag.Usage()
		klog.Flush()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		klog.Fatalf("Failed to load config: %+v", err)
	}

	raw, err := os.ReadFile(*flagData)
	if err != nil {
		klog.Fatalf("Failed to read corpus: %+v", err)
	}
	corpus := string(raw)
	tok := tokenizer.NewCharTokenizer(corpus)
	ids, err := tok.Encode(corpus)
	if err != nil {
		klog.Fatalf("Failed to encode corpus: %+v", err)
	}
	klog.InfoS("Loaded corpus", "path", *flagData, "tokens", len(ids), "vocab", tok.VocabSize())

	m, err := gptlab.NewModel(cfg, tok.VocabSize())
	if err != nil {
		klog.Fatalf("Failed to build model: %+v", err)
	}
	klog.InfoS("Built model", "variant", m.Variant(), "parameters", m.NumParameters())

	sampling := generate.SamplingConfig{
		Temperature: float32(*flagTemp),
		TopK:        *flagTopK,
		TopP:        1,
		Seed:        int64(cfg.Seed & (1<<63 - 1)), //nolint:gosec // masked to a non-negative value
	}

	fmt.Println("--- before training ---")
	printSample(m, tok, sampling)

	if _, err := gptlab.Train(m, cfg, ids); err != nil {
		klog.Fatalf("Training failed: %+v", err)
	}

	fmt.Println("--- after training ---")
	printSample(m, tok, sampling)
}

func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if *flagConfig != "" {
		cfg, err = config.LoadOver(*flagConfig, *flagPreset)
	} else {
		cfg, err = config.Preset(*flagPreset)
	}
	if err != nil {
		return cfg, err
	}
	if *flagVariant != "" {
		cfg.Variant = *flagVariant
	}
	if *flagSeed >= 0 {
		cfg.Seed = uint64(*flagSeed)
	}
	return cfg, cfg.Validate()
}

// printSample streams max-new-tokens ids after a single id-0 context.
func printSample(m *gptlab.Model, tok *tokenizer.CharTokenizer, sampling generate.SamplingConfig) {
	stream, err := generate.New(m, sampling).Stream([]int32{0}, *flagMaxTokens)
	if err != nil {
		klog.Fatalf("Failed to start generation: %+v", err)
	}
	for id := range stream.Tokens() {
		text, err := tok.Decode([]int32{id})
		if err != nil {
			klog.Fatalf("Failed to decode token %d: %+v", id, err)
		}
		fmt.Print(text)
	}
	if err := stream.Err(); err != nil {
		klog.Fatalf("Generation failed: %+v", err)
	}
	fmt.Println()
}
