// Package train fits a language model with a fixed-length optimizer loop.
//
// The trainer moves through Idle → Training ⇄ Evaluating → Done. Every
// eval_interval steps, and on the last step, it averages eval_iters
// forward-only losses per split with dropout off and hands the result to
// its reporters.
package train

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/config"
	"github.com/born-ml/gptlab/internal/data"
	"github.com/born-ml/gptlab/internal/model"
	"github.com/born-ml/gptlab/internal/nn"
	"github.com/born-ml/gptlab/internal/optim"
	"github.com/born-ml/gptlab/internal/tensor"
)

// State is a trainer lifecycle phase.
type State int

// Trainer states.
const (
	Idle State = iota
	Training
	Evaluating
	Done
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Training:
		return "Training"
	case Evaluating:
		return "Evaluating"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result summarizes a completed run.
type Result struct {
	Steps     int      // Optimizer steps taken
	Reports   []Report // Every evaluation, in step order
	FinalLoss float64  // Training loss of the last step
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithReporters adds reporters. Without this option the trainer logs to klog.
func WithReporters(reporters ...Reporter) Option {
	return func(t *Trainer) {
		t.reporters = append(t.reporters, reporters...)
	}
}

// WithOptimizer replaces the optimizer built from the config.
func WithOptimizer(opt optim.Optimizer) Option {
	return func(t *Trainer) {
		t.opt = opt
	}
}

// Trainer owns the model parameters for the duration of Run.
type Trainer struct {
	model     *model.LanguageModel
	sampler   *data.Sampler
	cfg       config.Config
	opt       optim.Optimizer
	params    []*nn.Parameter
	reporters []Reporter
	state     State
	step      int
}

// New validates cfg against the model and sampler and builds the optimizer.
//
// A model or sampler whose block size differs from cfg.BlockSize yields a
// *config.Error.
func New(m *model.LanguageModel, sampler *data.Sampler, cfg config.Config, opts ...Option) (*Trainer, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m.BlockSize() != cfg.BlockSize {
		return nil, &config.Error{
			Field:  "block_size",
			Reason: fmt.Sprintf("model block size %d does not match training block size %d", m.BlockSize(), cfg.BlockSize),
		}
	}
	if sampler.BlockSize() != cfg.BlockSize {
		return nil, &config.Error{
			Field:  "block_size",
			Reason: fmt.Sprintf("sampler block size %d does not match training block size %d", sampler.BlockSize(), cfg.BlockSize),
		}
	}

	t := &Trainer{
		model:   m,
		sampler: sampler,
		cfg:     cfg,
		params:  m.Parameters(),
		state:   Idle,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.opt == nil {
		t.opt = newOptimizer(t.params, cfg)
	}
	if t.reporters == nil {
		t.reporters = []Reporter{LogReporter{}}
	}
	return t, nil
}

func newOptimizer(params []*nn.Parameter, cfg config.Config) optim.Optimizer {
	lr := float32(cfg.LearningRate)
	if cfg.Optimizer == config.OptimizerSGD {
		return optim.NewSGD(params, optim.SGDConfig{LR: lr})
	}
	wd := float32(cfg.WeightDecay)
	if wd == 0 {
		wd = -1
	}
	return optim.NewAdamW(params, optim.AdamWConfig{LR: lr, WeightDecay: wd})
}

// State returns the current lifecycle phase.
func (t *Trainer) State() State {
	return t.state
}

// Step returns the number of optimizer steps taken so far.
func (t *Trainer) Step() int {
	return t.step
}

// Run performs max_iters optimizer steps and returns the evaluation history.
//
// A non-finite training loss stops the run at once with a
// *NumericalInstabilityError; the trainer is Done either way.
func (t *Trainer) Run() (*Result, error) {
	if t.state != Idle {
		return nil, fmt.Errorf("run in state %s: %w", t.state, ErrNotIdle)
	}
	defer func() { t.state = Done }()

	klog.InfoS("Starting training",
		"variant", t.model.Variant(),
		"parameters", t.model.NumParameters(),
		"maxIters", t.cfg.MaxIters,
		"optimizer", t.cfg.Optimizer)

	res := &Result{}
	t.state = Training
	for step := 0; step < t.cfg.MaxIters; step++ {
		if step%t.cfg.EvalInterval == 0 || step == t.cfg.MaxIters-1 {
			r, err := t.evaluate(step)
			if err != nil {
				return res, err
			}
			res.Reports = append(res.Reports, r)
		}

		loss, err := t.trainStep(step)
		if err != nil {
			return res, err
		}
		res.FinalLoss = loss
		res.Steps = step + 1
		t.step = step + 1
	}
	return res, nil
}

// evaluate estimates both losses and hands the report to every reporter
// while the trainer is Evaluating, then resumes Training.
func (t *Trainer) evaluate(step int) (Report, error) {
	t.state = Evaluating
	defer func() { t.state = Training }()

	trainLoss, evalLoss, err := t.EstimateLoss()
	if err != nil {
		return Report{}, err
	}
	r := Report{Step: step, TrainLoss: trainLoss, EvalLoss: evalLoss}
	for _, rep := range t.reporters {
		rep.Report(r)
	}
	return r, nil
}

func (t *Trainer) trainStep(step int) (float64, error) {
	batch, err := t.sampler.Batch(data.Train, t.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	backend := t.model.Backend()
	tape := backend.Tape()
	tape.Clear()
	defer tape.Clear()

	t.model.Train()
	tape.StartRecording()
	_, loss, err := t.model.Forward(batch.Inputs, batch.Targets)
	tape.StopRecording()
	if err != nil {
		return 0, err
	}

	value := float64(loss.Item())
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value, &NumericalInstabilityError{Step: step, Loss: value}
	}

	grads := autodiff.Backward(loss, backend)
	nn.AssignGrads(t.params, grads)
	t.opt.Step(grads)
	t.opt.ZeroGrad()

	if v := klog.V(2); v.Enabled() {
		v.InfoS("Train step", "step", step, "loss", value)
	}
	return value, nil
}

// EstimateLoss averages eval_iters batch losses on each split with dropout
// disabled and no tape recording.
func (t *Trainer) EstimateLoss() (trainLoss, evalLoss float64, err error) {
	prev := t.state
	wasTraining := t.model.Training()
	t.state = Evaluating
	t.model.Eval()
	defer func() {
		t.state = prev
		if wasTraining {
			t.model.Train()
		}
	}()

	means := make([]float64, 2)
	for i, split := range []data.Split{data.Train, data.Eval} {
		losses := make([]float64, t.cfg.EvalIters)
		for k := range losses {
			batch, err := t.sampler.Batch(split, t.cfg.BatchSize)
			if err != nil {
				return 0, 0, err
			}
			var loss *tensor.Tensor
			t.model.NoGrad(func() {
				_, loss, err = t.model.Forward(batch.Inputs, batch.Targets)
			})
			if err != nil {
				return 0, 0, err
			}
			losses[k] = float64(loss.Item())
		}
		means[i] = stat.Mean(losses, nil)
	}
	return means[0], means[1], nil
}
