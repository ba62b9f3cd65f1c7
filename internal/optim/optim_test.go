package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptlab/internal/autodiff"
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/nn"
	"github.com/born-ml/gptlab/internal/optim"
	"github.com/born-ml/gptlab/internal/tensor"
)

func scalarParam(t *testing.T, name string, v float32) *nn.Parameter {
	t.Helper()
	x, err := tensor.FromSlice([]float32{v}, tensor.Shape{1})
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func gradOf(p *nn.Parameter, g float32) map[*tensor.Tensor]*tensor.Tensor {
	return map[*tensor.Tensor]*tensor.Tensor{p.Tensor(): tensor.Full(tensor.Shape{1}, g)}
}

func TestSGD_SimpleUpdate(t *testing.T) {
	param := scalarParam(t, "x", 2)
	opt := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	opt.Step(gradOf(param, 1))
	assert.InDelta(t, 1.9, param.Tensor().Item(), 1e-6)
	assert.InDelta(t, 0.1, opt.GetLR(), 1e-9)
}

func TestSGD_Momentum(t *testing.T) {
	param := scalarParam(t, "x", 0)
	opt := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 1, Momentum: 0.5})

	opt.Step(gradOf(param, 1)) // v = 1
	opt.Step(gradOf(param, 1)) // v = 1.5
	assert.InDelta(t, -2.5, param.Tensor().Item(), 1e-6)
}

func TestSGD_SkipsMissingGradients(t *testing.T) {
	a := scalarParam(t, "a", 1)
	b := scalarParam(t, "b", 1)
	opt := optim.NewSGD([]*nn.Parameter{a, b}, optim.SGDConfig{LR: 0.5})

	opt.Step(gradOf(a, 1))
	assert.InDelta(t, 0.5, a.Tensor().Item(), 1e-6)
	assert.InDelta(t, 1, b.Tensor().Item(), 1e-6)
}

func TestAdamW_FirstStepMagnitude(t *testing.T) {
	param := scalarParam(t, "x", 1)
	opt := optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{LR: 0.1, WeightDecay: -1})

	// With bias correction the first step moves by lr * sign(grad).
	opt.Step(gradOf(param, 3))
	assert.InDelta(t, 0.9, param.Tensor().Item(), 1e-5)
	assert.Equal(t, 1, opt.GetTimestep())
}

func TestAdamW_WeightDecay(t *testing.T) {
	param := scalarParam(t, "x", 2)
	opt := optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{LR: 0.1, WeightDecay: 0.5})

	// A zero gradient leaves only the decoupled decay: 2 * (1 - 0.1*0.5).
	opt.Step(gradOf(param, 0))
	assert.InDelta(t, 1.9, param.Tensor().Item(), 1e-5)
}

func TestAdamW_MinimizesQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New(), 1)
	x, err := tensor.FromSlice([]float32{3, -2}, tensor.Shape{1, 2})
	require.NoError(t, err)
	param := nn.NewParameter("x", x)
	opt := optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{LR: 0.05, WeightDecay: -1})

	// loss = sum(x * x) via x @ x^T
	for range 300 {
		backend.Tape().StartRecording()
		loss := backend.BatchMatMul(x, x, true)
		grads := autodiff.Backward(loss, backend)
		backend.Tape().Clear()
		opt.Step(grads)
		opt.ZeroGrad()
	}
	for _, v := range x.Data() {
		assert.Less(t, math.Abs(float64(v)), 0.1)
	}
}

func TestOptimizers_ZeroGrad(t *testing.T) {
	param := scalarParam(t, "x", 1)
	param.SetGrad(tensor.Ones(tensor.Shape{1}))

	var opt optim.Optimizer = optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{})
	opt.ZeroGrad()
	assert.Nil(t, param.Grad())
	assert.InDelta(t, 0.001, opt.GetLR(), 1e-9)

	param.SetGrad(tensor.Ones(tensor.Shape{1}))
	opt = optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{})
	opt.ZeroGrad()
	assert.Nil(t, param.Grad())
}

func TestSetLR_AppliesToLaterSteps(t *testing.T) {
	t.Run("sgd", func(t *testing.T) {
		param := scalarParam(t, "x", 2)
		opt := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})
		opt.Step(gradOf(param, 1))
		opt.SetLR(1)
		assert.InDelta(t, 1, opt.GetLR(), 1e-9)
		opt.Step(gradOf(param, 1))
		assert.InDelta(t, 0.9, param.Tensor().Item(), 1e-6)
	})

	t.Run("adamw", func(t *testing.T) {
		param := scalarParam(t, "x", 1)
		opt := optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{LR: 0.1, WeightDecay: -1})
		opt.Step(gradOf(param, 3))
		opt.SetLR(0.01)
		assert.InDelta(t, 0.01, opt.GetLR(), 1e-9)
		// A constant gradient keeps the bias-corrected ratio at 1.
		opt.Step(gradOf(param, 3))
		assert.InDelta(t, 0.89, param.Tensor().Item(), 1e-4)
	})
}
