package optim

import (
	"math"

	"github.com/born-ml/gptlab/internal/nn"
	"github.com/born-ml/gptlab/internal/tensor"
)

// AdamW implements Adam with decoupled weight decay.
//
// Update rule:
//
//	param = param - lr * weight_decay * param          // Decoupled decay
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Reference: "Decoupled Weight Decay Regularization" (Loshchilov & Hutter, 2019)
type AdamW struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	t           int                         // Timestep for bias correction
	m           map[*nn.Parameter][]float32 // First moment estimates
	v           map[*nn.Parameter][]float32 // Second moment estimates
}

// AdamWConfig holds configuration for the AdamW optimizer.
type AdamWConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // Decoupled weight decay; negative disables it (default: 0.01)
}

// NewAdamW creates a new AdamW optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
//   - WeightDecay: 0.01
func NewAdamW(params []*nn.Parameter, config AdamWConfig) *AdamW {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	switch {
	case config.WeightDecay == 0:
		config.WeightDecay = 0.01
	case config.WeightDecay < 0:
		config.WeightDecay = 0
	}

	return &AdamW{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           make(map[*nn.Parameter][]float32),
		v:           make(map[*nn.Parameter][]float32),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient are skipped.
func (a *AdamW) Step(grads map[*tensor.Tensor]*tensor.Tensor) {
	a.t++

	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		n := param.Tensor().NumElements()
		m, ok := a.m[param]
		if !ok {
			m = make([]float32, n)
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float32, n)
			a.v[param] = v
		}

		a.updateParameter(param.Tensor().Data(), grad, m, v, biasCorrection1, biasCorrection2)
	}
}

func (a *AdamW) updateParameter(paramData, gradData, mData, vData []float32, biasCorrection1, biasCorrection2 float32) {
	decay := 1 - a.lr*a.weightDecay
	for i := range paramData {
		g := gradData[i]
		paramData[i] *= decay

		mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g
		vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g

		mHat := mData[i] / biasCorrection1
		vHat := vData[i] / biasCorrection2

		paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *AdamW) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *AdamW) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *AdamW) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the number of steps taken.
func (a *AdamW) GetTimestep() int {
	return a.t
}
