// Package autodiff implements reverse-mode automatic differentiation for the
// gptlab model using the decorator pattern.
//
// Backend wraps the CPU kernels: every method computes its forward result
// with cpu.CPUBackend and, while the tape is recording, appends the matching
// ops.Operation so the backward pass can replay the chain rule.
//
// Architecture:
//   - Backend: forward kernels plus recording, training mode and dropout RNG
//   - GradientTape: recorded operations in execution order
//   - ops.Operation: one backward rule per differentiable op
//
// Usage:
//
//	backend := autodiff.New(cpu.New(), 1337)
//	backend.Tape().StartRecording()
//	y := backend.Linear(x, w, b)
//	loss := backend.CrossEntropy(y, targets)
//	grads := autodiff.Backward(loss, backend)
package autodiff

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/gptlab/internal/autodiff/ops"
	"github.com/born-ml/gptlab/internal/backend/cpu"
	"github.com/born-ml/gptlab/internal/tensor"
)

// Backend wraps the CPU backend and adds automatic differentiation.
//
// It also owns the two pieces of mode state every layer shares: whether
// dropout is active (training) and the seeded RNG dropout draws from.
type Backend struct {
	inner    *cpu.CPUBackend
	tape     *GradientTape
	training bool
	rng      *rand.Rand
}

// New creates a Backend wrapping inner. dropoutSeed seeds the dropout RNG.
//
// The backend starts in training mode with recording off.
func New(inner *cpu.CPUBackend, dropoutSeed uint64) *Backend {
	return &Backend{
		inner:    inner,
		tape:     NewGradientTape(),
		training: true,
		rng:      rand.New(rand.NewPCG(dropoutSeed, dropoutSeed^0x9e3779b97f4a7c15)),
	}
}

// Tape returns the gradient tape for manual control.
func (b *Backend) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped CPU backend.
func (b *Backend) Inner() *cpu.CPUBackend {
	return b.inner
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// SetTraining switches dropout on (true) or off (false).
func (b *Backend) SetTraining(training bool) {
	b.training = training
}

// Training reports whether dropout is active.
func (b *Backend) Training() bool {
	return b.training
}

// NoGrad runs fn with tape recording paused and restores the previous state.
func (b *Backend) NoGrad(fn func()) {
	was := b.tape.IsRecording()
	b.tape.StopRecording()
	defer func() {
		if was {
			b.tape.StartRecording()
		}
	}()
	fn()
}

// Add returns a + c for tensors of identical shape.
func (b *Backend) Add(a, c *tensor.Tensor) *tensor.Tensor {
	if !a.Shape().Equal(c.Shape()) {
		panic(fmt.Sprintf("add: shape mismatch %v vs %v", a.Shape(), c.Shape()))
	}
	result := b.wrap(b.inner.Add(a.Data(), c.Data()), a.Shape())
	b.tape.Record(ops.NewAddOp(a, c, result))
	return result
}

// AddSuffix returns a + c where c's shape is the trailing part of a's shape.
func (b *Backend) AddSuffix(a, c *tensor.Tensor) *tensor.Tensor {
	if !a.Shape().HasSuffix(c.Shape()) {
		panic(fmt.Sprintf("add suffix: %v is not a suffix of %v", c.Shape(), a.Shape()))
	}
	result := b.wrap(b.inner.AddSuffix(a.Data(), c.Data()), a.Shape())
	b.tape.Record(ops.NewAddSuffixOp(a, c, result))
	return result
}

// Scale returns x * s.
func (b *Backend) Scale(x *tensor.Tensor, s float32) *tensor.Tensor {
	result := b.wrap(b.inner.Scale(x.Data(), s), x.Shape())
	b.tape.Record(ops.NewScaleOp(x, result, s))
	return result
}

// Linear returns x @ W^T + bias over the last axis of x.
//
// x is [..., in], weight is [out, in], bias is [out] or nil.
// The result is [..., out].
func (b *Backend) Linear(x, weight, bias *tensor.Tensor) *tensor.Tensor {
	rows, in := x.Shape().Rows()
	if len(weight.Shape()) != 2 || weight.Dim(1) != in {
		panic(fmt.Sprintf("linear: input %v incompatible with weight %v", x.Shape(), weight.Shape()))
	}
	out := weight.Dim(0)
	if bias != nil && (len(bias.Shape()) != 1 || bias.Dim(0) != out) {
		panic(fmt.Sprintf("linear: bias %v does not match %d outputs", bias.Shape(), out))
	}

	data := make([]float32, rows*out)
	b.inner.Gemm(false, true, rows, out, in, x.Data(), weight.Data(), 0, data)
	if bias != nil {
		data = b.inner.AddSuffix(data, bias.Data())
	}

	result := b.wrap(data, x.Shape().WithLast(out))
	b.tape.Record(ops.NewLinearOp(x, weight, bias, result))
	return result
}

// BatchMatMul returns a @ c (or a @ c^T when transB) for each matrix of the
// leading batch axes.
func (b *Backend) BatchMatMul(a, c *tensor.Tensor, transB bool) *tensor.Tensor {
	as, cs := a.Shape(), c.Shape()
	if len(as) != len(cs) || !tensor.Shape(as[:len(as)-2]).Equal(cs[:len(cs)-2]) {
		panic(fmt.Sprintf("batch matmul: batch axes differ %v vs %v", as, cs))
	}
	batch, m, k := as.Matrices()
	_, cRows, cCols := cs.Matrices()
	n := cCols
	kc := cRows
	if transB {
		n, kc = cRows, cCols
	}
	if k != kc {
		panic(fmt.Sprintf("batch matmul: inner dims differ %v @ %v (transB=%v)", as, cs, transB))
	}

	data := make([]float32, batch*m*n)
	b.inner.BatchGemm(batch, false, transB, m, n, k, a.Data(), c.Data(), 0, data)

	outShape := as.Clone()
	outShape[len(outShape)-1] = n
	result := b.wrap(data, outShape)
	b.tape.Record(ops.NewBatchMatMulOp(a, c, result, transB))
	return result
}

// CausalSoftmax masks positions above the diagonal of every [T, T] matrix
// with -Inf and normalizes each row.
func (b *Backend) CausalSoftmax(scores *tensor.Tensor) *tensor.Tensor {
	_, t, cols := scores.Shape().Matrices()
	if t != cols {
		panic(fmt.Sprintf("causal softmax: expected square score matrices, got %v", scores.Shape()))
	}
	masked := make([]float32, scores.NumElements())
	copy(masked, scores.Data())
	ops.CausalMask(masked, t)

	result := b.wrap(b.inner.SoftmaxRows(masked, cols), scores.Shape())
	b.tape.Record(ops.NewCausalSoftmaxOp(scores, result))
	return result
}

// ReLU returns max(x, 0).
func (b *Backend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	result := b.wrap(b.inner.ReLU(x.Data()), x.Shape())
	b.tape.Record(ops.NewReLUOp(x, result))
	return result
}

// Dropout zeroes each element with probability p and rescales survivors by
// 1/(1-p). Outside training mode, or with p == 0, it returns x unchanged.
func (b *Backend) Dropout(x *tensor.Tensor, p float32) *tensor.Tensor {
	if !b.training || p <= 0 {
		return x
	}
	if p >= 1 {
		panic(fmt.Sprintf("dropout: probability must be in [0, 1), got %v", p))
	}
	keep := 1 / (1 - p)
	mask := make([]float32, x.NumElements())
	for i := range mask {
		if b.rng.Float32() >= p {
			mask[i] = keep
		}
	}
	result := b.wrap(b.inner.Mul(x.Data(), mask), x.Shape())
	b.tape.Record(ops.NewDropoutOp(x, result, mask))
	return result
}

// Embedding gathers rows of weight [num, dim] for ids laid out as lead.
// The result has shape lead + [dim].
func (b *Backend) Embedding(weight *tensor.Tensor, ids []int32, lead tensor.Shape) *tensor.Tensor {
	if lead.NumElements() != len(ids) {
		panic(fmt.Sprintf("embedding: %d ids do not fill shape %v", len(ids), lead))
	}
	num, dim := weight.Dim(0), weight.Dim(1)
	w := weight.Data()
	data := make([]float32, len(ids)*dim)
	for i, id := range ids {
		if id < 0 || int(id) >= num {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", id, num))
		}
		copy(data[i*dim:(i+1)*dim], w[int(id)*dim:(int(id)+1)*dim])
	}

	outShape := append(lead.Clone(), dim)
	result := b.wrap(data, outShape)
	b.tape.Record(ops.NewEmbeddingOp(weight, ids, result))
	return result
}

// LayerNorm normalizes x over its last axis and applies gamma and beta.
func (b *Backend) LayerNorm(x, gamma, beta *tensor.Tensor, eps float32) *tensor.Tensor {
	rows, n := x.Shape().Rows()
	if gamma.NumElements() != n || beta.NumElements() != n {
		panic(fmt.Sprintf("layernorm: gamma/beta %v/%v do not match features %d",
			gamma.Shape(), beta.Shape(), n))
	}
	src := x.Data()
	gm, bt := gamma.Data(), beta.Data()
	out := make([]float32, len(src))
	xHat := make([]float32, len(src))
	rstd := make([]float32, rows)

	for r := 0; r < rows; r++ {
		row := src[r*n : (r+1)*n]
		var mean float64
		for _, v := range row {
			mean += float64(v)
		}
		mean /= float64(n)
		var variance float64
		for _, v := range row {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(n)
		rs := float32(1 / math.Sqrt(variance+float64(eps)))
		rstd[r] = rs
		for j, v := range row {
			xh := (v - float32(mean)) * rs
			xHat[r*n+j] = xh
			out[r*n+j] = xh*gm[j] + bt[j]
		}
	}

	result := b.wrap(out, x.Shape())
	b.tape.Record(ops.NewLayerNormOp(x, gamma, beta, result, xHat, rstd))
	return result
}

// Cat concatenates xs along the last axis. Leading dimensions must match.
func (b *Backend) Cat(xs ...*tensor.Tensor) *tensor.Tensor {
	if len(xs) == 0 {
		panic("cat: no inputs")
	}
	lead := xs[0].Shape()
	rows, _ := lead.Rows()
	total := 0
	for _, x := range xs {
		s := x.Shape()
		if len(s) != len(lead) || !tensor.Shape(s[:len(s)-1]).Equal(lead[:len(lead)-1]) {
			panic(fmt.Sprintf("cat: leading dims differ %v vs %v", s, lead))
		}
		total += s.Last()
	}

	data := make([]float32, rows*total)
	offset := 0
	for _, x := range xs {
		w := x.Dim(-1)
		src := x.Data()
		for r := 0; r < rows; r++ {
			copy(data[r*total+offset:r*total+offset+w], src[r*w:(r+1)*w])
		}
		offset += w
	}

	result := b.wrap(data, lead.WithLast(total))
	b.tape.Record(ops.NewCatOp(xs, result))
	return result
}

// CrossEntropy returns the mean cross-entropy of logits [..., classes]
// against one target id per row, as a [1] tensor.
func (b *Backend) CrossEntropy(logits *tensor.Tensor, targets []int32) *tensor.Tensor {
	rows, classes := logits.Shape().Rows()
	if len(targets) != rows {
		panic(fmt.Sprintf("cross entropy: %d targets for %d rows", len(targets), rows))
	}
	data := logits.Data()
	var total float64
	for r, target := range targets {
		if target < 0 || int(target) >= classes {
			panic(fmt.Sprintf("cross entropy: target %d out of range [0, %d)", target, classes))
		}
		row := data[r*classes : (r+1)*classes]
		total += b.inner.LogSumExp(row) - float64(row[target])
	}
	probs := b.inner.SoftmaxRows(data, classes)

	result := b.wrap([]float32{float32(total / float64(rows))}, tensor.Shape{1})
	b.tape.Record(ops.NewCrossEntropyOp(logits, targets, probs, result))
	return result
}

func (b *Backend) wrap(data []float32, shape tensor.Shape) *tensor.Tensor {
	t, err := tensor.FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}
