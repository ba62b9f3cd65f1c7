package cpu

import (
	"fmt"
	"math"
)

// Add returns a + b element-wise. Both slices must have the same length.
func (cpu *CPUBackend) Add(a, b []float32) []float32 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("add: length mismatch %d vs %d", len(a), len(b)))
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// AddInto accumulates src into dst in place.
func (cpu *CPUBackend) AddInto(dst, src []float32) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("add into: length mismatch %d vs %d", len(dst), len(src)))
	}
	for i := range src {
		dst[i] += src[i]
	}
}

// AddSuffix returns a + b where b repeats over the leading elements of a.
//
// len(a) must be a multiple of len(b): this is the broadcast of a trailing
// [seq, embd] table over a [batch, seq, embd] activation, or of a bias over rows.
func (cpu *CPUBackend) AddSuffix(a, b []float32) []float32 {
	n := len(b)
	if n == 0 || len(a)%n != 0 {
		panic(fmt.Sprintf("add suffix: %d elements do not tile by %d", len(a), n))
	}
	out := make([]float32, len(a))
	for off := 0; off < len(a); off += n {
		dst, src := out[off:off+n], a[off:off+n]
		for j := range b {
			dst[j] = src[j] + b[j]
		}
	}
	return out
}

// SumToSuffix reduces g over its leading elements into a slice of length n.
//
// It is the adjoint of AddSuffix.
func (cpu *CPUBackend) SumToSuffix(g []float32, n int) []float32 {
	if n == 0 || len(g)%n != 0 {
		panic(fmt.Sprintf("sum to suffix: %d elements do not tile by %d", len(g), n))
	}
	out := make([]float32, n)
	for off := 0; off < len(g); off += n {
		for j, v := range g[off : off+n] {
			out[j] += v
		}
	}
	return out
}

// Scale returns a * s.
func (cpu *CPUBackend) Scale(a []float32, s float32) []float32 {
	out := make([]float32, len(a))
	for i, v := range a {
		out[i] = v * s
	}
	return out
}

// Mul returns a * b element-wise.
func (cpu *CPUBackend) Mul(a, b []float32) []float32 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("mul: length mismatch %d vs %d", len(a), len(b)))
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// ReLU returns max(x, 0) element-wise.
func (cpu *CPUBackend) ReLU(x []float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		if v > 0 {
			out[i] = v
		}
	}
	return out
}

// SoftmaxRows normalizes each row of a [rows, cols] view into a distribution.
//
// The row max is subtracted before exponentiation. Entries equal to -Inf get
// exactly zero weight; a row must contain at least one finite entry.
func (cpu *CPUBackend) SoftmaxRows(x []float32, cols int) []float32 {
	if cols == 0 || len(x)%cols != 0 {
		panic(fmt.Sprintf("softmax: %d elements do not tile rows of %d", len(x), cols))
	}
	out := make([]float32, len(x))
	for off := 0; off < len(x); off += cols {
		softmaxRow(out[off:off+cols], x[off:off+cols])
	}
	return out
}

// LogSumExp returns log(Σ exp(row)) computed around the row max.
func (cpu *CPUBackend) LogSumExp(row []float32) float64 {
	maxVal := rowMax(row)
	if math.IsInf(float64(maxVal), -1) {
		return math.Inf(-1)
	}
	sum := 0.0
	for _, v := range row {
		sum += math.Exp(float64(v - maxVal))
	}
	return float64(maxVal) + math.Log(sum)
}

func softmaxRow(dst, src []float32) {
	maxVal := rowMax(src)
	sum := float32(0)
	for j, v := range src {
		e := float32(math.Exp(float64(v - maxVal)))
		dst[j] = e
		sum += e
	}
	inv := 1 / sum
	for j := range dst {
		dst[j] *= inv
	}
}

func rowMax(row []float32) float32 {
	maxVal := float32(math.Inf(-1))
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func scale(dst []float32, s float32) {
	if s == 0 {
		clear(dst)
		return
	}
	for i := range dst {
		dst[i] *= s
	}
}
