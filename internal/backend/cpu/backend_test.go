package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptlab/internal/parallel"
)

// naiveMatMul computes [m,k] @ [k,n] with logical (untransposed) operands.
func naiveMatMul(a, b []float32, m, n, k int) []float32 {
	c := make([]float32, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var s float32
			for p := 0; p < k; p++ {
				s += a[i*k+p] * b[p*n+j]
			}
			c[i*n+j] = s
		}
	}
	return c
}

func transposeCopy(x []float32, rows, cols int) []float32 {
	out := make([]float32, len(x))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = x[i*cols+j]
		}
	}
	return out
}

func TestGemm_Transposes(t *testing.T) {
	cpu := New()
	m, n, k := 3, 4, 2
	a := []float32{1, 2, 3, 4, 5, 6}           // [3,2]
	b := []float32{1, 0, -1, 2, 3, 1, 0.5, -2} // [2,4]
	want := naiveMatMul(a, b, m, n, k)

	cases := []struct {
		name           string
		transA, transB bool
		a, b           []float32
	}{
		{"NN", false, false, a, b},
		{"TN", true, false, transposeCopy(a, m, k), b},
		{"NT", false, true, a, transposeCopy(b, k, n)},
		{"TT", true, true, transposeCopy(a, m, k), transposeCopy(b, k, n)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := make([]float32, m*n)
			cpu.Gemm(tc.transA, tc.transB, m, n, k, tc.a, tc.b, 0, c)
			assert.InDeltaSlice(t, want, c, 1e-5)
		})
	}
}

func TestGemm_Accumulates(t *testing.T) {
	cpu := New()
	a := []float32{1, 2}
	b := []float32{3, 4}
	c := []float32{10}
	cpu.Gemm(false, false, 1, 1, 2, a, b, 1, c)
	assert.InDelta(t, 21.0, c[0], 1e-6)
}

func TestBatchGemm_MatchesPerMatrix(t *testing.T) {
	for _, cfg := range []parallel.Config{parallel.Sequential(), {Enabled: true, NumWorkers: 4, MinChunkSize: 1}} {
		cpu := NewWithConfig(cfg)
		batch, m, n, k := 5, 2, 3, 4
		a := make([]float32, batch*m*k)
		b := make([]float32, batch*k*n)
		for i := range a {
			a[i] = float32(i%7) - 3
		}
		for i := range b {
			b[i] = float32(i%5) * 0.5
		}
		c := make([]float32, batch*m*n)
		cpu.BatchGemm(batch, false, false, m, n, k, a, b, 0, c)

		for i := 0; i < batch; i++ {
			want := naiveMatMul(a[i*m*k:(i+1)*m*k], b[i*k*n:(i+1)*k*n], m, n, k)
			assert.InDeltaSlice(t, want, c[i*m*n:(i+1)*m*n], 1e-5)
		}
	}
}

func TestSoftmaxRows_StableAndMasked(t *testing.T) {
	cpu := New()
	negInf := float32(math.Inf(-1))
	x := []float32{
		1000, 1001, 1002,
		0, negInf, negInf,
		-5, 0, negInf,
	}
	out := cpu.SoftmaxRows(x, 3)

	for r := 0; r < 3; r++ {
		var sum float32
		for _, v := range out[r*3 : r*3+3] {
			require.False(t, math.IsNaN(float64(v)))
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}
	assert.Equal(t, float32(1), out[3])
	assert.Equal(t, float32(0), out[4])
	assert.Equal(t, float32(0), out[8])
}

func TestLogSumExp(t *testing.T) {
	cpu := New()
	got := cpu.LogSumExp([]float32{1, 2, 3})
	want := math.Log(math.Exp(1) + math.Exp(2) + math.Exp(3))
	assert.InDelta(t, want, got, 1e-6)

	assert.InDelta(t, 1000+math.Log(2), cpu.LogSumExp([]float32{1000, 1000}), 1e-4)
}

func TestSuffixBroadcastRoundTrip(t *testing.T) {
	cpu := New()
	a := []float32{1, 2, 3, 4, 5, 6}
	b := []float32{10, 20}

	assert.Equal(t, []float32{11, 22, 13, 24, 15, 26}, cpu.AddSuffix(a, b))
	assert.Equal(t, []float32{9, 12}, cpu.SumToSuffix(a, 2))
}

func TestReLU(t *testing.T) {
	cpu := New()
	assert.Equal(t, []float32{0, 0, 2.5}, cpu.ReLU([]float32{-1, 0, 2.5}))
}
