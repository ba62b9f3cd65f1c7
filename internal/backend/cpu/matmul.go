package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/gptlab/internal/parallel"
)

// Gemm computes c = op(a) @ op(b) + beta*c for row-major float32 matrices.
//
// op(a) is [m, k] and op(b) is [k, n]. When transA is set, a is stored as
// [k, m]; when transB is set, b is stored as [n, k]. beta is 0 to overwrite c
// or 1 to accumulate into it.
func (cpu *CPUBackend) Gemm(transA, transB bool, m, n, k int, a, b []float32, beta float32, c []float32) {
	if m == 0 || n == 0 {
		return
	}
	if len(c) < m*n {
		panic(fmt.Sprintf("gemm: output length %d < %dx%d", len(c), m, n))
	}
	if k == 0 {
		scale(c[:m*n], beta)
		return
	}

	ga := general(a, m, k, transA)
	gb := general(b, k, n, transB)
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c[:m*n]}

	blas32.Gemm(transpose(transA), transpose(transB), 1, ga, gb, beta, gc)
}

// BatchGemm runs Gemm over batch independent matrix triples laid out
// contiguously in a, b and c.
func (cpu *CPUBackend) BatchGemm(batch int, transA, transB bool, m, n, k int, a, b []float32, beta float32, c []float32) {
	aStride, bStride, cStride := m*k, k*n, m*n
	if len(a) < batch*aStride || len(b) < batch*bStride || len(c) < batch*cStride {
		panic(fmt.Sprintf("batch gemm: buffers too small for %d x [%d,%d]@[%d,%d]", batch, m, k, k, n))
	}
	parallel.For(batch, func(i int) {
		cpu.Gemm(transA, transB, m, n, k,
			a[i*aStride:(i+1)*aStride],
			b[i*bStride:(i+1)*bStride],
			beta,
			c[i*cStride:(i+1)*cStride])
	}, cpu.par)
}

// general describes a logical [rows, cols] operand, stored transposed when trans is set.
func general(data []float32, rows, cols int, trans bool) blas32.General {
	if trans {
		rows, cols = cols, rows
	}
	if len(data) < rows*cols {
		panic(fmt.Sprintf("gemm: operand length %d < %dx%d", len(data), rows, cols))
	}
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data[:rows*cols]}
}

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}
