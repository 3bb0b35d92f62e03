package core

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// invertHermitian inverts the n×n complex matrix a (row-major) through its
// real 2n×2n embedding [[Re, -Im], [Im, Re]]. The embedding has the same
// singular values as a, each repeated twice, so its 2-norm condition number
// is the condition number of a. The inverse is returned only when that
// condition number is finite and no larger than limit.
func invertHermitian(a []complex128, n int, limit float64) (inv []complex128, cond float64, ok bool) {
	emb := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a[i*n+j]
			emb.Set(i, j, real(v))
			emb.Set(i, j+n, -imag(v))
			emb.Set(i+n, j, imag(v))
			emb.Set(i+n, j+n, real(v))
		}
	}

	cond = mat.Cond(emb, 2)
	if math.IsNaN(cond) || math.IsInf(cond, 0) || cond > limit {
		return nil, cond, false
	}

	var embInv mat.Dense
	if err := embInv.Inverse(emb); err != nil {
		if c, isCond := err.(mat.Condition); isCond {
			return nil, math.Max(cond, float64(c)), false
		}
		return nil, math.Inf(1), false
	}

	inv = make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			inv[i*n+j] = complex(embInv.At(i, j), embInv.At(i+n, j))
		}
	}
	return inv, cond, true
}

// maskedChannel returns A = H·D_u as a row-major users×antennas slice.
func maskedChannel(h [][]complex128, mask *mat.Dense) []complex128 {
	users := len(h)
	antennas, _ := mask.Dims()
	out := make([]complex128, users*antennas)
	for i := 0; i < users; i++ {
		for a := 0; a < antennas; a++ {
			var acc complex128
			for k := 0; k < antennas; k++ {
				if d := mask.At(k, a); d != 0 {
					acc += h[i][k] * complex(d, 0)
				}
			}
			out[i*antennas+a] = acc
		}
	}
	return out
}

// gram returns A·A^H for a row-major rows×cols matrix A.
func gram(a []complex128, rows, cols int) []complex128 {
	out := make([]complex128, rows*rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			var acc complex128
			for k := 0; k < cols; k++ {
				x := a[j*cols+k]
				acc += a[i*cols+k] * complex(real(x), -imag(x))
			}
			out[i*rows+j] = acc
		}
	}
	return out
}
