package core

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

const tol = 1e-9

// randomChannel draws i.i.d. complex Gaussian entries from a fixed seed.
func randomChannel(t *testing.T, seed int64, users, antennas int) *model.ChannelMatrix {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]complex128, users*antennas)
	for i := range data {
		data[i] = complex(rng.NormFloat64(), rng.NormFloat64()) / complex(math.Sqrt2, 0)
	}
	h, err := model.NewChannelMatrix(users, antennas, data)
	if err != nil {
		t.Fatalf("NewChannelMatrix: %v", err)
	}
	return h
}

func mustChannel(t *testing.T, rows [][]complex128) *model.ChannelMatrix {
	t.Helper()
	h, err := model.NewChannelMatrixFromRows(rows)
	if err != nil {
		t.Fatalf("NewChannelMatrixFromRows: %v", err)
	}
	return h
}

func identity(t *testing.T, antennas, users int) *model.AllocationTensor {
	t.Helper()
	d, err := model.IdentityAllocation(antennas, users)
	if err != nil {
		t.Fatalf("IdentityAllocation: %v", err)
	}
	return d
}

func columnNorm(col []complex128) float64 {
	var s float64
	for _, v := range col {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(s)
}

// received returns h_u · w_v (no conjugation), the complex gain user u sees
// from weight vector v.
func received(h *model.ChannelMatrix, w *model.WeightMatrix, u, v int) complex128 {
	var acc complex128
	for a := 0; a < h.Antennas(); a++ {
		acc += h.At(u, a) * w.At(a, v)
	}
	return acc
}

// parallel reports whether a = c·b for some complex scalar c.
func parallel(a, b []complex128) bool {
	var num complex128
	var nb float64
	for i := range a {
		num += cmplx.Conj(b[i]) * a[i]
		nb += real(b[i])*real(b[i]) + imag(b[i])*imag(b[i])
	}
	if nb == 0 {
		return columnNorm(a) == 0
	}
	c := num / complex(nb, 0)
	for i := range a {
		if cmplx.Abs(a[i]-c*b[i]) > 1e-9 {
			return false
		}
	}
	return true
}
