package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AllocationTensor restricts which transmit antennas may serve each user. It
// has shape nAntennas × nAntennas × nUsers; slice u is the mask D_u applied
// to user u's effective channel.
type AllocationTensor struct {
	antennas int
	slices   []*mat.Dense
}

// IdentityAllocation grants every user access to every antenna.
func IdentityAllocation(antennas, users int) (*AllocationTensor, error) {
	if antennas <= 0 || users <= 0 {
		return nil, fmt.Errorf("%w: identity allocation needs positive antennas (%d) and users (%d)", ErrInvalidConfiguration, antennas, users)
	}
	slices := make([]*mat.Dense, users)
	for u := range slices {
		d := mat.NewDense(antennas, antennas, nil)
		for i := 0; i < antennas; i++ {
			d.Set(i, i, 1)
		}
		slices[u] = d
	}
	return &AllocationTensor{antennas: antennas, slices: slices}, nil
}

// NewAllocationTensor builds a tensor from per-user square masks indexed as
// slices[u][row][col]. Every slice must have the same size.
func NewAllocationTensor(slices [][][]float64) (*AllocationTensor, error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: allocation tensor has no user slices", ErrDimensionMismatch)
	}
	antennas := len(slices[0])
	if antennas == 0 {
		return nil, fmt.Errorf("%w: allocation slice 0 is empty", ErrDimensionMismatch)
	}
	out := make([]*mat.Dense, len(slices))
	for u, rows := range slices {
		if len(rows) != antennas {
			return nil, fmt.Errorf("%w: allocation slice %d has %d rows, want %d", ErrDimensionMismatch, u, len(rows), antennas)
		}
		data := make([]float64, 0, antennas*antennas)
		for i, row := range rows {
			if len(row) != antennas {
				return nil, fmt.Errorf("%w: allocation slice %d row %d has %d columns, want %d (slices must be square)", ErrDimensionMismatch, u, i, len(row), antennas)
			}
			for j, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("%w: allocation slice %d entry (%d,%d) is not finite", ErrInvalidConfiguration, u, i, j)
				}
			}
			data = append(data, row...)
		}
		out[u] = mat.NewDense(antennas, antennas, data)
	}
	return &AllocationTensor{antennas: antennas, slices: out}, nil
}

// SubsetAllocation builds diagonal 0/1 selection masks: user u may use only
// the antenna indices listed in subsets[u].
func SubsetAllocation(antennas int, subsets [][]int) (*AllocationTensor, error) {
	if antennas <= 0 {
		return nil, fmt.Errorf("%w: subset allocation needs positive antennas, got %d", ErrInvalidConfiguration, antennas)
	}
	if len(subsets) == 0 {
		return nil, fmt.Errorf("%w: subset allocation has no users", ErrDimensionMismatch)
	}
	slices := make([]*mat.Dense, len(subsets))
	for u, subset := range subsets {
		d := mat.NewDense(antennas, antennas, nil)
		for _, a := range subset {
			if a < 0 || a >= antennas {
				return nil, fmt.Errorf("%w: user %d antenna index %d outside [0,%d)", ErrDimensionMismatch, u, a, antennas)
			}
			d.Set(a, a, 1)
		}
		slices[u] = d
	}
	return &AllocationTensor{antennas: antennas, slices: slices}, nil
}

// Antennas returns the side length of every slice.
func (d *AllocationTensor) Antennas() int { return d.antennas }

// Users returns the number of per-user slices.
func (d *AllocationTensor) Users() int { return len(d.slices) }

// At returns D_u[i][j].
func (d *AllocationTensor) At(u, i, j int) float64 { return d.slices[u].At(i, j) }

// Slice returns a copy of user u's mask.
func (d *AllocationTensor) Slice(u int) *mat.Dense { return mat.DenseCopyOf(d.slices[u]) }

// CheckShape verifies the tensor matches the given antenna and user counts.
func (d *AllocationTensor) CheckShape(antennas, users int) error {
	if d.antennas != antennas || len(d.slices) != users {
		return fmt.Errorf("%w: allocation tensor is %dx%dx%d, want %dx%dx%d",
			ErrDimensionMismatch, d.antennas, d.antennas, len(d.slices), antennas, antennas, users)
	}
	return nil
}

// IsIdentity reports whether every slice is the identity matrix.
func (d *AllocationTensor) IsIdentity() bool {
	for _, s := range d.slices {
		for i := 0; i < d.antennas; i++ {
			for j := 0; j < d.antennas; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				if s.At(i, j) != want {
					return false
				}
			}
		}
	}
	return true
}

// IsSelection reports whether every slice is a diagonal 0/1 mask. Zero-forcing
// stays exact under selection masks as long as each user keeps enough antennas.
func (d *AllocationTensor) IsSelection() bool {
	for _, s := range d.slices {
		for i := 0; i < d.antennas; i++ {
			for j := 0; j < d.antennas; j++ {
				v := s.At(i, j)
				if i != j && v != 0 {
					return false
				}
				if i == j && v != 0 && v != 1 {
					return false
				}
			}
		}
	}
	return true
}

// ActiveAntennas returns how many diagonal entries of slice u are non-zero.
func (d *AllocationTensor) ActiveAntennas(u int) int {
	n := 0
	for i := 0; i < d.antennas; i++ {
		if d.slices[u].At(i, i) != 0 {
			n++
		}
	}
	return n
}
