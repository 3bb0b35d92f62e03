package model

import (
	"errors"
	"testing"
)

func TestIdentityAllocation(t *testing.T) {
	d, err := IdentityAllocation(3, 2)
	if err != nil {
		t.Fatalf("IdentityAllocation: %v", err)
	}
	if !d.IsIdentity() || !d.IsSelection() {
		t.Fatalf("identity tensor not recognised")
	}
	if d.ActiveAntennas(1) != 3 {
		t.Fatalf("ActiveAntennas = %d", d.ActiveAntennas(1))
	}
	if err := d.CheckShape(3, 2); err != nil {
		t.Fatalf("CheckShape: %v", err)
	}
	if err := d.CheckShape(3, 3); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("CheckShape(3,3) err = %v", err)
	}
}

func TestAllocationSliceIsACopy(t *testing.T) {
	d, err := IdentityAllocation(2, 1)
	if err != nil {
		t.Fatalf("IdentityAllocation: %v", err)
	}
	s := d.Slice(0)
	s.Set(0, 0, 5)
	if d.At(0, 0, 0) != 1 {
		t.Fatalf("Slice shares storage with the tensor")
	}
}

func TestSubsetAllocation(t *testing.T) {
	d, err := SubsetAllocation(4, [][]int{{0, 2}, {1, 2, 3}})
	if err != nil {
		t.Fatalf("SubsetAllocation: %v", err)
	}
	if d.IsIdentity() || !d.IsSelection() {
		t.Fatalf("subset tensor misclassified")
	}
	if d.ActiveAntennas(0) != 2 || d.ActiveAntennas(1) != 3 {
		t.Fatalf("active antennas = %d, %d", d.ActiveAntennas(0), d.ActiveAntennas(1))
	}
	if d.At(0, 1, 1) != 0 || d.At(0, 2, 2) != 1 {
		t.Fatalf("unexpected mask entries")
	}
	if _, err := SubsetAllocation(4, [][]int{{4}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("out of range index err = %v", err)
	}
}

func TestNewAllocationTensor(t *testing.T) {
	d, err := NewAllocationTensor([][][]float64{
		{{1, 0.5}, {0.5, 1}},
		{{0, 0}, {0, 1}},
	})
	if err != nil {
		t.Fatalf("NewAllocationTensor: %v", err)
	}
	if d.IsSelection() {
		t.Fatalf("general mask reported as selection")
	}
	if d.Antennas() != 2 || d.Users() != 2 || d.At(0, 0, 1) != 0.5 {
		t.Fatalf("unexpected tensor contents")
	}

	if _, err := NewAllocationTensor([][][]float64{{{1, 0}, {0}}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("ragged slice err = %v", err)
	}
	if _, err := NewAllocationTensor([][][]float64{{{1}}, {{1, 0}, {0, 1}}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("mixed sizes err = %v", err)
	}
}
