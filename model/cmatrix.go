package model

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// CMatrix is a read-only dense complex matrix. The zero value is an empty
// matrix. Constructors copy their input so callers cannot mutate it later.
type CMatrix struct {
	d *mat.CDense
}

// NewCMatrix builds a rows×cols matrix from row-major data.
func NewCMatrix(rows, cols int, data []complex128) (CMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return CMatrix{}, fmt.Errorf("%w: matrix shape %dx%d must be positive", ErrDimensionMismatch, rows, cols)
	}
	if len(data) != rows*cols {
		return CMatrix{}, fmt.Errorf("%w: %d values supplied for a %dx%d matrix", ErrDimensionMismatch, len(data), rows, cols)
	}
	buf := make([]complex128, len(data))
	copy(buf, data)
	return CMatrix{d: mat.NewCDense(rows, cols, buf)}, nil
}

// NewCMatrixFromRows builds a matrix from a slice of equally sized rows.
func NewCMatrixFromRows(rows [][]complex128) (CMatrix, error) {
	if len(rows) == 0 {
		return CMatrix{}, fmt.Errorf("%w: matrix has no rows", ErrDimensionMismatch)
	}
	cols := len(rows[0])
	data := make([]complex128, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return CMatrix{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return NewCMatrix(len(rows), cols, data)
}

// Dims returns the number of rows and columns.
func (m CMatrix) Dims() (rows, cols int) {
	if m.d == nil {
		return 0, 0
	}
	return m.d.Dims()
}

// IsEmpty reports whether the matrix holds no data.
func (m CMatrix) IsEmpty() bool { return m.d == nil }

// At returns the element at row i, column j.
func (m CMatrix) At(i, j int) complex128 { return m.d.At(i, j) }

// Row returns a copy of row i.
func (m CMatrix) Row(i int) []complex128 {
	_, c := m.Dims()
	out := make([]complex128, c)
	for j := range out {
		out[j] = m.d.At(i, j)
	}
	return out
}

// Col returns a copy of column j.
func (m CMatrix) Col(j int) []complex128 {
	r, _ := m.Dims()
	out := make([]complex128, r)
	for i := range out {
		out[i] = m.d.At(i, j)
	}
	return out
}

// Data returns a row-major copy of every element.
func (m CMatrix) Data() []complex128 {
	r, c := m.Dims()
	out := make([]complex128, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.d.At(i, j))
		}
	}
	return out
}

// IsFinite reports whether every element has finite real and imaginary parts.
func (m CMatrix) IsFinite() bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.d.At(i, j)
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return false
			}
		}
	}
	return true
}

// MeanSquaredMagnitude returns the average |x|^2 over all elements.
func (m CMatrix) MeanSquaredMagnitude() float64 {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.d.At(i, j)
			sum += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return sum / float64(r*c)
}

// EqualApprox reports whether two matrices share a shape and every element
// differs by at most tol in magnitude.
func (m CMatrix) EqualApprox(other CMatrix, tol float64) bool {
	r, c := m.Dims()
	or, oc := other.Dims()
	if r != or || c != oc {
		return false
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !(cmplx.Abs(m.d.At(i, j)-other.d.At(i, j)) <= tol) {
				return false
			}
		}
	}
	return true
}
