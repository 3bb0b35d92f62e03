package model

import "fmt"

// ChannelMatrix holds complex gains between every transmit antenna and every
// user terminal, shaped nUsers × nAntennas. Row u is user u's channel.
type ChannelMatrix struct {
	CMatrix
}

// NewChannelMatrix builds an nUsers × nAntennas channel from row-major data.
func NewChannelMatrix(users, antennas int, data []complex128) (*ChannelMatrix, error) {
	m, err := NewCMatrix(users, antennas, data)
	if err != nil {
		return nil, fmt.Errorf("channel matrix: %w", err)
	}
	return &ChannelMatrix{CMatrix: m}, nil
}

// NewChannelMatrixFromRows builds a channel with one row per user.
func NewChannelMatrixFromRows(rows [][]complex128) (*ChannelMatrix, error) {
	m, err := NewCMatrixFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("channel matrix: %w", err)
	}
	return &ChannelMatrix{CMatrix: m}, nil
}

// Users returns the number of user rows.
func (h *ChannelMatrix) Users() int {
	r, _ := h.Dims()
	return r
}

// Antennas returns the number of antenna columns.
func (h *ChannelMatrix) Antennas() int {
	_, c := h.Dims()
	return c
}

// UserChannel returns a copy of user u's channel row.
func (h *ChannelMatrix) UserChannel(u int) []complex128 { return h.Row(u) }

// WeightMatrix holds one unit-norm transmit weight column per user, shaped
// nAntennas × nUsers.
type WeightMatrix struct {
	CMatrix
}

// NewWeightMatrix builds an nAntennas × nUsers weight matrix from row-major data.
func NewWeightMatrix(antennas, users int, data []complex128) (*WeightMatrix, error) {
	m, err := NewCMatrix(antennas, users, data)
	if err != nil {
		return nil, fmt.Errorf("weight matrix: %w", err)
	}
	return &WeightMatrix{CMatrix: m}, nil
}

// NewWeightMatrixFromColumns assembles a weight matrix from per-user columns.
func NewWeightMatrixFromColumns(columns [][]complex128) (*WeightMatrix, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("weight matrix: %w: no columns", ErrDimensionMismatch)
	}
	antennas := len(columns[0])
	users := len(columns)
	data := make([]complex128, antennas*users)
	for u, col := range columns {
		if len(col) != antennas {
			return nil, fmt.Errorf("weight matrix: %w: column %d has %d rows, want %d", ErrDimensionMismatch, u, len(col), antennas)
		}
		for a, v := range col {
			data[a*users+u] = v
		}
	}
	return NewWeightMatrix(antennas, users, data)
}

// Antennas returns the number of antenna rows.
func (w *WeightMatrix) Antennas() int {
	r, _ := w.Dims()
	return r
}

// Users returns the number of user columns.
func (w *WeightMatrix) Users() int {
	_, c := w.Dims()
	return c
}

// UserWeights returns a copy of user u's weight column.
func (w *WeightMatrix) UserWeights(u int) []complex128 { return w.Col(u) }
