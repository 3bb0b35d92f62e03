package core

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

// DefaultConditionLimit bounds the 2-norm condition number accepted for the
// zero-forcing Gram matrix E_u^H·E_u. The Gram condition number is the square
// of the effective channel's, so this admits channels conditioned up to 1e5.
const DefaultConditionLimit = 1e10

// PrecodingOption customises weight computation.
type PrecodingOption func(*precodingOptions)

type precodingOptions struct {
	conditionLimit float64
}

// WithConditionLimit overrides DefaultConditionLimit. Non-positive values are
// ignored.
func WithConditionLimit(limit float64) PrecodingOption {
	return func(o *precodingOptions) {
		if limit > 0 {
			o.conditionLimit = limit
		}
	}
}

// Report carries diagnostics gathered while computing weights.
type Report struct {
	Method model.Method
	// EffectiveNorms holds, per user, the L2 norm of the weight column before
	// normalisation: ||D_u^T h_u|| for MRT, ||C_u[:,u]|| for ZF.
	EffectiveNorms []float64
	// Conditions holds, per user, the condition number of E_u^H·E_u. It is
	// nil for MRT.
	Conditions []float64
}

// MaxCondition returns the worst Gram condition number, or 0 for MRT.
func (r Report) MaxCondition() float64 {
	worst := 0.0
	for _, c := range r.Conditions {
		worst = math.Max(worst, c)
	}
	return worst
}

// ComputeWeights turns a channel matrix into a unit-column-norm weight matrix
// using the selected method. H and D are never modified.
func ComputeWeights(h *model.ChannelMatrix, d *model.AllocationTensor, method model.Method, opts ...PrecodingOption) (*model.WeightMatrix, error) {
	w, _, err := ComputeWeightsReport(h, d, method, opts...)
	return w, err
}

// ComputeWeightsReport is ComputeWeights plus per-user diagnostics.
func ComputeWeightsReport(h *model.ChannelMatrix, d *model.AllocationTensor, method model.Method, opts ...PrecodingOption) (*model.WeightMatrix, Report, error) {
	o := precodingOptions{conditionLimit: DefaultConditionLimit}
	for _, opt := range opts {
		opt(&o)
	}

	report := Report{Method: method}
	if !method.Valid() {
		return nil, report, fmt.Errorf("%w: unsupported beamformer method %q (want MRT or ZF)", ErrInvalidConfiguration, string(method))
	}
	if h == nil || h.IsEmpty() {
		return nil, report, fmt.Errorf("%w: %s precoding requires a channel matrix", ErrInvalidConfiguration, method)
	}
	if d == nil {
		return nil, report, fmt.Errorf("%w: %s precoding requires an allocation tensor", ErrInvalidConfiguration, method)
	}
	if err := d.CheckShape(h.Antennas(), h.Users()); err != nil {
		return nil, report, fmt.Errorf("%s precoding with H %dx%d: %w", method, h.Users(), h.Antennas(), err)
	}

	var (
		columns [][]complex128
		err     error
	)
	switch method {
	case model.MethodMRT:
		columns, err = mrtColumns(h, d, &report)
	case model.MethodZF:
		columns, err = zfColumns(h, d, o.conditionLimit, &report)
	}
	if err != nil {
		return nil, report, err
	}

	w, err := model.NewWeightMatrixFromColumns(columns)
	if err != nil {
		return nil, report, fmt.Errorf("%s precoding: %w", method, err)
	}
	return w, report, nil
}

// mrtColumns computes w_u = conj(D_u^T h_u) / ||D_u^T h_u|| for every user
// independently.
func mrtColumns(h *model.ChannelMatrix, d *model.AllocationTensor, report *Report) ([][]complex128, error) {
	users, antennas := h.Users(), h.Antennas()
	columns := make([][]complex128, users)
	report.EffectiveNorms = make([]float64, users)

	for u := 0; u < users; u++ {
		hu := h.UserChannel(u)
		v := make([]complex128, antennas)
		for i := 0; i < antennas; i++ {
			var acc complex128
			for k := 0; k < antennas; k++ {
				if m := d.At(u, k, i); m != 0 {
					acc += complex(m, 0) * hu[k]
				}
			}
			v[i] = cmplx.Conj(acc)
		}

		norm := cmplxs.Norm(v, 2)
		report.EffectiveNorms[u] = norm
		if err := checkColumnNorm(model.MethodMRT, u, norm, users, antennas); err != nil {
			return nil, err
		}
		cmplxs.ScaleReal(1/norm, v)
		columns[u] = v
	}
	return columns, nil
}

// zfColumns computes, per user, the right pseudo-inverse
// C_u = E_u·(E_u^H·E_u)^-1 with E_u = (H·D_u)^H and keeps column u.
func zfColumns(h *model.ChannelMatrix, d *model.AllocationTensor, limit float64, report *Report) ([][]complex128, error) {
	users, antennas := h.Users(), h.Antennas()
	rows := make([][]complex128, users)
	for i := range rows {
		rows[i] = h.UserChannel(i)
	}

	columns := make([][]complex128, users)
	report.EffectiveNorms = make([]float64, users)
	report.Conditions = make([]float64, users)

	for u := 0; u < users; u++ {
		a := maskedChannel(rows, d.Slice(u))
		// The condition number and the normalised column are scale free, so
		// work on A/max|A| to keep the Gram clear of underflow and overflow.
		scale := maxAbs(a)
		if scale > 0 && !math.IsInf(scale, 0) {
			cmplxs.ScaleReal(1/scale, a)
		}
		g := gram(a, users, antennas)

		inv, cond, ok := invertHermitian(g, users, limit)
		report.Conditions[u] = cond
		if !ok {
			return nil, &ConditionError{
				Method:    model.MethodZF,
				User:      u,
				Users:     users,
				Antennas:  antennas,
				Condition: cond,
				Limit:     limit,
			}
		}

		// Column u of E_u·G^-1: c[k] = sum_i conj(A[i][k]) · G^-1[i][u].
		c := make([]complex128, antennas)
		for k := 0; k < antennas; k++ {
			var acc complex128
			for i := 0; i < users; i++ {
				acc += cmplx.Conj(a[i*antennas+k]) * inv[i*users+u]
			}
			c[k] = acc
		}

		norm := cmplxs.Norm(c, 2)
		report.EffectiveNorms[u] = norm
		if scale > 0 && !math.IsInf(scale, 0) {
			report.EffectiveNorms[u] = norm / scale
		}
		if err := checkColumnNorm(model.MethodZF, u, norm, users, antennas); err != nil {
			return nil, err
		}
		cmplxs.ScaleReal(1/norm, c)
		if cmplxs.HasNaN(c) {
			return nil, fmt.Errorf("%w: ZF weight column for user %d is not finite (H is %dx%d)", ErrNumericalInstability, u, users, antennas)
		}
		columns[u] = c
	}
	return columns, nil
}

// maxAbs returns the largest entry magnitude of a.
func maxAbs(a []complex128) float64 {
	m := 0.0
	for _, v := range a {
		m = math.Max(m, cmplx.Abs(v))
	}
	return m
}

func checkColumnNorm(method model.Method, user int, norm float64, users, antennas int) error {
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return fmt.Errorf("%w: %s weight column for user %d has norm %g and cannot be normalised (H is %dx%d)",
			ErrNumericalInstability, method, user, norm, users, antennas)
	}
	return nil
}
