package model

import (
	"fmt"
	"strings"
)

// AllocationSpec is the file/wire form of an allocation tensor. At most one
// of Matrices (slices[u][row][col]) or Subsets (antenna indices per user) may
// be set; leaving both empty grants every user every antenna.
type AllocationSpec struct {
	Matrices [][][]float64 `yaml:"matrices,omitempty" json:"matrices,omitempty"`
	Subsets  [][]int       `yaml:"subsets,omitempty" json:"subsets,omitempty"`
}

// ScenarioSpec is the raw scenario configuration surface as read from files,
// flags, or RPC requests. Build validates it into an immutable ScenarioConfig.
type ScenarioSpec struct {
	Name               string          `yaml:"name,omitempty" json:"name,omitempty"`
	HorizontalElements int             `yaml:"horizontalElementsCount" json:"horizontalElementsCount"`
	VerticalElements   int             `yaml:"verticalElementsCount" json:"verticalElementsCount"`
	Users              int             `yaml:"nUsers" json:"nUsers"`
	Method             string          `yaml:"beamformerMethod" json:"beamformerMethod"`
	Allocation         *AllocationSpec `yaml:"allocationMatrix,omitempty" json:"allocationMatrix,omitempty"`
}

// Build validates the spec. The method is checked first so an unsupported
// method is rejected before anything else is looked at.
func (s ScenarioSpec) Build() (ScenarioConfig, error) {
	if strings.TrimSpace(s.Method) == "" {
		return ScenarioConfig{}, fmt.Errorf("%w: beamformerMethod is required", ErrInvalidConfiguration)
	}
	method, err := ParseMethod(s.Method)
	if err != nil {
		return ScenarioConfig{}, err
	}
	if err := checkCounts(s.HorizontalElements, s.VerticalElements, s.Users); err != nil {
		return ScenarioConfig{}, err
	}

	var alloc *AllocationTensor
	if s.Allocation != nil {
		antennas := s.HorizontalElements * s.VerticalElements
		switch {
		case len(s.Allocation.Matrices) > 0 && len(s.Allocation.Subsets) > 0:
			return ScenarioConfig{}, fmt.Errorf("%w: allocationMatrix sets both matrices and subsets", ErrInvalidConfiguration)
		case len(s.Allocation.Matrices) > 0:
			alloc, err = NewAllocationTensor(s.Allocation.Matrices)
		case len(s.Allocation.Subsets) > 0:
			alloc, err = SubsetAllocation(antennas, s.Allocation.Subsets)
		}
		if err != nil {
			return ScenarioConfig{}, err
		}
	}
	return NewScenarioConfig(s.Name, s.HorizontalElements, s.VerticalElements, s.Users, method, alloc)
}

// ScenarioConfig is an immutable, validated scenario configuration.
type ScenarioConfig struct {
	name       string
	horizontal int
	vertical   int
	users      int
	method     Method
	allocation *AllocationTensor
	explicit   bool
}

// NewScenarioConfig validates the inputs and derives the allocation tensor.
// A nil allocation defaults to the identity for every user.
func NewScenarioConfig(name string, horizontal, vertical, users int, method Method, allocation *AllocationTensor) (ScenarioConfig, error) {
	if !method.Valid() {
		return ScenarioConfig{}, fmt.Errorf("%w: unsupported beamformer method %q (want MRT or ZF)", ErrInvalidConfiguration, string(method))
	}
	if err := checkCounts(horizontal, vertical, users); err != nil {
		return ScenarioConfig{}, err
	}
	antennas := horizontal * vertical
	explicit := allocation != nil
	if allocation == nil {
		var err error
		allocation, err = IdentityAllocation(antennas, users)
		if err != nil {
			return ScenarioConfig{}, err
		}
	} else if err := allocation.CheckShape(antennas, users); err != nil {
		return ScenarioConfig{}, err
	}
	return ScenarioConfig{
		name:       name,
		horizontal: horizontal,
		vertical:   vertical,
		users:      users,
		method:     method,
		allocation: allocation,
		explicit:   explicit,
	}, nil
}

func checkCounts(horizontal, vertical, users int) error {
	if horizontal <= 0 {
		return fmt.Errorf("%w: horizontalElementsCount must be positive, got %d", ErrInvalidConfiguration, horizontal)
	}
	if vertical <= 0 {
		return fmt.Errorf("%w: verticalElementsCount must be positive, got %d", ErrInvalidConfiguration, vertical)
	}
	if users <= 0 {
		return fmt.Errorf("%w: nUsers must be positive, got %d", ErrInvalidConfiguration, users)
	}
	return nil
}

// Name is the optional scenario name.
func (c ScenarioConfig) Name() string { return c.name }

// HorizontalElements is the number of array columns.
func (c ScenarioConfig) HorizontalElements() int { return c.horizontal }

// VerticalElements is the number of array rows.
func (c ScenarioConfig) VerticalElements() int { return c.vertical }

// Antennas is HorizontalElements × VerticalElements.
func (c ScenarioConfig) Antennas() int { return c.horizontal * c.vertical }

// Users is the number of served terminals.
func (c ScenarioConfig) Users() int { return c.users }

// Method is the precoding strategy.
func (c ScenarioConfig) Method() Method { return c.method }

// Allocation is the per-user antenna mask; never nil for a built config.
func (c ScenarioConfig) Allocation() *AllocationTensor { return c.allocation }

// HasExplicitAllocation reports whether the allocation was supplied rather
// than defaulted to the identity.
func (c ScenarioConfig) HasExplicitAllocation() bool { return c.explicit }

// IsZero reports whether c is the zero value rather than a built config.
func (c ScenarioConfig) IsZero() bool { return c.users == 0 }

// Label is the presentation legend for this scenario: the method name.
func (c ScenarioConfig) Label() string { return string(c.method) }

// WithMethod returns a copy of c using a different precoding method.
func (c ScenarioConfig) WithMethod(m Method) (ScenarioConfig, error) {
	if !m.Valid() {
		return ScenarioConfig{}, fmt.Errorf("%w: unsupported beamformer method %q (want MRT or ZF)", ErrInvalidConfiguration, string(m))
	}
	out := c
	out.method = m
	return out, nil
}
