package model

import (
	"errors"
	"testing"
)

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"MRT": MethodMRT, "mrt": MethodMRT, " zf ": MethodZF, "ZF": MethodZF} {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Fatalf("ParseMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMethod("XYZ"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("ParseMethod(XYZ) err = %v", err)
	}
}

func TestScenarioSpecBuildDefaults(t *testing.T) {
	cfg, err := ScenarioSpec{Name: "lab", HorizontalElements: 4, VerticalElements: 2, Users: 3, Method: "zf"}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.Antennas() != 8 || cfg.Users() != 3 || cfg.Method() != MethodZF || cfg.Name() != "lab" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.HasExplicitAllocation() || !cfg.Allocation().IsIdentity() {
		t.Fatalf("default allocation should be identity")
	}
	if cfg.Allocation().Antennas() != 8 || cfg.Allocation().Users() != 3 {
		t.Fatalf("allocation is %dx%d", cfg.Allocation().Antennas(), cfg.Allocation().Users())
	}
}

func TestScenarioSpecBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		spec ScenarioSpec
		want error
	}{
		{"missing method", ScenarioSpec{HorizontalElements: 2, VerticalElements: 2, Users: 1}, ErrInvalidConfiguration},
		{"unknown method", ScenarioSpec{HorizontalElements: 2, VerticalElements: 2, Users: 1, Method: "XYZ"}, ErrInvalidConfiguration},
		{"unknown method wins over counts", ScenarioSpec{Method: "XYZ"}, ErrInvalidConfiguration},
		{"zero users", ScenarioSpec{HorizontalElements: 2, VerticalElements: 2, Method: "MRT"}, ErrInvalidConfiguration},
		{"negative elements", ScenarioSpec{HorizontalElements: -1, VerticalElements: 2, Users: 1, Method: "MRT"}, ErrInvalidConfiguration},
		{
			"allocation wrong users",
			ScenarioSpec{HorizontalElements: 2, VerticalElements: 1, Users: 2, Method: "ZF",
				Allocation: &AllocationSpec{Subsets: [][]int{{0, 1}}}},
			ErrDimensionMismatch,
		},
		{
			"allocation wrong antennas",
			ScenarioSpec{HorizontalElements: 2, VerticalElements: 1, Users: 1, Method: "ZF",
				Allocation: &AllocationSpec{Matrices: [][][]float64{{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}}},
			ErrDimensionMismatch,
		},
		{
			"both allocation forms",
			ScenarioSpec{HorizontalElements: 2, VerticalElements: 1, Users: 1, Method: "ZF",
				Allocation: &AllocationSpec{Matrices: [][][]float64{{{1, 0}, {0, 1}}}, Subsets: [][]int{{0}}}},
			ErrInvalidConfiguration,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.spec.Build(); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestScenarioConfigWithMethod(t *testing.T) {
	cfg, err := ScenarioSpec{HorizontalElements: 2, VerticalElements: 2, Users: 2, Method: "MRT",
		Allocation: &AllocationSpec{Subsets: [][]int{{0, 1, 2}, {1, 2, 3}}}}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	zf, err := cfg.WithMethod(MethodZF)
	if err != nil {
		t.Fatalf("WithMethod: %v", err)
	}
	if zf.Method() != MethodZF || cfg.Method() != MethodMRT {
		t.Fatalf("WithMethod mutated the original or failed: %s/%s", cfg.Method(), zf.Method())
	}
	if !zf.HasExplicitAllocation() || zf.Allocation().ActiveAntennas(0) != 3 {
		t.Fatalf("allocation not carried over")
	}
	if _, err := cfg.WithMethod("XYZ"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("WithMethod(XYZ) err = %v", err)
	}
}
